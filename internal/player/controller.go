package player

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotitui/internal/services"
	"github.com/desertthunder/spotitui/internal/shared"
)

// commandTimeout bounds each fire-and-forget remote call so an abandoned
// request cannot leak its goroutine forever.
const commandTimeout = 10 * time.Second

// CommandResult reports the outcome of one fire-and-forget command through
// the controller's passive status channel.
type CommandResult struct {
	Name string
	Err  error
}

// Controller is the playback command surface.
//
// Every operation dispatches the remote call on its own goroutine so the
// invoking UI action never blocks. There are no automatic retries and no
// rollback: a failed call is logged and reported on the status channel, and
// the UI keeps whatever optimistic state it had.
//
// Commands are not ordered relative to each other or to polls; two commands
// issued in quick succession may reach the service out of program order.
type Controller struct {
	client  services.Client
	logger  *log.Logger
	results chan CommandResult

	mu         sync.Mutex
	deviceID   string
	lastVolume int
	muted      bool
}

// NewController creates a Controller issuing commands through client.
func NewController(client services.Client, logger *log.Logger) *Controller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Controller{
		client:  client,
		logger:  logger,
		results: make(chan CommandResult, 16),
		// Seed for an unmute before any volume change has been seen.
		lastVolume: 50,
	}
}

// Results exposes the passive status channel. Consumers may ignore it;
// publishing never blocks.
func (c *Controller) Results() <-chan CommandResult {
	return c.results
}

// SetDevice pins the target device for subsequent commands. An empty id
// reverts to the service's currently active device.
func (c *Controller) SetDevice(deviceID string) {
	c.mu.Lock()
	c.deviceID = deviceID
	c.mu.Unlock()
}

// Device returns the pinned target device id, if any.
func (c *Controller) Device() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceID
}

// Play resumes playback, optionally of a context URI (playlist/album).
func (c *Controller) Play(contextURI string) {
	device := c.Device()
	c.dispatch("play", func(ctx context.Context) error {
		return c.client.Play(ctx, device, contextURI)
	})
}

// Pause pauses playback.
func (c *Controller) Pause() {
	device := c.Device()
	c.dispatch("pause", func(ctx context.Context) error {
		return c.client.Pause(ctx, device)
	})
}

// Next skips forward.
func (c *Controller) Next() {
	device := c.Device()
	c.dispatch("next", func(ctx context.Context) error {
		return c.client.Next(ctx, device)
	})
}

// Previous skips backward.
func (c *Controller) Previous() {
	device := c.Device()
	c.dispatch("previous", func(ctx context.Context) error {
		return c.client.Previous(ctx, device)
	})
}

// SetVolume sets the playback volume, clamping out-of-range values to
// [0,100] instead of rejecting them. A non-zero volume clears the muted
// state and becomes the remembered unmute level.
func (c *Controller) SetVolume(percent int) {
	percent = clampVolume(percent)

	c.mu.Lock()
	if percent > 0 {
		c.lastVolume = percent
		c.muted = false
	}
	device := c.deviceID
	c.mu.Unlock()

	c.dispatch("set_volume", func(ctx context.Context) error {
		return c.client.SetVolume(ctx, percent, device)
	})
}

// ToggleMute mutes by remembering the last non-zero volume and setting 0,
// or unmutes by reissuing the remembered value.
//
// The remembered volume is local state: if another client changed the
// volume while muted, unmuting reapplies the stale value.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	var target int
	if c.muted {
		c.muted = false
		target = c.lastVolume
	} else {
		c.muted = true
		target = 0
	}
	device := c.deviceID
	c.mu.Unlock()

	c.dispatch("toggle_mute", func(ctx context.Context) error {
		return c.client.SetVolume(ctx, target, device)
	})
}

// Muted reports the controller-local muted state.
func (c *Controller) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// Transfer moves playback to the given device and pins it as the command
// target.
func (c *Controller) Transfer(deviceID string, play bool) {
	c.SetDevice(deviceID)
	c.dispatch("transfer", func(ctx context.Context) error {
		return c.client.Transfer(ctx, deviceID, play)
	})
}

// dispatch runs one remote call off the caller's goroutine, logging and
// reporting failure without propagating it.
func (c *Controller) dispatch(name string, call func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		err := call(ctx)
		if err != nil {
			c.logger.Warn("playback command failed", "command", name, "error", err)
		}

		select {
		case c.results <- CommandResult{Name: name, Err: err}:
		default:
		}
	}()
}

func clampVolume(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
