// package player contains the playback core: the polling loop, the command
// surface, and device selection.
package player

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotitui/internal/models"
	"github.com/desertthunder/spotitui/internal/services"
	"github.com/desertthunder/spotitui/internal/shared"
)

// DefaultPollInterval is the steady-state gap between playback fetches.
const DefaultPollInterval = time.Second

// Poller periodically fetches playback state and republishes normalized
// snapshots to subscribers.
//
// At most one fetch is in flight at a time: the loop blocks on each fetch
// before sleeping and issuing the next, so snapshots are always applied in
// fetch order. A failed tick logs, backs off to twice the interval for that
// tick only, and resumes the normal cadence. Only Stop ends the loop.
type Poller struct {
	client   services.Client
	interval time.Duration
	logger   *log.Logger

	mu       sync.Mutex
	subs     []chan models.Snapshot
	failures int
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPoller creates a stopped poller. A non-positive interval falls back to
// [DefaultPollInterval].
func NewPoller(client services.Client, interval time.Duration, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Poller{client: client, interval: interval, logger: logger}
}

// Subscribe registers a snapshot consumer. The returned channel is buffered;
// the poller publishes unconditionally and drops a snapshot rather than
// block on a slow subscriber. Consumers decide whether to render.
func (p *Poller) Subscribe() <-chan models.Snapshot {
	ch := make(chan models.Snapshot, 8)

	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()

	return ch
}

// Start launches the polling loop. Calling Start on a running poller is a
// no-op. Start only after authentication has succeeded.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx, p.done)
}

// Stop signals the loop to end and joins it with a bounded timeout.
// Safe to call when not running.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		p.logger.Warn("playback poller did not stop in time")
	}
}

// ConsecutiveFailures returns how many ticks in a row have failed. The UI
// shows a disconnected indicator once this crosses its threshold while
// continuing to render the last good snapshot.
func (p *Poller) ConsecutiveFailures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		wait := p.interval

		snap, err := p.client.CurrentPlayback(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.recordFailure(err)
			// One slow tick after an error, then back to normal cadence.
			wait = 2 * p.interval
		} else {
			p.recordSuccess()
			if snap != nil {
				s := *snap
				s.FetchedAt = time.Now()
				p.publish(s)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (p *Poller) publish(snap models.Snapshot) {
	p.mu.Lock()
	subs := make([]chan models.Snapshot, len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
			// Subscriber is behind; superseded snapshots are discarded,
			// never queued.
		}
	}
}

func (p *Poller) recordFailure(err error) {
	p.mu.Lock()
	p.failures++
	n := p.failures
	p.mu.Unlock()

	p.logger.Warn("playback poll failed", "consecutive", n, "error", err)
}

func (p *Poller) recordSuccess() {
	p.mu.Lock()
	p.failures = 0
	p.mu.Unlock()
}
