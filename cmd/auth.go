package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotitui/internal/shared"
	"github.com/urfave/cli/v3"
)

// authLoginTimeout bounds how long `auth login` waits for the user to
// finish the browser flow before giving up.
const authLoginTimeout = 3 * time.Minute

// AuthLogin runs the full OAuth2 authorization code flow: it starts the
// loopback callback server, sends the user to the authorize URL, and blocks
// until the callback lands or the timeout passes.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	coordinator := r.newCoordinator()
	defer coordinator.Close()

	outcome, err := coordinator.Begin(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrPortInUse) {
			return fmt.Errorf("%w: close other instances and retry", err)
		}
		return err
	}

	if outcome.AlreadyAuthenticated {
		return r.writePlain("✓ Already authenticated\n")
	}

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser:\n\n%s\n\n", outcome.AuthorizeURL)
	} else {
		r.writePlain("Opening your browser to sign in with Spotify...\n")
		if err := shared.OpenBrowser(outcome.AuthorizeURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
			r.writePlain("Open this URL in your browser:\n\n%s\n\n", outcome.AuthorizeURL)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	if _, err := coordinator.AwaitLogin(waitCtx); err != nil {
		return err
	}

	return r.writePlain("✓ Authentication successful\n")
}

// AuthStatus reports whether a usable token is cached, without hitting the
// network.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	token := r.session.Token()
	switch {
	case token == nil:
		r.writePlain("Authentication: ✗ Not authenticated\n")
		r.writePlain("Run 'spotitui auth login' to sign in.\n")
	case token.Valid():
		r.writePlain("Authentication: ✓ Authenticated\n")
		r.writePlain("Token expires: %s\n", token.ExpiresAt.Local().Format(time.RFC1123))
	case token.Refreshable():
		r.writePlain("Authentication: ✓ Authenticated (token expired, will refresh)\n")
	default:
		r.writePlain("Authentication: ✗ Token expired\n")
		r.writePlain("Run 'spotitui auth login' to sign in again.\n")
	}

	r.writePlain("Token cache: %s\n", r.store.Path())
	return nil
}

// AuthLogout removes the cached token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.session != nil {
		if err := r.session.Logout(); err != nil {
			return err
		}
	} else if err := r.store.Clear(); err != nil {
		return err
	}

	return r.writePlain("✓ Logged out\n")
}
