// Package probe implements health-gated readiness polling for a freshly
// launched engine process.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotReady is returned when the health endpoint never answered 200
// within the polling window. It is a soft failure: the process is left
// running and callers decide what to surface.
var ErrNotReady = errors.New("engine not ready")

// Defaults for the polling loop.
const (
	DefaultInterval       = 500 * time.Millisecond
	DefaultAttemptTimeout = 2 * time.Second
	DefaultWindow         = 10 * time.Second
)

// Prober polls a health URL until it answers 200 or the window closes.
type Prober struct {
	// Interval is the cadence between attempts.
	Interval time.Duration

	// AttemptTimeout bounds a single HTTP attempt.
	AttemptTimeout time.Duration

	// Window bounds the whole polling loop.
	Window time.Duration

	// Client overrides the HTTP client. The attempt timeout is applied
	// per request via context, so a zero-timeout client is fine.
	Client *http.Client
}

// New returns a Prober with the default cadence.
func New() *Prober {
	return &Prober{
		Interval:       DefaultInterval,
		AttemptTimeout: DefaultAttemptTimeout,
		Window:         DefaultWindow,
	}
}

// Wait polls url until it returns HTTP 200, the window elapses, or ctx is
// cancelled. Non-200 responses and transport errors mean "not yet ready"
// and are never surfaced; only window exhaustion yields ErrNotReady.
func (p *Prober) Wait(ctx context.Context, url string) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	attemptTimeout := p.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	window := p.Window
	if window <= 0 {
		window = DefaultWindow
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		if p.attempt(ctx, client, url, attemptTimeout) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	return fmt.Errorf("%w: no 200 from %s within %v", ErrNotReady, url, window)
}

// attempt performs one health check. Any failure is treated as not ready.
func (p *Prober) attempt(ctx context.Context, client *http.Client, url string, timeout time.Duration) bool {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}
