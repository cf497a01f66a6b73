package supabase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Ping asks the Auth service for its health. It answers without a user token
// but rejects a wrong API key.
func (c *Client) Ping(ctx context.Context) error {
	cl := c.start(ctx, "supabase.ping")
	if _, err := c.sdk().Auth.WithClient(cl.httpClient()).HealthCheck(); err != nil {
		return cl.end(statusError(cl, err))
	}
	return cl.end(nil)
}

// WaitReady pings Supabase until it answers, retrying up to retries times
// with a constant wait between attempts. Auth errors are not retried.
func (c *Client) WaitReady(ctx context.Context, retries int, wait time.Duration) error {
	if retries < 0 {
		retries = 0
	}
	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		err := c.Ping(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if IsUnauthorized(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		slog.Warn("supabase not reachable", "attempt", attempt, "error", err)
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(wait)),
		backoff.WithMaxTries(uint(retries+1)),
	)
	if err != nil {
		return fmt.Errorf("supabase not ready after %d attempts: %w", attempt, err)
	}
	return nil
}
