package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// RPC calls the Postgres function fn with named params and decodes the
// result into dest when dest is non-nil.
func (c *Client) RPC(ctx context.Context, fn string, params any, dest any) error {
	if params == nil {
		params = map[string]any{}
	}
	cl := c.start(ctx, "supabase.rpc "+fn, attribute.String("db.operation.name", fn))

	pc := c.rest(cl)
	body := pc.Rpc(fn, "", params)
	if pc.ClientError != nil {
		return cl.end(fmt.Errorf("calling %s: %w", fn, pc.ClientError))
	}
	if status := cl.transport.status; status >= 300 {
		return cl.end(fmt.Errorf("calling %s: %w", fn, newAPIError(status, []byte(body))))
	}

	if dest == nil || strings.TrimSpace(body) == "" {
		return cl.end(nil)
	}
	if err := json.Unmarshal([]byte(body), dest); err != nil {
		return cl.end(fmt.Errorf("decoding %s result: %w", fn, err))
	}
	return cl.end(nil)
}
