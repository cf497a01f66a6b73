package supabase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// User is the subset of the GoTrue user object the planner reads.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// GetUser resolves an end-user access token to its user. The token is sent
// in place of the service key.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, errors.New("getting user: empty access token")
	}

	cl := c.start(ctx, "supabase.auth.user")
	resp, err := c.sdk().Auth.WithClient(cl.httpClient()).WithToken(accessToken).GetUser()
	if err != nil {
		return nil, cl.end(fmt.Errorf("getting user: %w", statusError(cl, err)))
	}
	if resp.ID == uuid.Nil {
		return nil, cl.end(errors.New("getting user: response has no id"))
	}
	return &User{ID: resp.ID.String(), Email: resp.Email, Role: resp.Role}, cl.end(nil)
}
