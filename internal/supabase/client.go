// Package supabase adapts the supabase-go SDK to the calls the planner makes:
// PostgREST tables and RPCs, Storage and Auth. Every call runs under the
// caller's context and its own client span.
package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	supa "github.com/supabase-community/supabase-go"
	postgrest "github.com/supabase-community/postgrest-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	restPath = "/rest/v1"
	schema   = "public"
)

// Config holds configuration for the Supabase client.
type Config struct {
	URL        string // e.g. https://<project>.supabase.co
	ServiceKey string // service role key; never sent to browsers
	Timeout    time.Duration
	Transport  http.RoundTripper // optional, defaults to http.DefaultTransport
}

// Client is the Supabase API client. It is safe for concurrent use.
//
// The SDK clients hold per-instance mutable state (a sticky ClientError on
// the REST client, upload headers on the storage client), so each call
// builds its own from the shared configuration. Construction does no I/O.
type Client struct {
	url       string
	key       string
	timeout   time.Duration
	transport http.RoundTripper
	tracer    trace.Tracer
}

// New validates cfg and creates a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.URL, "/")
	if _, err := supa.NewClient(base, cfg.ServiceKey, nil); err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("creating supabase client: invalid url %q", cfg.URL)
	}

	rt := cfg.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &Client{
		url:       base,
		key:       cfg.ServiceKey,
		timeout:   cfg.Timeout,
		transport: rt,
		tracer:    otel.Tracer("github.com/learnadoodle/planner/internal/supabase"),
	}, nil
}

// sdk returns a fresh supabase-go client. The URL and key were validated in New.
func (c *Client) sdk() *supa.Client {
	sc, _ := supa.NewClient(c.url, c.key, nil)
	return sc
}

// rest returns a PostgREST client whose requests go through the call's transport.
func (c *Client) rest(cl *call) *postgrest.Client {
	pc := postgrest.NewClient(c.url+restPath, schema, map[string]string{
		"apikey":        c.key,
		"Authorization": "Bearer " + c.key,
	})
	pc.Transport.Parent = cl.transport
	return pc
}

// call is one traced operation against Supabase.
type call struct {
	ctx       context.Context
	span      trace.Span
	cancel    context.CancelFunc
	transport *callTransport
}

func (c *Client) start(ctx context.Context, name string, attrs ...attribute.KeyValue) *call {
	cancel := context.CancelFunc(func() {})
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	ctx, span := c.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return &call{
		ctx:       ctx,
		span:      span,
		cancel:    cancel,
		transport: &callTransport{ctx: ctx, base: c.transport},
	}
}

// httpClient is an http.Client bound to the call, for SDKs that accept one.
func (cl *call) httpClient() http.Client {
	return http.Client{Transport: cl.transport}
}

// end closes the span and returns err unchanged.
func (cl *call) end(err error) error {
	if err != nil {
		cl.span.RecordError(err)
		cl.span.SetStatus(codes.Error, err.Error())
	}
	cl.span.End()
	cl.cancel()
	return err
}

// callTransport attaches the call's context to SDK requests, which are built
// without one, and remembers the last response status.
type callTransport struct {
	ctx    context.Context
	base   http.RoundTripper
	status int
}

func (t *callTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req.WithContext(t.ctx))
	if err != nil {
		return nil, err
	}
	t.status = resp.StatusCode
	trace.SpanFromContext(t.ctx).SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.Int("http.response.status_code", resp.StatusCode),
	)
	return resp, nil
}

// await runs fn for SDK calls that cannot take a context. The goroutine
// finishes on its own once the SDK returns.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
