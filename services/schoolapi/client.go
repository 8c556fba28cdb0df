// Package schoolapi is the single request-issuing facade to the school management backend.
package schoolapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
)

// TokenSource yields the current session token, "" when there is no session.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to a TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

type Client struct {
	baseURL        string
	rest           *rest.Client
	tokens         TokenSource
	timeout        time.Duration
	metrics        *Metrics
	onUnauthorized func(ctx context.Context)
}

type Option func(*Client)

// WithTimeout bounds every request; 0 means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.rest = &rest.Client{HTTPClient: hc} }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithUnauthorizedHook registers fn to be called whenever the backend answers 401.
func WithUnauthorizedHook(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    &rest.Client{HTTPClient: http.DefaultClient},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens == nil {
		c.tokens = TokenFunc(func() string { return "" })
	}
	return c
}

// WithTokens returns a copy of c issuing requests with the given token source.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	cp := *c
	cp.tokens = tokens
	return &cp
}

// WithUnauthorizedHook returns a copy of c calling fn on 401 answers.
func (c *Client) WithUnauthorizedHook(fn func(ctx context.Context)) *Client {
	cp := *c
	cp.onUnauthorized = fn
	return &cp
}

func (c *Client) BaseURL() string { return c.baseURL }

type call struct {
	method rest.Method
	route  string // path template, for metrics
	path   string
	params map[string]string
	in     interface{}
	out    interface{}
}

func (c *Client) do(ctx context.Context, cl call) error {
	headers := map[string]string{"Accept": "application/json"}
	var body []byte
	if cl.in != nil {
		var err error
		if body, err = json.Marshal(cl.in); err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		headers["Content-Type"] = "application/json"
	}
	if token := c.tokens.Token(); token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	req := rest.Request{
		Method:      cl.method,
		BaseURL:     c.baseURL + cl.path,
		Headers:     headers,
		QueryParams: cl.params,
		Body:        body,
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	hr, err := rest.BuildRequestObject(req)
	if err != nil {
		return &TransportError{Method: string(cl.method), Path: cl.path, Err: err}
	}

	start := time.Now()
	raw, err := c.rest.MakeRequest(hr.WithContext(ctx))
	if err != nil {
		c.metrics.observe(string(cl.method), cl.route, 0, time.Since(start))
		return &TransportError{Method: string(cl.method), Path: cl.path, Err: err}
	}
	res, err := rest.BuildResponse(raw)
	if err != nil {
		c.metrics.observe(string(cl.method), cl.route, raw.StatusCode, time.Since(start))
		return errors.Wrapf(err, "reading %s %s response", cl.method, cl.route)
	}
	c.metrics.observe(string(cl.method), cl.route, res.StatusCode, time.Since(start))

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		apiErr := newAPIError(res.StatusCode, res.Body)
		if apiErr.Status == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return apiErr
	}

	if cl.out != nil && strings.TrimSpace(res.Body) != "" {
		if err = json.Unmarshal([]byte(res.Body), cl.out); err != nil {
			return errors.Wrapf(err, "decoding %s %s response", cl.method, cl.route)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, route, path string, params map[string]string, out interface{}) error {
	return c.do(ctx, call{method: rest.Get, route: route, path: path, params: params, out: out})
}

func (c *Client) post(ctx context.Context, route, path string, in, out interface{}) error {
	return c.do(ctx, call{method: rest.Post, route: route, path: path, in: in, out: out})
}

func (c *Client) put(ctx context.Context, route, path string, in, out interface{}) error {
	return c.do(ctx, call{method: rest.Put, route: route, path: path, in: in, out: out})
}

func (c *Client) delete(ctx context.Context, route, path string) error {
	return c.do(ctx, call{method: rest.Delete, route: route, path: path})
}
