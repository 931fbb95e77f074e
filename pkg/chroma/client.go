package chroma

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/samvad-hq/chroma-client/pkg/httpclient"
)

// Client is the entry point for talking to a Chroma service.
// It is safe for concurrent use as long as the Configuration is not mutated.
type Client struct {
	cfg  Configuration
	exec httpclient.Requester
}

// NewClient validates cfg and builds a client backed by the resty executor.
func NewClient(cfg *Configuration) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("chroma: invalid config: %w", err)
	}

	exec := httpclient.NewExecutor(httpclient.ExecutorConfig{
		Timeout:  cfg.Timeout,
		Logger:   cfg.Logger,
		LogLevel: cfg.LogLevel,
	})
	return NewClientWithRequester(cfg, exec)
}

// NewClientWithRequester builds a client that sends requests through req.
func NewClientWithRequester(cfg *Configuration, req httpclient.Requester) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("chroma: invalid config: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("chroma: requester must not be nil")
	}
	return &Client{cfg: *cfg, exec: req}, nil
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Configuration { return c.cfg }

// Requester exposes the executor the client sends requests through.
func (c *Client) Requester() httpclient.Requester { return c.exec }

func (c *Client) execute(ctx context.Context, method string, params httpclient.Params, segments ...string) httpclient.Result {
	return c.exec.Execute(ctx, method, c.cfg.endpoint(segments...), params, httpclient.Options{UseTLS: c.cfg.UseTLS})
}

// do executes a request and converts failures into typed errors.
func (c *Client) do(ctx context.Context, method string, params httpclient.Params, segments ...string) (httpclient.Result, error) {
	res := c.execute(ctx, method, params, segments...)
	if err := ErrorFromResult(res); err != nil {
		return res, err
	}
	return res, nil
}

// Version returns the server version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := c.do(ctx, httpclient.MethodGet, nil, "version")
	if err != nil {
		return "", err
	}
	return unquote(res.BodyText()), nil
}

// Heartbeat returns the server's nanosecond heartbeat.
func (c *Client) Heartbeat(ctx context.Context) (int64, error) {
	res, err := c.do(ctx, httpclient.MethodGet, nil, "heartbeat")
	if err != nil {
		return 0, err
	}
	body, ok := res.Body.(map[string]any)
	if !ok {
		return 0, fmt.Errorf("chroma: unexpected heartbeat body %q", res.BodyText())
	}
	for _, v := range body {
		if n, ok := v.(float64); ok {
			return int64(n), nil
		}
	}
	return 0, fmt.Errorf("chroma: heartbeat body has no timestamp: %q", res.BodyText())
}

// Reset wipes the whole database. The server must allow resets.
func (c *Client) Reset(ctx context.Context) (bool, error) {
	res, err := c.do(ctx, httpclient.MethodPost, nil, "reset")
	if err != nil {
		return false, err
	}
	return parseBool(res.BodyText()), nil
}

// Persist flushes the database to disk on servers that support it.
func (c *Client) Persist(ctx context.Context) (bool, error) {
	res, err := c.do(ctx, httpclient.MethodPost, nil, "persist")
	if err != nil {
		return false, err
	}
	return parseBool(res.BodyText()), nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	var out string
	if err := json.Unmarshal([]byte(s), &out); err == nil {
		return out
	}
	return s
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("chroma: unexpected integer body %q: %w", s, err)
	}
	return n, nil
}
