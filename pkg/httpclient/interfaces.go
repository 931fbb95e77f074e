package httpclient

import "context"

// Requester is the single entry point resources use to reach the network.
type Requester interface {
	Execute(ctx context.Context, method, url string, params Params, opts Options) Result
}

// Params is the JSON payload of a request. It is sent as the body only when non-empty.
type Params map[string]any

// Options tunes a single request.
type Options struct {
	// UseTLS upgrades an http:// URL to https:// before sending.
	UseTLS bool
}

// Supported request methods.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodDelete = "DELETE"
)
