package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds a request when the caller does not configure one.
const DefaultTimeout = 30 * time.Second

// ExecutorConfig holds the read-only settings of an Executor.
type ExecutorConfig struct {
	Timeout  time.Duration
	Logger   Logger
	LogLevel Level
}

// Executor performs JSON requests over resty and classifies every outcome.
// It holds no mutable state after construction and is safe for concurrent use.
type Executor struct {
	client     *resty.Client
	classifier Classifier
	log        leveled
}

// NewExecutor creates an Executor with the given settings.
func NewExecutor(cfg ExecutorConfig) *Executor {
	log := newLeveled(cfg.Logger, cfg.LogLevel)

	c := newRestyBaseClient(cfg.Timeout)
	c.SetAllowGetMethodPayload(true)
	c.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))
	c.SetLogger(restyLogger{log: log})

	return &Executor{
		client:     c,
		classifier: Classifier{log: log},
		log:        log,
	}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// Execute sends one request and returns its classified Result. It never
// returns an error: transport problems, including malformed URLs, become a
// Failure with status 0.
func (e *Executor) Execute(ctx context.Context, method, rawURL string, params Params, opts Options) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	method = normalizeMethod(method)

	target, err := requestURL(rawURL, opts)
	if err != nil {
		return e.classifier.Classify(NewTransportFailure(err))
	}

	req := e.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if len(params) > 0 {
		req.SetBody(map[string]any(params))
	}

	e.log.debug("sending a request", "request", map[string]any{
		"method": method,
		"uri":    target,
		"params": params,
	})

	resp, err := req.Execute(method, target)
	if err != nil {
		return e.classifier.Classify(NewTransportFailure(err))
	}
	return e.classifier.Classify(NewTransported(resp.StatusCode(), string(resp.Body()), resp.Header()))
}

func normalizeMethod(method string) string {
	switch m := strings.ToUpper(strings.TrimSpace(method)); m {
	case MethodPost, MethodPut, MethodDelete:
		return m
	default:
		return MethodGet
	}
}

func requestURL(raw string, opts Options) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", raw)
	}
	if opts.UseTLS && strings.EqualFold(u.Scheme, "http") {
		u.Scheme = "https"
	}
	return u.String(), nil
}
