package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/chroma-client/internal/logger"
	"github.com/samvad-hq/chroma-client/pkg/httpclient"
)

// EventHeader carries the event type on webhook deliveries so receivers can
// route without decoding the body.
const EventHeader = "X-Chroma-Event"

// webhookPublisher sends each event as a JSON request to a fixed URL.
type webhookPublisher struct {
	id     string
	cfg    HTTPPublisherConfig
	client *resty.Client
	log    logger.Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	hc := *cfg.HTTP
	hc.normalize()

	client := httpclient.NewRestyHTTPClient(time.Duration(hc.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeaders(hc.Headers)

	return &webhookPublisher{id: cfg.ID, cfg: hc, client: client, log: logger.Ensure(log)}, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }

func (w *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader(EventHeader, evt.Type).
		SetBody(evt).
		Execute(w.cfg.Method, w.cfg.URL)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	if !resp.IsSuccess() {
		body := strings.TrimSpace(resp.String())
		if len(body) > 512 {
			body = body[:512]
		}
		return fmt.Errorf("webhook responded %d: %s", resp.StatusCode(), body)
	}

	w.log.DebugObj("webhook delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": w.id,
		"collection":   evt.Collection,
		"count":        evt.Count,
		"status":       resp.StatusCode(),
	})
	return nil
}
