package httpclient

import (
	"encoding/json"
	"errors"
	"strings"
)

var errUnknownTransport = errors.New("transport failure")

// Classifier turns raw outcomes into Results and logs each category.
type Classifier struct {
	log leveled
}

// NewClassifier builds a classifier that logs through sink when level allows.
func NewClassifier(sink Logger, level Level) Classifier {
	return Classifier{log: newLeveled(sink, level)}
}

// Classify classifies an outcome without logging.
func Classify(o Outcome) Result {
	return Classifier{}.Classify(o)
}

// Classify maps an outcome onto a Success or Failure result. Guards are
// evaluated in order and the first match wins.
func (c Classifier) Classify(o Outcome) Result {
	if o.Failed() {
		return c.transportFailure(o.Err)
	}

	status := o.StatusCode
	switch {
	case status >= 200 && status <= 299:
		c.log.info("successful response", "response", map[string]any{
			"code": status,
		})
		return Result{
			Kind:    KindSuccess,
			Status:  status,
			Body:    parseBody(o.Body),
			Headers: flattenHeader(o),
		}
	case status >= 300 && status <= 399:
		c.log.info("server redirect response", "response", map[string]any{
			"code":     status,
			"location": o.Header.Get("Location"),
		})
		return c.failure(o, parseBody(o.Body))
	case status >= 400 && status <= 499:
		c.log.error("client error response", "response", map[string]any{
			"code": status,
			"body": o.Body,
		})
		return c.failure(o, parseBody(o.Body))
	case status >= 500 && status <= 599:
		c.log.error("server error response", "response", map[string]any{
			"code": status,
		})
		// 5xx bodies often wrap a server-side exception repr; keep the raw text for error mapping.
		return c.failure(o, o.Body)
	default:
		c.log.error("unexpected response", "response", map[string]any{
			"code": status,
			"body": o.Body,
		})
		return c.failure(o, parseBody(o.Body))
	}
}

func (c Classifier) failure(o Outcome, body any) Result {
	return Result{
		Kind:    KindFailure,
		Status:  o.StatusCode,
		Body:    body,
		Headers: flattenHeader(o),
		Cause: &HTTPResponse{
			StatusCode: o.StatusCode,
			Body:       o.Body,
			Header:     o.Header.Clone(),
		},
	}
}

func (c Classifier) transportFailure(err error) Result {
	if err == nil {
		err = errUnknownTransport
	}
	c.log.error("an error happened", "transport_error", map[string]any{
		"error": err.Error(),
	})
	return Result{
		Kind:    KindFailure,
		Status:  0,
		Body:    err.Error(),
		Headers: map[string]string{},
		Cause:   &TransportError{Err: err},
	}
}

// parseBody decodes a JSON object or array. Anything else is returned as the original string.
func parseBody(content string) any {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return content
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return content
	}
	switch decoded.(type) {
	case map[string]any, []any:
		return decoded
	default:
		return content
	}
}

// flattenHeader collapses multi-valued headers into a single comma-joined value.
func flattenHeader(o Outcome) map[string]string {
	out := make(map[string]string, len(o.Header))
	for k, vals := range o.Header {
		out[k] = strings.Join(vals, ", ")
	}
	return out
}
