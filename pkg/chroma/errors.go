package chroma

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/samvad-hq/chroma-client/pkg/httpclient"
)

// Exception names the service embeds in 500 bodies when the request data was invalid.
var invalidRequestMarkers = []string{"ValueError", "IndexError", "TypeError"}

const (
	valueErrorPrefix = "ValueError('"
	valueErrorSuffix = "')"
)

// ErrorDetails is shared by every error kind returned by the client.
// Status is 0 when no HTTP response was received.
type ErrorDetails struct {
	Message  string
	Status   int
	Body     any
	Response any
}

func (d ErrorDetails) format() string {
	if d.Status == 0 {
		return d.Message
	}
	return fmt.Sprintf("(Status %d) %s", d.Status, d.Message)
}

// ConnectionError reports a transport failure or an unclassified server error.
type ConnectionError struct {
	ErrorDetails
}

func (e *ConnectionError) Error() string { return e.format() }

// Unwrap exposes the transport cause, so errors.Is matches context errors.
func (e *ConnectionError) Unwrap() error {
	if cause, ok := e.Response.(*httpclient.TransportError); ok {
		return cause
	}
	return nil
}

// InvalidRequestError reports a server error caused by invalid request data.
type InvalidRequestError struct {
	ErrorDetails
}

func (e *InvalidRequestError) Error() string { return e.format() }

// APIError reports any other non-success response.
type APIError struct {
	ErrorDetails
}

func (e *APIError) Error() string { return e.format() }

// ErrorFromResult maps a Failure result onto one of the three error kinds.
// It returns nil for a Success result.
func ErrorFromResult(res httpclient.Result) error {
	if res.IsSuccess() {
		return nil
	}

	switch cause := res.Cause.(type) {
	case *httpclient.TransportError:
		return &ConnectionError{ErrorDetails{Message: cause.Error(), Response: cause}}
	case *httpclient.HTTPResponse:
		details := ErrorDetails{Status: res.Status, Body: res.Body, Response: cause}
		if res.Status == http.StatusInternalServerError {
			raw, isText := res.Body.(string)
			if isText && containsAny(raw, invalidRequestMarkers) {
				details.Message = invalidRequestMessage(raw)
				return &InvalidRequestError{details}
			}
			details.Message = res.BodyText()
			return &ConnectionError{details}
		}
		details.Message = apiErrorMessage(res)
		return &APIError{details}
	default:
		// A failure without a recognized cause still carries its status and body.
		return &APIError{ErrorDetails{Message: apiErrorMessage(res), Status: res.Status, Body: res.Body}}
	}
}

func invalidRequestMessage(raw string) string {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return raw
	}
	value, ok := decoded["error"].(string)
	if !ok || !strings.Contains(value, "ValueError") {
		return raw
	}
	value = strings.TrimPrefix(value, valueErrorPrefix)
	return strings.TrimSuffix(value, valueErrorSuffix)
}

func apiErrorMessage(res httpclient.Result) string {
	if body, ok := res.Body.(map[string]any); ok {
		if v, ok := body["error"]; ok {
			if s, ok := v.(string); ok {
				return s
			}
			return fmt.Sprint(v)
		}
	}
	return res.BodyText()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
