package httpclient

import (
	"encoding/json"
	"net/http"
)

// Kind tags the variant held by a Result.
type Kind int

const (
	KindSuccess Kind = iota + 1
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Result is the normalized envelope produced for every request execution.
//
// Body holds a decoded JSON container (map[string]any or []any) or the raw
// response text. Cause is nil for successes; for failures it is either a
// *TransportError (Status is 0, Headers is empty) or an *HTTPResponse.
type Result struct {
	Kind    Kind
	Status  int
	Body    any
	Headers map[string]string
	Cause   Cause
}

// IsSuccess reports whether the result is the Success variant.
func (r Result) IsSuccess() bool { return r.Kind == KindSuccess }

// IsFailure reports whether the result is the Failure variant.
func (r Result) IsFailure() bool { return r.Kind == KindFailure }

// BodyText returns the body as text. Decoded bodies are re-encoded as JSON.
func (r Result) BodyText() string {
	switch b := r.Body.(type) {
	case nil:
		return ""
	case string:
		return b
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// Cause identifies where a failure came from.
type Cause interface {
	cause()
}

// TransportError is the cause of a failure that never received an HTTP response
// (DNS, refused connection, timeout, TLS, malformed URL).
type TransportError struct {
	Err error
}

func (*TransportError) cause() {}

func (e *TransportError) Error() string {
	if e == nil || e.Err == nil {
		return "transport error"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HTTPResponse is the cause of a failure that received a non-success response.
type HTTPResponse struct {
	StatusCode int
	Body       string
	Header     http.Header
}

func (*HTTPResponse) cause() {}

// Outcome is the raw input to classification: either a transported response
// or a transport failure.
type Outcome struct {
	StatusCode int
	Body       string
	Header     http.Header
	Err        error
}

// NewTransported builds the outcome of an exchange that received a response.
func NewTransported(status int, body string, header http.Header) Outcome {
	return Outcome{StatusCode: status, Body: body, Header: header}
}

// NewTransportFailure builds the outcome of an exchange that never received a response.
func NewTransportFailure(err error) Outcome {
	return Outcome{Err: err}
}

// Failed reports whether no response was received.
func (o Outcome) Failed() bool { return o.Err != nil }
