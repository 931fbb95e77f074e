package chroma

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/samvad-hq/chroma-client/pkg/httpclient"
)

func TestErrorFromResultInvalidRequest(t *testing.T) {
	res := httpclient.Classify(httpclient.NewTransported(http.StatusInternalServerError, `{"error":"ValueError('bad name')"}`, nil))

	err := ErrorFromResult(res)
	var invalid *InvalidRequestError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidRequestError, got %T", err)
	}
	if invalid.Message != "bad name" {
		t.Fatalf("message = %q", invalid.Message)
	}
	if invalid.Status != 500 {
		t.Fatalf("status = %d", invalid.Status)
	}
	if err.Error() != "(Status 500) bad name" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestErrorFromResultInvalidRequestKeepsRawBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "index error", body: `{"error":"IndexError('list index out of range')"}`},
		{name: "type error", body: "TypeError: unhashable type"},
		{name: "value error text", body: "ValueError: bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := httpclient.Classify(httpclient.NewTransported(500, tt.body, nil))
			var invalid *InvalidRequestError
			if err := ErrorFromResult(res); !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidRequestError, got %T", err)
			}
			if invalid.Message != tt.body {
				t.Fatalf("message = %q, want %q", invalid.Message, tt.body)
			}
		})
	}
}

func TestErrorFromResultServerErrorWithoutMarker(t *testing.T) {
	res := httpclient.Classify(httpclient.NewTransported(500, "Internal Server Error", nil))

	var connErr *ConnectionError
	err := ErrorFromResult(res)
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %T", err)
	}
	if connErr.Message != "Internal Server Error" {
		t.Fatalf("message = %q", connErr.Message)
	}
	if err.Error() != "(Status 500) Internal Server Error" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestErrorFromResultOtherServerStatusIsAPIError(t *testing.T) {
	res := httpclient.Classify(httpclient.NewTransported(503, "ValueError", nil))

	var apiErr *APIError
	if err := ErrorFromResult(res); !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
}

func TestErrorFromResultClientError(t *testing.T) {
	res := httpclient.Classify(httpclient.NewTransported(400, `{"error":"Bad request"}`, nil))

	err := ErrorFromResult(res)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Message != "Bad request" {
		t.Fatalf("message = %q", apiErr.Message)
	}
	if _, ok := apiErr.Body.(map[string]any); !ok {
		t.Fatalf("body should stay decoded, got %#v", apiErr.Body)
	}
	if err.Error() != "(Status 400) Bad request" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestErrorFromResultRedirectUsesRawBody(t *testing.T) {
	res := httpclient.Classify(httpclient.NewTransported(301, "moved", nil))

	var apiErr *APIError
	if err := ErrorFromResult(res); !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Message != "moved" || apiErr.Status != 301 {
		t.Fatalf("unexpected error %#v", apiErr)
	}
}

func TestErrorFromResultTransportFailure(t *testing.T) {
	res := httpclient.Classify(httpclient.NewTransportFailure(context.DeadlineExceeded))

	err := ErrorFromResult(res)
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %T", err)
	}
	if connErr.Status != 0 {
		t.Fatalf("status = %d", connErr.Status)
	}
	if err.Error() != context.DeadlineExceeded.Error() {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("ConnectionError must unwrap to its transport cause")
	}
}

func TestConnectionErrorFromServerDoesNotUnwrap(t *testing.T) {
	res := httpclient.Classify(httpclient.NewTransported(http.StatusInternalServerError, `{"error":"db down"}`, nil))

	err := ErrorFromResult(res)
	if errors.Unwrap(err) != nil {
		t.Fatalf("server-side ConnectionError has no transport cause, got %v", errors.Unwrap(err))
	}
}

func TestErrorFromResultSuccessIsNil(t *testing.T) {
	res := httpclient.Classify(httpclient.NewTransported(200, "{}", nil))
	if err := ErrorFromResult(res); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
