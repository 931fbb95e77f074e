package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/samvad-hq/chroma-client/pkg/chroma"
)

// Exit codes returned by chromactl.
const (
	ExitOK             = 0
	ExitGeneral        = 1
	ExitUsage          = 2
	ExitConnection     = 3
	ExitInvalidRequest = 4
	ExitAPI            = 5
	ExitInterrupt      = 130
)

var (
	// ErrInvalidFlag indicates a flag value could not be parsed.
	ErrInvalidFlag = errors.New("invalid flag value")

	// ErrUnsupportedOutput indicates an unknown --output format.
	ErrUnsupportedOutput = errors.New("unsupported output format")
)

// ExitCode maps an error returned by a command onto a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	var (
		connErr    *chroma.ConnectionError
		invalidErr *chroma.InvalidRequestError
		apiErr     *chroma.APIError
	)
	switch {
	case errors.As(err, &connErr):
		return ExitConnection
	case errors.As(err, &invalidErr):
		return ExitInvalidRequest
	case errors.As(err, &apiErr):
		return ExitAPI
	case errors.Is(err, ErrInvalidFlag), errors.Is(err, ErrUnsupportedOutput), isCobraUsageError(err):
		return ExitUsage
	}
	return ExitGeneral
}

// Cobra doesn't expose typed errors, so usage errors are matched by message.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"accepts ",
	"requires at least",
	"requires at most",
}

func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, p := range cobraUsageErrorPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
