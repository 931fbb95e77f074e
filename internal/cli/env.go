package cli

import (
	"io"
	"os"

	"github.com/samvad-hq/chroma-client/internal/config"
	"github.com/samvad-hq/chroma-client/pkg/chroma"
)

// Env holds injectable dependencies for CLI commands.
// Tests override fields with the With* options or build an Env directly.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer

	ConfigLoader  ConfigLoader
	ClientFactory ClientFactory
}

// ConfigLoader loads the runtime configuration.
type ConfigLoader interface {
	Load() (*config.Config, error)
}

// ClientFactory creates chroma clients.
type ClientFactory interface {
	NewClient(cfg *chroma.Configuration) (*chroma.Client, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithClientFactory sets the client factory.
func WithClientFactory(f ClientFactory) EnvOption {
	return func(e *Env) {
		e.ClientFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		ConfigLoader:  defaultConfigLoader{},
		ClientFactory: defaultClientFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (*config.Config, error) {
	return config.Load()
}

type defaultClientFactory struct{}

func (defaultClientFactory) NewClient(cfg *chroma.Configuration) (*chroma.Client, error) {
	return chroma.NewClient(cfg)
}

var (
	_ ConfigLoader  = defaultConfigLoader{}
	_ ClientFactory = defaultClientFactory{}
)
