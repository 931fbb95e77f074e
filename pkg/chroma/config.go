package chroma

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/chroma-client/pkg/httpclient"
)

// Logger aliases the shared httpclient.Logger sink for clarity within chroma.
type Logger = httpclient.Logger

// Level aliases httpclient.Level.
type Level = httpclient.Level

// Log levels, ordered from most to least verbose.
const (
	LevelDebug = httpclient.LevelDebug
	LevelInfo  = httpclient.LevelInfo
	LevelWarn  = httpclient.LevelWarn
	LevelError = httpclient.LevelError
)

const (
	DefaultAPIBase    = "api"
	DefaultAPIVersion = "v1"
	DefaultTenant     = "default_tenant"
	DefaultDatabase   = "default_database"

	tokenQueryParam = "x-chroma-token"
)

// Configuration holds the connection settings for a Chroma service.
// It is read-only once handed to NewClient.
type Configuration struct {
	ConnectHost string
	APIBase     string
	APIVersion  string
	Tenant      string
	Database    string
	APIKey      string
	Logger      Logger
	LogLevel    Level
	Timeout     time.Duration
	UseTLS      bool
}

// NewConfiguration returns a configuration with defaults applied.
func NewConfiguration(host string) *Configuration {
	return &Configuration{
		ConnectHost: host,
		APIBase:     DefaultAPIBase,
		APIVersion:  DefaultAPIVersion,
		Tenant:      DefaultTenant,
		Database:    DefaultDatabase,
		LogLevel:    LevelInfo,
		Timeout:     httpclient.DefaultTimeout,
	}
}

// Validate ensures required fields are present.
func (c *Configuration) Validate() error {
	if c == nil {
		return errors.New("configuration must not be nil")
	}
	if strings.TrimSpace(c.ConnectHost) == "" {
		return errors.New("connect host is required")
	}
	return nil
}

// APIURL composes "{host}/{base}/{version}". When an API key is configured,
// the tenant, database and token are appended as query parameters.
func (c *Configuration) APIURL() string {
	return c.endpoint()
}

// endpoint builds the API URL with extra path segments placed before any query string.
func (c *Configuration) endpoint(segments ...string) string {
	parts := []string{
		strings.TrimRight(strings.TrimSpace(c.ConnectHost), "/"),
		strings.Trim(c.apiBase(), "/"),
		strings.Trim(c.apiVersion(), "/"),
	}
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	base := strings.Join(nonEmpty(parts), "/")

	if c.APIKey == "" {
		return base
	}

	q := url.Values{}
	q.Set("tenant", c.Tenant)
	q.Set("database", c.Database)
	q.Set(tokenQueryParam, c.APIKey)
	return base + "?" + q.Encode()
}

func (c *Configuration) apiBase() string {
	if c.APIBase == "" {
		return DefaultAPIBase
	}
	return c.APIBase
}

func (c *Configuration) apiVersion() string {
	if c.APIVersion == "" {
		return DefaultAPIVersion
	}
	return c.APIVersion
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
