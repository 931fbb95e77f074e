package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported publisher types.
const (
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeGCPPubSub = "gcp_pubsub"
	TypeHTTP      = "http"
)

const (
	httpDefaultMethod  = "POST"
	httpDefaultTimeout = 5
)

// PublisherConfig declares one change-event sink. Collections and EventTypes
// narrow the events it receives; see Route.
type PublisherConfig struct {
	ID          string               `json:"id" yaml:"id"`
	Type        string               `json:"type" yaml:"type"`
	Enabled     *bool                `json:"enabled" yaml:"enabled"`
	Collections []string             `json:"collections" yaml:"collections"`
	EventTypes  []string             `json:"event_types" yaml:"event_types"`
	SQS         *SQSPublisherConfig  `json:"sqs" yaml:"sqs"`
	SNS         *SNSPublisherConfig  `json:"sns" yaml:"sns"`
	PubSub      *GCPQueueConfig      `json:"gcp_pubsub" yaml:"gcp_pubsub"`
	HTTP        *HTTPPublisherConfig `json:"http" yaml:"http"`
}

// IsEnabled reports the enabled flag, defaulting to true.
func (cfg PublisherConfig) IsEnabled() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// Route returns the event filter declared for the publisher.
func (cfg PublisherConfig) Route() Route {
	return Route{Collections: cfg.Collections, EventTypes: cfg.EventTypes}
}

// AWSAuthConfig optionally overrides the default AWS credential chain and endpoint
// (e.g. for LocalStack or ElasticMQ).
type AWSAuthConfig struct {
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

func (a *AWSAuthConfig) normalize() {
	a.Endpoint = strings.TrimSpace(a.Endpoint)
	a.AccessKeyID = strings.TrimSpace(a.AccessKeyID)
	a.SecretAccessKey = strings.TrimSpace(a.SecretAccessKey)
}

// SQSPublisherConfig holds AWS SQS specific settings.
type SQSPublisherConfig struct {
	QueueURL      string `json:"uri" yaml:"uri"`
	Region        string `json:"region" yaml:"region"`
	AWSAuthConfig `json:",inline" yaml:",inline"`
}

func (c *SQSPublisherConfig) normalize() {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.Region = strings.TrimSpace(c.Region)
	c.AWSAuthConfig.normalize()
}

func (c *SQSPublisherConfig) check() error {
	switch {
	case c.QueueURL == "":
		return errors.New("sqs.uri is required")
	case c.Region == "":
		return errors.New("sqs.region is required")
	}
	return nil
}

// SNSPublisherConfig holds AWS SNS specific settings.
type SNSPublisherConfig struct {
	TopicARN      string `json:"topic_arn" yaml:"topic_arn"`
	Region        string `json:"region" yaml:"region"`
	AWSAuthConfig `json:",inline" yaml:",inline"`
}

func (c *SNSPublisherConfig) normalize() {
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.Region = strings.TrimSpace(c.Region)
	c.AWSAuthConfig.normalize()
}

func (c *SNSPublisherConfig) check() error {
	switch {
	case c.TopicARN == "":
		return errors.New("sns.topic_arn is required")
	case c.Region == "":
		return errors.New("sns.region is required")
	}
	return nil
}

// GCPQueueConfig holds Google Cloud Pub/Sub settings.
type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

func (c *GCPQueueConfig) normalize() {
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.Topic = strings.TrimSpace(c.Topic)
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
}

func (c *GCPQueueConfig) check() error {
	if c.ProjectID == "" || c.Topic == "" {
		return errors.New("gcp_pubsub.project_id and gcp_pubsub.topic are required")
	}
	return nil
}

// HTTPPublisherConfig posts events as JSON to a webhook.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

func (c *HTTPPublisherConfig) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	if c.Method = strings.ToUpper(strings.TrimSpace(c.Method)); c.Method == "" {
		c.Method = httpDefaultMethod
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = httpDefaultTimeout
	}
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}
	c.Headers = nil
	if len(headers) > 0 {
		c.Headers = headers
	}
}

func (c *HTTPPublisherConfig) check() error {
	if c.URL == "" {
		return errors.New("http.url is required")
	}
	return nil
}

// sinkSettings is implemented by every per-type settings block.
type sinkSettings interface {
	normalize()
	check() error
}

// settings returns the block matching cfg.Type. ok is false for types this
// package does not know; those are left to custom registry builders.
func (cfg PublisherConfig) settings() (s sinkSettings, ok bool) {
	switch cfg.Type {
	case TypeSQS:
		if cfg.SQS == nil {
			return nil, true
		}
		return cfg.SQS, true
	case TypeSNS:
		if cfg.SNS == nil {
			return nil, true
		}
		return cfg.SNS, true
	case TypeGCPPubSub:
		if cfg.PubSub == nil {
			return nil, true
		}
		return cfg.PubSub, true
	case TypeHTTP:
		if cfg.HTTP == nil {
			return nil, true
		}
		return cfg.HTTP, true
	}
	return nil, false
}

// normalize trims the entry in place. Settings blocks are copied first so the
// blocks the caller passed in are never mutated.
func (cfg *PublisherConfig) normalize() {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		enabled := true
		cfg.Enabled = &enabled
	}
	cfg.Collections = trimList(cfg.Collections)
	cfg.EventTypes = trimList(cfg.EventTypes)

	if cfg.SQS != nil {
		c := *cfg.SQS
		cfg.SQS = &c
	}
	if cfg.SNS != nil {
		c := *cfg.SNS
		cfg.SNS = &c
	}
	if cfg.PubSub != nil {
		c := *cfg.PubSub
		cfg.PubSub = &c
	}
	if cfg.HTTP != nil {
		c := *cfg.HTTP
		cfg.HTTP = &c
	}
	if s, _ := cfg.settings(); s != nil {
		s.normalize()
	}
}

// Validate checks the entry after normalization.
func (cfg PublisherConfig) Validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.Type == "" {
		return fmt.Errorf("publisher %q: type is required", cfg.ID)
	}
	if err := cfg.Route().validate(); err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}

	s, known := cfg.settings()
	if !known {
		return nil
	}
	if s == nil {
		return fmt.Errorf("publisher %q: %s config block is required", cfg.ID, cfg.Type)
	}
	if err := s.check(); err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return nil
}

func trimList(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ConfigRegistry holds the publisher entries of a publishers file.
type ConfigRegistry struct {
	publishers []PublisherConfig
}

// LoadRegistry reads a publishers file. The format follows the extension:
// .json is decoded as JSON, anything else as YAML.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var doc struct {
		Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &doc)
	} else {
		err = yaml.Unmarshal(raw, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode publishers file %s: %w", path, err)
	}
	if len(doc.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	seen := make(map[string]struct{}, len(doc.Publishers))
	for i := range doc.Publishers {
		cfg := &doc.Publishers[i]
		cfg.normalize()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		seen[cfg.ID] = struct{}{}
	}

	return &ConfigRegistry{publishers: doc.Publishers}, nil
}

// All returns a copy of every configured entry.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return append([]PublisherConfig(nil), r.publishers...)
}

// Enabled returns the entries whose enabled flag is set.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	var out []PublisherConfig
	for _, cfg := range r.All() {
		if cfg.IsEnabled() {
			out = append(out, cfg)
		}
	}
	return out
}
