package app

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	coreconfig "github.com/m3rciful/kitbot/core/config"
	coredatabase "github.com/m3rciful/kitbot/core/database"
	"github.com/m3rciful/kitbot/shop/conversation"
)

// Catalog sources.
const (
	SourceStatic   = "static"
	SourceYAML     = "yaml"
	SourcePostgres = "postgres"
)

// CatalogConfig selects where the catalog is loaded from.
type CatalogConfig struct {
	Source string `yaml:"source" envconfig:"CATALOG_SOURCE"`
	// Path is the catalog file for the yaml source.
	Path string `yaml:"path" envconfig:"CATALOG_PATH"`
}

// ConversationConfig tunes the conversation machine.
type ConversationConfig struct {
	BusyPolicy string `yaml:"busy_policy" envconfig:"CONVERSATION_BUSY_POLICY"`
}

// SenderConfig tunes the outbound dispatcher.
type SenderConfig struct {
	QueueSize  int `yaml:"queue_size" envconfig:"SENDER_QUEUE_SIZE"`
	Workers    int `yaml:"workers" envconfig:"SENDER_WORKERS"`
	MaxRetries int `yaml:"max_retries" envconfig:"SENDER_MAX_RETRIES"`
}

// Config is the kitbot configuration: the shared core sections plus the
// catalog, database and conversation settings.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database     coredatabase.Config `yaml:"database"`
	Catalog      CatalogConfig       `yaml:"catalog"`
	Conversation ConversationConfig  `yaml:"conversation"`
	Sender       SenderConfig        `yaml:"sender"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// UsesDatabase reports whether the configured catalog source needs Postgres.
func (c *Config) UsesDatabase() bool {
	return c.Catalog.Source == SourcePostgres
}

// Load reads path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults. Every problem is reported.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	var errs *multierror.Error
	errs = multierror.Append(errs, coreconfig.Normalize(&cfg.Config))
	errs = multierror.Append(errs, normalizeCatalog(cfg))
	errs = multierror.Append(errs, normalizeConversation(&cfg.Conversation))
	if cfg.Sender.QueueSize < 0 || cfg.Sender.Workers < 0 || cfg.Sender.MaxRetries < 0 {
		errs = multierror.Append(errs, fmt.Errorf("sender values must be >= 0"))
	}
	return errs.ErrorOrNil()
}

func normalizeCatalog(cfg *Config) error {
	src := strings.ToLower(strings.TrimSpace(cfg.Catalog.Source))
	if src == "" {
		src = SourceStatic
	}
	switch src {
	case SourceStatic:
	case SourceYAML:
		if strings.TrimSpace(cfg.Catalog.Path) == "" {
			return fmt.Errorf("catalog.path is required when catalog.source is 'yaml'")
		}
	case SourcePostgres:
		if err := cfg.Database.Validate(); err != nil {
			return fmt.Errorf("catalog.source 'postgres': %w", err)
		}
	default:
		return fmt.Errorf("invalid catalog.source %q; allowed: static, yaml, postgres", cfg.Catalog.Source)
	}
	cfg.Catalog.Source = src
	return nil
}

func normalizeConversation(cfg *ConversationConfig) error {
	policy := conversation.Policy(strings.ToLower(strings.TrimSpace(cfg.BusyPolicy)))
	if policy == "" {
		policy = conversation.PolicyDrop
	}
	switch policy {
	case conversation.PolicyDrop, conversation.PolicyQueue:
	default:
		return fmt.Errorf("invalid conversation.busy_policy %q; allowed: drop, queue", cfg.BusyPolicy)
	}
	cfg.BusyPolicy = string(policy)
	return nil
}
