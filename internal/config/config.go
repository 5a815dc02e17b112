package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full host application configuration.
type Config struct {
	Vault     VaultConfig     `yaml:"vault" mapstructure:"vault"`
	Audit     AuditConfig     `yaml:"audit" mapstructure:"audit"`
	Bridge    BridgeConfig    `yaml:"bridge" mapstructure:"bridge"`
	Match     MatchConfig     `yaml:"match" mapstructure:"match"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// VaultConfig configures the vault storage backend.
type VaultConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // memory | sqlite
	Path   string `yaml:"path" mapstructure:"path"`
}

// AuditConfig configures the audit log backend.
type AuditConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // jsonl | sqlite | postgres
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BridgeConfig configures the local extension bridge server.
type BridgeConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// MatchConfig configures the pattern matcher.
type MatchConfig struct {
	// RulesPath optionally overrides the compiled-in pattern rule table.
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// AnthropicConfig configures the semantic delegate.
type AnthropicConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	Model             string  `yaml:"model" mapstructure:"model"`
	MaxTokens         int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ASTERISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("vault.driver", "memory")
	v.SetDefault("vault.path", "asterisk-vault.db")
	v.SetDefault("audit.driver", "jsonl")
	v.SetDefault("audit.path", "asterisk-audit.jsonl")
	v.SetDefault("bridge.listen", "127.0.0.1:17373")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 256)
	v.SetDefault("anthropic.requests_per_second", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields the given mode actually needs, so a vault-only
// invocation does not demand bridge or API settings.
func (c *Config) Validate(mode string) error {
	var missing []string

	switch c.Vault.Driver {
	case "", "memory":
	case "sqlite":
		if c.Vault.Path == "" {
			missing = append(missing, "vault.path is required for the sqlite driver")
		}
	default:
		missing = append(missing, fmt.Sprintf("unknown vault driver %q", c.Vault.Driver))
	}

	switch c.Audit.Driver {
	case "", "jsonl", "sqlite":
	case "postgres":
		if c.Audit.DatabaseURL == "" {
			missing = append(missing, "audit.database_url is required for the postgres driver")
		}
	default:
		missing = append(missing, fmt.Sprintf("unknown audit driver %q", c.Audit.Driver))
	}

	switch mode {
	case "serve":
		if c.Bridge.Listen == "" {
			missing = append(missing, "bridge.listen is required")
		}
	case "semantic":
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required")
		}
		if c.Anthropic.RequestsPerSecond < 0 {
			missing = append(missing, "anthropic.requests_per_second must be >= 0")
		}
	case "vault", "audit":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: %s", strings.Join(missing, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
