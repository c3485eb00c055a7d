// Package config loads the authflow CLI configuration from an optional YAML
// file, a .env file, AUTHFLOW_* environment variables and command flags.
package config

import (
	"time"

	"github.com/goliatone/go-authflow/pkg/backend"
	"github.com/goliatone/go-authflow/pkg/engine"
	"github.com/goliatone/go-authflow/pkg/i18n"
)

// Default values for Config.
const (
	DefaultLocale          = i18n.DefaultLocale
	DefaultLogLevel        = "info"
	DefaultCompletionDelay = 2 * time.Second
	DefaultMaxAttempts     = 5
	EnvPrefix              = "AUTHFLOW"
	DefaultConfigName      = "authflow"
	DefaultEnvFile         = ".env"
)

// Config is the CLI configuration.
type Config struct {
	Locale          string        `mapstructure:"locale" validate:"required"`
	Log             LogConfig     `mapstructure:"log"`
	CooldownSeconds int           `mapstructure:"cooldown_seconds" validate:"gte=1,lte=3600"`
	CompletionDelay time.Duration `mapstructure:"completion_delay" validate:"gte=0"`
	MaxAttempts     int           `mapstructure:"max_attempts" validate:"gte=0"`
	// FlowsDir replaces the embedded flow definitions when set.
	FlowsDir string        `mapstructure:"flows_dir"`
	Backend  BackendConfig `mapstructure:"backend"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

// BackendConfig tunes the simulated backend.
type BackendConfig struct {
	SendDelay       time.Duration `mapstructure:"send_delay" validate:"gte=0"`
	VerifyDelay     time.Duration `mapstructure:"verify_delay" validate:"gte=0"`
	SubmitDelay     time.Duration `mapstructure:"submit_delay" validate:"gte=0"`
	DeactivateDelay time.Duration `mapstructure:"deactivate_delay" validate:"gte=0"`
	CodeTTL         time.Duration `mapstructure:"code_ttl" validate:"gt=0"`
	// FixedCode makes every issued code equal this value (demos only).
	FixedCode    string `mapstructure:"fixed_code" validate:"omitempty,numeric,len=6"`
	DemoPhone    string `mapstructure:"demo_phone" validate:"required_with=DemoPassword"`
	DemoPassword string `mapstructure:"demo_password"`
}

// MetricsConfig toggles the Prometheus collector.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Locale:          DefaultLocale,
		Log:             LogConfig{Level: DefaultLogLevel},
		CooldownSeconds: engine.DefaultCooldownSeconds,
		CompletionDelay: DefaultCompletionDelay,
		MaxAttempts:     DefaultMaxAttempts,
		Backend: BackendConfig{
			SendDelay:       backend.DefaultSendDelay,
			VerifyDelay:     backend.DefaultVerifyDelay,
			SubmitDelay:     backend.DefaultSubmitDelay,
			DeactivateDelay: backend.DefaultDeactivateDelay,
			CodeTTL:         backend.DefaultCodeTTL,
		},
	}
}
