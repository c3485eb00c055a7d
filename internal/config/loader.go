package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command flag names onto configuration keys.
var flagKeys = map[string]string{
	"locale":         "locale",
	"log-level":      "log.level",
	"dev":            "log.development",
	"cooldown":       "cooldown_seconds",
	"flows-dir":      "flows_dir",
	"fixed-code":     "backend.fixed_code",
	"metrics":        "metrics.enabled",
	"max-attempts":   "max_attempts",
	"complete-delay": "completion_delay",
}

// Options controls where Load looks for configuration.
type Options struct {
	// ConfigFile is an explicit YAML file. When empty, authflow.yaml is looked
	// up in the working directory and its absence is not an error.
	ConfigFile string
	// EnvFile is loaded into the process environment before the environment
	// is read. A missing file is ignored.
	EnvFile string
	// Flags are bound over every other source when set.
	Flags *pflag.FlagSet
}

// ValidationError reports an invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

var validate = validator.New()

// Load resolves the configuration. Precedence, highest first: flags,
// AUTHFLOW_* environment variables (including those loaded from EnvFile),
// the config file, defaults.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, pkgerrors.Wrapf(err, "load env file %s", opts.EnvFile)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, pkgerrors.Wrap(err, "read config")
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, pkgerrors.Wrapf(err, "bind flag %s", name)
			}
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, pkgerrors.Wrap(err, "decode config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ValidationError{Field: "config", Message: "is nil"}
	}
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return pkgerrors.Wrap(err, "validate config")
	}
	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed %q (param %q)", fe.Tag(), fe.Param()),
		})
	}
	return errors.Join(out...)
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("locale", d.Locale)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("cooldown_seconds", d.CooldownSeconds)
	v.SetDefault("completion_delay", d.CompletionDelay)
	v.SetDefault("max_attempts", d.MaxAttempts)
	v.SetDefault("flows_dir", d.FlowsDir)
	v.SetDefault("backend.send_delay", d.Backend.SendDelay)
	v.SetDefault("backend.verify_delay", d.Backend.VerifyDelay)
	v.SetDefault("backend.submit_delay", d.Backend.SubmitDelay)
	v.SetDefault("backend.deactivate_delay", d.Backend.DeactivateDelay)
	v.SetDefault("backend.code_ttl", d.Backend.CodeTTL)
	v.SetDefault("backend.fixed_code", d.Backend.FixedCode)
	v.SetDefault("backend.demo_phone", d.Backend.DemoPhone)
	v.SetDefault("backend.demo_password", d.Backend.DemoPassword)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
}
