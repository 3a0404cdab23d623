package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	verisealhttp "github.com/veriseal/veriseal/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for veriseal.
type Config struct {
	Env      string                    `mapstructure:"env"`
	Server   ServerConfig              `mapstructure:"server"`
	B2       B2Config                  `mapstructure:"b2"`
	Registry RegistryConfig            `mapstructure:"registry"`
	Reports  ReportsConfig             `mapstructure:"reports"`
	CORS     verisealhttp.CORSConfig   `mapstructure:"cors"`
	Log      LogConfig                 `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          int   `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize int64 `mapstructure:"max_upload_size" validate:"min=0"`
}

// B2Config holds remote object store credentials and bucket settings.
// Credentials may be left empty; the store then reports itself disabled and
// uploads are rejected while lookups keep working.
type B2Config struct {
	KeyID          string `mapstructure:"key_id"`
	ApplicationKey string `mapstructure:"application_key"`
	BucketID       string `mapstructure:"bucket_id"`
	BucketName     string `mapstructure:"bucket_name"`
	PublicBaseURL  string `mapstructure:"public_base_url"`
	TimeoutSecs    int    `mapstructure:"timeout_seconds" validate:"min=0"`
}

// RegistryConfig selects and configures the fingerprint registry store.
type RegistryConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=file sqlite postgres"`
	// Path is the registry JSON file, used by the file backend.
	Path string `mapstructure:"path"`
	// DSN and Table configure the sqlite/postgres backends.
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// ReportsConfig guards the internal report listing.
type ReportsConfig struct {
	Key string `mapstructure:"key"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":             "server.port",
	"registry-backend": "registry.backend",
	"registry-path":    "registry.path",
	"db-dsn":           "registry.dsn",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_size", 0) // 0 means no limit

	v.SetDefault("b2.timeout_seconds", 30)

	v.SetDefault("registry.backend", "file")
	v.SetDefault("registry.path", "reports.json")
	v.SetDefault("registry.dsn", "veriseal.db")
	v.SetDefault("registry.table", "veriseal_reports")

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("VERISEAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
