package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/r2gate"
	r2gatehttp "github.com/sagarc03/r2gate/http"
	"github.com/sagarc03/r2gate/s3store"
	"github.com/sagarc03/r2gate/sessionbackend"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "R2GATE"

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

// Config is the root configuration struct for r2gate.
type Config struct {
	Env     string                `mapstructure:"env"`
	Server  ServerConfig          `mapstructure:"server"`
	Auth    AuthConfig            `mapstructure:"auth"`
	Session sessionbackend.Config `mapstructure:"session"`
	Storage StorageConfig         `mapstructure:"storage"`
	CORS    r2gatehttp.CORSConfig `mapstructure:"cors"`
	Log     LogConfig             `mapstructure:"log"`
}

// IsProduction reports whether production cookies and JSON logs are in effect.
func (c *Config) IsProduction() bool {
	return c.Server.Production || c.Env == "prod" || c.Env == "production"
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host" validate:"required,ip"`
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	Production      bool          `mapstructure:"production"`
	CookieDomain    string        `mapstructure:"cookie_domain" validate:"required_if=Production true"`
	MaxUploadSize   int64         `mapstructure:"max_upload_size" validate:"min=0"`
	StaticDir       string        `mapstructure:"static_dir"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthConfig holds the credential table and session settings.
type AuthConfig struct {
	UsersFile    string                 `mapstructure:"users_file"`
	Users        map[string]r2gate.User `mapstructure:"users"`
	SessionTTL   time.Duration          `mapstructure:"session_ttl" validate:"min=0"`
	CookieMaxAge time.Duration          `mapstructure:"cookie_max_age" validate:"min=0"`
}

// StorageConfig selects the object store.
type StorageConfig struct {
	Type   string `mapstructure:"type" validate:"required,oneof=s3 filesystem"`
	Prefix string `mapstructure:"prefix"`
	// Path is the root directory of the filesystem store.
	Path string `mapstructure:"path" validate:"required_if=Type filesystem"`
	// S3 is validated when the store is built so that commands which never
	// touch storage run without bucket credentials.
	S3 s3store.Config `mapstructure:"s3" validate:"-"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"host":         "server.host",
	"port":         "server.port",
	"production":   "server.production",
	"static-dir":   "server.static_dir",
	"users-file":   "auth.users_file",
	"session-type": "session.type",
	"session-dsn":  "session.dsn",
	"storage-type": "storage.type",
	"storage-path": "storage.path",
	"log-level":    "log.level",
}

// legacyEnv lists the unprefixed variables accepted for each key, in the form
// used by existing .env files.
var legacyEnv = map[string]string{
	"server.host":                  "SERVER_IP",
	"server.port":                  "SERVER_PORT",
	"server.production":            "PRODUCTION",
	"auth.users_file":              "USERS_FILE",
	"storage.s3.account_id":        "R2_ACCOUNT_ID",
	"storage.s3.access_key_id":     "R2_ACCESS_KEY_ID",
	"storage.s3.secret_access_key": "R2_SECRET_ACCESS_KEY",
	"storage.s3.bucket":            "R2_BUCKET_NAME",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
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

// bindEnv registers the prefixed variable for every known key plus the
// legacy alias where one exists. The prefixed name wins when both are set.
func bindEnv(v *viper.Viper) {
	replacer := strings.NewReplacer(".", "_")
	for _, key := range v.AllKeys() {
		names := []string{EnvPrefix + "_" + strings.ToUpper(replacer.Replace(key))}
		if legacy, ok := legacyEnv[key]; ok {
			names = append(names, legacy)
		}
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
}

// setDefaults configures default values on the viper instance. Every key is
// given a default so that it can be set from the environment alone.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.production", false)
	v.SetDefault("server.cookie_domain", "admin.seemsgood.org")
	v.SetDefault("server.max_upload_size", 0) // 0 means no limit
	v.SetDefault("server.static_dir", "static")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("auth.users_file", "users.json")
	v.SetDefault("auth.session_ttl", 0) // 0 means sessions never expire
	v.SetDefault("auth.cookie_max_age", 30*24*time.Hour)

	v.SetDefault("session.type", sessionbackend.TypeMemory)
	v.SetDefault("session.dsn", "")
	v.SetDefault("session.table", "r2gate_sessions")
	v.SetDefault("session.redis.addr", "localhost:6379")
	v.SetDefault("session.redis.username", "")
	v.SetDefault("session.redis.password", "")
	v.SetDefault("session.redis.db", 0)

	v.SetDefault("storage.type", "s3")
	v.SetDefault("storage.prefix", r2gate.DefaultNamespace)
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.s3.account_id", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.region", s3store.DefaultRegion)
	v.SetDefault("storage.s3.use_path_style", false)

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "")
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
	bindEnv(v)

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
