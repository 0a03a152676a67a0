package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/bassista/go_fuel/internal/logger"
)

const (
	BackendTypeRemote = "remote"
	BackendTypeMemory = "memory"

	EncodingMultipart = "multipart"
	EncodingJSON      = "json"
)

// Config is the fully resolved application configuration.
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Feedback FeedbackConfig
	Misc     MiscConfig
}

type ServerConfig struct {
	Port               int           `validate:"min=1,max=65535"`
	ReadTimeout        time.Duration `validate:"gt=0"`
	WriteTimeout       time.Duration `validate:"gt=0"`
	IdleTimeout        time.Duration `validate:"gt=0"`
	ShutDownTimeout    time.Duration `validate:"gt=0"`
	RequestTimeout     time.Duration `validate:"gt=0"`
	CORSAllowedOrigins string
}

// BackendConfig describes the upstream REST backend the console talks to.
type BackendConfig struct {
	Type            string `validate:"oneof=remote memory"`
	BaseURL         string
	RequestTimeout  time.Duration `validate:"gte=0"` // 0 leaves the transport's own limits
	SeedFile        string
	// PersistInterval is how often a seeded memory backend is written back; 0 disables it.
	PersistInterval time.Duration `validate:"gte=0"`
	// Endpoints overrides the built-in endpoint table per entity kind.
	Endpoints map[string]EndpointConfig `validate:"dive"`
}

type EndpointConfig struct {
	Base     string `mapstructure:"base"`
	Encoding string `mapstructure:"encoding" validate:"omitempty,oneof=multipart json"`
}

type FeedbackConfig struct {
	ToastDuration time.Duration `validate:"gt=0"`
	SweepInterval time.Duration `validate:"gt=0"`
}

type MiscConfig struct {
	LogLevel string
	GinMode  string
}

// LoadConfig reads .env, config.yaml and GO_FUEL_* env vars, in increasing priority.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithComponent("config").Warnf("cannot load .env file: %v", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(getEnvOrDefault("GO_FUEL_CONFIG_DIR", "./config"))

	setDefaults()

	// GO_FUEL_BACKEND_BASE_URL overrides backend.base_url
	viper.SetEnvPrefix("GO_FUEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		logger.WithComponent("config").Info("no config file found, using defaults and env vars")
	}

	return build()
}

func setDefaults() {
	viper.SetDefault("server.port", 8085)
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.idle_timeout", 120*time.Second)
	viper.SetDefault("server.shutdown_timeout", 5*time.Second)
	viper.SetDefault("server.request_timeout", 2*time.Second)
	viper.SetDefault("server.cors_allowed_origins", "*")

	viper.SetDefault("backend.type", BackendTypeRemote)
	viper.SetDefault("backend.base_url", "http://localhost:8080")
	viper.SetDefault("backend.request_timeout", 30*time.Second)
	viper.SetDefault("backend.seed_file", "")
	viper.SetDefault("backend.persist_interval", 0)

	viper.SetDefault("feedback.toast_duration", 3*time.Second)
	viper.SetDefault("feedback.sweep_interval", 500*time.Millisecond)

	viper.SetDefault("misc.log_level", "info")
	viper.SetDefault("misc.gin_mode", "release")
}

func build() (*Config, error) {
	endpoints := map[string]EndpointConfig{}
	if err := viper.UnmarshalKey("backend.endpoints", &endpoints); err != nil {
		return nil, fmt.Errorf("decode backend.endpoints: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnvOrViperPort("PORT", "server.port"),
			ReadTimeout:        viper.GetDuration("server.read_timeout"),
			WriteTimeout:       viper.GetDuration("server.write_timeout"),
			IdleTimeout:        viper.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    viper.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     viper.GetDuration("server.request_timeout"),
			CORSAllowedOrigins: viper.GetString("server.cors_allowed_origins"),
		},
		Backend: BackendConfig{
			Type:            strings.ToLower(viper.GetString("backend.type")),
			BaseURL:         viper.GetString("backend.base_url"),
			RequestTimeout:  viper.GetDuration("backend.request_timeout"),
			SeedFile:        viper.GetString("backend.seed_file"),
			PersistInterval: viper.GetDuration("backend.persist_interval"),
			Endpoints:       endpoints,
		},
		Feedback: FeedbackConfig{
			ToastDuration: viper.GetDuration("feedback.toast_duration"),
			SweepInterval: viper.GetDuration("feedback.sweep_interval"),
		},
		Misc: MiscConfig{
			LogLevel: viper.GetString("misc.log_level"),
			GinMode:  viper.GetString("misc.gin_mode"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Backend.Type == BackendTypeRemote {
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid backend.base_url %q: must be an absolute URL", c.Backend.BaseURL)
		}
	}
	return nil
}

// Watch re-reads the config file on change and hands the new config to onChange.
// Invalid edits are logged and ignored; the previous config stays in effect.
// It returns false when no config file was loaded, as there is nothing to watch.
func Watch(onChange func(*Config)) bool {
	if viper.ConfigFileUsed() == "" {
		return false
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		cfg, err := build()
		if err != nil {
			logger.WithComponent("config").Errorf("config reload from %s rejected: %v", e.Name, err)
			return
		}
		logger.WithComponent("config").Infof("config reloaded from %s", e.Name)
		onChange(cfg)
	})
	viper.WatchConfig()
	return true
}

// ApplyLogLevel sets the global log level, falling back to info on bad input.
func (c *Config) ApplyLogLevel() {
	if err := logger.ApplyLevel(c.Misc.LogLevel); err != nil {
		logger.WithComponent("config").Warnf("invalid log level '%s', using 'info': %v", c.Misc.LogLevel, err)
		logger.Logger.SetLevel(logrus.InfoLevel)
	}
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvOrViperPort lets a bare PORT env var (as set by most PaaS) win over config.
func getEnvOrViperPort(envKey, viperKey string) int {
	if v := os.Getenv(envKey); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			return p
		}
		logger.WithComponent("config").Warnf("ignoring non-numeric %s=%q", envKey, v)
	}
	return viper.GetInt(viperKey)
}
