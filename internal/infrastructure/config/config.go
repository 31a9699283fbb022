package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lifeos/core/internal/domain/entities"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Client   ClientConfig   `mapstructure:"client"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ClientConfig holds sync client configuration
type ClientConfig struct {
	APIURL  string        `mapstructure:"api_url" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" validate:"min=5s,max=10s"`
	DataDir string        `mapstructure:"data_dir" validate:"required"`
}

// BackendConfig holds the environment credential fallbacks used when a request
// carries no credential headers.
type BackendConfig struct {
	DatabaseURL string `mapstructure:"database_url"`
	PSHost      string `mapstructure:"ps_host"`
	PSUsername  string `mapstructure:"ps_username"`
	PSPassword  string `mapstructure:"ps_password"`
	SupabaseURL string `mapstructure:"supabase_url"`
	SupabaseKey string `mapstructure:"supabase_key"`
}

// Credentials converts the environment fallbacks into domain credentials.
func (b BackendConfig) Credentials() entities.Credentials {
	return entities.Credentials{
		DatabaseURL: b.DatabaseURL,
		PSHost:      b.PSHost,
		PSUsername:  b.PSUsername,
		PSPassword:  b.PSPassword,
		SupabaseURL: b.SupabaseURL,
		SupabaseKey: b.SupabaseKey,
	}
}

// AuthConfig holds the password gate and session configuration
type AuthConfig struct {
	Password   string        `mapstructure:"password" validate:"required"`
	JWTSecret  string        `mapstructure:"jwt_secret" validate:"required"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// NotifyConfig holds the deadline notifier configuration
type NotifyConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"min=1s"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "LifeOS")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")

	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Client defaults
	viper.SetDefault("client.api_url", "http://localhost:8080/api")
	viper.SetDefault("client.timeout", "8s")
	viper.SetDefault("client.data_dir", defaultDataDir())

	// Auth defaults
	viper.SetDefault("auth.password", "admin")
	viper.SetDefault("auth.jwt_secret", "lifeos-local-session")
	viper.SetDefault("auth.session_ttl", "24h")

	// Notifier defaults
	viper.SetDefault("notify.interval", "60s")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
	viper.SetDefault("logger.output", "stdout")

	// Security defaults
	viper.SetDefault("security.cors_allowed_origins", "*")
	viper.SetDefault("security.rate_limit_requests", 100)
	viper.SetDefault("security.rate_limit_window", "1m")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
}

func bindEnvVars() {
	// App
	viper.BindEnv("app.name", "APP_NAME")
	viper.BindEnv("app.version", "APP_VERSION")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	viper.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")

	// Client
	viper.BindEnv("client.api_url", "LIFEOS_API_URL")
	viper.BindEnv("client.timeout", "LIFEOS_SYNC_TIMEOUT")
	viper.BindEnv("client.data_dir", "LIFEOS_DATA_DIR")

	// Backend credential fallbacks (names fixed by the wire contract)
	viper.BindEnv("backend.database_url", "DATABASE_URL")
	viper.BindEnv("backend.ps_host", "PS_HOST")
	viper.BindEnv("backend.ps_username", "PS_USERNAME")
	viper.BindEnv("backend.ps_password", "PS_PASSWORD")
	viper.BindEnv("backend.supabase_url", "SUPABASE_URL")
	viper.BindEnv("backend.supabase_key", "SUPABASE_KEY")

	// Auth
	viper.BindEnv("auth.password", "LIFEOS_PASSWORD")
	viper.BindEnv("auth.jwt_secret", "JWT_SECRET")
	viper.BindEnv("auth.session_ttl", "SESSION_TTL")

	// Notifier
	viper.BindEnv("notify.interval", "NOTIFY_INTERVAL")

	// Logger
	viper.BindEnv("logger.level", "LOG_LEVEL")
	viper.BindEnv("logger.format", "LOG_FORMAT")
	viper.BindEnv("logger.output", "LOG_OUTPUT")
	viper.BindEnv("logger.filename", "LOG_FILENAME")

	// Security
	viper.BindEnv("security.cors_allowed_origins", "CORS_ALLOWED_ORIGINS")
	viper.BindEnv("security.rate_limit_requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("security.rate_limit_window", "RATE_LIMIT_WINDOW")

	// Metrics
	viper.BindEnv("metrics.enabled", "ENABLE_METRICS")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lifeos"
	}
	return filepath.Join(home, ".lifeos")
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}
