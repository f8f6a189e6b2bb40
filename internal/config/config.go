package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Search    SearchConfig    `mapstructure:"search"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Import    ImportConfig    `mapstructure:"import"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// DatabaseConfig selects the store. Driver is "postgres" or "sqlite".
// URL, when set, overrides the individual postgres fields.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	Path            string        `mapstructure:"path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the driver-specific data source name.
func (c DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// StorageConfig configures S3-compatible media storage.
type StorageConfig struct {
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	PublicURL string `mapstructure:"public_url"`
}

type SearchConfig struct {
	DefaultPageSize      int  `mapstructure:"default_page_size"`
	MaxPageSize          int  `mapstructure:"max_page_size"`
	SuggestionLimit      int  `mapstructure:"suggestion_limit"`
	SuggestOnZeroResults bool `mapstructure:"suggest_on_zero_results"`
	RecordAnalytics      bool `mapstructure:"record_analytics"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type ImportConfig struct {
	Workers     int        `mapstructure:"workers"`
	BatchSize   int        `mapstructure:"batch_size"`
	RetryCount  int        `mapstructure:"retry_count"`
	StagingPath string     `mapstructure:"staging_path"`
	Feed        FeedConfig `mapstructure:"feed"`
}

type TelemetryConfig struct {
	TracingEnabled bool    `mapstructure:"tracing_enabled"`
	Exporter       string  `mapstructure:"exporter"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
	MetricsEnabled bool    `mapstructure:"metrics_enabled"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.access_key", "S3_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "S3_SECRET_KEY")
	v.BindEnv("storage.bucket", "S3_BUCKET")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("import.feed.api_key", "FEED_API_KEY")
	v.BindEnv("import.feed.base_url", "FEED_BASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Import.Feed.ResolveEnvVars()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/gemstore.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gemstore")
	v.SetDefault("database.dbname", "gemstore")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("storage.type", "s3compatible")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "gemstones")

	v.SetDefault("search.default_page_size", 24)
	v.SetDefault("search.max_page_size", 100)
	v.SetDefault("search.suggestion_limit", 5)
	v.SetDefault("search.suggest_on_zero_results", true)
	v.SetDefault("search.record_analytics", true)

	v.SetDefault("auth.issuer", "gemstore")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("import.workers", 5)
	v.SetDefault("import.batch_size", 50)
	v.SetDefault("import.retry_count", 3)
	v.SetDefault("import.staging_path", "./data/staging")
	v.SetDefault("import.feed.name", "feed")
	v.SetDefault("import.feed.page_size", 100)
	v.SetDefault("import.feed.timeout", 30*time.Second)

	v.SetDefault("telemetry.tracing_enabled", false)
	v.SetDefault("telemetry.exporter", "stdout")
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.metrics_enabled", true)
}
