package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Desktop   DesktopConfig   `mapstructure:"desktop"`
	Datasets  DatasetsConfig  `mapstructure:"datasets"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Feedback  FeedbackConfig  `mapstructure:"feedback"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DesktopConfig points at the desktop application's dataset server.
type DesktopConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
}

// Feature sources.
const (
	SourceDesktop  = "desktop"
	SourcePostgres = "postgres"
)

type DatasetsConfig struct {
	FeaturesSource string `mapstructure:"features_source"`
	LoadOnStart    bool   `mapstructure:"load_on_start"`
	CacheTTL       int    `mapstructure:"cache_ttl"`
}

type DatabaseConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	DBName        string `mapstructure:"dbname"`
	SSLMode       string `mapstructure:"sslmode"`
	MaxConns      int32  `mapstructure:"max_conns"`
	FeaturesTable string `mapstructure:"features_table"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type TemporalConfig struct {
	HostPort        string `mapstructure:"host_port"`
	Namespace       string `mapstructure:"namespace"`
	TaskQueue       string `mapstructure:"task_queue"`
	PreloadInterval int    `mapstructure:"preload_interval"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// FeedbackConfig seeds every new touch session.
type FeedbackConfig struct {
	ScreenWidth  float64 `mapstructure:"screen_width"`
	ScreenHeight float64 `mapstructure:"screen_height"`
	Radius       float64 `mapstructure:"radius"`
	MinFreq      float64 `mapstructure:"min_freq"`
	MaxFreq      float64 `mapstructure:"max_freq"`
	Volume       float64 `mapstructure:"volume"`
	TopLat       float64 `mapstructure:"top_lat"`
	BottomLat    float64 `mapstructure:"bottom_lat"`
	LeftLon      float64 `mapstructure:"left_lon"`
	RightLon     float64 `mapstructure:"right_lon"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("desktop.base_url", "http://localhost:5000")
	v.SetDefault("desktop.timeout", 10)
	v.SetDefault("datasets.features_source", SourceDesktop)
	v.SetDefault("datasets.load_on_start", true)
	v.SetDefault("datasets.cache_ttl", 3600)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "tactilemap")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "tactilemap")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.features_table", "map_features")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.enabled", true)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "tactilemap-datasets")
	v.SetDefault("temporal.preload_interval", 900)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("feedback.screen_width", 800)
	v.SetDefault("feedback.screen_height", 600)
	v.SetDefault("feedback.radius", 5)
	v.SetDefault("feedback.min_freq", 220)
	v.SetDefault("feedback.max_freq", 880)
	v.SetDefault("feedback.volume", 1)
	v.SetDefault("feedback.top_lat", 90)
	v.SetDefault("feedback.bottom_lat", -90)
	v.SetDefault("feedback.left_lon", -180)
	v.SetDefault("feedback.right_lon", 180)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: TACTILEMAP_DESKTOP_BASE_URL → desktop.base_url
	v.SetEnvPrefix("TACTILEMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Desktop.BaseURL == "" {
		errs = append(errs, "desktop.base_url is required")
	}
	if c.Desktop.Timeout <= 0 {
		errs = append(errs, "desktop.timeout must be positive")
	}

	switch c.Datasets.FeaturesSource {
	case SourceDesktop:
	case SourcePostgres:
		if !c.Database.Enabled {
			errs = append(errs, "datasets.features_source=postgres requires database.enabled")
		}
	default:
		errs = append(errs, fmt.Sprintf("datasets.features_source must be %q or %q, got %q", SourceDesktop, SourcePostgres, c.Datasets.FeaturesSource))
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
		if c.Database.FeaturesTable == "" {
			errs = append(errs, "database.features_table is required")
		}
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}

	f := c.Feedback
	if f.ScreenWidth <= 0 || f.ScreenHeight <= 0 {
		errs = append(errs, "feedback.screen_width and feedback.screen_height must be positive")
	}
	if f.Radius < 0 {
		errs = append(errs, "feedback.radius must not be negative")
	}
	if f.MinFreq <= 0 || f.MinFreq >= f.MaxFreq {
		errs = append(errs, fmt.Sprintf("feedback.min_freq must be positive and below max_freq, got %g/%g", f.MinFreq, f.MaxFreq))
	}
	if f.Volume < 0 || f.Volume > 1 {
		errs = append(errs, "feedback.volume must be within [0,1]")
	}
	if f.TopLat <= f.BottomLat || f.TopLat > 90 || f.BottomLat < -90 {
		errs = append(errs, "feedback.top_lat/bottom_lat must satisfy -90 <= bottom < top <= 90")
	}
	if f.RightLon <= f.LeftLon || f.RightLon > 180 || f.LeftLon < -180 {
		errs = append(errs, "feedback.left_lon/right_lon must satisfy -180 <= left < right <= 180")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
