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
	Render    RenderConfig    `mapstructure:"render"`
	Tiles     TilesConfig     `mapstructure:"tiles"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	ReadTimeout    int `mapstructure:"read_timeout"`
	WriteTimeout   int `mapstructure:"write_timeout"`
	RequestTimeout int `mapstructure:"request_timeout"`
	BodyLimitMB    int `mapstructure:"body_limit_mb"`
	RateLimit      int `mapstructure:"rate_limit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RenderConfig holds the map and figure defaults shared by both renderers.
type RenderConfig struct {
	Zoom           int        `mapstructure:"zoom"`
	MarkerDiameter float64    `mapstructure:"marker_diameter"`
	CenterLat      float64    `mapstructure:"center_lat"`
	CenterLon      float64    `mapstructure:"center_lon"`
	ColorMap       string     `mapstructure:"colormap"`
	FigureWidth    float64    `mapstructure:"figure_width"`  // inches
	FigureHeight   float64    `mapstructure:"figure_height"` // inches
	DPI            int        `mapstructure:"dpi"`
	Categories     ViewConfig `mapstructure:"categories"`
	Scale          ViewConfig `mapstructure:"scale"`
}

// ViewConfig holds per-renderer map defaults.
type ViewConfig struct {
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	LatColumn string `mapstructure:"lat_column"`
	LonColumn string `mapstructure:"lon_column"`
	// FixedCenter pins the map to the default center instead of fitting markers.
	FixedCenter bool `mapstructure:"fixed_center"`
}

type TilesConfig struct {
	Provider     string `mapstructure:"provider"`
	URLPattern   string `mapstructure:"url_pattern"`
	Attribution  string `mapstructure:"attribution"`
	APIKey       string `mapstructure:"api_key"`
	CacheDir     string `mapstructure:"cache_dir"`
	DisableCache bool   `mapstructure:"disable_cache"`
	Offline      bool   `mapstructure:"offline"`
	UserAgent    string `mapstructure:"user_agent"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
	TTL  int    `mapstructure:"ttl"` // seconds
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: GEOSCATTER_TILES_PROVIDER → tiles.provider
	v.SetEnvPrefix("GEOSCATTER")
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

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.request_timeout", 45)
	v.SetDefault("server.body_limit_mb", 16)
	v.SetDefault("server.rate_limit", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("render.zoom", 12)
	v.SetDefault("render.marker_diameter", 10)
	v.SetDefault("render.center_lat", 50.0859818)
	v.SetDefault("render.center_lon", 14.4399466)
	v.SetDefault("render.colormap", "inferno")
	v.SetDefault("render.figure_width", 15)
	v.SetDefault("render.figure_height", 10)
	v.SetDefault("render.dpi", 100)
	v.SetDefault("render.categories.width", 1600)
	v.SetDefault("render.categories.height", 1000)
	v.SetDefault("render.categories.lat_column", "lat")
	v.SetDefault("render.categories.lon_column", "lng")
	v.SetDefault("render.categories.fixed_center", true)
	v.SetDefault("render.scale.width", 1600)
	v.SetDefault("render.scale.height", 1066)
	v.SetDefault("render.scale.lat_column", "locality_gps_lat")
	v.SetDefault("render.scale.lon_column", "locality_gps_lon")
	v.SetDefault("render.scale.fixed_center", false)

	v.SetDefault("tiles.provider", "osm")
	v.SetDefault("tiles.url_pattern", "")
	v.SetDefault("tiles.attribution", "")
	v.SetDefault("tiles.api_key", "")
	v.SetDefault("tiles.cache_dir", "")
	v.SetDefault("tiles.disable_cache", false)
	v.SetDefault("tiles.offline", false)
	v.SetDefault("tiles.user_agent", "geoscatter/1.0")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "geoscatter")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "geoscatter")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.ttl", 3600)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
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
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}
	if c.Server.BodyLimitMB <= 0 {
		errs = append(errs, "server.body_limit_mb must be positive")
	}

	r := c.Render
	if r.Zoom < 0 || r.Zoom > 19 {
		errs = append(errs, fmt.Sprintf("render.zoom must be 0-19, got %d", r.Zoom))
	}
	if r.MarkerDiameter <= 0 {
		errs = append(errs, "render.marker_diameter must be positive")
	}
	if r.CenterLat < -90 || r.CenterLat > 90 {
		errs = append(errs, fmt.Sprintf("render.center_lat must be -90..90, got %v", r.CenterLat))
	}
	if r.CenterLon < -180 || r.CenterLon > 180 {
		errs = append(errs, fmt.Sprintf("render.center_lon must be -180..180, got %v", r.CenterLon))
	}
	if r.FigureWidth <= 0 || r.FigureHeight <= 0 {
		errs = append(errs, "render.figure_width and render.figure_height must be positive")
	}
	if r.DPI <= 0 {
		errs = append(errs, "render.dpi must be positive")
	}
	for _, nv := range []struct {
		name string
		view ViewConfig
	}{{"categories", r.Categories}, {"scale", r.Scale}} {
		name, view := nv.name, nv.view
		if view.Width <= 0 || view.Height <= 0 {
			errs = append(errs, fmt.Sprintf("render.%s width and height must be positive", name))
		}
		if view.LatColumn == "" || view.LonColumn == "" {
			errs = append(errs, fmt.Sprintf("render.%s lat_column and lon_column are required", name))
		}
	}

	if c.Tiles.Provider == "" && c.Tiles.URLPattern == "" {
		errs = append(errs, "tiles.provider or tiles.url_pattern is required")
	}
	if c.Valkey.TTL < 0 {
		errs = append(errs, "valkey.ttl must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
