package shared

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv          string   `koanf:"app_env"`
	LogLevel        string   `koanf:"log_level"`
	HTTPAddr        string   `koanf:"http_addr"`
	MetricsAddr     string   `koanf:"metrics_addr"`
	MySQLDSN        string   `koanf:"mysql_dsn"`
	RedisAddr       string   `koanf:"redis_addr"`
	RedisDB         int      `koanf:"redis_db"`
	RedisPass       string   `koanf:"redis_password"`
	CacheTTLSeconds int      `koanf:"cache_ttl_seconds"`
	SessionTTLHours int      `koanf:"session_ttl_hours"`
	CORSOrigins     []string `koanf:"cors_origins"`
	RatePerMinute   int      `koanf:"rate_per_minute"`
	RatePerHour     int      `koanf:"rate_per_hour"`
	RatePerDay      int      `koanf:"rate_per_day"`
	GeocodeBase     string   `koanf:"geocode_base_url"`
	GeocodeKey      string   `koanf:"geocode_api_key"`
	Workers         int      `koanf:"import_workers"`
	ImportDir       string   `koanf:"import_dir"`

	// client side
	BaseURL    string `koanf:"hh_base_url"`
	Session    string `koanf:"hh_session"`
	CSRF       string `koanf:"hh_csrf"`
	MapStyleID string `koanf:"map_style_id"`

	CacheTTL   time.Duration `koanf:"-"`
	SessionTTL time.Duration `koanf:"-"`
}

func defaults() Config {
	return Config{
		AppEnv:          "prod",
		LogLevel:        "info",
		HTTPAddr:        ":8080",
		MetricsAddr:     "",
		MySQLDSN:        "root:root@tcp(localhost:3306)/heritage?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		RedisAddr:       "localhost:6379",
		CacheTTLSeconds: 900,
		SessionTTLHours: 24 * 14,
		CORSOrigins:     []string{"http://localhost:*", "http://127.0.0.1:*"},
		RatePerMinute:   10,
		RatePerHour:     100,
		RatePerDay:      400,
		GeocodeBase:     "https://maps.googleapis.com/maps/api/geocode/json",
		Workers:         4,
		ImportDir:       "scraped_data",
		BaseURL:         "http://localhost:8080",
		MapStyleID:      "heritage-hunter",
	}
}

// Load layers defaults, an optional YAML file (HH_CONFIG_FILE) and the environment.
// Keys are the lower-cased environment names, e.g. HTTP_ADDR -> http_addr.
func Load() Config {
	k := koanf.New(".")
	c := defaults()

	if path := os.Getenv("HH_CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			log.Error().Err(err).Str("path", path).Msg("config file ignored")
		}
	}

	known := map[string]bool{}
	for _, key := range keys {
		known[key] = true
	}
	if err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if !known[key] {
			return ""
		}
		return key
	}), nil); err != nil {
		log.Error().Err(err).Msg("env overrides ignored")
	}
	// comma-separated env value
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		_ = k.Set("cors_origins", splitList(v))
	}

	if k.Exists("cors_origins") {
		c.CORSOrigins = nil // replace, don't merge into the default list
	}
	if err := k.Unmarshal("", &c); err != nil {
		log.Error().Err(err).Msg("config unmarshal failed; using defaults")
		c = defaults()
	}
	c.CacheTTL = time.Duration(c.CacheTTLSeconds) * time.Second
	c.SessionTTL = time.Duration(c.SessionTTLHours) * time.Hour

	if c.GeocodeKey == "" {
		log.Debug().Msg("GEOCODE_API_KEY is empty")
	}
	return c
}

var keys = []string{
	"app_env", "log_level", "http_addr", "metrics_addr", "mysql_dsn", "redis_addr", "redis_db", "redis_password",
	"cache_ttl_seconds", "session_ttl_hours", "rate_per_minute", "rate_per_hour", "rate_per_day",
	"geocode_base_url", "geocode_api_key", "import_workers", "import_dir",
	"hh_base_url", "hh_session", "hh_csrf", "map_style_id",
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
