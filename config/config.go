// Package config loads the voyaged configuration from a YAML file, an
// optional .env file and VOYAGED_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "VOYAGED_"

// Config is the root configuration structure
type Config struct {
	HTTP     ServerConfig   `yaml:"http" validate:"required"`
	GRPC     ServerConfig   `yaml:"grpc" validate:"required"`
	Tracker  TrackerConfig  `yaml:"tracker" validate:"required"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Router   RouterConfig   `yaml:"router" validate:"required"`
	Redis    RedisConfig    `yaml:"redis"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Zipkin   ZipkinConfig   `yaml:"zipkin"`
	CORS     CORSConfig     `yaml:"cors"`
}

// ServerConfig contains a listen address
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// TrackerConfig contains the shipment tracking provider settings
type TrackerConfig struct {
	Endpoint     string        `yaml:"endpoint" validate:"required,url"`
	APIKey       string        `yaml:"apiKey"`
	PollAttempts int           `yaml:"pollAttempts" validate:"gt=0"`
	PollInterval time.Duration `yaml:"pollInterval" validate:"gte=0"`
}

// GeocoderConfig contains the port geocoding API settings. An empty URL
// disables geocoding; ports are then only looked up in the catalog.
type GeocoderConfig struct {
	URL      string        `yaml:"url" validate:"omitempty,url"`
	APIKey   string        `yaml:"apiKey"`
	CacheTTL time.Duration `yaml:"cacheTTL" validate:"gte=0"`
}

// RouterConfig contains the sea route planner settings
type RouterConfig struct {
	URL   string        `yaml:"url" validate:"required,url"`
	Units string        `yaml:"units" validate:"oneof=m meters km kilometers nm naut mi miles"`
	Pace  time.Duration `yaml:"pace" validate:"gt=0"`
}

// RedisConfig contains the geocoding cache settings. An empty Addr
// disables the cache.
type RedisConfig struct {
	Addr     string `yaml:"addr" validate:"omitempty,hostname_port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

// MongoConfig contains the document store settings. An empty URI keeps
// cargos in memory.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database" validate:"required_with=URI"`
}

// CatalogConfig contains the port catalog settings
type CatalogConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// ZipkinConfig contains the tracing settings. An empty URL disables the
// reporter.
type ZipkinConfig struct {
	URL string `yaml:"url" validate:"omitempty,url"`
}

// CORSConfig lists the origins allowed to call the HTTP API
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// Default returns the configuration used for anything the file and the
// environment leave unset.
func Default() Config {
	return Config{
		HTTP: ServerConfig{Addr: ":8080"},
		GRPC: ServerConfig{Addr: ":8081"},
		Tracker: TrackerConfig{
			PollAttempts: 20,
			PollInterval: 5 * time.Second,
		},
		Geocoder: GeocoderConfig{CacheTTL: 30 * 24 * time.Hour},
		Router: RouterConfig{
			Units: "km",
			Pace:  36 * time.Millisecond,
		},
		Mongo:   MongoConfig{Database: "voyaged"},
		Catalog: CatalogConfig{Path: "ports.db"},
		CORS:    CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

// Load reads the YAML file at path over the defaults, then envFile, then
// the environment, and validates the result. An empty path skips the file;
// a missing envFile is ignored.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HTTP_ADDR":        &cfg.HTTP.Addr,
		"GRPC_ADDR":        &cfg.GRPC.Addr,
		"TRACKER_ENDPOINT": &cfg.Tracker.Endpoint,
		"TRACKER_API_KEY":  &cfg.Tracker.APIKey,
		"GEOCODER_URL":     &cfg.Geocoder.URL,
		"GEOCODER_API_KEY": &cfg.Geocoder.APIKey,
		"ROUTER_URL":       &cfg.Router.URL,
		"ROUTER_UNITS":     &cfg.Router.Units,
		"REDIS_ADDR":       &cfg.Redis.Addr,
		"REDIS_PASSWORD":   &cfg.Redis.Password,
		"MONGO_URI":        &cfg.Mongo.URI,
		"MONGO_DATABASE":   &cfg.Mongo.Database,
		"CATALOG_PATH":     &cfg.Catalog.Path,
		"ZIPKIN_URL":       &cfg.Zipkin.URL,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"TRACKER_POLL_ATTEMPTS": &cfg.Tracker.PollAttempts,
		"REDIS_DB":              &cfg.Redis.DB,
	}
	for name, dst := range ints {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"TRACKER_POLL_INTERVAL": &cfg.Tracker.PollInterval,
		"GEOCODER_CACHE_TTL":    &cfg.Geocoder.CacheTTL,
		"ROUTER_PACE":           &cfg.Router.Pace,
	}
	for name, dst := range durations {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = d
		}
	}

	if v, ok := lookup(EnvPrefix + "CORS_ALLOWED_ORIGINS"); ok {
		cfg.CORS.AllowedOrigins = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	}
	return nil
}
