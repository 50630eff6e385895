package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "dronewatch/libs/config"

	"dronewatch/internal/models"
)

// ZoneConfig describes one statically configured no-fly zone.
type ZoneConfig struct {
	Name     string  `yaml:"name"`
	Lat      float64 `yaml:"lat"`
	Lng      float64 `yaml:"lng"`
	RadiusKM float64 `yaml:"radius_km"`
}

// Config defines drone service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"DRONE_HTTP_PORT"`
	} `yaml:"http"`
	Storage struct {
		Mode string `yaml:"mode" env:"DRONE_STORE_MODE"`
	} `yaml:"storage"`
	Database struct {
		DSN string `yaml:"dsn" env:"DRONE_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr           string `yaml:"addr" env:"DRONE_REDIS_ADDR"`
		Password       string `yaml:"password" env:"DRONE_REDIS_PASSWORD"`
		LiveTTLSeconds int    `yaml:"liveTtlSeconds" env:"DRONE_LIVE_TTL"`
	} `yaml:"redis"`
	Auth struct {
		Secret string `yaml:"secret" env:"DRONE_AUTH_SECRET"`
	} `yaml:"auth"`
	Telemetry struct {
		OnlineWindowSeconds int `yaml:"onlineWindowSeconds" env:"DRONE_ONLINE_WINDOW"`
	} `yaml:"telemetry"`
	Feed struct {
		URL   string `yaml:"url" env:"FEED_URL"`
		Topic string `yaml:"topic" env:"FEED_TOPIC"`
	} `yaml:"feed"`
	Geofence struct {
		Zones []ZoneConfig `yaml:"zones"`
	} `yaml:"geofence"`
}

const (
	// StoreMemory keeps all state in process memory.
	StoreMemory = "memory"
	// StorePostgres persists drones and telemetry in PostgreSQL.
	StorePostgres = "postgres"
)

// Load uses the shared config loader and validates required fields.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8000"
	cfg.Storage.Mode = StoreMemory
	cfg.Telemetry.OnlineWindowSeconds = 30
	cfg.Feed.Topic = "drones/telemetry/#"

	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	switch cfg.Storage.Mode {
	case StoreMemory:
	case StorePostgres:
		if strings.TrimSpace(cfg.Database.DSN) == "" {
			return nil, errors.New("config: database DSN is required for postgres storage")
		}
	default:
		return nil, fmt.Errorf("config: unknown storage mode %q", cfg.Storage.Mode)
	}

	return cfg, nil
}

// HTTPAddress returns :port style address.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// OnlineWindow returns how recently a drone must have reported to
// count as online.
func (c *Config) OnlineWindow() time.Duration {
	if c.Telemetry.OnlineWindowSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Telemetry.OnlineWindowSeconds) * time.Second
}

// LiveTTL returns the expiry for cached live drone state. It defaults
// to the online window, so a cache hit always describes an online drone.
func (c *Config) LiveTTL() time.Duration {
	if c.Redis.LiveTTLSeconds <= 0 {
		return c.OnlineWindow()
	}
	return time.Duration(c.Redis.LiveTTLSeconds) * time.Second
}

// NoFlyZones converts the configured zones into the model shape.
func (c *Config) NoFlyZones() []models.Zone {
	zones := make([]models.Zone, 0, len(c.Geofence.Zones))
	for _, z := range c.Geofence.Zones {
		zones = append(zones, models.Zone{
			Name:      z.Name,
			CenterLat: z.Lat,
			CenterLng: z.Lng,
			RadiusKM:  z.RadiusKM,
		})
	}
	return zones
}
