package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	mu sync.RWMutex `yaml:"-"`

	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Web       WebConfig       `yaml:"web"`
	Share     ShareConfig     `yaml:"share"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Messaging MessagingConfig `yaml:"messaging"`
	Log       LogConfig       `yaml:"log"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig points at the optional cache. An empty address disables it.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type WebConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	SessionSecret  string   `yaml:"session_secret"`
	AuthEnabled    bool     `yaml:"auth_enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// ShareRateLimit is share links a single client may create per minute.
	ShareRateLimit int `yaml:"share_rate_limit"`
}

// ShareConfig controls share links. When RemoteURL is set, links are created
// on and fetched from another planner instance instead of the local backend.
type ShareConfig struct {
	Backend      string        `yaml:"backend"` // "redis" or "sql"
	TTL          time.Duration `yaml:"ttl"`
	KeyPrefix    string        `yaml:"key_prefix"`
	RemoteURL    string        `yaml:"remote_url"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

type WorkspaceConfig struct {
	Slot           string   `yaml:"slot"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
	ImageHosts     []string `yaml:"image_hosts"` // remote floor-plan image hosts; empty disables fetching
}

type MessagingConfig struct {
	Enabled             bool          `yaml:"enabled"`
	Backend             string        `yaml:"backend"` // "mqtt" or "kafka"
	MQTT                MQTTConfig    `yaml:"mqtt"`
	Kafka               KafkaConfig   `yaml:"kafka"`
	ChangesTopic        string        `yaml:"changes_topic"`
	CommandsTopic       string        `yaml:"commands_topic"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval"`
	Source              string        `yaml:"source"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "electricplanner.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "electricplanner",
				User:     "electricplanner",
				Password: "",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			Password: "",
			DB:       0,
		},
		Web: WebConfig{
			Host:           "0.0.0.0",
			Port:           8090,
			SessionSecret:  "change-me-in-production",
			AllowedOrigins: []string{"*"},
			ShareRateLimit: 10,
		},
		Share: ShareConfig{
			Backend:      "redis",
			TTL:          30 * 24 * time.Hour,
			KeyPrefix:    "share:",
			CacheTTL:     5 * time.Minute,
			MaxBodyBytes: 10 << 20,
		},
		Workspace: WorkspaceConfig{
			Slot:           "electric-planner-storage",
			MaxUploadBytes: 20 << 20,
		},
		Messaging: MessagingConfig{
			Backend: "mqtt",
			MQTT: MQTTConfig{
				Broker: "localhost",
				Port:   1883,
			},
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "electricplanner",
			},
			ChangesTopic:        "electricplanner/changes",
			CommandsTopic:       "electricplanner/commands",
			OutboxDrainInterval: 5 * time.Second,
			Source:              "planner",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver %q: want sqlite or postgres", c.Database.Driver)
	}
	switch c.Share.Backend {
	case "redis", "sql":
	default:
		return fmt.Errorf("share.backend %q: want redis or sql", c.Share.Backend)
	}
	if c.Messaging.Enabled {
		switch c.Messaging.Backend {
		case "mqtt", "kafka":
		default:
			return fmt.Errorf("messaging.backend %q: want mqtt or kafka", c.Messaging.Backend)
		}
	}
	if c.Share.TTL <= 0 {
		return fmt.Errorf("share.ttl must be positive")
	}
	if c.Workspace.Slot == "" {
		return fmt.Errorf("workspace.slot is required")
	}
	return nil
}

func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Lock()   { c.mu.Lock() }
func (c *Config) Unlock() { c.mu.Unlock() }
