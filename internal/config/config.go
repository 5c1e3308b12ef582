package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MaxIdle  int    `yaml:"max_idle"`
}

// GetDSN builds the lib/pq connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig bed-board cache settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MQTTConfig ward-display event publisher settings (disabled by default).
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
}

// Config hms-server configuration. Environment variables win over the
// optional YAML file named by CONFIG_FILE.
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Log      struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	// EncryptionKey hex-encoded AES key for the document codec (32 bytes
	// decoded). Required.
	EncryptionKey string `yaml:"encryption_key"`

	// WebhookURL admission-event webhook target; empty disables the notifier.
	WebhookURL string `yaml:"webhook_url"`

	// TxTimeout upper bound for one allocation transaction.
	TxTimeout time.Duration `yaml:"tx_timeout"`
}

func Load() *Config {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if raw, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(raw, cfg)
		}
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", defStr(cfg.HTTP.Addr, ":8080"))

	cfg.Database.Host = getEnv("DB_HOST", defStr(cfg.Database.Host, "localhost"))
	cfg.Database.Port = parseInt(getEnv("DB_PORT", ""), defInt(cfg.Database.Port, 5432))
	cfg.Database.User = getEnv("DB_USER", defStr(cfg.Database.User, "postgres"))
	cfg.Database.Password = getEnv("DB_PASSWORD", defStr(cfg.Database.Password, "postgres"))
	cfg.Database.Database = getEnv("DB_NAME", defStr(cfg.Database.Database, "sem5db"))
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", defStr(cfg.Database.SSLMode, "disable"))

	cfg.Redis.Addr = getEnv("REDIS_ADDR", defStr(cfg.Redis.Addr, "localhost:6379"))
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", boolStr(cfg.MQTT.Enabled)) == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", defStr(cfg.MQTT.Broker, "tcp://localhost:1883"))
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", defStr(cfg.MQTT.ClientID, "hms-server"))
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", cfg.MQTT.Username)
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", cfg.MQTT.Password)
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", defStr(cfg.MQTT.Topic, "hms/beds"))

	cfg.Log.Level = getEnv("LOG_LEVEL", defStr(cfg.Log.Level, "info"))
	cfg.Log.Format = getEnv("LOG_FORMAT", defStr(cfg.Log.Format, "json"))

	cfg.EncryptionKey = getEnv("HMS_ENC_KEY", cfg.EncryptionKey)
	cfg.WebhookURL = getEnv("HMS_WEBHOOK_URL", cfg.WebhookURL)

	if v := getEnv("HMS_TX_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TxTimeout = d
		}
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = 5 * time.Second
	}

	return cfg
}

// DecodeEncryptionKey decodes the hex key for the document codec.
func (c *Config) DecodeEncryptionKey() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, fmt.Errorf("HMS_ENC_KEY is not set")
	}
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("HMS_ENC_KEY is not valid hex: %w", err)
	}
	return key, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func defStr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func defInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
