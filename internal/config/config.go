package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	QueueMemory = "memory"
	QueueRedis  = "redis"
)

type Config struct {
	Env         string         `json:"env"`
	Http        HttpConfig     `json:"http"`
	Postgres    PostgresConfig `json:"postgres"`
	Redis       RedisConfig    `json:"redis"`
	Notify      NotifyConfig   `json:"notify"`
	Twilio      TwilioConfig   `json:"twilio"`
	Alerts      AlertsConfig   `json:"alerts"`
	RateLimit   RateLimit      `json:"rate_limit"`
	FrontendURL string         `json:"frontend_url"`
}

type HttpConfig struct {
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	SSLMode  string `json:"ssl_mode"`

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db"`
}

// NotifyConfig controls how dispatch tasks are executed after an alert is saved.
type NotifyConfig struct {
	Queue       string        `json:"queue"`
	QueueKey    string        `json:"queue_key"`
	Workers     int           `json:"workers"`
	QueueSize   int           `json:"queue_size"`
	SendTimeout time.Duration `json:"send_timeout"`
	Recipients  []string      `json:"recipients"`
}

type TwilioConfig struct {
	AccountSID   string `json:"account_sid"`
	AuthToken    string `json:"auth_token,omitempty"`
	From         string `json:"from"`
	WhatsAppFrom string `json:"whatsapp_from"`
	APIURL       string `json:"api_url"`
}

type AlertsConfig struct {
	StrictTransitions bool `json:"strict_transitions"`
}

type RateLimit struct {
	RPS   int           `json:"rps"`
	Burst int           `json:"burst"`
	TTL   time.Duration `json:"ttl"`
}

func LoadConfig() (*Config, error) {
	stdLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		stdLogger.Warn(".env load warning", slog.Any("error", err))
	}

	cfg := &Config{
		Env: getEnv("ENV", "local"),
		Http: HttpConfig{
			Port:            getEnv("HTTP_PORT", ":5000"),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnvInt("POSTGRES_PORT", 5432),
			Database:        getEnv("POSTGRES_DB", "safeher"),
			User:            getEnv("POSTGRES_USER", "postgres"),
			Password:        getEnv("POSTGRES_PASSWORD", "postgres"),
			SSLMode:         getEnv("POSTGRES_SSL_MODE", "disable"),
			MaxConns:        20,
			MinConns:        1,
			MaxConnLifetime: 1 * time.Hour,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Notify: NotifyConfig{
			Queue:       strings.ToLower(getEnv("NOTIFY_QUEUE", QueueMemory)),
			QueueKey:    getEnv("NOTIFY_QUEUE_KEY", "sos:notifications"),
			Workers:     getEnvInt("NOTIFY_WORKERS", 4),
			QueueSize:   getEnvInt("NOTIFY_QUEUE_SIZE", 100),
			SendTimeout: getEnvDuration("NOTIFY_SEND_TIMEOUT", 10*time.Second),
			Recipients:  splitList(os.Getenv("EMERGENCY_NUMBERS")),
		},
		Twilio: TwilioConfig{
			AccountSID:   getEnv("TWILIO_SID", ""),
			AuthToken:    getEnv("TWILIO_AUTH", ""),
			From:         getEnv("TWILIO_FROM", ""),
			WhatsAppFrom: getEnv("TWILIO_WHATSAPP_FROM", ""),
			APIURL:       getEnv("TWILIO_API_URL", "https://api.twilio.com"),
		},
		Alerts: AlertsConfig{
			StrictTransitions: getEnvBool("ALERT_STRICT_TRANSITIONS", false),
		},
		RateLimit: RateLimit{
			RPS:   getEnvInt("RATE_LIMIT_RPS", 5),
			Burst: getEnvInt("RATE_LIMIT_BURST", 10),
			TTL:   getEnvDuration("RATE_LIMIT_TTL", 10*time.Minute),
		},
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stdLogger.Info("Config loaded successfully",
		slog.String("env", cfg.Env),
		slog.String("http_port", cfg.Http.Port),
		slog.String("postgres_db", cfg.Postgres.Database),
		slog.String("notify_queue", cfg.Notify.Queue),
		slog.Int("emergency_numbers", len(cfg.Notify.Recipients)),
		slog.Bool("strict_transitions", cfg.Alerts.StrictTransitions))

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Http.Port == "" || c.Http.Port[0] != ':' {
		return errors.New("HTTP_PORT must start with ':' like ':5000'")
	}

	if c.Postgres.Host == "" {
		return errors.New("POSTGRES_HOST required")
	}

	switch c.Notify.Queue {
	case QueueMemory:
	case QueueRedis:
		if c.Redis.Addr == "" {
			return errors.New("REDIS_ADDR required when NOTIFY_QUEUE=redis")
		}
	default:
		return fmt.Errorf("NOTIFY_QUEUE must be %q or %q, got %q", QueueMemory, QueueRedis, c.Notify.Queue)
	}

	if c.Notify.Workers < 1 {
		return errors.New("NOTIFY_WORKERS must be at least 1")
	}
	if c.Notify.QueueSize < 1 {
		return errors.New("NOTIFY_QUEUE_SIZE must be at least 1")
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// splitList parses comma separated phone numbers, dropping blanks.
func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
