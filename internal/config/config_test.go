package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("NOTIFY_QUEUE", "")
	t.Setenv("EMERGENCY_NUMBERS", "")
	t.Setenv("HTTP_PORT", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.Http.Port != ":5000" {
		t.Fatalf("expected default port :5000, got %q", cfg.Http.Port)
	}
	if cfg.Notify.Queue != QueueMemory {
		t.Fatalf("expected memory queue, got %q", cfg.Notify.Queue)
	}
	if cfg.Notify.Recipients != nil {
		t.Fatalf("expected no recipients, got %v", cfg.Notify.Recipients)
	}
	if cfg.Alerts.StrictTransitions {
		t.Fatalf("strict transitions must be off by default")
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", ":9090")
	t.Setenv("NOTIFY_QUEUE", "REDIS")
	t.Setenv("NOTIFY_WORKERS", "8")
	t.Setenv("NOTIFY_SEND_TIMEOUT", "3s")
	t.Setenv("EMERGENCY_NUMBERS", " +911111111111, ,+922222222222 ")
	t.Setenv("TWILIO_SID", "AC123")
	t.Setenv("ALERT_STRICT_TRANSITIONS", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.Notify.Queue != QueueRedis {
		t.Fatalf("expected redis queue, got %q", cfg.Notify.Queue)
	}
	if cfg.Notify.Workers != 8 {
		t.Fatalf("expected 8 workers, got %d", cfg.Notify.Workers)
	}
	if cfg.Notify.SendTimeout != 3*time.Second {
		t.Fatalf("expected 3s send timeout, got %s", cfg.Notify.SendTimeout)
	}
	want := []string{"+911111111111", "+922222222222"}
	if len(cfg.Notify.Recipients) != len(want) {
		t.Fatalf("expected %v got %v", want, cfg.Notify.Recipients)
	}
	for i := range want {
		if cfg.Notify.Recipients[i] != want[i] {
			t.Fatalf("expected %v got %v", want, cfg.Notify.Recipients)
		}
	}
	if cfg.Twilio.AccountSID != "AC123" {
		t.Fatalf("expected twilio sid from env, got %q", cfg.Twilio.AccountSID)
	}
	if !cfg.Alerts.StrictTransitions {
		t.Fatalf("expected strict transitions enabled")
	}
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Http:     HttpConfig{Port: ":5000"},
			Postgres: PostgresConfig{Host: "db"},
			Redis:    RedisConfig{Addr: "redis:6379"},
			Notify:   NotifyConfig{Queue: QueueMemory, Workers: 1, QueueSize: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"ok", func(c *Config) {}, false},
		{"port_without_colon", func(c *Config) { c.Http.Port = "5000" }, true},
		{"no_pg_host", func(c *Config) { c.Postgres.Host = "" }, true},
		{"unknown_queue", func(c *Config) { c.Notify.Queue = "kafka" }, true},
		{"redis_queue_without_addr", func(c *Config) { c.Notify.Queue = QueueRedis; c.Redis.Addr = "" }, true},
		{"zero_workers", func(c *Config) { c.Notify.Workers = 0 }, true},
		{"zero_queue", func(c *Config) { c.Notify.QueueSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList("   "); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	got := splitList("a,b , c")
	if len(got) != 3 || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected split: %v", got)
	}
}
