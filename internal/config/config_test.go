package config

import (
	"os"
	"testing"
	"time"
)

var allEnvVars = []string{
	"COMMS_URL", "SERVICE_NAME", "COMMS_RECONNECT_WAIT",
	"DISPATCH_BASE_URL", "DISPATCH_TRANSPORT_OPTIONS",
	"DISPATCH_REQUEST_SUBJECT", "DISPATCH_EVENT_PREFIX", "DISPATCH_INTAKE_SUBJECT",
	"DISPATCH_STATE_SUBJECT", "DISPATCH_NOTIFY_SUBJECT",
	"DISPATCH_REQUEST_TIMEOUT", "DISPATCH_INTAKE_RATE", "DISPATCH_INTAKE_BURST",
	"DISPATCH_HANDSHAKE_SUBJECT", "DISPATCH_PROTOCOL_CONSTRAINT",
	"DISPATCH_LISTEN_FILE", "DISPATCH_LISTEN_WATCH",
	"DATABASE_URL", "RUN_MIGRATIONS", "MIGRATION_PATH",
	"DISPATCH_HTTP_ADDR", "HTTP_PORT", "HEALTH_CHECK_TIMEOUT", "LOG_LEVEL",
}

func clearEnv() {
	for _, env := range allEnvVars {
		os.Unsetenv(env)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}

	if cfg.COMMSURL != "nats://127.0.0.1:4222" {
		t.Errorf("config:config_test - COMMSURL = %q, want %q", cfg.COMMSURL, "nats://127.0.0.1:4222")
	}
	if cfg.COMMSName != "intentd" {
		t.Errorf("config:config_test - COMMSName = %q, want %q", cfg.COMMSName, "intentd")
	}
	if cfg.COMMSReconnectWait != 2*time.Second {
		t.Errorf("config:config_test - COMMSReconnectWait = %v, want 2s", cfg.COMMSReconnectWait)
	}
	if cfg.BaseURL != "" {
		t.Errorf("config:config_test - BaseURL = %q, want empty", cfg.BaseURL)
	}
	if len(cfg.TransportOptions) != 0 {
		t.Errorf("config:config_test - TransportOptions = %v, want empty", cfg.TransportOptions)
	}
	if cfg.RequestSubject != "" || cfg.IntakeSubject != "" || cfg.NotifySubject != "" {
		t.Errorf("config:config_test - expected empty subject overrides")
	}
	if cfg.RequestTimeout != 25*time.Second {
		t.Errorf("config:config_test - RequestTimeout = %v, want 25s", cfg.RequestTimeout)
	}
	if cfg.IntakeRate != 0 || cfg.IntakeBurst != 10 {
		t.Errorf("config:config_test - IntakeRate/Burst = %v/%d, want 0/10", cfg.IntakeRate, cfg.IntakeBurst)
	}
	if cfg.HandshakeEnabled() {
		t.Error("config:config_test - expected handshake disabled by default")
	}
	if cfg.JournalEnabled() {
		t.Error("config:config_test - expected journal disabled by default")
	}
	if cfg.RunMigrations {
		t.Error("config:config_test - expected RunMigrations=false by default")
	}
	if cfg.MigrationPath != "" {
		t.Errorf("config:config_test - MigrationPath = %q, want empty", cfg.MigrationPath)
	}
	if cfg.ListenWatch {
		t.Error("config:config_test - expected ListenWatch=false by default")
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("config:config_test - HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.HealthCheckTimeout != 5*time.Second {
		t.Errorf("config:config_test - HealthCheckTimeout = %v, want 5s", cfg.HealthCheckTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("config:config_test - LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearEnv()
	overrides := map[string]string{
		"COMMS_URL":                    "nats://custom:4222",
		"SERVICE_NAME":                 "test-server",
		"DISPATCH_BASE_URL":            "https://api.example.com",
		"DISPATCH_TRANSPORT_OPTIONS":   "timeout:2s,eventPrefix:custom.event",
		"DISPATCH_REQUEST_SUBJECT":     "custom.request",
		"DISPATCH_INTAKE_SUBJECT":      "custom.intake",
		"DISPATCH_STATE_SUBJECT":       "custom.state",
		"DISPATCH_NOTIFY_SUBJECT":      "custom.notify",
		"DISPATCH_REQUEST_TIMEOUT":     "10s",
		"DISPATCH_INTAKE_RATE":         "50",
		"DISPATCH_HANDSHAKE_SUBJECT":   "socket.handshake",
		"DISPATCH_PROTOCOL_CONSTRAINT": "^2.0.0",
		"DISPATCH_LISTEN_FILE":         "/tmp/listen.yaml",
		"DISPATCH_LISTEN_WATCH":        "true",
		"DATABASE_URL":                 "postgres://test@localhost/test",
		"RUN_MIGRATIONS":               "true",
		"MIGRATION_PATH":               "/tmp/migrations",
		"HTTP_PORT":                    "9090",
		"HEALTH_CHECK_TIMEOUT":         "10s",
		"LOG_LEVEL":                    "debug",
	}

	for key, val := range overrides {
		os.Setenv(key, val)
	}
	defer clearEnv()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}

	if cfg.COMMSURL != "nats://custom:4222" {
		t.Errorf("config:config_test - COMMSURL = %q, want %q", cfg.COMMSURL, "nats://custom:4222")
	}
	if cfg.BaseURL != "https://api.example.com" {
		t.Errorf("config:config_test - BaseURL = %q", cfg.BaseURL)
	}
	if cfg.TransportOptions["timeout"] != "2s" || cfg.TransportOptions["eventPrefix"] != "custom.event" {
		t.Errorf("config:config_test - TransportOptions = %v", cfg.TransportOptions)
	}
	if cfg.RequestSubject != "custom.request" || cfg.IntakeSubject != "custom.intake" {
		t.Errorf("config:config_test - subjects not overridden: %q %q", cfg.RequestSubject, cfg.IntakeSubject)
	}
	if cfg.StateSubject != "custom.state" || cfg.NotifySubject != "custom.notify" {
		t.Errorf("config:config_test - subjects not overridden: %q %q", cfg.StateSubject, cfg.NotifySubject)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("config:config_test - RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}
	if cfg.IntakeRate != 50 {
		t.Errorf("config:config_test - IntakeRate = %v, want 50", cfg.IntakeRate)
	}
	if !cfg.HandshakeEnabled() {
		t.Error("config:config_test - expected handshake enabled")
	}
	if cfg.ListenFile != "/tmp/listen.yaml" || !cfg.ListenWatch {
		t.Errorf("config:config_test - listen file = %q watch = %v", cfg.ListenFile, cfg.ListenWatch)
	}
	if !cfg.JournalEnabled() || !cfg.RunMigrations {
		t.Error("config:config_test - expected journal and migrations enabled")
	}
	if cfg.MigrationPath != "/tmp/migrations" {
		t.Errorf("config:config_test - MigrationPath = %q, want %q", cfg.MigrationPath, "/tmp/migrations")
	}
	if cfg.HTTPPort != 9090 {
		t.Errorf("config:config_test - HTTPPort = %d, want 9090", cfg.HTTPPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("config:config_test - LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if err := cfg.ValidateForServe(); err != nil {
		t.Errorf("config:config_test - expected overrides to validate, got %v", err)
	}
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	clearEnv()
	os.Setenv("DISPATCH_REQUEST_TIMEOUT", "soon")
	defer clearEnv()

	if _, err := LoadConfig(); err == nil {
		t.Error("config:config_test - expected error for invalid duration")
	}
}

func TestLoadConfig_LogLevels(t *testing.T) {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, level := range validLevels {
		os.Setenv("LOG_LEVEL", level)
		cfg, err := LoadConfig()
		os.Unsetenv("LOG_LEVEL")

		if err != nil {
			t.Fatalf("config:config_test - unexpected error for level %q: %v", level, err)
		}
		if cfg.LogLevel != level {
			t.Errorf("config:config_test - LogLevel = %q, want %q", cfg.LogLevel, level)
		}
	}
}

func TestValidateForServe(t *testing.T) {
	valid := func() *Config {
		return &Config{
			BaseURL:            "https://api.example.com",
			RequestTimeout:     25 * time.Second,
			HealthCheckTimeout: 5 * time.Second,
			IntakeBurst:        10,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing base url", func(c *Config) { c.BaseURL = "" }, true},
		{"zero request timeout", func(c *Config) { c.RequestTimeout = 0 }, true},
		{"zero health timeout", func(c *Config) { c.HealthCheckTimeout = 0 }, true},
		{"negative rate", func(c *Config) { c.IntakeRate = -1 }, true},
		{"rate without burst", func(c *Config) { c.IntakeRate = 5; c.IntakeBurst = 0 }, true},
		{"constraint without subject", func(c *Config) { c.ProtocolConstraint = "^1.0.0" }, true},
		{"invalid constraint", func(c *Config) {
			c.HandshakeSubject = "socket.handshake"
			c.ProtocolConstraint = "not a range"
		}, true},
		{"major constraint", func(c *Config) {
			c.HandshakeSubject = "socket.handshake"
			c.ProtocolConstraint = "2"
		}, false},
		{"watch without file", func(c *Config) { c.ListenWatch = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.ValidateForServe()
			if (err != nil) != tt.wantErr {
				t.Errorf("config:config_test - ValidateForServe() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateForDB(t *testing.T) {
	if err := (&Config{}).ValidateForDB(); err == nil {
		t.Error("config:config_test - expected error without DATABASE_URL")
	}
	if err := (&Config{DatabaseURL: "postgres://localhost/x"}).ValidateForDB(); err != nil {
		t.Errorf("config:config_test - unexpected error: %v", err)
	}
}
