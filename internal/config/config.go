// Package config provides daemon configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/morezero/intent-dispatch/pkg/semver"
)

const logPrefix = "config:LoadConfig"

// Config holds intentd configuration.
type Config struct {
	// COMMS: connect to standalone NATS at COMMSURL.
	COMMSURL           string        `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName          string        `envconfig:"SERVICE_NAME" default:"intentd"`
	COMMSReconnectWait time.Duration `envconfig:"COMMS_RECONNECT_WAIT" default:"2s"`

	// Orchestrator
	BaseURL          string            `envconfig:"DISPATCH_BASE_URL"`
	TransportOptions map[string]string `envconfig:"DISPATCH_TRANSPORT_OPTIONS"`

	// Subjects (empty = commsutil defaults)
	RequestSubject string `envconfig:"DISPATCH_REQUEST_SUBJECT"`
	EventPrefix    string `envconfig:"DISPATCH_EVENT_PREFIX"`
	IntakeSubject  string `envconfig:"DISPATCH_INTAKE_SUBJECT"`
	StateSubject   string `envconfig:"DISPATCH_STATE_SUBJECT"`
	NotifySubject  string `envconfig:"DISPATCH_NOTIFY_SUBJECT"`

	// Timeouts
	RequestTimeout time.Duration `envconfig:"DISPATCH_REQUEST_TIMEOUT" default:"25s"`

	// Intake rate limit in intents per second (0 = unlimited).
	IntakeRate  float64 `envconfig:"DISPATCH_INTAKE_RATE" default:"0"`
	IntakeBurst int     `envconfig:"DISPATCH_INTAKE_BURST" default:"10"`

	// Protocol handshake (skipped unless both are set)
	HandshakeSubject   string `envconfig:"DISPATCH_HANDSHAKE_SUBJECT"`
	ProtocolConstraint string `envconfig:"DISPATCH_PROTOCOL_CONSTRAINT"`

	// Listen bootstrap
	ListenFile  string `envconfig:"DISPATCH_LISTEN_FILE"`
	ListenWatch bool   `envconfig:"DISPATCH_LISTEN_WATCH" default:"false"`

	// Notification journal (disabled when DATABASE_URL is empty)
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	// MigrationPath empty = migrations embedded in the binary.
	MigrationPath string `envconfig:"MIGRATION_PATH"`

	// HTTP health endpoint (DISPATCH_HTTP_ADDR preferred, e.g. "0.0.0.0:8080")
	HTTPAddr           string        `envconfig:"DISPATCH_HTTP_ADDR"`
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// JournalEnabled reports whether notifications are journaled to Postgres.
func (c *Config) JournalEnabled() bool {
	return c.DatabaseURL != ""
}

// HandshakeEnabled reports whether the protocol handshake runs at start.
func (c *Config) HandshakeEnabled() bool {
	return c.HandshakeSubject != "" && c.ProtocolConstraint != ""
}

// ValidateForServe checks required config when running the daemon.
func (c *Config) ValidateForServe() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%s - DISPATCH_BASE_URL is required for serve", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - DISPATCH_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	if c.IntakeRate < 0 {
		return fmt.Errorf("%s - DISPATCH_INTAKE_RATE must not be negative", logPrefix)
	}
	if c.IntakeRate > 0 && c.IntakeBurst <= 0 {
		return fmt.Errorf("%s - DISPATCH_INTAKE_BURST must be positive when rate limiting", logPrefix)
	}
	if c.ProtocolConstraint != "" && c.HandshakeSubject == "" {
		return fmt.Errorf("%s - DISPATCH_HANDSHAKE_SUBJECT is required with DISPATCH_PROTOCOL_CONSTRAINT", logPrefix)
	}
	if err := semver.ValidateConstraint(c.ProtocolConstraint); err != nil {
		return fmt.Errorf("%s - DISPATCH_PROTOCOL_CONSTRAINT: %w", logPrefix, err)
	}
	if c.ListenWatch && c.ListenFile == "" {
		return fmt.Errorf("%s - DISPATCH_LISTEN_WATCH requires DISPATCH_LISTEN_FILE", logPrefix)
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate, clear).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}
