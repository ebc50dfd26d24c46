package db

import (
	"context"
	"testing"
)

const poolTestPrefix = "db:pool_test"

func TestParsePoolConfig(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantMax     int32
		wantMin     int32
		wantAppName string
		wantErr     bool
	}{
		{"defaults", "postgres://intent:pw@localhost:5432/journal", poolMaxConns, poolMinConns, applicationName, false},
		{"url overrides", "postgres://intent:pw@localhost:5432/journal?pool_max_conns=3&pool_min_conns=0&application_name=ops", 3, 0, "ops", false},
		{"empty", "", 0, 0, "", true},
		{"bad port", "postgres://intent:pw@localhost:notaport/journal", 0, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParsePoolConfig(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Errorf("%s - expected error for %q", poolTestPrefix, tt.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("%s - unexpected error: %v", poolTestPrefix, err)
			}
			if cfg.MaxConns != tt.wantMax || cfg.MinConns != tt.wantMin {
				t.Errorf("%s - conns = %d/%d, want %d/%d", poolTestPrefix, cfg.MaxConns, cfg.MinConns, tt.wantMax, tt.wantMin)
			}
			if got := cfg.ConnConfig.RuntimeParams["application_name"]; got != tt.wantAppName {
				t.Errorf("%s - application_name = %q, want %q", poolTestPrefix, got, tt.wantAppName)
			}
		})
	}
}

func TestNewPool_InvalidURL(t *testing.T) {
	pool, err := NewPool(context.Background(), "invalid://not-a-valid-database-url")
	if err == nil {
		pool.Close()
		t.Fatalf("%s - expected error for invalid URL", poolTestPrefix)
	}
	if pool != nil {
		t.Errorf("%s - expected nil pool on error", poolTestPrefix)
	}
}

func TestMigrationDown_ForwardOnly(t *testing.T) {
	if err := MigrationDown(context.Background(), nil, ""); err != nil {
		t.Errorf("%s - MigrationDown returned %v, want nil", poolTestPrefix, err)
	}
}
