package db

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

const migrationsLogPrefix = "db:migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// LoadMigrationFiles reads all .sql files from dir, sorted by name, and returns their contents.
func LoadMigrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read migration dir %s: %w", migrationsLogPrefix, dir, err)
	}
	return readSQL(os.DirFS(dir), entries, dir)
}

// EmbeddedMigrations returns the journal schema migrations compiled into the binary.
func EmbeddedMigrations() ([]string, error) {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("%s - embedded migrations: %w", migrationsLogPrefix, err)
	}
	entries, err := fs.ReadDir(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("%s - embedded migrations: %w", migrationsLogPrefix, err)
	}
	return readSQL(sub, entries, "embedded")
}

// LoadMigrations reads migrations from dir, or the embedded set when dir is empty.
func LoadMigrations(dir string) ([]string, error) {
	if dir == "" {
		return EmbeddedMigrations()
	}
	return LoadMigrationFiles(dir)
}

func readSQL(fsys fs.FS, entries []fs.DirEntry, origin string) ([]string, error) {
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to read %s/%s: %w", migrationsLogPrefix, origin, name, err)
		}
		out = append(out, string(data))
	}
	slog.Info(fmt.Sprintf("%s - Loaded %d migration files from %s", migrationsLogPrefix, len(out), origin))
	return out, nil
}
