package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"

	"github.com/dnlkv/fmapbot/core/logger"
)

type seedFile struct {
	Items []Item `yaml:"items"`
}

// LoadSeedFile parses a catalog seed YAML document.
func LoadSeedFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i, item := range file.Items {
		if item.Name == "" {
			return nil, fmt.Errorf("seed file %s: item %d has no name", path, i)
		}
	}
	return file.Items, nil
}

// Seeder upserts the catalog from a YAML file after migrations have run.
// An empty path disables seeding.
func Seeder(path string) func(ctx context.Context, db *sqlx.DB) error {
	return func(ctx context.Context, db *sqlx.DB) error {
		if path == "" {
			return nil
		}
		items, err := LoadSeedFile(path)
		if err != nil {
			return err
		}
		store := NewPostgresStore(db)
		for _, item := range items {
			if err := store.Upsert(ctx, item); err != nil {
				return err
			}
		}
		logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelInfo, "seed",
			slog.String("status", "ok"),
			slog.Int("count", len(items)),
			slog.String("path", path),
		)
		return nil
	}
}
