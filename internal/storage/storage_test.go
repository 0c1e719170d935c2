package storage_test

import (
	"errors"
	"testing"

	"github.com/nao1215/websearch/internal/config"
	"github.com/nao1215/websearch/internal/storage"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("sqlite driver", func(t *testing.T) {
		t.Parallel()

		store, err := storage.Open(config.StorageConfig{
			Driver:  config.DriverSQLite,
			DataDir: t.TempDir(),
		})
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})

	t.Run("postgres driver without DSN", func(t *testing.T) {
		t.Parallel()

		_, err := storage.Open(config.StorageConfig{Driver: config.DriverPostgres})
		if !errors.Is(err, config.ErrMissingPostgresDSN) {
			t.Errorf("expected ErrMissingPostgresDSN, got %v", err)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Parallel()

		_, err := storage.Open(config.StorageConfig{Driver: "cassandra"})
		if !errors.Is(err, config.ErrUnknownDriver) {
			t.Errorf("expected ErrUnknownDriver, got %v", err)
		}
	})
}
