package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"finance/internal/config"
	"finance/internal/storage"
	"finance/internal/storage/memory"
)

func TestFromAppConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.DataBackend = "sqlite"

	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != SQLiteBackend || got.SQLiteDBPath != cfg.SQLiteDBPath || got.StorageKey != "finance:data" {
		t.Fatalf("unexpected backend config %+v", got)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	cfg.DataBackend = "sheets"
	if _, err := FromAppConfig(cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestBackendTypesAcceptedByAppConfig(t *testing.T) {
	names := GetBackendTypeStrings()
	if len(names) != len(GetBackendTypes()) {
		t.Fatalf("names = %v", names)
	}
	for _, name := range names {
		cfg := config.Defaults()
		cfg.DataBackend = name
		if err := cfg.Validate(); err != nil {
			t.Fatalf("backend %q rejected by app config: %v", name, err)
		}
		if _, err := FromAppConfig(cfg); err != nil {
			t.Fatalf("FromAppConfig(%q): %v", name, err)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory without directory", Config{Type: MemoryBackend}, false},
		{"file with directory", Config{Type: FileBackend, DataDirectory: "data"}, false},
		{"file without directory", Config{Type: FileBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	factory := NewFactory(nil)

	configs := []Config{
		{Type: MemoryBackend},
		{Type: FileBackend, DataDirectory: filepath.Join(dir, "files")},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "finance.db")},
	}
	for _, cfg := range configs {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := factory.CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer res.Close()

			if _, err := res.Slot.Read(ctx, "finance:data"); !errors.Is(err, storage.ErrSlotEmpty) {
				t.Fatalf("fresh slot should be empty, got %v", err)
			}
			if err := res.Slot.Write(ctx, "finance:data", []byte(`[]`)); err != nil {
				t.Fatalf("write: %v", err)
			}
		})
	}
}

func TestMemoryBackendSeeds(t *testing.T) {
	dir := t.TempDir()
	seed := []byte(`[{"id":"seed_1","description":"Seed","amount":1,"category":"Food","date":"2024-01-01"}]`)
	if err := os.WriteFile(filepath.Join(dir, memory.SeedFile), seed, 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(),
		Config{Type: MemoryBackend, DataDirectory: dir, StorageKey: "finance:data"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := res.Slot.Read(context.Background(), "finance:data")
	if err != nil || string(got) != string(seed) {
		t.Fatalf("seeded slot = %q, %v", got, err)
	}
}

func TestBackendResultCloseNil(t *testing.T) {
	var r *BackendResult
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
}
