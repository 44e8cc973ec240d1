package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSQLiteRepositorySlots(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "db", "finance.db")

	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := repo.Read(ctx, "finance:data"); !errors.Is(err, ErrSlotEmpty) {
		t.Fatalf("expected ErrSlotEmpty, got %v", err)
	}

	if err := repo.Write(ctx, "finance:data", []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := repo.Write(ctx, "finance:data", []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := repo.Write(ctx, "other", []byte(`x`)); err != nil {
		t.Fatalf("write other: %v", err)
	}

	got, err := repo.Read(ctx, "finance:data")
	if err != nil || string(got) != `[]` {
		t.Fatalf("read = %q, %v", got, err)
	}

	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening runs migrations again (no change) and keeps the data.
	repo, err = NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()

	got, err = repo.Read(ctx, "other")
	if err != nil || string(got) != `x` {
		t.Fatalf("read after reopen = %q, %v", got, err)
	}
}
