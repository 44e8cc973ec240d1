package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"finance/internal/storage"
)

func TestMemoryStoreReadWrite(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Read(ctx, "k"); !errors.Is(err, storage.ErrSlotEmpty) {
		t.Fatalf("expected ErrSlotEmpty, got %v", err)
	}

	buf := []byte(`[1]`)
	if err := s.Write(ctx, "k", buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf[1] = '2' // caller mutation must not leak into the store

	got, err := s.Read(ctx, "k")
	if err != nil || string(got) != `[1]` {
		t.Fatalf("unexpected read: %q err=%v", got, err)
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// No seed -> empty
	s := NewFromFiles(dir, "finance:data")
	if _, err := s.Read(ctx, "finance:data"); !errors.Is(err, storage.ErrSlotEmpty) {
		t.Fatalf("expected empty slot without seed, got %v", err)
	}

	mustWrite := func(content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(content), 0o644); err != nil {
			t.Fatalf("write seed: %v", err)
		}
	}

	mustWrite(`{"not": "an array"}`)
	s = NewFromFiles(dir, "finance:data")
	if _, err := s.Read(ctx, "finance:data"); !errors.Is(err, storage.ErrSlotEmpty) {
		t.Fatalf("expected non-array seed to be ignored, got %v", err)
	}

	mustWrite(`[{"id":"rec_1"}]`)
	s = NewFromFiles(dir, "finance:data")
	got, err := s.Read(ctx, "finance:data")
	if err != nil || string(got) != `[{"id":"rec_1"}]` {
		t.Fatalf("unexpected seeded slot: %q err=%v", got, err)
	}
}
