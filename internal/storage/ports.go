package storage

import (
	"context"
	"errors"
)

// ErrSlotEmpty is returned by SlotReader.Read when nothing is stored under the key.
var ErrSlotEmpty = errors.New("slot is empty")

// Ports for persistence adapters. A slot holds one serialized document per
// key; every write replaces the whole value.
type (
	SlotReader interface {
		Read(ctx context.Context, key string) ([]byte, error)
	}

	SlotWriter interface {
		Write(ctx context.Context, key string, value []byte) error
	}

	Slot interface {
		SlotReader
		SlotWriter
	}
)
