// Package ledger holds the record store: the ordered sequence of records
// mirrored to a single persistent slot.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"

	"finance/internal/core"
	applog "finance/internal/log"
	"finance/internal/storage"
)

// DefaultKey is the slot key records are stored under.
const DefaultKey = "finance:data"

var ErrDuplicateID = errors.New("record id already exists")

// Store is the in-memory record sequence plus the slot it is persisted to.
// It is not safe for concurrent use; callers serialise access.
type Store struct {
	slot    storage.Slot
	key     string
	rules   core.RuleSet
	newID   func() string
	now     func() time.Time
	logger  *applog.Logger
	records []core.Record
}

type Option func(*Store)

func WithRules(rs core.RuleSet) Option { return func(s *Store) { s.rules = rs } }

func WithIDGenerator(f func() string) Option { return func(s *Store) { s.newID = f } }

func WithClock(f func() time.Time) Option { return func(s *Store) { s.now = f } }

func WithLogger(l *applog.Logger) Option { return func(s *Store) { s.logger = l } }

// NewID returns a process-unique, time-ordered record id.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "rec_" + uuid.NewString()
	}
	return "rec_" + id.String()
}

// Load reads the persisted sequence. Missing or malformed data yields an
// empty store; only a failing backend is reported as an error.
func Load(ctx context.Context, slot storage.Slot, key string, opts ...Option) (*Store, error) {
	s := &Store{
		slot:  slot,
		key:   key,
		rules: core.DefaultRules(),
		newID: NewID,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applog.Default().WithComponent(applog.ComponentLedger)
	}

	data, err := slot.Read(ctx, key)
	switch {
	case errors.Is(err, storage.ErrSlotEmpty):
		s.logger.DebugContext(ctx, "No persisted records", applog.FieldStorageKey, key)
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load records: %w", err)
	}

	records, err := decodeRecords(data)
	if err != nil {
		s.logger.WarnContext(ctx, "Persisted records are malformed, starting empty",
			applog.NewFields().
				WithOperation(applog.OpLoad).
				WithError(err).
				With(applog.FieldStorageKey, key).
				ToSlice()...)
		return s, nil
	}
	s.records = s.dedupeIDs(ctx, records)

	s.logger.InfoContext(ctx, "Records loaded",
		applog.FieldStorageKey, key,
		applog.FieldCount, len(s.records))
	return s, nil
}

// Records returns a copy of the sequence in insertion order.
func (s *Store) Records() []core.Record {
	return slices.Clone(s.records)
}

func (s *Store) Len() int {
	return len(s.records)
}

// Rules returns the rule set records are checked against.
func (s *Store) Rules() core.RuleSet {
	return s.rules
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (core.Record, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.records[i], true
	}
	return core.Record{}, false
}

// Create validates raw field values, assigns a fresh id and adds the record.
func (s *Store) Create(ctx context.Context, in core.RecordInput) (core.Record, error) {
	rec, err := s.rules.Build(in, s.uniqueID(nil), s.now())
	if err != nil {
		return core.Record{}, err
	}
	return s.Add(ctx, rec)
}

// Add appends a record and persists the sequence before returning. An empty
// ID is assigned; zero timestamps are set to now. The record must satisfy
// the store's rules. If persisting fails the append is undone.
func (s *Store) Add(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := s.rules.Validate(rec.Input()); err != nil {
		return core.Record{}, err
	}
	if rec.ID == "" {
		rec.ID = s.uniqueID(nil)
	} else if s.indexOf(rec.ID) >= 0 {
		return core.Record{}, fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}
	stampTimes(&rec, s.now())

	prev := s.records
	s.records = append(slices.Clone(prev), rec)
	if err := s.persist(ctx); err != nil {
		s.records = prev
		return core.Record{}, err
	}

	s.logger.InfoContext(ctx, "Record added",
		applog.NewFields().
			WithOperation(applog.OpCreate).
			WithRecord(rec.ID, rec.Description, rec.Amount.String(), rec.Category, rec.Date).
			ToSlice()...)
	return rec, nil
}

// Delete removes the record with the given id and persists. Deleting an
// unknown id is a no-op that reports false.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}

	prev := s.records
	s.records = slices.Delete(slices.Clone(prev), i, i+1)
	if err := s.persist(ctx); err != nil {
		s.records = prev
		return false, err
	}

	s.logger.InfoContext(ctx, "Record deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldRecordID, id)
	return true, nil
}

// SortBy returns a sorted copy of the sequence. The stored order and the
// persisted slot are left untouched.
func (s *Store) SortBy(field core.SortField, dir core.Direction) []core.Record {
	return core.SortRecords(s.records, field, dir)
}

// Export writes the sequence as a pretty-printed JSON array.
func (s *Store) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(nonNil(s.records)); err != nil {
		return fmt.Errorf("export records: %w", err)
	}
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	data, err := encodeRecords(s.records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := s.slot.Write(ctx, s.key, data); err != nil {
		return fmt.Errorf("persist records: %w", err)
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.records, func(r core.Record) bool { return r.ID == id })
}

// uniqueID draws ids until one is free in the store and in pending.
func (s *Store) uniqueID(pending map[string]struct{}) string {
	for {
		id := s.newID()
		if _, taken := pending[id]; taken {
			continue
		}
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

// dedupeIDs reassigns empty or repeated ids found in persisted data.
func (s *Store) dedupeIDs(ctx context.Context, records []core.Record) []core.Record {
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		id := records[i].ID
		if _, dup := seen[id]; id == "" || dup {
			fresh := s.newID()
			for {
				if _, taken := seen[fresh]; !taken {
					break
				}
				fresh = s.newID()
			}
			s.logger.WarnContext(ctx, "Reassigned record id",
				applog.FieldRecordID, id,
				"new_id", fresh)
			records[i].ID = fresh
			id = fresh
		}
		seen[id] = struct{}{}
	}
	return records
}

func stampTimes(rec *core.Record, now time.Time) {
	now = now.UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
}

func encodeRecords(records []core.Record) ([]byte, error) {
	return json.Marshal(nonNil(records))
}

func decodeRecords(data []byte) ([]core.Record, error) {
	var records []core.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func nonNil(records []core.Record) []core.Record {
	if records == nil {
		return []core.Record{}
	}
	return records
}
