package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"finance/internal/core"
	"finance/internal/ledger"
	applog "finance/internal/log"
	"finance/internal/view"
)

// Handlers are the user-triggered events the ledger reacts to. Each call runs
// to completion before the next one starts.
type Handlers interface {
	OnAdd(ctx context.Context, in core.RecordInput) (core.Record, error)
	OnDelete(ctx context.Context, id string) (bool, error)
	OnImport(ctx context.Context, r io.Reader) (ledger.ImportReport, error)
	OnFilterChange(ctx context.Context, pattern string) Snapshot
	OnSortRequest(ctx context.Context, field core.SortField) Snapshot
	Export(ctx context.Context, w io.Writer) error
	Snapshot() Snapshot
	Rules() core.RuleSet
}

// SortState is the active column ordering. An empty Field keeps insertion order.
type SortState struct {
	Field core.SortField
	Dir   core.Direction
}

// Next returns the state after a sort request on field: the same field flips
// direction, a new field starts ascending.
func (s SortState) Next(field core.SortField) SortState {
	if s.Field == field {
		return SortState{Field: field, Dir: s.Dir.Toggle()}
	}
	return SortState{Field: field, Dir: core.Ascending}
}

// Snapshot is everything a view needs to render the ledger. Stats cover the
// whole sequence; Rows are sorted and filtered.
type Snapshot struct {
	Rows         []view.Row
	Filter       string
	PatternValid bool
	Sort         SortState
	Stats        core.Stats
}

// LedgerService applies events to the record store and keeps the view state
// (filter pattern and sort order) between them.
type LedgerService struct {
	mu        sync.Mutex
	store     *ledger.Store
	projector *view.Projector
	cap       core.Money
	sort      SortState
	filter    string
	logger    *applog.Logger
}

var _ Handlers = (*LedgerService)(nil)

func NewLedgerService(store *ledger.Store, projector *view.Projector, spendingCap core.Money) *LedgerService {
	return &LedgerService{
		store:     store,
		projector: projector,
		cap:       spendingCap,
		sort:      SortState{Dir: core.Ascending},
		logger:    applog.Default().WithComponent(applog.ComponentLedger),
	}
}

// OnAdd trims the free-text fields, validates and persists a new record.
func (s *LedgerService) OnAdd(ctx context.Context, in core.RecordInput) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)

	rec, err := s.store.Create(ctx, in)
	if err != nil {
		return core.Record{}, fmt.Errorf("add record: %w", err)
	}
	return rec, nil
}

// OnDelete removes a record. Unknown ids report false without error.
func (s *LedgerService) OnDelete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	return ok, nil
}

// OnImport reads a JSON array document and appends its valid entries.
func (s *LedgerService) OnImport(ctx context.Context, r io.Reader) (ledger.ImportReport, error) {
	entries, err := ledger.DecodeImport(r)
	if err != nil {
		return ledger.ImportReport{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.store.ImportBatch(ctx, entries)
	if err != nil {
		return ledger.ImportReport{}, fmt.Errorf("import records: %w", err)
	}
	return report, nil
}

// OnFilterChange stores the pattern and returns the re-projected view.
func (s *LedgerService) OnFilterChange(ctx context.Context, pattern string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter = pattern
	snap := s.snapshot()
	if !snap.PatternValid {
		applog.FromContext(ctx).DebugContext(ctx, "Filter pattern did not compile, showing all rows",
			applog.FieldOperation, applog.OpFilter,
			applog.FieldPattern, pattern)
	}
	return snap
}

// OnSortRequest advances the sort state for field and returns the new view.
func (s *LedgerService) OnSortRequest(ctx context.Context, field core.SortField) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sort = s.sort.Next(field)
	s.logger.DebugContext(ctx, "Sort order changed",
		applog.FieldOperation, applog.OpSort,
		applog.FieldSortField, string(s.sort.Field),
		applog.FieldSortDir, string(s.sort.Dir))
	return s.snapshot()
}

// SetView replaces the filter and sort state in one step.
func (s *LedgerService) SetView(pattern string, sort SortState) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter = pattern
	s.sort = sort
	return s.snapshot()
}

// Export writes the full sequence in insertion order.
func (s *LedgerService) Export(ctx context.Context, w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Export(w); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Records exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldCount, s.store.Len())
	return nil
}

// Snapshot returns the current view without changing any state.
func (s *LedgerService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Rules returns the rule set new records are validated against.
func (s *LedgerService) Rules() core.RuleSet {
	return s.store.Rules()
}

// Stats returns the dashboard figures for the whole sequence.
func (s *LedgerService) Stats() core.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Summarize(s.store.Records(), s.cap)
}

func (s *LedgerService) snapshot() Snapshot {
	records := s.store.Records()
	ordered := records
	if s.sort.Field != "" {
		ordered = s.store.SortBy(s.sort.Field, s.sort.Dir)
	}
	proj := s.projector.Project(ordered, s.filter)

	return Snapshot{
		Rows:         proj.Rows,
		Filter:       s.filter,
		PatternValid: proj.PatternValid,
		Sort:         s.sort,
		Stats:        core.Summarize(records, s.cap),
	}
}
