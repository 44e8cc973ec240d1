package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"finance/internal/core"
	applog "finance/internal/log"
)

// ErrMalformedImport is returned when an import document is not a JSON array.
var ErrMalformedImport = errors.New("import file must contain a JSON array of records")

// maxImportBytes bounds how much of an import document is read.
const maxImportBytes = 10 << 20

// ImportEntry is one element of an import document with its fields still raw.
// Reason is set when the element could not be read as an object at all.
type ImportEntry struct {
	core.RecordInput
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Reason    string
}

// Rejection describes an import entry that was not accepted.
type Rejection struct {
	Index  int    `json:"index"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

// ImportReport summarises an import batch.
type ImportReport struct {
	Accepted int         `json:"accepted"`
	Rejected []Rejection `json:"rejected"`
}

// DecodeImport reads a top-level JSON array of record-like objects. Numeric
// amounts keep their literal text so "12.345" is still rejected by the amount
// rule instead of being rounded.
func DecodeImport(r io.Reader) ([]ImportEntry, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	if len(data) > maxImportBytes {
		return nil, fmt.Errorf("%w: document exceeds %d bytes", ErrMalformedImport, maxImportBytes)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, ErrMalformedImport
	}

	entries := make([]ImportEntry, len(raw))
	for i, msg := range raw {
		entries[i] = decodeEntry(msg)
	}
	return entries, nil
}

func decodeEntry(msg json.RawMessage) ImportEntry {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return ImportEntry{Reason: "entry is not an object"}
	}

	e := ImportEntry{
		RecordInput: core.RecordInput{
			Description: text(obj["description"]),
			Amount:      text(obj["amount"]),
			Category:    text(obj["category"]),
			Date:        text(obj["date"]),
		},
		ID: text(obj["id"]),
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, text(obj["createdAt"]))
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, text(obj["updatedAt"]))
	return e
}

// text renders a decoded JSON scalar as the string a form field would hold.
func text(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ImportBatch appends every entry that passes all four field rules, then
// persists once. Entries that fail are reported, not raised. If persisting
// fails nothing from the batch is kept.
func (s *Store) ImportBatch(ctx context.Context, entries []ImportEntry) (ImportReport, error) {
	report := ImportReport{Rejected: []Rejection{}}
	now := s.now()

	pending := make(map[string]struct{})
	accepted := make([]core.Record, 0, len(entries))
	for i, e := range entries {
		if e.Reason != "" {
			report.Rejected = append(report.Rejected, Rejection{Index: i, Reason: e.Reason})
			continue
		}

		id := e.ID
		if _, taken := pending[id]; id == "" || taken || s.indexOf(id) >= 0 {
			id = s.uniqueID(pending)
		}

		rec, err := s.rules.Build(e.RecordInput, id, now)
		if err != nil {
			rej := Rejection{Index: i, Reason: err.Error()}
			var fe *core.FieldError
			if errors.As(err, &fe) {
				rej.Field = fe.Field
			}
			report.Rejected = append(report.Rejected, rej)
			continue
		}
		if !e.CreatedAt.IsZero() {
			rec.CreatedAt = e.CreatedAt.UTC()
			rec.UpdatedAt = rec.CreatedAt
		}
		if !e.UpdatedAt.IsZero() {
			rec.UpdatedAt = e.UpdatedAt.UTC()
		}

		pending[id] = struct{}{}
		accepted = append(accepted, rec)
	}

	if len(accepted) > 0 {
		prev := s.records
		s.records = append(slices.Clone(prev), accepted...)
		if err := s.persist(ctx); err != nil {
			s.records = prev
			return ImportReport{}, err
		}
	}
	report.Accepted = len(accepted)

	s.logger.InfoContext(ctx, "Import batch processed",
		applog.FieldOperation, applog.OpImport,
		applog.FieldAccepted, report.Accepted,
		applog.FieldRejected, len(report.Rejected))
	return report, nil
}
