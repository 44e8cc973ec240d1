package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"finance/internal/core"
	"finance/internal/ledger"
	applog "finance/internal/log"
)

// maxUploadBytes bounds an import upload including multipart overhead.
const maxUploadBytes = 11 << 20

// handleCreateRecord validates the submitted fields and adds a record.
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	logger := applog.FromContext(ctx)

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		logger.WarnContext(ctx, "Invalid record request body",
			applog.FieldOperation, applog.OpParse,
			"content_type", parser.ContentType(),
			applog.FieldError, err)
		BadRequestError("Invalid input format.").Write(w)
		return
	}
	in := parser.RecordInput()

	rec, err := s.ledger.OnAdd(ctx, in)
	if err != nil {
		var fe *core.FieldError
		if errors.As(err, &fe) {
			logger.InfoContext(ctx, "Record rejected",
				applog.NewFields().
					WithOperation(applog.OpValidate).
					With("field", fe.Field).
					With("error_type", applog.ErrorTypeValidation).
					ToSlice()...)
			msg := validationMessage(err, s.ledger.Rules())
			UnprocessableEntityError(msg).TriggerErrorNotification(msg).Write(w)
			return
		}
		applog.NewStructuredLogger(logger).LogError(ctx, "Failed to add record", err, applog.OpCreate, nil)
		msg := failureMessage(ctx, "Could not save the record.")
		InternalServerError(msg).
			TriggerErrorNotification(msg).
			Write(w)
		return
	}

	count := s.ledger.Snapshot().Stats.Count
	resp := NewHTMXResponse().
		TriggerRecordsChanged(count).
		TriggerFormReset().
		TriggerSuccessNotification("Record added.")
	if parser.IsJSON() || wantsJSON(r) {
		resp.Status(http.StatusCreated).BodyJSON(rec).Write(w)
		return
	}
	resp.BodyHTML(fmt.Sprintf(`<div class="success">Added %s (%s).</div>`,
		template.HTMLEscapeString(rec.Description),
		template.HTMLEscapeString(rec.Amount.Display()))).
		Write(w)
}

// handleDeleteRecord removes a record by id. The id may come from the body
// or the query string.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		parser := NewRequestBodyParser(r)
		if err := parser.Parse(); err != nil {
			BadRequestError("Invalid input format.").Write(w)
			return
		}
		id = parser.Get("id")
	}
	if id == "" {
		BadRequestError("Missing record id.").Write(w)
		return
	}

	deleted, err := s.ledger.OnDelete(ctx, id)
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(ctx)).
			LogError(ctx, "Failed to delete record", err, applog.OpDelete, map[string]any{applog.FieldRecordID: id})
		msg := failureMessage(ctx, "Could not delete the record.")
		InternalServerError(msg).
			TriggerErrorNotification(msg).
			Write(w)
		return
	}
	if !deleted {
		NotFoundError("Record not found.").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerRecordsChanged(s.ledger.Snapshot().Stats.Count).
		TriggerSuccessNotification("Record deleted.").
		Write(w)
}

// handleImport accepts a JSON array either as the "file" field of a
// multipart form or as the raw request body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	logger := applog.FromContext(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			logger.WarnContext(ctx, "Import upload missing",
				applog.FieldOperation, applog.OpImport,
				applog.FieldError, err)
			BadRequestError("Choose a JSON file to import.").Write(w)
			return
		}
		defer file.Close()
		src = file
	}

	report, err := s.ledger.OnImport(ctx, src)
	switch {
	case errors.Is(err, ledger.ErrMalformedImport):
		logger.InfoContext(ctx, "Import rejected",
			applog.FieldOperation, applog.OpImport,
			applog.FieldError, err)
		UnprocessableEntityError("Invalid JSON format.").
			TriggerErrorNotification("Invalid JSON format.").
			Write(w)
		return
	case err != nil:
		applog.NewStructuredLogger(logger).LogError(ctx, "Import failed", err, applog.OpImport, nil)
		msg := failureMessage(ctx, "Could not import records.")
		InternalServerError(msg).
			TriggerErrorNotification(msg).
			Write(w)
		return
	}
	applog.NewStructuredLogger(logger).LogImport(ctx, report.Accepted, len(report.Rejected))

	resp := NewHTMXResponse()
	rejected := len(report.Rejected)
	if report.Accepted > 0 {
		resp.TriggerRecordsChanged(s.ledger.Snapshot().Stats.Count)
	}
	switch {
	case report.Accepted > 0 && rejected == 0:
		resp.TriggerSuccessNotification(fmt.Sprintf("Imported %d record(s).", report.Accepted))
	case rejected > 0:
		resp.TriggerNotification(NotificationWarning,
			fmt.Sprintf("Imported %d record(s), skipped %d.", report.Accepted, rejected), 5000)
	default:
		resp.TriggerNotification(NotificationInfo, "Nothing to import.", 3000)
	}
	if wantsJSON(r) {
		resp.BodyJSON(report).Write(w)
		return
	}
	resp.BodyHTML(importSummary(report)).Write(w)
}

func importSummary(report ledger.ImportReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="import-summary"><p>Imported %d record(s)`, report.Accepted)
	if n := len(report.Rejected); n > 0 {
		fmt.Fprintf(&b, `, skipped %d.</p><ul>`, n)
		for _, rej := range report.Rejected {
			fmt.Fprintf(&b, `<li>Entry %d: %s</li>`, rej.Index+1, template.HTMLEscapeString(rej.Reason))
		}
		b.WriteString(`</ul>`)
	} else {
		b.WriteString(`.</p>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// handleExport sends the whole ledger as a downloadable JSON file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.ledger.Export(r.Context(), &buf); err != nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Export failed", err, applog.OpExport, nil)
		InternalServerError(failureMessage(r.Context(), "Could not export records.")).Write(w)
		return
	}

	NewHTMXResponse().
		Header("Content-Type", "application/json").
		Header("Content-Disposition", `attachment; filename="finance-data.json"`).
		Body(buf.Bytes()).
		Write(w)
}

// handleRecordsPartial re-renders the table. A q parameter updates the filter.
func (s *Server) handleRecordsPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	snap := s.ledger.Snapshot()
	if q := r.URL.Query(); q.Has("q") {
		snap = s.ledger.OnFilterChange(r.Context(), sanitizeInput(q.Get("q")))
	}
	s.render(w, r, "records", snap)
}

// handleSort advances the sort state for a column and re-renders the table.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid input format.").Write(w)
		return
	}
	field, err := core.ParseSortField(parser.Get("field"))
	if err != nil {
		BadRequestError("Unknown sort column.").Write(w)
		return
	}
	s.render(w, r, "records", s.ledger.OnSortRequest(r.Context(), field))
}

func (s *Server) handleStatsPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, "stats", s.ledger.Snapshot())
}
