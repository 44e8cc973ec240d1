package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Level:     slog.LevelDebug,
		Component: component,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestWithComponentAddsAttributeOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentApp).WithComponent(ComponentLedger)

	logger.Info("hello", FieldCount, 3)

	out := buf.String()
	if !strings.Contains(out, "component=ledger") {
		t.Fatalf("expected ledger component, got %q", out)
	}
	if strings.Count(out, "component=ledger") != 1 {
		t.Fatalf("component repeated: %q", out)
	}
	if !strings.Contains(out, "count=3") {
		t.Fatalf("expected count field, got %q", out)
	}
	if logger.Component() != ComponentLedger {
		t.Fatalf("Component() = %q", logger.Component())
	}
}

func TestWithComponentSameNameIsNoop(t *testing.T) {
	logger := New(Config{Component: ComponentHTTP, Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)})
	if logger.WithComponent(ComponentHTTP) != logger {
		t.Fatal("expected the same logger back")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithOperation(OpCreate).
		WithRecord("rec_1", "Coffee", "3.5", "Food", "2024-01-01").
		WithError(errors.New("boom")).
		WithError(nil).
		With(FieldStorageKey, "finance:data")

	want := map[string]any{
		FieldOperation:   OpCreate,
		FieldRecordID:    "rec_1",
		FieldDescription: "Coffee",
		FieldAmount:      "3.5",
		FieldCategory:    "Food",
		FieldDate:        "2024-01-01",
		FieldError:       "boom",
		FieldStorageKey:  "finance:data",
	}
	if len(f) != len(want) {
		t.Fatalf("got %d fields, want %d", len(f), len(want))
	}
	for k, v := range want {
		if f[k] != v {
			t.Fatalf("field %s = %v, want %v", k, f[k], v)
		}
	}
	if got := len(f.ToSlice()); got != 2*len(want) {
		t.Fatalf("ToSlice length = %d", got)
	}
}

func TestContextCarriesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentHTTP).With(FieldRequestID, "abc123")

	ctx := NewContext(context.Background(), logger)
	FromContext(ctx).InfoContext(ctx, "inside")

	if !strings.Contains(buf.String(), "request_id=abc123") {
		t.Fatalf("expected request id in log, got %q", buf.String())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a logger")
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentApp))
	req := httptest.NewRequest(http.MethodPost, "/records?x=1", nil)

	sl.LogHTTPEnd(context.Background(), req, http.StatusBadRequest, 12, "127.0.0.1")
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Fatalf("expected WARN for 400, got %q", buf.String())
	}

	buf.Reset()
	sl.LogHTTPEnd(context.Background(), req, http.StatusInternalServerError, 12, "127.0.0.1")
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Fatalf("expected ERROR for 500, got %q", buf.String())
	}

	buf.Reset()
	sl.LogError(context.Background(), "failed", errors.New("disk full"), OpCreate, nil)
	if !strings.Contains(buf.String(), `error="disk full"`) {
		t.Fatalf("expected error field, got %q", buf.String())
	}
}
