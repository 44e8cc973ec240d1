package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finance/internal/core"
	"finance/internal/middleware/trace"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.5}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}

	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}

	if name := parser.Get("name"); name != "test" {
		t.Errorf("Get('name') = %q, want 'test'", name)
	}

	if amount := parser.Get("amount"); amount != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", amount)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&name=form+test&value=100"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if ct := parser.ContentType(); ct != "application/x-www-form-urlencoded" {
		t.Errorf("ContentType() = %q", ct)
	}

	if id := parser.Get("id"); id != "456" {
		t.Errorf("Get('id') = %q, want '456'", id)
	}

	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		allowed []string
		wantErr bool
	}{
		{"POST allowed", http.MethodPost, []string{http.MethodPost}, false},
		{"DELETE allowed with multiple", http.MethodDelete, []string{http.MethodDelete, http.MethodPost}, false},
		{"GET not allowed", http.MethodGet, []string{http.MethodPost}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireMethod(req, tt.allowed...)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}

func TestRequirePOST(t *testing.T) {
	postReq := httptest.NewRequest(http.MethodPost, "/test", nil)
	if result := RequirePOST(postReq); result != nil {
		t.Error("RequirePOST should allow POST requests")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/test", nil)
	if result := RequirePOST(getReq); result == nil {
		t.Error("RequirePOST should reject GET requests")
	}
}

func TestRequireDeleteOrPOST(t *testing.T) {
	tests := []struct {
		method  string
		wantErr bool
	}{
		{http.MethodPost, false},
		{http.MethodDelete, false},
		{http.MethodGet, true},
		{http.MethodPut, true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireDeleteOrPOST(req)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}

func TestRequestBodyParser_RecordInput(t *testing.T) {
	body := `{"description":"  Lunch\u0007 ","amount":12.345,"category":" Food","date":"2024-01-15"}`
	req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(body))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got := parser.RecordInput()
	want := core.RecordInput{Description: "Lunch", Amount: "12.345", Category: "Food", Date: "2024-01-15"}
	if got != want {
		t.Errorf("RecordInput() = %+v, want %+v", got, want)
	}
	if raw := parser.GetRaw("category"); raw != " Food" {
		t.Errorf("GetRaw('category') = %q, want ' Food'", raw)
	}
}

func TestRequestBodyParser_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(`{"description":`))
	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	if parser.IsJSON() {
		t.Error("IsJSON() should be false after a failed parse")
	}
}

func TestValidationMessage(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		rules core.RuleSet
		want  string
	}{
		{"amount", &core.FieldError{Field: core.FieldAmount}, core.DefaultRules(), "Invalid input format: amount"},
		{"date", fmt.Errorf("add record: %w", &core.FieldError{Field: core.FieldDate}), core.DefaultRules(), "YYYY-MM-DD"},
		{"strict description", &core.FieldError{Field: core.FieldDescription}, core.StrictRules(), "3 to 100"},
		{"other error", errors.New("boom"), core.DefaultRules(), "Invalid input format."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validationMessage(tt.err, tt.rules); !strings.Contains(got, tt.want) {
				t.Errorf("validationMessage() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("a\x00b\tc\nd"); got != "ab\tc\nd" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}

func TestFailureMessageCarriesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := failureMessage(req.Context(), "Could not export records."); got != "Could not export records." {
		t.Errorf("failureMessage without id = %q", got)
	}

	ctx := context.WithValue(req.Context(), trace.RequestIDKey, "req_abc")
	if got := failureMessage(ctx, "Could not export records."); got != "Could not export records. (request req_abc)" {
		t.Errorf("failureMessage = %q", got)
	}
}
