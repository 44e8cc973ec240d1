package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidAmount(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"12.34", true},
		{"12.3", true},
		{"0", true},
		{"0.50", true},
		{"1000", true},
		{"12.345", false},
		{"-1", false},
		{"-0.50", false},
		{"1e3", false},
		{"1.2.3", false},
		{"012", false},
		{"00.5", false},
		{".5", false},
		{"5.", false},
		{"", false},
		{" 5", false},
	}
	for _, tc := range cases {
		if got := ValidAmount(tc.in); got != tc.ok {
			t.Fatalf("ValidAmount(%q) = %v, want %v", tc.in, got, tc.ok)
		}
	}
}

func TestValidDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-15", true},
		{"2024-12-31", true},
		{"2024-02-31", true}, // no month-length check
		{"2024-13-01", false},
		{"2024-00-10", false},
		{"2024-01-00", false},
		{"2024-01-32", false},
		{"2024-1-5", false},
		{"24-01-05", false},
		{"", false},
		{"2024-01-15T00:00:00Z", false},
	}
	for _, tc := range cases {
		if got := ValidDate(tc.in); got != tc.ok {
			t.Fatalf("ValidDate(%q) = %v, want %v", tc.in, got, tc.ok)
		}
	}
}

func TestValidCategory(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"Food", true},
		{"Eating Out", true},
		{"Self-Care", true},
		{"a b-c", true},
		{"Food2", false},
		{"Eating  Out", false},
		{" Food", false},
		{"Food-", false},
		{"Food & Drink", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidCategory(tc.in); got != tc.ok {
			t.Fatalf("ValidCategory(%q) = %v, want %v", tc.in, got, tc.ok)
		}
	}
}

func TestValidDescription(t *testing.T) {
	cases := []struct {
		in       string
		standard bool
		strict   bool
	}{
		{"Coffee", true, true},
		{"Lunch with Sam (work)", true, true},
		{"x", true, false},
		{"Café au lait", true, false},
		{"Books!", true, false},
		{"", false, false},
		{"   ", false, false},
		{" leading", false, false},
		{"trailing ", false, false},
		{strings.Repeat("a", 101), true, false},
		{strings.Repeat("a", 100), true, true},
	}
	standard, strict := DefaultRules(), StrictRules()
	for _, tc := range cases {
		if got := standard.ValidDescription(tc.in); got != tc.standard {
			t.Fatalf("standard ValidDescription(%q) = %v, want %v", tc.in, got, tc.standard)
		}
		if got := strict.ValidDescription(tc.in); got != tc.strict {
			t.Fatalf("strict ValidDescription(%q) = %v, want %v", tc.in, got, tc.strict)
		}
	}
}

func TestRulesByName(t *testing.T) {
	for _, name := range []string{"", RulesStandard, RulesStrict} {
		if _, ok := RulesByName(name); !ok {
			t.Fatalf("expected %q to resolve", name)
		}
	}
	if _, ok := RulesByName("lenient"); ok {
		t.Fatalf("expected unknown rule set to fail")
	}
}

func TestValidateNamesOffendingField(t *testing.T) {
	good := RecordInput{Description: "Coffee", Amount: "3.50", Category: "Food", Date: "2024-05-01"}
	if err := DefaultRules().Validate(good); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		mutate   func(*RecordInput)
		field    string
		sentinel error
	}{
		{func(in *RecordInput) { in.Description = " " }, FieldDescription, ErrInvalidDescription},
		{func(in *RecordInput) { in.Amount = "12.345" }, FieldAmount, ErrInvalidAmount},
		{func(in *RecordInput) { in.Category = "F00d" }, FieldCategory, ErrInvalidCategory},
		{func(in *RecordInput) { in.Date = "" }, FieldDate, ErrInvalidDate},
	}
	for i, tc := range cases {
		in := good
		tc.mutate(&in)
		err := DefaultRules().Validate(in)
		var fe *FieldError
		if !errors.As(err, &fe) || fe.Field != tc.field {
			t.Fatalf("case %d expected field error on %s, got %v", i, tc.field, err)
		}
		if !errors.Is(err, tc.sentinel) {
			t.Fatalf("case %d expected errors.Is(%v)", i, tc.sentinel)
		}
		if !strings.Contains(err.Error(), tc.field) {
			t.Fatalf("case %d message %q does not name field", i, err.Error())
		}
	}
}

func TestBuild(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	in := RecordInput{Description: "Coffee", Amount: "3.50", Category: "Food", Date: "2024-05-01"}

	rec, err := DefaultRules().Build(in, "rec_1", now)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if rec.ID != "rec_1" || rec.Amount.Display() != "3.50" || !rec.CreatedAt.Equal(now) || !rec.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if err := DefaultRules().Validate(rec.Input()); err != nil {
		t.Fatalf("built record does not re-validate: %v", err)
	}

	if _, err := DefaultRules().Build(in, "", now); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
	in.Date = "2024/05/01"
	if _, err := DefaultRules().Build(in, "rec_2", now); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
