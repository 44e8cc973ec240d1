package cli

import (
	"testing"
	"time"

	"finance/internal/core"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"12.5", "$12.50"},
		{"1234.56", "$1,234.56"},
		{"1000000", "$1,000,000.00"},
		{"-45.1", "-$45.10"},
	}
	for _, tt := range tests {
		if got := FormatMoney(core.MustMoney(tt.in)); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCountAndAge(t *testing.T) {
	if got := FormatCount(12345); got != "12,345" {
		t.Errorf("FormatCount = %q", got)
	}
	if got := FormatAge(time.Time{}); got != "-" {
		t.Errorf("FormatAge(zero) = %q", got)
	}
	if got := FormatAge(time.Now().Add(-3 * time.Hour)); got != "3 hours ago" {
		t.Errorf("FormatAge = %q", got)
	}
}
