package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"finance/internal/core"
	"finance/internal/view"
)

func TestRenderTableAlignsColumns(t *testing.T) {
	out := RenderTable(Table{
		Headers:    []string{"Name", "Amount"},
		Rows:       [][]string{{"Coffee", "$3.50"}, {"Rent", "$400.00"}},
		RightAlign: map[int]bool{1: true},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6:\n%s", len(lines), out)
	}
	width := lipgloss.Width(lines[0])
	for i, l := range lines {
		if lipgloss.Width(l) != width {
			t.Errorf("line %d width %d, want %d: %q", i, lipgloss.Width(l), width, l)
		}
	}
	if !strings.Contains(out, "Coffee") || !strings.Contains(out, "$400.00") {
		t.Errorf("missing cells:\n%s", out)
	}
}

func TestRenderTableEmpty(t *testing.T) {
	if out := RenderTable(Table{}); out != "" {
		t.Errorf("empty table rendered %q", out)
	}
}

func TestRecordsTableHighlights(t *testing.T) {
	p := view.NewProjector(4, 0)
	rec := core.Record{ID: "rec_1", Description: "Coffee", Amount: core.MustMoney("3.5"), Category: "Food", Date: "2024-01-02"}
	proj := p.Project([]core.Record{rec}, "fee")

	tbl := RecordsTable(proj.Rows)
	if len(tbl.Rows) != 1 {
		t.Fatalf("rows = %d", len(tbl.Rows))
	}
	if got := tbl.Rows[0][2]; got != "$3.50" {
		t.Errorf("amount cell = %q", got)
	}
	if !strings.Contains(tbl.Rows[0][1], "Cof") || !strings.Contains(tbl.Rows[0][1], "fee") {
		t.Errorf("description cell lost text: %q", tbl.Rows[0][1])
	}
}

func TestRenderStatsCapStatus(t *testing.T) {
	recs := []core.Record{
		{Amount: core.MustMoney("450"), Category: "Housing"},
		{Amount: core.MustMoney("60"), Category: "Food"},
	}
	out := RenderStats(core.Summarize(recs, core.MustMoney("500")))
	if !strings.Contains(out, "Spending cap exceeded!") {
		t.Errorf("over cap not reported:\n%s", out)
	}

	out = RenderStats(core.Summarize(recs[:1], core.MustMoney("500")))
	if !strings.Contains(out, "Within budget. $50.00 remaining.") {
		t.Errorf("within budget not reported:\n%s", out)
	}
}
