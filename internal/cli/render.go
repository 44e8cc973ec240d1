package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"finance/internal/core"
	"finance/internal/view"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorYellow    = lipgloss.Color("#D0A215")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	okStyle = lipgloss.NewStyle().
		Foreground(ColorGreen)

	alertStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorRed)

	matchStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorYellow).
			Underline(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table is a bordered text table. Cells may already contain styling; widths
// are measured on the visible text.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// RightAlign marks columns that are padded on the left.
	RightAlign map[int]bool
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = max(widths[i], lipgloss.Width(h))
	}
	for _, row := range t.Rows {
		for i := 0; i < numCols && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}
	line := func(cells []string, style lipgloss.Style) {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if t.RightAlign[i] {
				cell = pad + cell
			} else {
				cell += pad
			}
			b.WriteString(style.Render(" " + cell + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		line(t.Headers, headerStyle)
		rule("├", "┼", "┤")
	}
	for _, row := range t.Rows {
		line(row, valueStyle)
	}
	rule("╰", "┴", "╯")

	return b.String()
}

// HighlightSegments joins segments, styling the matched ones.
func HighlightSegments(segs []view.Segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Match {
			b.WriteString(matchStyle.Render(s.Text))
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// RecordsTable builds the record listing shown by the list command.
func RecordsTable(rows []view.Row) Table {
	t := Table{
		Headers:    []string{"ID", "Description", "Amount", "Category", "Date"},
		RightAlign: map[int]bool{2: true},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			mutedStyle.Render(r.ID),
			HighlightSegments(r.DescriptionSegments),
			FormatMoney(r.Amount),
			HighlightSegments(r.CategorySegments),
			r.Date,
		})
	}
	return t
}

// RenderStats renders the summary figures and the cap status line.
func RenderStats(st core.Stats) string {
	t := Table{
		Headers:    []string{"Metric", "Value"},
		RightAlign: map[int]bool{1: true},
		Rows: [][]string{
			{"Total Transactions", FormatCount(st.Count)},
			{"Total Spending", FormatMoney(st.Total)},
			{"Top Category", st.TopCategory},
			{"Spending Cap", FormatMoney(st.Cap)},
		},
	}

	var status string
	if st.CapStatus.WithinBudget {
		status = okStyle.Render(fmt.Sprintf("Within budget. %s remaining.", FormatMoney(st.CapStatus.Remaining)))
	} else {
		status = alertStyle.Render("⚠ Spending cap exceeded!")
	}
	return RenderTable(t) + "  " + status + "\n"
}
