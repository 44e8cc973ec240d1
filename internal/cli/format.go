package cli

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"finance/internal/core"
)

// FormatMoney renders an amount with a dollar sign, thousands separators and
// two decimals, e.g. 1234.5 -> "$1,234.50".
func FormatMoney(m core.Money) string {
	s := m.Display()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + "$" + s
	}
	return sign + "$" + humanize.Comma(n) + "." + frac
}

// FormatCount formats an integer with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatAge renders how long ago t was, e.g. "3 minutes ago".
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// FormatBytes renders a byte size, e.g. "1.2 kB".
func FormatBytes(n int) string {
	return humanize.Bytes(uint64(n))
}
