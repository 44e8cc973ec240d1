package http

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finance/internal/core"
	"finance/internal/middleware/trace"
)

// sanitizeInput removes control characters except tab, newline and carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

var fieldHints = map[string]string{
	core.FieldDescription: "description must not be empty or start or end with a space",
	core.FieldAmount:      "amount must be a non-negative number with at most two decimals",
	core.FieldCategory:    "category must be letters, optionally separated by single spaces or hyphens",
	core.FieldDate:        "date must be in YYYY-MM-DD format",
}

// validationMessage names the field that failed and what it expects.
func validationMessage(err error, rules core.RuleSet) string {
	var fe *core.FieldError
	if !errors.As(err, &fe) {
		return "Invalid input format."
	}
	hint := fieldHints[fe.Field]
	if fe.Field == core.FieldDescription && rules.Name == core.RulesStrict {
		hint = "description must be 3 to 100 letters, digits, spaces or . , ' @ # & ( ) -"
	}
	return "Invalid input format: " + hint + "."
}

// failureMessage appends the request id, when there is one, so a reported
// failure can be found in the logs.
func failureMessage(ctx context.Context, msg string) string {
	if id := trace.GetRequestID(ctx); id != "" {
		return fmt.Sprintf("%s (request %s)", msg, id)
	}
	return msg
}
