package core

import (
	"errors"
	"regexp"
	"unicode/utf8"
)

const (
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDate        = "date"
)

var (
	ErrInvalidDescription = errors.New("invalid description")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidDate        = errors.New("invalid date")
)

var (
	descriptionPattern       = regexp.MustCompile(`^\S(?:.*\S)?$`)
	strictDescriptionPattern = regexp.MustCompile(`^[A-Za-z0-9 .,'@#&()-]+$`)
	amountPattern            = regexp.MustCompile(`^(0|[1-9]\d*)(\.\d{1,2})?$`)
	categoryPattern          = regexp.MustCompile(`^[A-Za-z]+(?:[ -][A-Za-z]+)*$`)
	datePattern              = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`)
)

// FieldError reports the first field of a record input that failed its rule.
type FieldError struct {
	Field string
	Value string
}

func (e *FieldError) Error() string {
	return "invalid " + e.Field
}

// Is lets errors.Is match a FieldError against the per-field sentinels.
func (e *FieldError) Is(target error) bool {
	switch target {
	case ErrInvalidDescription:
		return e.Field == FieldDescription
	case ErrInvalidAmount:
		return e.Field == FieldAmount
	case ErrInvalidCategory:
		return e.Field == FieldCategory
	case ErrInvalidDate:
		return e.Field == FieldDate
	}
	return false
}

// RuleSet is the set of format rules a record must satisfy.
type RuleSet struct {
	Name string

	description *regexp.Regexp
	// Optional extra description constraints. Zero values disable them.
	descriptionCharset *regexp.Regexp
	descriptionMin     int
	descriptionMax     int

	amount   *regexp.Regexp
	category *regexp.Regexp
	date     *regexp.Regexp
}

const (
	RulesStandard = "standard"
	RulesStrict   = "strict"
)

// DefaultRules returns the canonical rule set: any printable description
// without leading or trailing whitespace.
func DefaultRules() RuleSet {
	return RuleSet{
		Name:        RulesStandard,
		description: descriptionPattern,
		amount:      amountPattern,
		category:    categoryPattern,
		date:        datePattern,
	}
}

// StrictRules extends DefaultRules with a [3,100] length bound and a
// restricted description character set.
func StrictRules() RuleSet {
	rs := DefaultRules()
	rs.Name = RulesStrict
	rs.descriptionCharset = strictDescriptionPattern
	rs.descriptionMin = 3
	rs.descriptionMax = 100
	return rs
}

// RulesByName resolves a rule set name as used in configuration.
func RulesByName(name string) (RuleSet, bool) {
	switch name {
	case "", RulesStandard:
		return DefaultRules(), true
	case RulesStrict:
		return StrictRules(), true
	default:
		return RuleSet{}, false
	}
}

func (rs RuleSet) ValidDescription(s string) bool {
	if !rs.description.MatchString(s) {
		return false
	}
	n := utf8.RuneCountInString(s)
	if rs.descriptionMin > 0 && n < rs.descriptionMin {
		return false
	}
	if rs.descriptionMax > 0 && n > rs.descriptionMax {
		return false
	}
	if rs.descriptionCharset != nil && !rs.descriptionCharset.MatchString(s) {
		return false
	}
	return true
}

func (rs RuleSet) ValidAmount(s string) bool {
	return rs.amount.MatchString(s)
}

func (rs RuleSet) ValidCategory(s string) bool {
	return rs.category.MatchString(s)
}

// ValidDate checks the YYYY-MM-DD shape and month/day ranges only;
// 2024-02-31 is accepted.
func (rs RuleSet) ValidDate(s string) bool {
	return rs.date.MatchString(s)
}

// Validate checks description, amount, category and date in that order and
// returns a *FieldError for the first one that fails.
func (rs RuleSet) Validate(in RecordInput) error {
	switch {
	case !rs.ValidDescription(in.Description):
		return &FieldError{Field: FieldDescription, Value: in.Description}
	case !rs.ValidAmount(in.Amount):
		return &FieldError{Field: FieldAmount, Value: in.Amount}
	case !rs.ValidCategory(in.Category):
		return &FieldError{Field: FieldCategory, Value: in.Category}
	case !rs.ValidDate(in.Date):
		return &FieldError{Field: FieldDate, Value: in.Date}
	}
	return nil
}

// Package-level predicates using the default rules.

func ValidDescription(s string) bool { return DefaultRules().ValidDescription(s) }
func ValidAmount(s string) bool      { return DefaultRules().ValidAmount(s) }
func ValidCategory(s string) bool    { return DefaultRules().ValidCategory(s) }
func ValidDate(s string) bool        { return DefaultRules().ValidDate(s) }
