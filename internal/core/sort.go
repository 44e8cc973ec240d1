package core

import (
	"errors"
	"slices"
	"strings"
)

// SortField names a record column that can be sorted.
type SortField string

const (
	SortByDescription SortField = "description"
	SortByAmount      SortField = "amount"
	SortByCategory    SortField = "category"
	SortByDate        SortField = "date"
)

// Direction is the sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

var ErrUnknownSortField = errors.New("unknown sort field")

// ParseSortField validates a column name coming from user input.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortByDescription, SortByAmount, SortByCategory, SortByDate:
		return f, nil
	}
	return "", ErrUnknownSortField
}

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// SortRecords returns a sorted copy of records. Text and date columns compare
// lexicographically, amounts numerically. Equal keys keep their relative order.
func SortRecords(records []Record, field SortField, dir Direction) []Record {
	out := slices.Clone(records)
	cmp := compareBy(field)
	if cmp == nil {
		return out
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		if dir == Descending {
			return cmp(b, a)
		}
		return cmp(a, b)
	})
	return out
}

func compareBy(field SortField) func(a, b Record) int {
	switch field {
	case SortByDescription:
		return func(a, b Record) int { return strings.Compare(a.Description, b.Description) }
	case SortByAmount:
		return func(a, b Record) int { return a.Amount.Cmp(b.Amount) }
	case SortByCategory:
		return func(a, b Record) int { return strings.Compare(a.Category, b.Category) }
	case SortByDate:
		return func(a, b Record) int { return strings.Compare(a.Date, b.Date) }
	}
	return nil
}
