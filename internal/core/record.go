package core

import (
	"errors"
	"time"
)

type (
	// Record is a single spending entry. Records are never edited in place;
	// the only mutation after creation is deletion.
	Record struct {
		ID          string    `json:"id"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		Date        string    `json:"date"` // YYYY-MM-DD
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// RecordInput carries the raw field values of a record before validation.
	RecordInput struct {
		Description string
		Amount      string
		Category    string
		Date        string
	}
)

var ErrMissingID = errors.New("record id is empty")

// Input returns the record's fields in raw form so they can be re-validated.
func (r Record) Input() RecordInput {
	return RecordInput{
		Description: r.Description,
		Amount:      r.Amount.String(),
		Category:    r.Category,
		Date:        r.Date,
	}
}

// Build validates the input and constructs a record with the given id.
// CreatedAt and UpdatedAt are both set to now.
func (rs RuleSet) Build(in RecordInput, id string, now time.Time) (Record, error) {
	if err := rs.Validate(in); err != nil {
		return Record{}, err
	}
	if id == "" {
		return Record{}, ErrMissingID
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return Record{}, err
	}
	now = now.UTC()
	return Record{
		ID:          id,
		Description: in.Description,
		Amount:      amount,
		Category:    in.Category,
		Date:        in.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
