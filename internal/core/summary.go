package core

// NoCategory is returned by TopCategory for an empty sequence.
const NoCategory = "none"

// CapStatus compares a total against the spending cap. Exceeding the cap is
// a display state, not an error.
type CapStatus struct {
	WithinBudget bool
	Remaining    Money
}

// Stats is the dashboard summary of a record sequence.
type Stats struct {
	Count       int
	Total       Money
	TopCategory string
	Cap         Money
	CapStatus   CapStatus
}

func Count(records []Record) int {
	return len(records)
}

// TotalAmount sums all amounts at full precision.
func TotalAmount(records []Record) Money {
	total := Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// TopCategory returns the most frequent category. Ties go to the category
// encountered first in sequence order.
func TopCategory(records []Record) string {
	if len(records) == 0 {
		return NoCategory
	}
	counts := make(map[string]int, len(records))
	order := make([]string, 0, len(records))
	for _, r := range records {
		if _, seen := counts[r.Category]; !seen {
			order = append(order, r.Category)
		}
		counts[r.Category]++
	}
	top, best := order[0], counts[order[0]]
	for _, c := range order[1:] {
		if counts[c] > best {
			top, best = c, counts[c]
		}
	}
	return top
}

func CapStatusOf(total, limit Money) CapStatus {
	return CapStatus{
		WithinBudget: total.Cmp(limit) <= 0,
		Remaining:    limit.Sub(total),
	}
}

// Summarize computes every dashboard figure in one pass over the aggregators.
func Summarize(records []Record, limit Money) Stats {
	total := TotalAmount(records)
	return Stats{
		Count:       Count(records),
		Total:       total,
		TopCategory: TopCategory(records),
		Cap:         limit,
		CapStatus:   CapStatusOf(total, limit),
	}
}
