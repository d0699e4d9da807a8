package stats

import (
	"sort"

	"github.com/jengzang/geolife-backend-go/internal/models"
)

// Totals accumulates a float64 running total per user.
// A zero Totals is not usable; create one with NewTotals.
type Totals struct {
	order []int64
	sums  map[int64]float64
}

// NewTotals creates an empty accumulator
func NewTotals() *Totals {
	return &Totals{sums: make(map[int64]float64)}
}

// Touch registers a user with a zero total if it is not known yet
func (t *Totals) Touch(userID int64) {
	if _, ok := t.sums[userID]; !ok {
		t.order = append(t.order, userID)
		t.sums[userID] = 0
	}
}

// Add adds v to the user's total
func (t *Totals) Add(userID int64, v float64) {
	t.Touch(userID)
	t.sums[userID] += v
}

// Merge folds other into t. Users new to t are appended in other's order.
func (t *Totals) Merge(other *Totals) {
	for _, id := range other.order {
		t.Add(id, other.sums[id])
	}
}

// Ranked returns users sorted by total, largest first. Equal totals keep
// the order in which users were first seen. limit <= 0 returns everything.
func (t *Totals) Ranked(limit int) []models.UserTotal {
	out := make([]models.UserTotal, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, models.UserTotal{UserID: id, Total: t.sums[id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Counts accumulates an integer counter per user
type Counts map[int64]int

// Inc increments the user's counter
func (c Counts) Inc(userID int64) {
	c[userID]++
}

// Merge folds other into c
func (c Counts) Merge(other Counts) {
	for id, n := range other {
		c[id] += n
	}
}

// NonZero returns users with a positive count ordered by user id
func (c Counts) NonZero() []models.UserCount {
	out := make([]models.UserCount, 0, len(c))
	for id, n := range c {
		if n > 0 {
			out = append(out, models.UserCount{UserID: id, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID < out[j].UserID
	})
	return out
}
