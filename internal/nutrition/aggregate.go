package nutrition

import (
	"fmt"
	"math"
	"time"
)

// Window is a time range used to filter entries for aggregation.
type Window string

const (
	WindowToday   Window = "today"
	WindowWeek    Window = "week"
	WindowMonth   Window = "month"
	WindowQuarter Window = "3months"
)

// windowDays maps each window to the number of days subtracted from the start
// of the current day.
var windowDays = map[Window]int{
	WindowToday:   0,
	WindowWeek:    7,
	WindowMonth:   30,
	WindowQuarter: 90,
}

// ParseWindow validates a window name. An empty string means today.
func ParseWindow(s string) (Window, error) {
	if s == "" {
		return WindowToday, nil
	}
	w := Window(s)
	if _, ok := windowDays[w]; !ok {
		return "", fmt.Errorf("unknown range %q, expected one of: today, week, month, 3months", s)
	}
	return w, nil
}

// Totals is the sum of the energy-bearing fields of a set of entries.
type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// Add accumulates one entry. Non-finite or negative values count as 0.
func (t *Totals) Add(m MealEntry) {
	t.Calories += nonNegative(m.Calories)
	t.Protein += nonNegative(m.Protein)
	t.Carbs += nonNegative(m.Carbs)
	t.Fats += nonNegative(m.Fats)
}

// MacroPercentages is each macro's share of macro calories, rounded
// independently. The three values need not sum to 100.
type MacroPercentages struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fats    int `json:"fats"`
}

// Percentages computes macro shares by caloric contribution (4/4/9 kcal/g).
// Returns all zeros when there are no macro calories.
func (t Totals) Percentages() MacroPercentages {
	p := t.Protein * ProteinKcalPerGram
	c := t.Carbs * CarbsKcalPerGram
	f := t.Fats * FatKcalPerGram
	total := p + c + f
	if total <= 0 {
		return MacroPercentages{}
	}
	return MacroPercentages{
		Protein: int(math.Round(p / total * 100)),
		Carbs:   int(math.Round(c / total * 100)),
		Fats:    int(math.Round(f / total * 100)),
	}
}

// RangeSummary is the output of Aggregate.
type RangeSummary struct {
	Window      Window           `json:"range"`
	Start       time.Time        `json:"start"`
	End         time.Time        `json:"end"`
	Totals      Totals           `json:"totals"`
	Percentages MacroPercentages `json:"percentages"`
	Meals       []MealEntry      `json:"meals"`
}

// WindowBounds returns the inclusive [start, end] instants of w relative to
// now, in now's location.
func WindowBounds(w Window, now time.Time) (time.Time, time.Time) {
	end := EndOfDay(now)
	start := StartOfDay(now).AddDate(0, 0, -windowDays[w])
	return start, end
}

// Aggregate sums the entries created inside w. The input slice is not
// modified; Meals is a fresh slice in input order.
func Aggregate(entries []MealEntry, w Window, now time.Time) RangeSummary {
	start, end := WindowBounds(w, now)
	out := RangeSummary{Window: w, Start: start, End: end, Meals: []MealEntry{}}
	for _, m := range entries {
		if m.CreatedAt.Before(start) || m.CreatedAt.After(end) {
			continue
		}
		out.Totals.Add(m)
		out.Meals = append(out.Meals, m)
	}
	out.Percentages = out.Totals.Percentages()
	return out
}

/* ─── Calendar helpers ───────────────────────────────────────────────── */

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
