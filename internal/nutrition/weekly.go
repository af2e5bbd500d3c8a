package nutrition

import (
	"math"
	"strings"
	"time"
)

// DayBucket is one day of the weekly series.
type DayBucket struct {
	Day         string           `json:"day"`
	Date        time.Time        `json:"date"`
	FillPercent float64          `json:"total"`
	Percentages MacroPercentages `json:"macros"`
	Calories    float64          `json:"raw_calories"`
}

// WeekSeries is the output of WeeklySeries. Days always has 7 elements,
// Monday first.
type WeekSeries struct {
	Days          []DayBucket `json:"weekly_data"`
	TotalCalories float64     `json:"total_weekly_calories"`
	DailyAverage  int         `json:"daily_average"`
}

// ISOWeekday returns 1 for Monday through 7 for Sunday.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday()) // 0=Sun
	if wd == 0 {
		wd = 7
	}
	return wd
}

// WeekStart returns midnight of the Monday of t's ISO week, in t's location.
// AddDate keeps month/year boundaries safe.
func WeekStart(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, -(ISOWeekday(t) - 1))
}

// WeeklySeries buckets entries into the seven days of the current ISO week.
// A calorieGoal <= 0 falls back to DefaultCalorieGoal for the fill bar.
// DailyAverage divides by the number of elapsed weekdays, not by 7.
func WeeklySeries(entries []MealEntry, calorieGoal int, now time.Time) WeekSeries {
	goal := float64(calorieGoal)
	if goal <= 0 {
		goal = DefaultCalorieGoal
	}
	loc := now.Location()
	monday := WeekStart(now)

	out := WeekSeries{Days: make([]DayBucket, 7)}
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		var t Totals
		for _, m := range entries {
			if SameDay(m.CreatedAt, day, loc) {
				t.Add(m)
			}
		}
		out.TotalCalories += t.Calories
		out.Days[i] = DayBucket{
			Day:         strings.ToUpper(day.Format("Mon")),
			Date:        day,
			FillPercent: math.Min(100, t.Calories/goal*100),
			Percentages: t.Percentages(),
			Calories:    t.Calories,
		}
	}
	out.DailyAverage = int(math.Round(out.TotalCalories / float64(ISOWeekday(now))))
	return out
}
