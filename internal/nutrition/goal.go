package nutrition

import "math"

// MinCalorieGoal is the floor applied to every estimated goal.
const MinCalorieGoal = 1200

// ActivityLevels maps activity level names to their TDEE multiplier.
// This is the single source of truth for valid activity factors; the API
// validates input against it.
var ActivityLevels = map[string]float64{
	"sedentary": 1.2,
	"light":     1.375,
	"moderate":  1.55,
	"active":    1.725,
}

// DefaultActivityFactor is used when no valid factor is supplied.
const DefaultActivityFactor = 1.2

// ValidActivityFactor reports whether f is one of the four fixed multipliers.
func ValidActivityFactor(f float64) bool {
	for _, v := range ActivityLevels {
		if v == f {
			return true
		}
	}
	return false
}

// GoalInputs are the biometric inputs to EstimateGoal.
type GoalInputs struct {
	WeightKG       float64   `json:"weight"`
	HeightCM       float64   `json:"height"`
	Age            int       `json:"age"`
	Sex            Sex       `json:"gender"`
	ActivityFactor float64   `json:"activity_level"`
	Objective      Objective `json:"goal"`
}

// GoalInputsFromProfile reads the estimator inputs off a profile.
func GoalInputsFromProfile(p Profile) GoalInputs {
	return GoalInputs{
		WeightKG:       p.WeightKG,
		HeightCM:       p.HeightCM,
		Age:            p.Age,
		Sex:            p.Sex,
		ActivityFactor: p.ActivityFactor,
		Objective:      p.Objective,
	}
}

// BMR is the Mifflin-St Jeor basal metabolic rate. Anything that is not
// explicitly male uses the female constant.
func BMR(weightKg, heightCm float64, age int, sex Sex) float64 {
	bmr := 10*nonNegative(weightKg) + 6.25*nonNegative(heightCm) - 5*float64(max(age, 0))
	if sex == SexMale {
		return bmr + 5
	}
	return bmr - 161
}

// GoalModifier is the kcal adjustment applied to TDEE for an objective.
func GoalModifier(o Objective) float64 {
	switch o {
	case ObjectiveLoseWeight:
		return -400
	case ObjectiveBuildMuscle:
		return 300
	}
	return 0
}

// EstimateGoal computes a daily calorie target: BMR scaled by the activity
// factor, shifted by the objective, rounded and floored at MinCalorieGoal.
// Missing inputs never fail; they just push the result toward the floor.
func EstimateGoal(in GoalInputs) int {
	factor := in.ActivityFactor
	if !(factor > 0) {
		factor = DefaultActivityFactor
	}
	tdee := BMR(in.WeightKG, in.HeightCM, in.Age, in.Sex)*factor + GoalModifier(in.Objective)
	goal := math.Round(tdee)
	if !(goal >= MinCalorieGoal) {
		return MinCalorieGoal
	}
	return int(goal)
}
