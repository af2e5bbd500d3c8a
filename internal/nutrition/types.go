// Package nutrition holds the data model shared by every client surface and
// the pure functions that derive totals, weekly series, body metrics, calorie
// goals and product health scores from it.
package nutrition

import "time"

/* ─── Macro energy factors ───────────────────────────────────────────── */

// kcal per gram.
const (
	ProteinKcalPerGram = 4
	CarbsKcalPerGram   = 4
	FatKcalPerGram     = 9
)

// DefaultCalorieGoal is used wherever a goal is needed but none is set.
const DefaultCalorieGoal = 2000

/* ─── Domain structs ─────────────────────────────────────────────────── */

// MealEntry is one logged food consumption event. Nutrient fields are never
// negative once normalized; optional text fields are empty when absent.
type MealEntry struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id,omitempty"`
	Name            string    `json:"name"`
	Calories        float64   `json:"calories"`
	Protein         float64   `json:"protein"`
	Carbs           float64   `json:"carbs"`
	Fats            float64   `json:"fats"`
	Fiber           float64   `json:"fiber"`
	Sugars          float64   `json:"sugars"`
	SaturatedFat    float64   `json:"saturated_fat"`
	Salt            float64   `json:"salt"`
	Barcode         string    `json:"barcode,omitempty"`
	Brand           string    `json:"brands,omitempty"`
	NutriScoreGrade string    `json:"nutriscore_grade,omitempty"`
	EcoScoreGrade   string    `json:"ecoscore_grade,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	Ingredients     string    `json:"ingredients,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Ingredient is one line of a recognized meal's breakdown.
type Ingredient struct {
	Name     string  `json:"name"`
	WeightG  float64 `json:"weight_g"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
	Icon     string  `json:"icon,omitempty"`
}

// MealDraft is what a client confirms before it becomes a MealEntry.
// IngredientsList is persisted separately once the meal has a durable ID.
type MealDraft struct {
	MealEntry
	IngredientsList []Ingredient `json:"ingredientsList,omitempty"`
}

// WeightLogEntry is one weight measurement, one per calendar day intended.
type WeightLogEntry struct {
	ID         string    `json:"id,omitempty"`
	UserID     string    `json:"user_id"`
	Weight     float64   `json:"weight"`
	LoggedDate time.Time `json:"logged_date"`
}

// WaterLogEntry is one hydration measurement.
type WaterLogEntry struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	AmountML  float64   `json:"amount_ml"`
	CreatedAt time.Time `json:"created_at"`
}

// Sex selects the Mifflin-St Jeor constant.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Objective is the user's primary goal.
type Objective string

const (
	ObjectiveLoseWeight  Objective = "lose_weight"
	ObjectiveBuildMuscle Objective = "build_muscle"
	ObjectiveMaintain    Objective = "maintain"
)

// Valid reports whether o is one of the known objectives.
func (o Objective) Valid() bool {
	switch o {
	case ObjectiveLoseWeight, ObjectiveBuildMuscle, ObjectiveMaintain:
		return true
	}
	return false
}

// Profile holds per-user biometric and goal settings.
type Profile struct {
	UserID              string    `json:"id"`
	Email               string    `json:"email"`
	FullName            string    `json:"full_name"`
	Bio                 string    `json:"bio"`
	HeightCM            float64   `json:"height"`
	WeightKG            float64   `json:"weight"`
	Age                 int       `json:"age"`
	Sex                 Sex       `json:"gender"`
	ActivityFactor      float64   `json:"activity_level"`
	Objective           Objective `json:"goal"`
	CalorieGoal         int       `json:"calorie_goal"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Product is a normalized nutrient record returned by barcode lookup or photo
// recognition. Descriptive metadata is for display and scoring only.
type Product struct {
	Barcode             string       `json:"barcode,omitempty"`
	Name                string       `json:"name"`
	Brands              string       `json:"brands,omitempty"`
	Quantity            string       `json:"quantity,omitempty"`
	Categories          string       `json:"categories,omitempty"`
	Labels              string       `json:"labels,omitempty"`
	Origins             string       `json:"origins,omitempty"`
	ManufacturingPlaces string       `json:"manufacturing_places,omitempty"`
	Stores              string       `json:"stores,omitempty"`
	Countries           string       `json:"countries,omitempty"`
	NutriScoreGrade     string       `json:"nutriscore_grade,omitempty"`
	EcoScoreGrade       string       `json:"ecoscore_grade,omitempty"`
	NovaGroup           int          `json:"nova_group,omitempty"`
	ImageURL            string       `json:"image_url,omitempty"`
	IngredientsText     string       `json:"raw_ingredients_text,omitempty"`
	Calories            float64      `json:"calories"`
	Protein             float64      `json:"protein"`
	Carbs               float64      `json:"carbs"`
	Fats                float64      `json:"fats"`
	Fiber               float64      `json:"fiber"`
	Sugars              float64      `json:"sugars"`
	SaturatedFat        float64      `json:"saturated_fat"`
	Salt                float64      `json:"salt"`
	IngredientsList     []Ingredient `json:"ingredientsList,omitempty"`
}

// Draft turns a product into a meal draft ready for AddEntry.
func (p Product) Draft() MealDraft {
	return MealDraft{
		MealEntry: MealEntry{
			Name:            p.Name,
			Calories:        p.Calories,
			Protein:         p.Protein,
			Carbs:           p.Carbs,
			Fats:            p.Fats,
			Fiber:           p.Fiber,
			Sugars:          p.Sugars,
			SaturatedFat:    p.SaturatedFat,
			Salt:            p.Salt,
			Barcode:         p.Barcode,
			Brand:           p.Brands,
			NutriScoreGrade: p.NutriScoreGrade,
			EcoScoreGrade:   p.EcoScoreGrade,
			ImageURL:        p.ImageURL,
			Ingredients:     p.IngredientsText,
		},
		IngredientsList: p.IngredientsList,
	}
}

// Normalize clamps every nutrient field to be non-negative. Entries coming
// from external sources go through it before they reach the store.
func (m *MealEntry) Normalize() {
	for _, f := range []*float64{
		&m.Calories, &m.Protein, &m.Carbs, &m.Fats,
		&m.Fiber, &m.Sugars, &m.SaturatedFat, &m.Salt,
	} {
		*f = nonNegative(*f)
	}
}

// nonNegative maps negatives and NaN to 0.
func nonNegative(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	return v
}
