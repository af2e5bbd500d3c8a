package nutrition

import "strings"

// Score thresholds.
const (
	baselineScore       = 5
	highProteinG        = 10
	highSugarG          = 15
	ultraProcessedGroup = 4
)

// Score maps a product's nutrient profile to a 0-10 health score.
// Absent or negative fields count as 0.
func Score(p Product) int {
	score := baselineScore
	if nonNegative(p.Protein) > highProteinG {
		score += 2
	}
	if nonNegative(p.Sugars) > highSugarG {
		score -= 2
	}
	if p.NovaGroup == ultraProcessedGroup {
		score -= 3
	}
	if g := gradeLetter(p.NutriScoreGrade); g == "a" || g == "b" {
		score++
	}
	return min(max(score, 0), 10)
}

// gradeLetter strips a +/- suffix and lowercases an A-E grade.
func gradeLetter(grade string) string {
	g := strings.ToLower(strings.TrimSpace(grade))
	if g == "" {
		return ""
	}
	return g[:1]
}

// Recommendation is goal-conditioned advice for a product.
type Recommendation struct {
	Text  string `json:"recommendation"`
	Badge string `json:"badge"`
	Score int    `json:"score"`
}

// Recommend picks advice and a badge for p given the user's objective.
// It has no side effects and is safe to call for previews.
func Recommend(p Product, o Objective) Recommendation {
	score := Score(p)
	protein := nonNegative(p.Protein)
	sugars := nonNegative(p.Sugars)

	r := Recommendation{Score: score}
	switch o {
	case ObjectiveBuildMuscle:
		switch {
		case protein > 15:
			r.Text, r.Badge = "Excellent for building muscle. High in protein!", "TOP GAINER"
		case protein > 8:
			r.Text, r.Badge = "Good protein snack to round out your day.", "GOOD SNACK"
		default:
			r.Text, r.Badge = "A bit low in protein for your current goal.", "BOOST NEEDED"
		}
	case ObjectiveLoseWeight:
		switch {
		case sugars > 15:
			r.Text, r.Badge = "Careful, too much sugar for effective weight loss.", "TOO SWEET"
		case p.Calories < 100:
			r.Text, r.Badge = "Low in calories, perfect for a small craving.", "LIGHT"
		default:
			r.Text, r.Badge = "Decent product, enjoy in moderation.", "MODERATION"
		}
	default:
		switch {
		case score >= 8:
			r.Text, r.Badge = "Excellent choice for a balanced diet.", "HEALTH+"
		case score >= 5:
			r.Text, r.Badge = "Balanced snack that fits well into your day.", "BALANCED"
		default:
			r.Text, r.Badge = "Best kept for occasional consumption.", "OCCASIONAL"
		}
	}
	return r
}
