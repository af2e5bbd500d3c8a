package nutrition

import "math"

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// BMI returns weight / height² rounded to one decimal. ok is false when either
// input is missing or non-positive, so callers never see Inf or NaN.
func BMI(weightKg, heightCm float64) (float64, bool) {
	if !(weightKg > 0) || !(heightCm > 0) {
		return 0, false
	}
	m := heightCm / 100
	return round1(weightKg / (m * m)), true
}

// CurrentWeight prefers the newest weight log over the profile weight.
// logs must be ordered newest first.
func CurrentWeight(logs []WeightLogEntry, profileWeight float64) float64 {
	if len(logs) > 0 && logs[0].Weight > 0 {
		return logs[0].Weight
	}
	if profileWeight > 0 {
		return profileWeight
	}
	return 0
}

// Trend is the latest weight and its signed change from the previous entry.
type Trend struct {
	Latest float64 `json:"latest"`
	Diff   float64 `json:"diff"`
}

// WeightTrend reads the two newest entries of logs (newest first).
func WeightTrend(logs []WeightLogEntry) Trend {
	switch len(logs) {
	case 0:
		return Trend{}
	case 1:
		return Trend{Latest: logs[0].Weight}
	}
	return Trend{Latest: logs[0].Weight, Diff: round1(logs[0].Weight - logs[1].Weight)}
}

// BMIBand is the display classification of a BMI value.
type BMIBand struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Color string `json:"color"`
	Index int    `json:"index"`
}

var (
	BandUnavailable = BMIBand{Key: "unavailable", Label: "N/A", Color: "gray", Index: -1}
	BandUnderweight = BMIBand{Key: "underweight", Label: "Underweight", Color: "blue", Index: 0}
	BandHealthy     = BMIBand{Key: "healthy", Label: "Healthy", Color: "green", Index: 1}
	BandOverweight  = BMIBand{Key: "overweight", Label: "Overweight", Color: "amber", Index: 2}
	BandObese       = BMIBand{Key: "obese", Label: "Obese", Color: "red", Index: 3}
)

// ClassifyBMI maps a BMI to its band; unavailable or non-positive values map
// to BandUnavailable.
func ClassifyBMI(bmi float64, ok bool) BMIBand {
	switch {
	case !ok || !(bmi > 0):
		return BandUnavailable
	case bmi < 18.5:
		return BandUnderweight
	case bmi < 25:
		return BandHealthy
	case bmi < 30:
		return BandOverweight
	default:
		return BandObese
	}
}

// BMIGaugePosition places bmi on a 0-100 gauge whose segments are sized
// 18/25/27/30 for the four bands.
func BMIGaugePosition(bmi float64, ok bool) float64 {
	if !ok || !(bmi > 0) {
		return 0
	}
	var pos float64
	switch {
	case bmi < 15:
		pos = 5
	case bmi < 18.5:
		pos = 5 + (bmi-15)/3.5*13
	case bmi < 25:
		pos = 18 + (bmi-18.5)/6.5*25
	case bmi < 30:
		pos = 43 + (bmi-25)/5*27
	case bmi < 40:
		pos = 70 + (bmi-30)/10*25
	default:
		pos = 95
	}
	return math.Min(pos, 100)
}

// WaterTotal sums the amounts of logs, ignoring negative values.
func WaterTotal(logs []WaterLogEntry) float64 {
	var sum float64
	for _, l := range logs {
		sum += nonNegative(l.AmountML)
	}
	return sum
}
