package nutrition

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBMI(t *testing.T) {
	bmi, ok := BMI(70, 175)
	require.True(t, ok)
	require.Equal(t, 22.9, bmi)

	cases := []struct {
		name   string
		weight float64
		height float64
	}{
		{"zero weight", 0, 175},
		{"zero height", 70, 0},
		{"negative height", 70, -175},
		{"NaN weight", math.NaN(), 175},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := BMI(tc.weight, tc.height)
			require.False(t, ok)
			require.Zero(t, got)
		})
	}
}

func TestWeightTrend(t *testing.T) {
	day := time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC)

	require.Equal(t, Trend{}, WeightTrend(nil))
	require.Equal(t, Trend{Latest: 80}, WeightTrend([]WeightLogEntry{{Weight: 80, LoggedDate: day}}))
	require.Equal(t, Trend{Latest: 78, Diff: -2}, WeightTrend([]WeightLogEntry{
		{Weight: 78, LoggedDate: day},
		{Weight: 80, LoggedDate: day.AddDate(0, 0, -1)},
	}))
	// Only the two newest entries matter and the sign is kept.
	require.Equal(t, Trend{Latest: 81.3, Diff: 0.6}, WeightTrend([]WeightLogEntry{
		{Weight: 81.3}, {Weight: 80.7}, {Weight: 60},
	}))
}

func TestCurrentWeight(t *testing.T) {
	require.Equal(t, 78.0, CurrentWeight([]WeightLogEntry{{Weight: 78}, {Weight: 80}}, 90))
	require.Equal(t, 90.0, CurrentWeight(nil, 90))
	require.Zero(t, CurrentWeight(nil, 0))
}

func TestClassifyBMI(t *testing.T) {
	cases := []struct {
		bmi  float64
		ok   bool
		want BMIBand
	}{
		{0, false, BandUnavailable},
		{22, false, BandUnavailable},
		{-3, true, BandUnavailable},
		{17.9, true, BandUnderweight},
		{18.5, true, BandHealthy},
		{24.9, true, BandHealthy},
		{25, true, BandOverweight},
		{29.99, true, BandOverweight},
		{30, true, BandObese},
		{55, true, BandObese},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ClassifyBMI(tc.bmi, tc.ok), "bmi %v", tc.bmi)
	}
}

func TestBMIGaugePosition(t *testing.T) {
	require.Zero(t, BMIGaugePosition(0, false))
	require.Equal(t, 5.0, BMIGaugePosition(12, true))
	require.Equal(t, 18.0, BMIGaugePosition(18.5, true))
	require.Equal(t, 43.0, BMIGaugePosition(25, true))
	require.Equal(t, 70.0, BMIGaugePosition(30, true))
	require.Equal(t, 95.0, BMIGaugePosition(42, true))
}

func TestWaterTotal(t *testing.T) {
	logs := []WaterLogEntry{{AmountML: 250}, {AmountML: 500}, {AmountML: -100}}
	require.Equal(t, 750.0, WaterTotal(logs))
	require.Zero(t, WaterTotal(nil))
}
