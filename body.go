package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/foulezombie94/Glymo-ai/internal/entrystore"
	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
)

// maxWeightKG rejects obvious typos before they reach the weight history.
const maxWeightKG = 700

// bodyMetrics is the response of GET /api/stats/body.
type bodyMetrics struct {
	CurrentWeight float64           `json:"current_weight"`
	HeightCM      float64           `json:"height"`
	BMI           *float64          `json:"bmi"`
	Band          nutrition.BMIBand `json:"bmi_band"`
	GaugePosition float64           `json:"gauge_position"`
	Trend         nutrition.Trend   `json:"trend"`
	WaterTodayML  float64           `json:"water_today_ml"`
	CalorieGoal   int               `json:"calorie_goal"`
}

// computeBodyMetrics derives the body card from the profile and the session
// snapshot. BMI is null when weight or height is unknown.
func computeBodyMetrics(p nutrition.Profile, weights []nutrition.WeightLogEntry, water []nutrition.WaterLogEntry) bodyMetrics {
	current := nutrition.CurrentWeight(weights, p.WeightKG)
	bmi, ok := nutrition.BMI(current, p.HeightCM)
	m := bodyMetrics{
		CurrentWeight: current,
		HeightCM:      p.HeightCM,
		Band:          nutrition.ClassifyBMI(bmi, ok),
		GaugePosition: nutrition.BMIGaugePosition(bmi, ok),
		Trend:         nutrition.WeightTrend(weights),
		WaterTodayML:  nutrition.WaterTotal(water),
		CalorieGoal:   p.CalorieGoal,
	}
	if ok {
		m.BMI = &bmi
	}
	return m
}

// todaysWater keeps the logs created on now's calendar day. The snapshot
// may have been loaded before midnight.
func todaysWater(logs []nutrition.WaterLogEntry, now time.Time) []nutrition.WaterLogEntry {
	out := []nutrition.WaterLogEntry{}
	for _, l := range logs {
		if nutrition.SameDay(l.CreatedAt, now, now.Location()) {
			out = append(out, l)
		}
	}
	return out
}

// getBodyMetrics returns BMI, weight trend and today's water total.
// GET /api/stats/body.
func (h *Handler) getBodyMetrics(c *gin.Context) {
	now, ok := h.clientNow(c)
	if !ok {
		return
	}
	store := h.entries(c)
	profile := h.profileOrEmpty(c.Request.Context(), currentUser(c))
	c.JSON(http.StatusOK, computeBodyMetrics(profile, store.WeightLogs(), todaysWater(store.WaterToday(), now)))
}

/* ─── Weight log ──────────────────────────────────────────────────────── */

// getWeightLog returns the caller's weight history, newest first.
// GET /api/weight-log.
func (h *Handler) getWeightLog(c *gin.Context) {
	c.JSON(http.StatusOK, h.entries(c).WeightLogs())
}

// addWeightEntry records a weight for a day and returns the refreshed body
// metrics. POST /api/weight-log. Body: { "weight": 72.4, "date": "YYYY-MM-DD" }.
// date defaults to today.
func (h *Handler) addWeightEntry(c *gin.Context) {
	var body struct {
		Weight float64 `json:"weight"`
		Date   string  `json:"date"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Weight <= 0 || body.Weight > maxWeightKG {
		apiError(c, http.StatusBadRequest, "weight must be between 0 and 700 kg")
		return
	}
	now, ok := h.clientNow(c)
	if !ok {
		return
	}
	date := now
	if body.Date != "" {
		d, err := time.ParseInLocation("2006-01-02", body.Date, now.Location())
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = d
	}

	userID := currentUser(c)
	store := h.entries(c)
	saved, err := store.AddWeight(c.Request.Context(), body.Weight, date)
	if err != nil {
		h.log.Error("add weight failed", zap.String("user_id", userID), zap.Error(err))
		apiError(c, storageStatus(err), "failed to save weight")
		return
	}

	profile := h.profileOrEmpty(c.Request.Context(), userID)
	c.JSON(http.StatusCreated, gin.H{
		"entry": saved,
		"body":  computeBodyMetrics(profile, store.WeightLogs(), todaysWater(store.WaterToday(), now)),
	})
}

/* ─── Water log ───────────────────────────────────────────────────────── */

// getWaterToday returns today's hydration logs and their total.
// GET /api/water/today.
func (h *Handler) getWaterToday(c *gin.Context) {
	now, ok := h.clientNow(c)
	if !ok {
		return
	}
	logs := todaysWater(h.entries(c).WaterToday(), now)
	c.JSON(http.StatusOK, gin.H{"logs": logs, "total_ml": nutrition.WaterTotal(logs)})
}

// addWater records a hydration amount. POST /api/water. Body: { "amount_ml": 250 }.
func (h *Handler) addWater(c *gin.Context) {
	var body struct {
		AmountML *float64 `json:"amount_ml"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.AmountML == nil {
		apiError(c, http.StatusBadRequest, "amount_ml is required")
		return
	}
	now, ok := h.clientNow(c)
	if !ok {
		return
	}

	store := h.entries(c)
	saved, err := store.AddWater(c.Request.Context(), *body.AmountML)
	if err != nil {
		if !errors.Is(err, entrystore.ErrInvalidAmount) {
			h.log.Error("add water failed", zap.String("user_id", currentUser(c)), zap.Error(err))
		}
		apiError(c, storageStatus(err), "failed to save water")
		return
	}
	logs := todaysWater(store.WaterToday(), now)
	c.JSON(http.StatusCreated, gin.H{"entry": saved, "total_ml": nutrition.WaterTotal(logs)})
}
