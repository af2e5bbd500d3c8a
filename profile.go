package main

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/foulezombie94/Glymo-ai/internal/auditlog"
	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

// patchProfileRequest uses pointer fields to distinguish "not provided"
// from zero; only non-nil fields are applied.
type patchProfileRequest struct {
	FullName       *string  `json:"full_name"`
	Bio            *string  `json:"bio"`
	HeightCM       *float64 `json:"height"`
	WeightKG       *float64 `json:"weight"`
	Age            *int     `json:"age"`
	Sex            *string  `json:"gender"`
	ActivityFactor *float64 `json:"activity_level"`
	Objective      *string  `json:"goal"`
	CalorieGoal    *int     `json:"calorie_goal"`
}

// biometricsRequest is the body of the onboarding and goal estimate endpoints.
type biometricsRequest struct {
	FullName       string  `json:"full_name"`
	HeightCM       float64 `json:"height"`
	WeightKG       float64 `json:"weight"`
	Age            int     `json:"age"`
	Sex            string  `json:"gender"`
	ActivityFactor float64 `json:"activity_level"`
	Objective      string  `json:"goal"`
}

func (b biometricsRequest) inputs() nutrition.GoalInputs {
	return nutrition.GoalInputs{
		WeightKG:       b.WeightKG,
		HeightCM:       b.HeightCM,
		Age:            b.Age,
		Sex:            nutrition.Sex(b.Sex),
		ActivityFactor: b.ActivityFactor,
		Objective:      nutrition.Objective(b.Objective),
	}
}

/* ─── Validation ──────────────────────────────────────────────────────── */

func validSex(s string) bool {
	return s == string(nutrition.SexMale) || s == string(nutrition.SexFemale)
}

const activityLevelsMsg = "activity_level must be one of: 1.2, 1.375, 1.55, 1.725"

// validateBiometrics checks only the fields that are set and returns the
// first problem, or "".
func validateBiometrics(height, weight *float64, age *int, sex, objective *string, activity *float64) string {
	switch {
	case height != nil && (*height <= 0 || *height > 300):
		return "height must be between 0 and 300 cm"
	case weight != nil && (*weight <= 0 || *weight > maxWeightKG):
		return "weight must be between 0 and 700 kg"
	case age != nil && (*age <= 0 || *age > 130):
		return "age must be between 1 and 130"
	case sex != nil && !validSex(*sex):
		return "gender must be one of: male, female"
	case objective != nil && !nutrition.Objective(*objective).Valid():
		return "goal must be one of: lose_weight, build_muscle, maintain"
	case activity != nil && !nutrition.ValidActivityFactor(*activity):
		return activityLevelsMsg
	}
	return ""
}

/* ─── Handlers ────────────────────────────────────────────────────────── */

// getProfile returns the caller's profile.
// GET /api/profile.
func (h *Handler) getProfile(c *gin.Context) {
	p, err := h.store.GetProfile(c.Request.Context(), currentUser(c))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrSchemaMissing) {
			apiError(c, http.StatusNotFound, "profile not found")
			return
		}
		h.log.Error("get profile failed", zap.String("user_id", currentUser(c)), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

// patchProfile updates only the provided fields. When a goal input changes
// and calorie_goal is not pinned in the same request, the goal is
// re-estimated. A changed weight is also written to the weight history.
// PATCH /api/profile.
func (h *Handler) patchProfile(c *gin.Context) {
	userID := currentUser(c)

	var body patchProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateBiometrics(body.HeightCM, body.WeightKG, body.Age, body.Sex, body.Objective, body.ActivityFactor); msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}
	if body.CalorieGoal != nil && *body.CalorieGoal < nutrition.MinCalorieGoal {
		apiError(c, http.StatusBadRequest, "calorie_goal must be at least 1200")
		return
	}

	p := h.profileOrEmpty(c.Request.Context(), userID)
	if p.Email == "" {
		p.Email = c.GetString("email")
	}
	previousWeight := p.WeightKG

	changed := []string{}
	goalInputChanged := false
	if body.FullName != nil {
		p.FullName = strings.TrimSpace(*body.FullName)
		changed = append(changed, "full_name")
	}
	if body.Bio != nil {
		p.Bio = *body.Bio
		changed = append(changed, "bio")
	}
	if body.HeightCM != nil {
		p.HeightCM = *body.HeightCM
		changed, goalInputChanged = append(changed, "height"), true
	}
	if body.WeightKG != nil {
		p.WeightKG = *body.WeightKG
		changed, goalInputChanged = append(changed, "weight"), true
	}
	if body.Age != nil {
		p.Age = *body.Age
		changed, goalInputChanged = append(changed, "age"), true
	}
	if body.Sex != nil {
		p.Sex = nutrition.Sex(*body.Sex)
		changed, goalInputChanged = append(changed, "gender"), true
	}
	if body.ActivityFactor != nil {
		p.ActivityFactor = *body.ActivityFactor
		changed, goalInputChanged = append(changed, "activity_level"), true
	}
	if body.Objective != nil {
		p.Objective = nutrition.Objective(*body.Objective)
		changed, goalInputChanged = append(changed, "goal"), true
	}
	if body.CalorieGoal != nil {
		p.CalorieGoal = *body.CalorieGoal
		changed = append(changed, "calorie_goal")
	} else if goalInputChanged {
		p.CalorieGoal = nutrition.EstimateGoal(nutrition.GoalInputsFromProfile(p))
	}

	if len(changed) == 0 {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	p.UpdatedAt = h.now()
	saved, err := h.store.UpsertProfile(c.Request.Context(), p)
	if err != nil {
		h.log.Error("update profile failed", zap.String("user_id", userID), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to update profile")
		return
	}

	if body.WeightKG != nil && math.Abs(*body.WeightKG-previousWeight) > 1e-9 {
		if _, err := h.entries(c).AddWeight(c.Request.Context(), *body.WeightKG, h.now()); err != nil {
			h.log.Warn("profile weight not added to history", zap.String("user_id", userID), zap.Error(err))
		}
	}

	h.auditEvent(c, userID, auditlog.ActionProfileUpdated, auditlog.SeverityInfo, map[string]any{"fields": changed})
	c.JSON(http.StatusOK, saved)
}

// completeOnboarding stores the first biometrics, computes the calorie goal
// and starts the weight history. POST /api/profile/onboarding.
func (h *Handler) completeOnboarding(c *gin.Context) {
	userID := currentUser(c)

	var body biometricsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.HeightCM == 0 || body.WeightKG == 0 || body.Age == 0 || body.Sex == "" ||
		body.ActivityFactor == 0 || body.Objective == "" {
		apiError(c, http.StatusBadRequest, "height, weight, age, gender, activity_level and goal are required")
		return
	}
	if msg := validateBiometrics(&body.HeightCM, &body.WeightKG, &body.Age, &body.Sex, &body.Objective, &body.ActivityFactor); msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	p := h.profileOrEmpty(c.Request.Context(), userID)
	if p.Email == "" {
		p.Email = c.GetString("email")
	}
	if name := strings.TrimSpace(body.FullName); name != "" {
		p.FullName = name
	}
	p.HeightCM = body.HeightCM
	p.WeightKG = body.WeightKG
	p.Age = body.Age
	p.Sex = nutrition.Sex(body.Sex)
	p.ActivityFactor = body.ActivityFactor
	p.Objective = nutrition.Objective(body.Objective)
	p.CalorieGoal = nutrition.EstimateGoal(body.inputs())
	p.OnboardingCompleted = true
	p.UpdatedAt = h.now()

	saved, err := h.store.UpsertProfile(c.Request.Context(), p)
	if err != nil {
		h.log.Error("onboarding failed", zap.String("user_id", userID), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to save profile")
		return
	}
	if _, err := h.entries(c).AddWeight(c.Request.Context(), body.WeightKG, h.now()); err != nil {
		h.log.Warn("onboarding weight not added to history", zap.String("user_id", userID), zap.Error(err))
	}

	h.auditEvent(c, userID, auditlog.ActionOnboardingComplete, auditlog.SeverityInfo, map[string]any{
		"calorie_goal": saved.CalorieGoal,
		"goal":         string(saved.Objective),
	})
	c.JSON(http.StatusOK, saved)
}

// estimateGoal previews the calorie goal for the given biometrics without
// saving anything. POST /api/goal/estimate.
func (h *Handler) estimateGoal(c *gin.Context) {
	var body biometricsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	var objective, sex *string
	if body.Objective != "" {
		objective = &body.Objective
	}
	if body.Sex != "" {
		sex = &body.Sex
	}
	var activity *float64
	if body.ActivityFactor != 0 {
		activity = &body.ActivityFactor
	}
	if msg := validateBiometrics(nil, nil, nil, sex, objective, activity); msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	in := body.inputs()
	c.JSON(http.StatusOK, gin.H{
		"calorie_goal": nutrition.EstimateGoal(in),
		"bmr":          math.Round(nutrition.BMR(in.WeightKG, in.HeightCM, in.Age, in.Sex)),
	})
}
