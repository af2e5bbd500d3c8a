package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/foulezombie94/Glymo-ai/internal/auditlog"
	"github.com/foulezombie94/Glymo-ai/internal/entrystore"
	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

// listMeals returns the caller's meals from their session snapshot, newest
// first, including entries whose save is still in flight.
// GET /api/meals.
func (h *Handler) listMeals(c *gin.Context) {
	c.JSON(http.StatusOK, h.entries(c).Meals())
}

// addMeal logs a confirmed meal draft. The entry is visible in the snapshot
// immediately; a failed save still returns it so the client can show it.
// POST /api/meals.
func (h *Handler) addMeal(c *gin.Context) {
	var body nutrition.MealDraft
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		apiError(c, http.StatusBadRequest, "name is required")
		return
	}
	// Identity and ownership are assigned by the store.
	body.ID, body.UserID = "", ""

	userID := currentUser(c)
	entry, err := h.entries(c).AddEntry(c.Request.Context(), body)
	if err != nil {
		h.log.Error("add meal failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save meal", "entry": entry})
		return
	}

	h.auditEvent(c, userID, auditlog.ActionMealAdded, auditlog.SeverityInfo, map[string]any{
		"meal_id":  entry.ID,
		"name":     entry.Name,
		"calories": entry.Calories,
		"barcode":  entry.Barcode,
	})
	c.JSON(http.StatusCreated, entry)
}

// deleteMeal removes a meal; the snapshot is restored if the delete fails.
// DELETE /api/meals/:id.
func (h *Handler) deleteMeal(c *gin.Context) {
	id := c.Param("id")
	userID := currentUser(c)

	if err := h.entries(c).RemoveEntry(c.Request.Context(), id); err != nil {
		if errors.Is(err, entrystore.ErrOperationPending) {
			apiError(c, http.StatusConflict, "meal is still being saved")
			return
		}
		h.log.Error("delete meal failed", zap.String("user_id", userID), zap.String("meal_id", id), zap.Error(err))
		apiError(c, storageStatus(err), "failed to delete meal")
		return
	}

	h.auditEvent(c, userID, auditlog.ActionMealDeleted, auditlog.SeverityInfo, map[string]any{"meal_id": id})
	c.Status(http.StatusNoContent)
}

// getMealIngredients returns the ingredient breakdown saved with a meal.
// GET /api/meals/:id/ingredients.
func (h *Handler) getMealIngredients(c *gin.Context) {
	id := c.Param("id")
	userID := currentUser(c)

	ings, err := h.store.Ingredients(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrSchemaMissing) {
			apiError(c, http.StatusNotFound, "meal not found")
			return
		}
		h.log.Error("get ingredients failed", zap.String("user_id", userID), zap.String("meal_id", id), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to fetch ingredients")
		return
	}
	c.JSON(http.StatusOK, ings)
}

// refreshMeals reloads the caller's snapshot from storage. Parts that failed
// to load keep their previous contents and the response is marked partial.
// POST /api/meals/refresh.
func (h *Handler) refreshMeals(c *gin.Context) {
	userID := currentUser(c)
	store := h.entries(c)
	err := store.Load(c.Request.Context(), userID)
	if err != nil {
		h.log.Warn("refresh incomplete", zap.String("user_id", userID), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": store.Snapshot(), "partial": err != nil})
}
