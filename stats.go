package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

// clientNow returns the current time in the caller's calendar. An optional
// ?tz=Area/City query parameter selects the location; calendar-day windows
// and weekday buckets follow it.
func (h *Handler) clientNow(c *gin.Context) (time.Time, bool) {
	now := h.now()
	tz := c.Query("tz")
	if tz == "" {
		return now, true
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid tz, expected an IANA zone name")
		return time.Time{}, false
	}
	return now.In(loc), true
}

// profileOrEmpty returns the caller's profile. A missing profile or table
// reads as an empty one so derived metrics fall back to their defaults.
func (h *Handler) profileOrEmpty(ctx context.Context, userID string) nutrition.Profile {
	p, err := h.store.GetProfile(ctx, userID)
	switch {
	case err == nil:
		return p
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrSchemaMissing):
	default:
		h.log.Warn("profile read failed", zap.String("user_id", userID), zap.Error(err))
	}
	return nutrition.Profile{UserID: userID}
}

// getTotals sums calories and macros over a time range.
// GET /api/stats/totals?range=today|week|month|3months (defaults to today).
func (h *Handler) getTotals(c *gin.Context) {
	w, err := nutrition.ParseWindow(c.Query("range"))
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	now, ok := h.clientNow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, nutrition.Aggregate(h.entries(c).Meals(), w, now))
}

// getWeekly returns the seven-day series for the current ISO week.
// GET /api/stats/weekly.
func (h *Handler) getWeekly(c *gin.Context) {
	now, ok := h.clientNow(c)
	if !ok {
		return
	}
	profile := h.profileOrEmpty(c.Request.Context(), currentUser(c))
	c.JSON(http.StatusOK, nutrition.WeeklySeries(h.entries(c).Meals(), profile.CalorieGoal, now))
}
