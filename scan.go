package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/foulezombie94/Glymo-ai/internal/auditlog"
	"github.com/foulezombie94/Glymo-ai/internal/metrics"
	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
	"github.com/foulezombie94/Glymo-ai/internal/provider/gemini"
	"github.com/foulezombie94/Glymo-ai/internal/provider/openfoodfacts"
)

// scanResult is returned by both scan endpoints. Draft is ready to be sent
// back to POST /api/meals once the user confirms it.
type scanResult struct {
	Product        nutrition.Product        `json:"product"`
	Recommendation nutrition.Recommendation `json:"recommendation"`
	Draft          nutrition.MealDraft      `json:"draft"`
}

func (h *Handler) scanResult(c *gin.Context, p nutrition.Product) scanResult {
	objective := h.profileOrEmpty(c.Request.Context(), currentUser(c)).Objective
	return scanResult{Product: p, Recommendation: nutrition.Recommend(p, objective), Draft: p.Draft()}
}

// scanBarcode looks a product up by barcode and scores it for the caller.
// POST /api/scan/barcode. Body: { "barcode": "3017620422003" }.
func (h *Handler) scanBarcode(c *gin.Context) {
	var body struct {
		Barcode string `json:"barcode"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := currentUser(c)
	p, err := h.products.LookupBarcode(c.Request.Context(), body.Barcode)
	switch {
	case err == nil:
	case errors.Is(err, openfoodfacts.ErrInvalidBarcode):
		metrics.Scans.WithLabelValues("barcode", metrics.OutcomeFailed).Inc()
		scanError(c, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, openfoodfacts.ErrNotFound):
		metrics.Scans.WithLabelValues("barcode", metrics.OutcomeNotFound).Inc()
		scanError(c, http.StatusNotFound, "product not found")
		return
	default:
		metrics.Scans.WithLabelValues("barcode", metrics.OutcomeFailed).Inc()
		h.log.Error("barcode lookup failed", zap.String("barcode", body.Barcode), zap.Error(err))
		scanError(c, http.StatusBadGateway, "product lookup failed")
		return
	}

	metrics.Scans.WithLabelValues("barcode", metrics.OutcomeOK).Inc()
	h.auditEvent(c, userID, auditlog.ActionScanBarcode, auditlog.SeverityInfo, map[string]any{
		"barcode": p.Barcode,
		"name":    p.Name,
	})
	c.JSON(http.StatusOK, h.scanResult(c, p))
}

// scanMeal recognizes a meal from a base64 JPEG photo.
// POST /api/scan/meal. Body: { "image": "<base64>" }.
func (h *Handler) scanMeal(c *gin.Context) {
	var body struct {
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := currentUser(c)
	p, err := h.recognizer.IdentifyMeal(c.Request.Context(), body.Image)
	switch {
	case err == nil:
	case errors.Is(err, gemini.ErrNoImage):
		apiError(c, http.StatusBadRequest, "image is required")
		return
	case errors.Is(err, gemini.ErrUnrecognized):
		metrics.Scans.WithLabelValues("photo", metrics.OutcomeNotFound).Inc()
		h.log.Info("meal not recognized", zap.String("user_id", userID), zap.Error(err))
		scanError(c, http.StatusUnprocessableEntity, "could not recognize a meal in this photo")
		return
	default:
		metrics.Scans.WithLabelValues("photo", metrics.OutcomeFailed).Inc()
		h.log.Error("meal recognition failed", zap.String("user_id", userID), zap.Error(err))
		scanError(c, http.StatusBadGateway, "meal recognition failed")
		return
	}

	metrics.Scans.WithLabelValues("photo", metrics.OutcomeOK).Inc()
	h.auditEvent(c, userID, auditlog.ActionScanMeal, auditlog.SeverityInfo, map[string]any{
		"name":     p.Name,
		"calories": p.Calories,
	})
	c.JSON(http.StatusOK, h.scanResult(c, p))
}

// scoreProduct scores a product the client already has. goal overrides the
// caller's profile objective. POST /api/products/score.
func (h *Handler) scoreProduct(c *gin.Context) {
	var body struct {
		nutrition.Product
		Goal string `json:"goal"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	objective := nutrition.Objective(body.Goal)
	if body.Goal == "" {
		objective = h.profileOrEmpty(c.Request.Context(), currentUser(c)).Objective
	} else if !objective.Valid() {
		apiError(c, http.StatusBadRequest, "goal must be one of: lose_weight, build_muscle, maintain")
		return
	}
	c.JSON(http.StatusOK, nutrition.Recommend(body.Product, objective))
}
