package main

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/foulezombie94/Glymo-ai/internal/auditlog"
	"github.com/foulezombie94/Glymo-ai/internal/entrystore"
	"github.com/foulezombie94/Glymo-ai/internal/metrics"
	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
	"github.com/foulezombie94/Glymo-ai/internal/session"
	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

// barcodeLookup resolves a barcode to a product (Open Food Facts in production).
type barcodeLookup interface {
	LookupBarcode(ctx context.Context, code string) (nutrition.Product, error)
}

// mealRecognizer identifies a meal from a base64 photo (Gemini in production).
type mealRecognizer interface {
	IdentifyMeal(ctx context.Context, imageBase64 string) (nutrition.Product, error)
}

// Handler holds shared dependencies for all route handlers.
type Handler struct {
	store      storage.Store
	sessions   *session.Manager
	bus        *session.Bus // nil applies session events synchronously
	audit      *auditlog.Logger
	products   barcodeLookup
	recognizer mealRecognizer
	log        *zap.Logger
	now        func() time.Time
}

// retryAfterMS tells scanning clients how long to wait before resuming.
const retryAfterMS = 2500

/* ─── Response helpers ────────────────────────────────────────────────── */

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// scanError is apiError plus the delay before the client may scan again.
func scanError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message, "retry_after_ms": retryAfterMS})
}

// currentUser returns the authenticated user ID set by authMiddleware.
func currentUser(c *gin.Context) string {
	return c.GetString("user_id")
}

// entries returns the signed-in user's entry store, loading it on first use.
func (h *Handler) entries(c *gin.Context) *entrystore.Store {
	return h.sessions.Session(c.Request.Context(), currentUser(c))
}

// publish hands a session event to the bus, or applies it inline when there
// is no bus or its buffer is full.
func (h *Handler) publish(ctx context.Context, evt session.Event) {
	if evt.At.IsZero() {
		evt.At = h.now()
	}
	if h.bus != nil && h.bus.Publish(evt) {
		return
	}
	if err := h.sessions.Handle(ctx, evt); err != nil {
		h.log.Warn("session event applied with errors",
			zap.String("kind", string(evt.Kind)), zap.String("user_id", evt.UserID), zap.Error(err))
	}
}

// auditEvent queues an audit record tagged with the request's client info.
func (h *Handler) auditEvent(c *gin.Context, userID, action, severity string, meta map[string]any) {
	h.audit.Log(storage.AuditRecord{
		UserID:    userID,
		Action:    action,
		Severity:  severity,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
		Metadata:  meta,
	})
}

// storageStatus maps a storage error to an HTTP status.
func storageStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, entrystore.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, entrystore.ErrOperationPending):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

/* ─── Middleware ──────────────────────────────────────────────────────── */

// requestLogger logs one line per request.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID := currentUser(c); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("request", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// recovery turns a handler panic into a logged 500.
func recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("method", c.Request.Method),
					zap.String("url", c.Request.URL.String()),
					zap.ByteString("stack", debug.Stack()))
				apiError(c, http.StatusInternalServerError, "internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// newRouter builds the gin engine with middleware and every route.
func (h *Handler) newRouter() *gin.Engine {
	router := gin.New()
	_ = router.SetTrustedProxies(nil)
	router.Use(recovery(h.log), requestLogger(h.log))
	h.registerRoutes(router)
	return router
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.POST("/api/login", h.login)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.POST("/logout", h.logout)
	api.POST("/token/refresh", h.refreshToken)

	api.GET("/meals", h.listMeals)
	api.POST("/meals", h.addMeal)
	api.DELETE("/meals/:id", h.deleteMeal)
	api.GET("/meals/:id/ingredients", h.getMealIngredients)
	api.POST("/meals/refresh", h.refreshMeals)

	api.GET("/stats/totals", h.getTotals)
	api.GET("/stats/weekly", h.getWeekly)
	api.GET("/stats/body", h.getBodyMetrics)

	api.GET("/weight-log", h.getWeightLog)
	api.POST("/weight-log", h.addWeightEntry)
	api.GET("/water/today", h.getWaterToday)
	api.POST("/water", h.addWater)

	api.GET("/profile", h.getProfile)
	api.PATCH("/profile", h.patchProfile)
	api.POST("/profile/onboarding", h.completeOnboarding)
	api.POST("/goal/estimate", h.estimateGoal)

	api.POST("/scan/barcode", h.scanBarcode)
	api.POST("/scan/meal", h.scanMeal)
	api.POST("/products/score", h.scoreProduct)
}

// health reports whether the service and its database are reachable.
// GET /health (public).
func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn("health check: database unreachable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
}
