package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/foulezombie94/Glymo-ai/internal/auditlog"
	"github.com/foulezombie94/Glymo-ai/internal/session"
	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

// dummyHash is compared against when a login username isn't found, so a
// missing account costs the same bcrypt time as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.DefaultCost)

// login verifies username/password and returns the user's auth token.
// POST /api/login (public).
func (h *Handler) login(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, lookupErr := h.store.UserByUsername(c.Request.Context(), body.Username)
	if lookupErr != nil && !errors.Is(lookupErr, storage.ErrNotFound) {
		h.log.Error("login lookup failed", zap.Error(lookupErr))
	}

	// Always run bcrypt, found or not.
	hashToCheck := string(dummyHash)
	if lookupErr == nil {
		hashToCheck = u.PasswordHash
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hashToCheck), []byte(body.Password))

	if lookupErr != nil || compareErr != nil {
		h.auditEvent(c, u.ID, auditlog.ActionLoginFailed, auditlog.SeverityWarn,
			map[string]any{"username": body.Username})
		apiError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.publish(c.Request.Context(), session.Event{Kind: session.SignedIn, UserID: u.ID, Email: u.Email})
	h.auditEvent(c, u.ID, auditlog.ActionLogin, auditlog.SeverityInfo, nil)
	c.JSON(http.StatusOK, gin.H{"token": u.AuthToken, "user_id": u.ID})
}

// logout invalidates the caller's token and drops their session.
// POST /api/logout.
func (h *Handler) logout(c *gin.Context) {
	userID := currentUser(c)
	if err := h.store.RotateToken(c.Request.Context(), userID, uuid.NewString()); err != nil {
		h.log.Error("logout: rotate token failed", zap.String("user_id", userID), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to sign out")
		return
	}
	h.publish(c.Request.Context(), session.Event{Kind: session.SignedOut, UserID: userID, Email: c.GetString("email")})
	h.auditEvent(c, userID, auditlog.ActionLogout, auditlog.SeverityInfo, nil)
	c.Status(http.StatusNoContent)
}

// refreshToken issues a new token and reloads the caller's session.
// POST /api/token/refresh.
func (h *Handler) refreshToken(c *gin.Context) {
	userID := currentUser(c)
	token := uuid.NewString()
	if err := h.store.RotateToken(c.Request.Context(), userID, token); err != nil {
		h.log.Error("refresh: rotate token failed", zap.String("user_id", userID), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to refresh token")
		return
	}
	h.publish(c.Request.Context(), session.Event{Kind: session.TokenRefreshed, UserID: userID, Email: c.GetString("email")})
	c.JSON(http.StatusOK, gin.H{"token": token, "user_id": userID})
}

// authMiddleware validates the Bearer token and sets user_id on the context.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		u, err := h.store.UserByToken(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				h.log.Error("token lookup failed", zap.Error(err))
			}
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", u.ID)
		c.Set("email", u.Email)
		c.Next()
	}
}
