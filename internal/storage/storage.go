// Package storage defines the durable storage contract the core depends on
// and the sentinel errors every implementation maps its driver errors to.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
)

// Sentinels shared by every implementation for stable error mapping.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSchemaMissing indicates the backing table has not been provisioned
	// yet. Readers treat it as an empty result.
	ErrSchemaMissing = errors.New("relation does not exist")

	// ErrAlreadyExists indicates a unique constraint violation.
	ErrAlreadyExists = errors.New("already exists")
)

// Repository is row-oriented access to meals, weight logs, water logs and
// profiles, always scoped by user ID.
type Repository interface {
	// ListMeals returns up to limit meals, newest first.
	ListMeals(ctx context.Context, userID string, limit int) ([]nutrition.MealEntry, error)
	// InsertMeal persists a meal and returns it with its durable ID.
	InsertMeal(ctx context.Context, userID string, m nutrition.MealEntry) (nutrition.MealEntry, error)
	// InsertIngredients links an ingredient breakdown to a persisted meal.
	InsertIngredients(ctx context.Context, mealID string, ings []nutrition.Ingredient) error
	// Ingredients returns a meal's breakdown. Returns ErrNotFound when the
	// user owns no meal with that ID.
	Ingredients(ctx context.Context, userID, mealID string) ([]nutrition.Ingredient, error)
	// DeleteMeal removes a meal. Returns ErrNotFound when nothing matched.
	DeleteMeal(ctx context.Context, userID, mealID string) error

	// ListWeightLogs returns all weight logs, newest logged date first.
	ListWeightLogs(ctx context.Context, userID string) ([]nutrition.WeightLogEntry, error)
	// InsertWeightLog persists one weight measurement.
	InsertWeightLog(ctx context.Context, e nutrition.WeightLogEntry) (nutrition.WeightLogEntry, error)

	// ListWaterLogsSince returns water logs created at or after since.
	ListWaterLogsSince(ctx context.Context, userID string, since time.Time) ([]nutrition.WaterLogEntry, error)
	// InsertWaterLog persists one hydration measurement.
	InsertWaterLog(ctx context.Context, e nutrition.WaterLogEntry) (nutrition.WaterLogEntry, error)

	// GetProfile returns the user's profile or ErrNotFound.
	GetProfile(ctx context.Context, userID string) (nutrition.Profile, error)
	// UpsertProfile creates or replaces the user's profile.
	UpsertProfile(ctx context.Context, p nutrition.Profile) (nutrition.Profile, error)
}

// User is an account that can sign in.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	AuthToken    string
	CreatedAt    time.Time
}

// Users is the account store backing login and bearer-token checks.
type Users interface {
	// CreateUser inserts a user; returns ErrAlreadyExists on a taken username.
	CreateUser(ctx context.Context, u User) (User, error)
	// UserByUsername returns ErrNotFound when no account matches.
	UserByUsername(ctx context.Context, username string) (User, error)
	// UserByToken returns ErrNotFound when the token is unknown.
	UserByToken(ctx context.Context, token string) (User, error)
	// RotateToken replaces the user's bearer token.
	RotateToken(ctx context.Context, userID, token string) error
}

// AuditRecord is one security/audit event.
type AuditRecord struct {
	UserID    string
	Action    string
	Severity  string
	UserAgent string
	IPAddress string
	Metadata  map[string]any
	CreatedAt time.Time
}

// AuditWriter persists audit records.
type AuditWriter interface {
	WriteAudit(ctx context.Context, r AuditRecord) error
}

// Store bundles everything the service needs from a backend.
type Store interface {
	Repository
	Users
	AuditWriter
	Ping(ctx context.Context) error
	Close()
}
