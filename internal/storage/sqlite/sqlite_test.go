package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foulezombie94/Glymo-ai/internal/migrate"
	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, migrate.Up(context.Background(), s.DB(), migrate.DialectSQLite))
	return s
}

func TestSchemaMissingBeforeMigrations(t *testing.T) {
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ListMeals(context.Background(), "u1", 200)
	require.ErrorIs(t, err, storage.ErrSchemaMissing)
	require.ErrorIs(t, s.DeleteMeal(context.Background(), "u1", "m1"), storage.ErrSchemaMissing)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, migrate.Up(ctx, s.DB(), migrate.DialectSQLite))
	v, err := migrate.Version(ctx, s.DB(), migrate.DialectSQLite)
	require.NoError(t, err)
	require.Equal(t, int64(1), v)
}

func TestMeals_InsertListDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)

	first, err := s.InsertMeal(ctx, "u1", nutrition.MealEntry{Name: "Oats", Calories: 350, Protein: 12, CreatedAt: base})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := s.InsertMeal(ctx, "u1", nutrition.MealEntry{
		Name: "Yogurt", Calories: 120, Barcode: "3033", Brand: "Acme", NutriScoreGrade: "a",
		CreatedAt: base.Add(4 * time.Hour),
	})
	require.NoError(t, err)
	_, err = s.InsertMeal(ctx, "u2", nutrition.MealEntry{Name: "Other user", CreatedAt: base})
	require.NoError(t, err)

	meals, err := s.ListMeals(ctx, "u1", 200)
	require.NoError(t, err)
	require.Len(t, meals, 2)
	require.Equal(t, second.ID, meals[0].ID, "newest first")
	require.Equal(t, "Acme", meals[0].Brand)
	require.Empty(t, meals[1].Barcode)
	require.True(t, meals[1].CreatedAt.Equal(base))

	limited, err := s.ListMeals(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	require.ErrorIs(t, s.DeleteMeal(ctx, "u2", first.ID), storage.ErrNotFound)
	require.NoError(t, s.DeleteMeal(ctx, "u1", first.ID))
	require.ErrorIs(t, s.DeleteMeal(ctx, "u1", first.ID), storage.ErrNotFound)
}

func TestIngredients_CascadeWithMeal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.InsertMeal(ctx, "u1", nutrition.MealEntry{Name: "Bowl", Calories: 582})
	require.NoError(t, err)
	require.NoError(t, s.InsertIngredients(ctx, m.ID, []nutrition.Ingredient{
		{Name: "Quinoa", WeightG: 150, Calories: 180, Icon: "grain"},
		{Name: "Avocado", WeightG: 70, Calories: 110},
	}))

	ings, err := s.Ingredients(ctx, "u1", m.ID)
	require.NoError(t, err)
	require.Len(t, ings, 2)
	require.Equal(t, "grain", ings[0].Icon)

	_, err = s.Ingredients(ctx, "u2", m.ID)
	require.ErrorIs(t, err, storage.ErrNotFound, "other users cannot read the breakdown")

	require.NoError(t, s.DeleteMeal(ctx, "u1", m.ID))
	_, err = s.Ingredients(ctx, "u1", m.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	var left int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM ingredients WHERE meal_id = ?`, m.ID).Scan(&left))
	require.Zero(t, left)
}

func TestIngredients_EmptyBreakdown(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.InsertMeal(ctx, "u1", nutrition.MealEntry{Name: "Apple", Calories: 52})
	require.NoError(t, err)
	ings, err := s.Ingredients(ctx, "u1", m.ID)
	require.NoError(t, err)
	require.NotNil(t, ings)
	require.Empty(t, ings)
}

func TestWeightAndWaterLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := s.InsertWeightLog(ctx, nutrition.WeightLogEntry{UserID: "u1", Weight: 81, LoggedDate: day.AddDate(0, 0, -1)})
	require.NoError(t, err)
	_, err = s.InsertWeightLog(ctx, nutrition.WeightLogEntry{UserID: "u1", Weight: 80.4, LoggedDate: day})
	require.NoError(t, err)

	logs, err := s.ListWeightLogs(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, 80.4, logs[0].Weight)

	_, err = s.InsertWaterLog(ctx, nutrition.WaterLogEntry{UserID: "u1", AmountML: 300, CreatedAt: day.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = s.InsertWaterLog(ctx, nutrition.WaterLogEntry{UserID: "u1", AmountML: 250, CreatedAt: day.Add(9 * time.Hour)})
	require.NoError(t, err)

	water, err := s.ListWaterLogsSince(ctx, "u1", day)
	require.NoError(t, err)
	require.Len(t, water, 1)
	require.Equal(t, 250.0, water[0].AmountML)
}

func TestProfiles_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetProfile(ctx, "u1")
	require.ErrorIs(t, err, storage.ErrNotFound)

	p := nutrition.Profile{
		UserID: "u1", HeightCM: 175, WeightKG: 70, Age: 30, Sex: nutrition.SexMale,
		ActivityFactor: 1.2, Objective: nutrition.ObjectiveLoseWeight, CalorieGoal: 1579,
	}
	_, err = s.UpsertProfile(ctx, p)
	require.NoError(t, err)

	p.OnboardingCompleted = true
	p.CalorieGoal = 1700
	_, err = s.UpsertProfile(ctx, p)
	require.NoError(t, err)

	got, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1700, got.CalorieGoal)
	require.True(t, got.OnboardingCompleted)
	require.Equal(t, nutrition.ObjectiveLoseWeight, got.Objective)
	require.Equal(t, 1.2, got.ActivityFactor)
}

func TestUsers_AndAudit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, storage.User{Username: "ana", PasswordHash: "h", AuthToken: "t1"})
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, storage.User{Username: "ana", PasswordHash: "h", AuthToken: "t2"})
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	byToken, err := s.UserByToken(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, u.ID, byToken.ID)

	require.NoError(t, s.RotateToken(ctx, u.ID, "t3"))
	_, err = s.UserByToken(ctx, "t1")
	require.ErrorIs(t, err, storage.ErrNotFound)
	byName, err := s.UserByUsername(ctx, "ana")
	require.NoError(t, err)
	require.Equal(t, "t3", byName.AuthToken)

	require.NoError(t, s.WriteAudit(ctx, storage.AuditRecord{
		UserID: u.ID, Action: "AUTH_LOGIN", Severity: "INFO",
		Metadata: map[string]any{"method": "password"},
	}))
	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(1) FROM security_logs WHERE action_type = 'AUTH_LOGIN'`).Scan(&n))
	require.Equal(t, 1, n)
}
