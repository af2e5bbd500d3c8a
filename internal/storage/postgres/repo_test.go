package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var mealCols = []string{
	"id", "user_id", "name", "calories", "protein", "carbs", "fats", "fiber", "sugars",
	"saturated_fat", "salt", "barcode", "brands", "nutriscore_grade", "ecoscore_grade",
	"image_url", "ingredients", "created_at",
}

func TestListMeals_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	at := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM meals`).
		WithArgs(pgx.NamedArgs{"userID": "u1", "limit": 200}).
		WillReturnRows(pgxmock.NewRows(mealCols).
			AddRow("m2", "u1", "Salad", 320.0, 12.0, 30.0, 14.0, 5.0, 4.0, 2.0, 0.4, "", "", "a", "", "", "", at).
			AddRow("m1", "u1", "Yogurt", 120.0, 9.0, 11.0, 3.0, 0.0, 10.0, 1.5, 0.1, "3033", "Brand", "b", "c", "", "milk", at.Add(-time.Hour)))

	meals, err := db.ListMeals(context.Background(), "u1", 200)
	require.NoError(t, err)
	require.Len(t, meals, 2)
	require.Equal(t, "m2", meals[0].ID)
	require.Equal(t, "Brand", meals[1].Brand)
	require.Equal(t, "milk", meals[1].Ingredients)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListMeals_SchemaMissing(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()

	mock.ExpectQuery(`FROM meals`).
		WithArgs(pgx.NamedArgs{"userID": "u1", "limit": 200}).
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "meals" does not exist`})

	_, err := db.ListMeals(context.Background(), "u1", 200)
	require.ErrorIs(t, err, storage.ErrSchemaMissing)
}

func TestInsertMeal_ReturnsDurableRow(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	at := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)

	var none *string
	mock.ExpectQuery(`INSERT INTO meals`).
		WithArgs(pgx.NamedArgs{
			"userID": "u1", "name": "Soup",
			"calories": 210.0, "protein": 0.0, "carbs": 0.0, "fats": 0.0,
			"fiber": 0.0, "sugars": 0.0, "saturatedFat": 0.0, "salt": 0.0,
			"barcode": none, "brands": none, "nutriscore": none, "ecoscore": none,
			"imageURL": none, "ingredients": none, "createdAt": at,
		}).
		WillReturnRows(pgxmock.NewRows(mealCols).
			AddRow("db-1", "u1", "Soup", 210.0, 8.0, 20.0, 9.0, 0.0, 0.0, 0.0, 0.0, "", "", "", "", "", "", at))

	got, err := db.InsertMeal(context.Background(), "u1", nutrition.MealEntry{Name: "Soup", Calories: 210, CreatedAt: at})
	require.NoError(t, err)
	require.Equal(t, "db-1", got.ID)
	require.Equal(t, at, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIngredients(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()

	require.NoError(t, db.InsertIngredients(context.Background(), "db-1", nil))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO ingredients`).
		WithArgs("db-1", "Rice", 150.0, 195.0, 4.0, 42.0, 0.5, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO ingredients`).
		WithArgs("db-1", "Salmon", 120.0, 250.0, 25.0, 0.0, 15.0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := db.InsertIngredients(context.Background(), "db-1", []nutrition.Ingredient{
		{Name: "Rice", WeightG: 150, Calories: 195, Protein: 4, Carbs: 42, Fats: 0.5},
		{Name: "Salmon", WeightG: 120, Calories: 250, Protein: 25, Fats: 15, Icon: "fish"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIngredients_FailureRollsBack(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO ingredients`).
		WithArgs("db-1", "Rice", 150.0, 195.0, 4.0, 42.0, 0.5, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO ingredients`).
		WithArgs("db-1", "Salmon", 120.0, 250.0, 25.0, 0.0, 15.0, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "meal is gone"})
	mock.ExpectRollback()

	err := db.InsertIngredients(context.Background(), "db-1", []nutrition.Ingredient{
		{Name: "Rice", WeightG: 150, Calories: 195, Protein: 4, Carbs: 42, Fats: 0.5},
		{Name: "Salmon", WeightG: 120, Calories: 250, Protein: 25, Fats: 15},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet(), "no partial breakdown is committed")
}

func TestIngredients(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("db-1", "u1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`FROM ingredients`).
		WithArgs(pgx.NamedArgs{"mealID": "db-1"}).
		WillReturnRows(pgxmock.NewRows([]string{"name", "weight_g", "calories", "protein", "carbs", "fats", "icon"}).
			AddRow("Rice", 150.0, 195.0, 4.0, 42.0, 0.5, "").
			AddRow("Salmon", 120.0, 250.0, 25.0, 0.0, 15.0, "fish"))

	ings, err := db.Ingredients(ctx, "u1", "db-1")
	require.NoError(t, err)
	require.Len(t, ings, 2)
	require.Equal(t, "fish", ings[1].Icon)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("db-1", "u2").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	_, err = db.Ingredients(ctx, "u2", "db-1")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMeal(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM meals`).
		WithArgs("m1", "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, db.DeleteMeal(ctx, "u1", "m1"))

	mock.ExpectExec(`DELETE FROM meals`).
		WithArgs("nope", "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, db.DeleteMeal(ctx, "u1", "nope"), storage.ErrNotFound)

	mock.ExpectExec(`DELETE FROM meals`).
		WithArgs("m1", "u1").
		WillReturnError(&pgconn.PgError{Code: "42P01"})
	require.ErrorIs(t, db.DeleteMeal(ctx, "u1", "m1"), storage.ErrSchemaMissing)
}

func TestWeightLogs(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM weight_logs`).
		WithArgs(pgx.NamedArgs{"userID": "u1"}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "weight", "logged_date"}).
			AddRow("2", "u1", 80.5, day).
			AddRow("1", "u1", 81.0, day.AddDate(0, 0, -1)))
	logs, err := db.ListWeightLogs(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, 80.5, logs[0].Weight)

	mock.ExpectQuery(`INSERT INTO weight_logs`).
		WithArgs(pgx.NamedArgs{"userID": "u1", "weight": 79.9, "loggedDate": day}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "weight", "logged_date"}).
			AddRow("3", "u1", 79.9, day))
	e, err := db.InsertWeightLog(ctx, nutrition.WeightLogEntry{UserID: "u1", Weight: 79.9, LoggedDate: day})
	require.NoError(t, err)
	require.Equal(t, "3", e.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWaterLogs(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	ctx := context.Background()
	at := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

	since := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM water_logs`).
		WithArgs(pgx.NamedArgs{"userID": "u1", "since": since}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "amount_ml", "created_at"}).
			AddRow("1", "u1", 250.0, at))
	logs, err := db.ListWaterLogsSince(ctx, "u1", since)
	require.NoError(t, err)
	require.Len(t, logs, 1)

	mock.ExpectQuery(`INSERT INTO water_logs`).
		WithArgs(pgx.NamedArgs{"userID": "u1", "amount": 500.0, "createdAt": at}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "amount_ml", "created_at"}).
			AddRow("2", "u1", 500.0, at))
	e, err := db.InsertWaterLog(ctx, nutrition.WaterLogEntry{UserID: "u1", AmountML: 500, CreatedAt: at})
	require.NoError(t, err)
	require.Equal(t, 500.0, e.AmountML)
	require.NoError(t, mock.ExpectationsWereMet())
}

var profileCols = []string{
	"id", "email", "full_name", "bio", "height", "weight", "age", "gender",
	"activity_level", "goal", "calorie_goal", "onboarding_completed", "updated_at",
}

func TestGetProfile(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM profiles`).
		WithArgs(pgx.NamedArgs{"userID": "u1"}).
		WillReturnRows(pgxmock.NewRows(profileCols).
			AddRow("u1", "a@b.c", "Ana", "", 175.0, 70.0, 30, "male", 1.2, "lose_weight", 1579, true, at))
	p, err := db.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, nutrition.SexMale, p.Sex)
	require.Equal(t, nutrition.ObjectiveLoseWeight, p.Objective)
	require.Equal(t, 1579, p.CalorieGoal)

	mock.ExpectQuery(`FROM profiles`).
		WithArgs(pgx.NamedArgs{"userID": "ghost"}).
		WillReturnRows(pgxmock.NewRows(profileCols))
	_, err = db.GetProfile(ctx, "ghost")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpsertProfile(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO profiles`).
		WithArgs(pgx.NamedArgs{
			"id": "u1", "email": "", "fullName": "", "bio": "",
			"height": 160.0, "weight": 55.0, "age": 25, "gender": "female",
			"activityLevel": 1.375, "goal": "maintain", "calorieGoal": 1800,
			"onboarding": true, "updatedAt": at,
		}).
		WillReturnRows(pgxmock.NewRows(profileCols).
			AddRow("u1", "", "", "", 160.0, 55.0, 25, "female", 1.375, "maintain", 1800, true, at))
	p, err := db.UpsertProfile(context.Background(), nutrition.Profile{
		UserID: "u1", HeightCM: 160, WeightKG: 55, Age: 25, Sex: nutrition.SexFemale,
		ActivityFactor: 1.375, Objective: nutrition.ObjectiveMaintain, CalorieGoal: 1800,
		OnboardingCompleted: true, UpdatedAt: at,
	})
	require.NoError(t, err)
	require.True(t, p.OnboardingCompleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

var userCols = []string{"id", "username", "email", "password", "auth_token", "created_at"}

func TestUsers(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	ctx := context.Background()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var noEmail *string
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgx.NamedArgs{"username": "ana", "email": noEmail, "password": "hash", "token": "tok"}).
		WillReturnRows(pgxmock.NewRows(userCols).AddRow("u1", "ana", "", "hash", "tok", at))
	u, err := db.CreateUser(ctx, storage.User{Username: "ana", PasswordHash: "hash", AuthToken: "tok"})
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgx.NamedArgs{"username": "ana", "email": noEmail, "password": "hash", "token": "tok2"}).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})
	_, err = db.CreateUser(ctx, storage.User{Username: "ana", PasswordHash: "hash", AuthToken: "tok2"})
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	mock.ExpectQuery(`FROM users WHERE auth_token`).
		WithArgs(pgx.NamedArgs{"token": "tok"}).
		WillReturnRows(pgxmock.NewRows(userCols).AddRow("u1", "ana", "", "hash", "tok", at))
	u, err = db.UserByToken(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, "ana", u.Username)

	mock.ExpectQuery(`FROM users WHERE username`).
		WithArgs(pgx.NamedArgs{"username": "bob"}).
		WillReturnRows(pgxmock.NewRows(userCols))
	_, err = db.UserByUsername(ctx, "bob")
	require.ErrorIs(t, err, storage.ErrNotFound)

	mock.ExpectExec(`UPDATE users SET auth_token`).
		WithArgs("tok3", "u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, db.RotateToken(ctx, "u1", "tok3"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteAudit(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO security_logs`).
		WithArgs(pgxmock.AnyArg(), "SCAN_EAN", "INFO", pgxmock.AnyArg(), pgxmock.AnyArg(),
			`{"barcode":"123"}`, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := db.WriteAudit(context.Background(), storage.AuditRecord{
		UserID: "u1", Action: "SCAN_EAN", Severity: "INFO",
		Metadata: map[string]any{"barcode": "123"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
