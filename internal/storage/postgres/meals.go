package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

// mealRow maps to the meals table. Nullable text columns are COALESCEd in
// mealColumns so every field scans into a plain value.
type mealRow struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	Name            string    `db:"name"`
	Calories        float64   `db:"calories"`
	Protein         float64   `db:"protein"`
	Carbs           float64   `db:"carbs"`
	Fats            float64   `db:"fats"`
	Fiber           float64   `db:"fiber"`
	Sugars          float64   `db:"sugars"`
	SaturatedFat    float64   `db:"saturated_fat"`
	Salt            float64   `db:"salt"`
	Barcode         string    `db:"barcode"`
	Brands          string    `db:"brands"`
	NutriScoreGrade string    `db:"nutriscore_grade"`
	EcoScoreGrade   string    `db:"ecoscore_grade"`
	ImageURL        string    `db:"image_url"`
	Ingredients     string    `db:"ingredients"`
	CreatedAt       time.Time `db:"created_at"`
}

const mealColumns = `id::text AS id, user_id::text AS user_id, name,
	calories, protein, carbs, fats, fiber, sugars, saturated_fat, salt,
	COALESCE(barcode, '') AS barcode, COALESCE(brands, '') AS brands,
	COALESCE(nutriscore_grade, '') AS nutriscore_grade,
	COALESCE(ecoscore_grade, '') AS ecoscore_grade,
	COALESCE(image_url, '') AS image_url,
	COALESCE(ingredients, '') AS ingredients, created_at`

func (r mealRow) entry() nutrition.MealEntry {
	return nutrition.MealEntry{
		ID:              r.ID,
		UserID:          r.UserID,
		Name:            r.Name,
		Calories:        r.Calories,
		Protein:         r.Protein,
		Carbs:           r.Carbs,
		Fats:            r.Fats,
		Fiber:           r.Fiber,
		Sugars:          r.Sugars,
		SaturatedFat:    r.SaturatedFat,
		Salt:            r.Salt,
		Barcode:         r.Barcode,
		Brand:           r.Brands,
		NutriScoreGrade: r.NutriScoreGrade,
		EcoScoreGrade:   r.EcoScoreGrade,
		ImageURL:        r.ImageURL,
		Ingredients:     r.Ingredients,
		CreatedAt:       r.CreatedAt,
	}
}

// nullIfEmpty lets optional text columns stay NULL rather than ''.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ListMeals returns the user's most recent meals, newest first.
func (db *DB) ListMeals(ctx context.Context, userID string, limit int) ([]nutrition.MealEntry, error) {
	rows, err := queryMany[mealRow](ctx, db.Pool,
		`SELECT `+mealColumns+` FROM meals
		 WHERE user_id = @userID
		 ORDER BY created_at DESC
		 LIMIT @limit`,
		pgx.NamedArgs{"userID": userID, "limit": limit})
	if err != nil {
		return nil, err
	}
	out := make([]nutrition.MealEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	return out, nil
}

// InsertMeal persists m for userID. The caller-assigned creation time is
// kept so the timestamp never changes after the optimistic insert.
func (db *DB) InsertMeal(ctx context.Context, userID string, m nutrition.MealEntry) (nutrition.MealEntry, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	row, err := queryOne[mealRow](ctx, db.Pool,
		`INSERT INTO meals (user_id, name, calories, protein, carbs, fats, fiber, sugars,
			saturated_fat, salt, barcode, brands, nutriscore_grade, ecoscore_grade,
			image_url, ingredients, created_at)
		 VALUES (@userID, @name, @calories, @protein, @carbs, @fats, @fiber, @sugars,
			@saturatedFat, @salt, @barcode, @brands, @nutriscore, @ecoscore,
			@imageURL, @ingredients, @createdAt)
		 RETURNING `+mealColumns,
		pgx.NamedArgs{
			"userID": userID, "name": m.Name,
			"calories": m.Calories, "protein": m.Protein, "carbs": m.Carbs, "fats": m.Fats,
			"fiber": m.Fiber, "sugars": m.Sugars, "saturatedFat": m.SaturatedFat, "salt": m.Salt,
			"barcode": nullIfEmpty(m.Barcode), "brands": nullIfEmpty(m.Brand),
			"nutriscore": nullIfEmpty(m.NutriScoreGrade), "ecoscore": nullIfEmpty(m.EcoScoreGrade),
			"imageURL": nullIfEmpty(m.ImageURL), "ingredients": nullIfEmpty(m.Ingredients),
			"createdAt": m.CreatedAt,
		})
	if err != nil {
		return nutrition.MealEntry{}, err
	}
	return row.entry(), nil
}

// InsertIngredients writes the breakdown rows for mealID in one transaction.
func (db *DB) InsertIngredients(ctx context.Context, mealID string, ings []nutrition.Ingredient) (err error) {
	if len(ings) == 0 {
		return nil
	}
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapErr(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = mapErr(e)
		}
	}()

	const q = `INSERT INTO ingredients (meal_id, name, weight_g, calories, protein, carbs, fats, icon)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, ing := range ings {
		if _, err = tx.Exec(ctx, q, mealID, ing.Name, ing.WeightG, ing.Calories,
			ing.Protein, ing.Carbs, ing.Fats, nullIfEmpty(ing.Icon)); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

type ingredientRow struct {
	Name     string  `db:"name"`
	WeightG  float64 `db:"weight_g"`
	Calories float64 `db:"calories"`
	Protein  float64 `db:"protein"`
	Carbs    float64 `db:"carbs"`
	Fats     float64 `db:"fats"`
	Icon     string  `db:"icon"`
}

// Ingredients returns the breakdown of a meal owned by userID, or
// ErrNotFound when the user has no such meal.
func (db *DB) Ingredients(ctx context.Context, userID, mealID string) ([]nutrition.Ingredient, error) {
	var owned bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM meals WHERE id::text = $1 AND user_id = $2)`,
		mealID, userID).Scan(&owned)
	if err != nil {
		return nil, mapErr(err)
	}
	if !owned {
		return nil, storage.ErrNotFound
	}

	rows, err := queryMany[ingredientRow](ctx, db.Pool,
		`SELECT name, weight_g, calories, protein, carbs, fats, COALESCE(icon, '') AS icon
		 FROM ingredients WHERE meal_id::text = @mealID ORDER BY id`,
		pgx.NamedArgs{"mealID": mealID})
	if err != nil {
		return nil, err
	}
	out := make([]nutrition.Ingredient, 0, len(rows))
	for _, r := range rows {
		out = append(out, nutrition.Ingredient{
			Name: r.Name, WeightG: r.WeightG, Calories: r.Calories,
			Protein: r.Protein, Carbs: r.Carbs, Fats: r.Fats, Icon: r.Icon,
		})
	}
	return out, nil
}

// DeleteMeal removes a meal owned by userID.
func (db *DB) DeleteMeal(ctx context.Context, userID, mealID string) error {
	result, err := db.Pool.Exec(ctx,
		"DELETE FROM meals WHERE id::text = $1 AND user_id = $2", mealID, userID)
	if err != nil {
		return mapErr(err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
