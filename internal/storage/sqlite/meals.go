package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

const mealColumns = `id, user_id, name, calories, protein, carbs, fats, fiber, sugars,
	saturated_fat, salt, COALESCE(barcode, ''), COALESCE(brands, ''),
	COALESCE(nutriscore_grade, ''), COALESCE(ecoscore_grade, ''),
	COALESCE(image_url, ''), COALESCE(ingredients, ''), created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanMeal(row scanner) (nutrition.MealEntry, error) {
	var m nutrition.MealEntry
	err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.Calories, &m.Protein, &m.Carbs, &m.Fats,
		&m.Fiber, &m.Sugars, &m.SaturatedFat, &m.Salt, &m.Barcode, &m.Brand,
		&m.NutriScoreGrade, &m.EcoScoreGrade, &m.ImageURL, &m.Ingredients, &m.CreatedAt)
	return m, err
}

func (s *Store) ListMeals(ctx context.Context, userID string, limit int) ([]nutrition.MealEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mealColumns+` FROM meals WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []nutrition.MealEntry{}
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, m)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) InsertMeal(ctx context.Context, userID string, m nutrition.MealEntry) (nutrition.MealEntry, error) {
	m.ID = uuid.NewString()
	m.UserID = userID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	m.CreatedAt = m.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meals (id, user_id, name, calories, protein, carbs, fats, fiber, sugars,
			saturated_fat, salt, barcode, brands, nutriscore_grade, ecoscore_grade,
			image_url, ingredients, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, userID, m.Name, m.Calories, m.Protein, m.Carbs, m.Fats, m.Fiber, m.Sugars,
		m.SaturatedFat, m.Salt, nullIfEmpty(m.Barcode), nullIfEmpty(m.Brand),
		nullIfEmpty(m.NutriScoreGrade), nullIfEmpty(m.EcoScoreGrade),
		nullIfEmpty(m.ImageURL), nullIfEmpty(m.Ingredients), m.CreatedAt)
	if err != nil {
		return nutrition.MealEntry{}, mapErr(err)
	}
	return m, nil
}

func (s *Store) InsertIngredients(ctx context.Context, mealID string, ings []nutrition.Ingredient) error {
	if len(ings) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, ing := range ings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ingredients (meal_id, name, weight_g, calories, protein, carbs, fats, icon)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			mealID, ing.Name, ing.WeightG, ing.Calories, ing.Protein, ing.Carbs, ing.Fats,
			nullIfEmpty(ing.Icon)); err != nil {
			return mapErr(err)
		}
	}
	return mapErr(tx.Commit())
}

// Ingredients returns the breakdown stored for a meal owned by userID.
func (s *Store) Ingredients(ctx context.Context, userID, mealID string) ([]nutrition.Ingredient, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM meals WHERE id = ? AND user_id = ?`, mealID, userID).Scan(&one)
	if err != nil {
		return nil, mapErr(err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, weight_g, calories, protein, carbs, fats, COALESCE(icon, '')
		 FROM ingredients WHERE meal_id = ? ORDER BY id`, mealID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []nutrition.Ingredient{}
	for rows.Next() {
		var ing nutrition.Ingredient
		if err := rows.Scan(&ing.Name, &ing.WeightG, &ing.Calories, &ing.Protein,
			&ing.Carbs, &ing.Fats, &ing.Icon); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, ing)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) DeleteMeal(ctx context.Context, userID, mealID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meals WHERE id = ? AND user_id = ?`, mealID, userID)
	if err != nil {
		return mapErr(err)
	}
	return affectedOne(res)
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
