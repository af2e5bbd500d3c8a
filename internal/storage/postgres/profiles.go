package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
)

type profileRow struct {
	ID                  string    `db:"id"`
	Email               string    `db:"email"`
	FullName            string    `db:"full_name"`
	Bio                 string    `db:"bio"`
	Height              float64   `db:"height"`
	Weight              float64   `db:"weight"`
	Age                 int       `db:"age"`
	Gender              string    `db:"gender"`
	ActivityLevel       float64   `db:"activity_level"`
	Goal                string    `db:"goal"`
	CalorieGoal         int       `db:"calorie_goal"`
	OnboardingCompleted bool      `db:"onboarding_completed"`
	UpdatedAt           time.Time `db:"updated_at"`
}

const profileColumns = `id::text AS id,
	COALESCE(email, '') AS email, COALESCE(full_name, '') AS full_name,
	COALESCE(bio, '') AS bio,
	COALESCE(height, 0)::float8 AS height, COALESCE(weight, 0)::float8 AS weight,
	COALESCE(age, 0) AS age, COALESCE(gender, '') AS gender,
	COALESCE(activity_level, 0)::float8 AS activity_level,
	COALESCE(goal, '') AS goal, COALESCE(calorie_goal, 0) AS calorie_goal,
	onboarding_completed, updated_at`

func (r profileRow) profile() nutrition.Profile {
	return nutrition.Profile{
		UserID:              r.ID,
		Email:               r.Email,
		FullName:            r.FullName,
		Bio:                 r.Bio,
		HeightCM:            r.Height,
		WeightKG:            r.Weight,
		Age:                 r.Age,
		Sex:                 nutrition.Sex(r.Gender),
		ActivityFactor:      r.ActivityLevel,
		Objective:           nutrition.Objective(r.Goal),
		CalorieGoal:         r.CalorieGoal,
		OnboardingCompleted: r.OnboardingCompleted,
		UpdatedAt:           r.UpdatedAt,
	}
}

// GetProfile returns the profile for userID or storage.ErrNotFound.
func (db *DB) GetProfile(ctx context.Context, userID string) (nutrition.Profile, error) {
	row, err := queryOne[profileRow](ctx, db.Pool,
		`SELECT `+profileColumns+` FROM profiles WHERE id = @userID`,
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		return nutrition.Profile{}, err
	}
	return row.profile(), nil
}

// UpsertProfile writes every profile column, inserting the row when absent.
func (db *DB) UpsertProfile(ctx context.Context, p nutrition.Profile) (nutrition.Profile, error) {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	row, err := queryOne[profileRow](ctx, db.Pool,
		`INSERT INTO profiles (id, email, full_name, bio, height, weight, age, gender,
			activity_level, goal, calorie_goal, onboarding_completed, updated_at)
		 VALUES (@id, @email, @fullName, @bio, @height, @weight, @age, @gender,
			@activityLevel, @goal, @calorieGoal, @onboarding, @updatedAt)
		 ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email, full_name = EXCLUDED.full_name, bio = EXCLUDED.bio,
			height = EXCLUDED.height, weight = EXCLUDED.weight, age = EXCLUDED.age,
			gender = EXCLUDED.gender, activity_level = EXCLUDED.activity_level,
			goal = EXCLUDED.goal, calorie_goal = EXCLUDED.calorie_goal,
			onboarding_completed = EXCLUDED.onboarding_completed,
			updated_at = EXCLUDED.updated_at
		 RETURNING `+profileColumns,
		pgx.NamedArgs{
			"id": p.UserID, "email": p.Email, "fullName": p.FullName, "bio": p.Bio,
			"height": p.HeightCM, "weight": p.WeightKG, "age": p.Age, "gender": string(p.Sex),
			"activityLevel": p.ActivityFactor, "goal": string(p.Objective),
			"calorieGoal": p.CalorieGoal, "onboarding": p.OnboardingCompleted,
			"updatedAt": p.UpdatedAt,
		})
	if err != nil {
		return nutrition.Profile{}, err
	}
	return row.profile(), nil
}
