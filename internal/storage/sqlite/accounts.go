package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

/* ─── Profiles ───────────────────────────────────────────────────────── */

func (s *Store) GetProfile(ctx context.Context, userID string) (nutrition.Profile, error) {
	var (
		p         nutrition.Profile
		sex, goal string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(email, ''), COALESCE(full_name, ''), COALESCE(bio, ''),
			COALESCE(height, 0), COALESCE(weight, 0), COALESCE(age, 0), COALESCE(gender, ''),
			COALESCE(activity_level, 0), COALESCE(goal, ''), COALESCE(calorie_goal, 0),
			onboarding_completed, updated_at
		 FROM profiles WHERE id = ?`, userID).
		Scan(&p.UserID, &p.Email, &p.FullName, &p.Bio, &p.HeightCM, &p.WeightKG, &p.Age, &sex,
			&p.ActivityFactor, &goal, &p.CalorieGoal, &p.OnboardingCompleted, &p.UpdatedAt)
	if err != nil {
		return nutrition.Profile{}, mapErr(err)
	}
	p.Sex = nutrition.Sex(sex)
	p.Objective = nutrition.Objective(goal)
	return p, nil
}

func (s *Store) UpsertProfile(ctx context.Context, p nutrition.Profile) (nutrition.Profile, error) {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, full_name, bio, height, weight, age, gender,
			activity_level, goal, calorie_goal, onboarding_completed, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			email = excluded.email, full_name = excluded.full_name, bio = excluded.bio,
			height = excluded.height, weight = excluded.weight, age = excluded.age,
			gender = excluded.gender, activity_level = excluded.activity_level,
			goal = excluded.goal, calorie_goal = excluded.calorie_goal,
			onboarding_completed = excluded.onboarding_completed,
			updated_at = excluded.updated_at`,
		p.UserID, p.Email, p.FullName, p.Bio, p.HeightCM, p.WeightKG, p.Age, string(p.Sex),
		p.ActivityFactor, string(p.Objective), p.CalorieGoal, p.OnboardingCompleted, p.UpdatedAt)
	if err != nil {
		return nutrition.Profile{}, mapErr(err)
	}
	return p, nil
}

/* ─── Users ──────────────────────────────────────────────────────────── */

const userColumns = `id, username, COALESCE(email, ''), password, auth_token, created_at`

func (s *Store) scanUser(ctx context.Context, where string, arg any) (storage.User, error) {
	var u storage.User
	err := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = ?`, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.AuthToken, &u.CreatedAt)
	if err != nil {
		return storage.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u storage.User) (storage.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password, auth_token, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, nullIfEmpty(u.Email), u.PasswordHash, u.AuthToken, u.CreatedAt)
	if err != nil {
		return storage.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (storage.User, error) {
	return s.scanUser(ctx, "username", username)
}

func (s *Store) UserByToken(ctx context.Context, token string) (storage.User, error) {
	return s.scanUser(ctx, "auth_token", token)
}

func (s *Store) RotateToken(ctx context.Context, userID, token string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET auth_token = ? WHERE id = ?`, token, userID)
	if err != nil {
		return mapErr(err)
	}
	return affectedOne(res)
}

/* ─── Audit ──────────────────────────────────────────────────────────── */

func (s *Store) WriteAudit(ctx context.Context, r storage.AuditRecord) error {
	meta, err := json.Marshal(r.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO security_logs (user_id, action_type, severity, user_agent, ip_address, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(r.UserID), r.Action, r.Severity, nullIfEmpty(r.UserAgent),
		nullIfEmpty(r.IPAddress), string(meta), r.CreatedAt.UTC())
	return mapErr(err)
}
