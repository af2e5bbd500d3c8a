package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
)

type weightRow struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	Weight     float64   `db:"weight"`
	LoggedDate time.Time `db:"logged_date"`
}

func (r weightRow) entry() nutrition.WeightLogEntry {
	return nutrition.WeightLogEntry{ID: r.ID, UserID: r.UserID, Weight: r.Weight, LoggedDate: r.LoggedDate}
}

type waterRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	AmountML  float64   `db:"amount_ml"`
	CreatedAt time.Time `db:"created_at"`
}

func (r waterRow) entry() nutrition.WaterLogEntry {
	return nutrition.WaterLogEntry{ID: r.ID, UserID: r.UserID, AmountML: r.AmountML, CreatedAt: r.CreatedAt}
}

/* ─── Weight ─────────────────────────────────────────────────────────── */

// ListWeightLogs returns every weight log for userID, newest date first.
func (db *DB) ListWeightLogs(ctx context.Context, userID string) ([]nutrition.WeightLogEntry, error) {
	rows, err := queryMany[weightRow](ctx, db.Pool,
		`SELECT id::text AS id, user_id::text AS user_id, weight, logged_date
		 FROM weight_logs
		 WHERE user_id = @userID
		 ORDER BY logged_date DESC, id DESC`,
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		return nil, err
	}
	out := make([]nutrition.WeightLogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	return out, nil
}

// InsertWeightLog stores a single measurement.
func (db *DB) InsertWeightLog(ctx context.Context, e nutrition.WeightLogEntry) (nutrition.WeightLogEntry, error) {
	row, err := queryOne[weightRow](ctx, db.Pool,
		`INSERT INTO weight_logs (user_id, weight, logged_date)
		 VALUES (@userID, @weight, @loggedDate)
		 RETURNING id::text AS id, user_id::text AS user_id, weight, logged_date`,
		pgx.NamedArgs{"userID": e.UserID, "weight": e.Weight, "loggedDate": e.LoggedDate})
	if err != nil {
		return nutrition.WeightLogEntry{}, err
	}
	return row.entry(), nil
}

/* ─── Water ──────────────────────────────────────────────────────────── */

// ListWaterLogsSince returns water logs created at or after since, newest first.
func (db *DB) ListWaterLogsSince(ctx context.Context, userID string, since time.Time) ([]nutrition.WaterLogEntry, error) {
	rows, err := queryMany[waterRow](ctx, db.Pool,
		`SELECT id::text AS id, user_id::text AS user_id, amount_ml, created_at
		 FROM water_logs
		 WHERE user_id = @userID AND created_at >= @since
		 ORDER BY created_at DESC`,
		pgx.NamedArgs{"userID": userID, "since": since})
	if err != nil {
		return nil, err
	}
	out := make([]nutrition.WaterLogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	return out, nil
}

// InsertWaterLog stores a single hydration entry.
func (db *DB) InsertWaterLog(ctx context.Context, e nutrition.WaterLogEntry) (nutrition.WaterLogEntry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	row, err := queryOne[waterRow](ctx, db.Pool,
		`INSERT INTO water_logs (user_id, amount_ml, created_at)
		 VALUES (@userID, @amount, @createdAt)
		 RETURNING id::text AS id, user_id::text AS user_id, amount_ml, created_at`,
		pgx.NamedArgs{"userID": e.UserID, "amount": e.AmountML, "createdAt": e.CreatedAt})
	if err != nil {
		return nutrition.WaterLogEntry{}, err
	}
	return row.entry(), nil
}
