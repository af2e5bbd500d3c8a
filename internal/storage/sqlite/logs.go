package sqlite

import (
	"context"
	"strconv"
	"time"

	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
)

func (s *Store) ListWeightLogs(ctx context.Context, userID string) ([]nutrition.WeightLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, weight, logged_date FROM weight_logs
		 WHERE user_id = ? ORDER BY logged_date DESC, id DESC`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []nutrition.WeightLogEntry{}
	for rows.Next() {
		var (
			e  nutrition.WeightLogEntry
			id int64
		)
		if err := rows.Scan(&id, &e.UserID, &e.Weight, &e.LoggedDate); err != nil {
			return nil, mapErr(err)
		}
		e.ID = strconv.FormatInt(id, 10)
		out = append(out, e)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) InsertWeightLog(ctx context.Context, e nutrition.WeightLogEntry) (nutrition.WeightLogEntry, error) {
	d := e.LoggedDate
	e.LoggedDate = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO weight_logs (user_id, weight, logged_date) VALUES (?, ?, ?)`,
		e.UserID, e.Weight, e.LoggedDate)
	if err != nil {
		return nutrition.WeightLogEntry{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nutrition.WeightLogEntry{}, err
	}
	e.ID = strconv.FormatInt(id, 10)
	return e, nil
}

func (s *Store) ListWaterLogsSince(ctx context.Context, userID string, since time.Time) ([]nutrition.WaterLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, amount_ml, created_at FROM water_logs
		 WHERE user_id = ? AND created_at >= ? ORDER BY created_at DESC`,
		userID, since.UTC())
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []nutrition.WaterLogEntry{}
	for rows.Next() {
		var (
			e  nutrition.WaterLogEntry
			id int64
		)
		if err := rows.Scan(&id, &e.UserID, &e.AmountML, &e.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		e.ID = strconv.FormatInt(id, 10)
		out = append(out, e)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) InsertWaterLog(ctx context.Context, e nutrition.WaterLogEntry) (nutrition.WaterLogEntry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO water_logs (user_id, amount_ml, created_at) VALUES (?, ?, ?)`,
		e.UserID, e.AmountML, e.CreatedAt)
	if err != nil {
		return nutrition.WaterLogEntry{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nutrition.WaterLogEntry{}, err
	}
	e.ID = strconv.FormatInt(id, 10)
	return e, nil
}
