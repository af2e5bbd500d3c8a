// Package entrystore holds one signed-in user's snapshot of meals, weight logs
// and today's water logs, and applies meal mutations optimistically before
// the durable write resolves.
package entrystore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foulezombie94/Glymo-ai/internal/metrics"
	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

// TempIDPrefix marks entries that have not been persisted yet.
const TempIDPrefix = "tmp-"

// DefaultMealLimit bounds how many meals Load fetches.
const DefaultMealLimit = 200

// waterLookback reaches back past the server's midnight far enough to cover
// "today" in any client time zone. Readers filter to their own calendar day.
const waterLookback = 48 * time.Hour

var (
	// ErrNoSession is returned by mutations before any user has been loaded.
	ErrNoSession = errors.New("no signed-in user")

	// ErrInvalidAmount rejects non-positive weights and negative water amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrOperationPending is returned when removing an entry whose add has
	// not resolved yet.
	ErrOperationPending = errors.New("operation still pending")
)

// Options tune a Store. The zero value is usable.
type Options struct {
	// MealLimit caps the number of meals loaded. Defaults to DefaultMealLimit.
	MealLimit int

	// RollbackFailedAdds removes the optimistic entry when its insert fails.
	// By default the entry stays visible until the next Load.
	RollbackFailedAdds bool

	Logger *zap.Logger
	Now    func() time.Time
}

// Snapshot is a point-in-time copy of the store's contents.
type Snapshot struct {
	UserID     string                     `json:"user_id"`
	Meals      []nutrition.MealEntry      `json:"meals"`
	WeightLogs []nutrition.WeightLogEntry `json:"weight_logs"`
	WaterToday []nutrition.WaterLogEntry  `json:"water_today"`
	Loaded     bool                       `json:"loaded"`
}

// Store is the session-scoped entry store. All methods are safe for
// concurrent use.
type Store struct {
	repo storage.Repository
	opts Options
	log  *zap.Logger

	mu      sync.Mutex
	userID  string
	meals   []nutrition.MealEntry
	weights []nutrition.WeightLogEntry
	water   []nutrition.WaterLogEntry
	loaded  bool
	pending pendingSet
}

// New returns an empty store backed by repo.
func New(repo storage.Repository, opts Options) *Store {
	if opts.MealLimit <= 0 {
		opts.MealLimit = DefaultMealLimit
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		repo:    repo,
		opts:    opts,
		log:     opts.Logger.Named("entrystore"),
		pending: pendingSet{},
	}
}

/* ─── Load / Reset ───────────────────────────────────────────────────── */

// Load fetches the user's recent meals, weight logs and recent water logs.
// A missing table reads as empty. Any other failure is logged, leaves that
// part of the previous snapshot in place and is reported in the returned
// error. Loading a different user first clears everything.
func (s *Store) Load(ctx context.Context, userID string) error {
	s.mu.Lock()
	if userID != s.userID {
		s.clearLocked()
		s.userID = userID
	}
	s.mu.Unlock()

	var errs []error

	meals, err := s.repo.ListMeals(ctx, userID, s.opts.MealLimit)
	meals, mealsOK := readResult(s, userID, "meals", meals, err, &errs)

	weights, err := s.repo.ListWeightLogs(ctx, userID)
	weights, weightsOK := readResult(s, userID, "weight", weights, err, &errs)

	water, err := s.repo.ListWaterLogsSince(ctx, userID, waterSince(s.opts.Now()))
	water, waterOK := readResult(s, userID, "water", water, err, &errs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != userID {
		// Reset or another user's Load won the race.
		return errors.Join(errs...)
	}
	if mealsOK {
		s.meals = s.mergePending(meals)
	}
	if weightsOK {
		s.weights = weights
	}
	if waterOK {
		s.water = water
	}
	s.loaded = true
	return errors.Join(errs...)
}

// readResult normalizes one Load read. ok is false when the previous
// snapshot part must be kept.
func readResult[T any](s *Store, userID, part string, rows []T, err error, errs *[]error) ([]T, bool) {
	switch {
	case err == nil:
		if rows == nil {
			rows = []T{}
		}
		return rows, true
	case errors.Is(err, storage.ErrSchemaMissing):
		s.log.Debug("table not provisioned, treating as empty", zap.String("part", part))
		return []T{}, true
	default:
		s.log.Error("load failed, keeping previous snapshot",
			zap.String("part", part), zap.String("user_id", userID), zap.Error(err))
		metrics.LoadFailures.WithLabelValues(part).Inc()
		*errs = append(*errs, fmt.Errorf("load %s: %w", part, err))
		return nil, false
	}
}

// mergePending lays in-flight operations over freshly loaded meals: entries
// whose insert is still pending stay at the head, entries being removed stay
// out. The remove's own rollback brings them back if the delete fails.
func (s *Store) mergePending(loaded []nutrition.MealEntry) []nutrition.MealEntry {
	var out []nutrition.MealEntry
	for _, m := range s.meals {
		if s.pending.hasAdd(m.ID) {
			out = append(out, m)
		}
	}
	for _, m := range loaded {
		if !s.pending.hasRemove(m.ID) {
			out = append(out, m)
		}
	}
	if out == nil {
		out = []nutrition.MealEntry{}
	}
	return out
}

// Reset discards the snapshot and pending operations, e.g. on sign-out.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.userID = ""
}

func (s *Store) clearLocked() {
	s.meals = nil
	s.weights = nil
	s.water = nil
	s.loaded = false
	s.pending = pendingSet{}
}

/* ─── Meal mutations ─────────────────────────────────────────────────── */

// AddEntry inserts draft at the head of the snapshot under a temporary ID,
// persists it and swaps in the durable entry. The optimistic entry is
// returned alongside a durable failure so callers can still show it.
func (s *Store) AddEntry(ctx context.Context, draft nutrition.MealDraft) (nutrition.MealEntry, error) {
	entry := draft.MealEntry
	entry.Normalize()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.opts.Now()
	}
	tempID := TempIDPrefix + uuid.NewString()

	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return nutrition.MealEntry{}, ErrNoSession
	}
	userID := s.userID
	entry.ID = tempID
	entry.UserID = userID
	s.meals = append([]nutrition.MealEntry{entry}, s.meals...)
	op := PendingOp{
		ID: uuid.NewString(), Kind: OpAdd, EntryID: tempID, StartedAt: s.opts.Now(),
		rollback: func() { s.meals, _ = removeByID(s.meals, tempID) },
	}
	s.pending.add(op)
	s.mu.Unlock()

	toSave := entry
	toSave.ID = ""
	saved, err := s.repo.InsertMeal(ctx, userID, toSave)

	s.mu.Lock()
	op, tracked := s.pending.resolve(op.ID)
	if err != nil {
		if errors.Is(err, storage.ErrSchemaMissing) {
			s.log.Debug("meals table not provisioned, add not persisted")
		} else {
			s.log.Error("add entry failed", zap.String("user_id", userID), zap.Error(err))
		}
		metrics.EntryMutations.WithLabelValues(string(OpAdd), metrics.OutcomeFailed).Inc()
		if s.opts.RollbackFailedAdds && tracked {
			op.rollback()
			metrics.Rollbacks.WithLabelValues(string(OpAdd)).Inc()
		}
		s.mu.Unlock()
		return entry, fmt.Errorf("add entry: %w", err)
	}
	// A Load that ran after the insert committed already holds saved.
	if indexOf(s.meals, saved.ID) >= 0 {
		s.meals, _ = removeByID(s.meals, tempID)
	} else if i := indexOf(s.meals, tempID); i >= 0 {
		s.meals[i] = saved
	}
	s.mu.Unlock()
	metrics.EntryMutations.WithLabelValues(string(OpAdd), metrics.OutcomeOK).Inc()

	if len(draft.IngredientsList) > 0 {
		if err := s.repo.InsertIngredients(ctx, saved.ID, draft.IngredientsList); err != nil {
			s.log.Error("insert ingredients failed", zap.String("meal_id", saved.ID), zap.Error(err))
		}
	}
	return saved, nil
}

// RemoveEntry drops the entry from the snapshot and deletes it durably,
// restoring it at its original position if the delete fails. Unknown IDs
// are a no-op. A missing table does not trigger a rollback.
func (s *Store) RemoveEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return ErrNoSession
	}
	idx := indexOf(s.meals, id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	if strings.HasPrefix(id, TempIDPrefix) {
		// Never persisted: either still in flight or left behind by a
		// failed add.
		if s.pending.hasAdd(id) {
			s.mu.Unlock()
			return ErrOperationPending
		}
		s.meals, _ = removeByID(s.meals, id)
		s.mu.Unlock()
		return nil
	}

	userID := s.userID
	var removed nutrition.MealEntry
	s.meals, removed = removeByID(s.meals, id)
	op := PendingOp{
		ID: uuid.NewString(), Kind: OpRemove, EntryID: id, StartedAt: s.opts.Now(),
		rollback: func() {
			if indexOf(s.meals, id) < 0 {
				s.meals = insertAt(s.meals, idx, removed)
			}
		},
	}
	s.pending.add(op)
	s.mu.Unlock()

	err := s.repo.DeleteMeal(ctx, userID, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	op, tracked := s.pending.resolve(op.ID)
	switch {
	case err == nil, errors.Is(err, storage.ErrNotFound):
		metrics.EntryMutations.WithLabelValues(string(OpRemove), metrics.OutcomeOK).Inc()
		return nil
	case errors.Is(err, storage.ErrSchemaMissing):
		s.log.Debug("meals table not provisioned, removal kept locally")
		return nil
	default:
		s.log.Error("remove entry failed, rolling back", zap.String("meal_id", id), zap.Error(err))
		metrics.EntryMutations.WithLabelValues(string(OpRemove), metrics.OutcomeFailed).Inc()
		if tracked && s.userID == userID {
			op.rollback()
			metrics.Rollbacks.WithLabelValues(string(OpRemove)).Inc()
		}
		return fmt.Errorf("remove entry: %w", err)
	}
}

/* ─── Weight / water ─────────────────────────────────────────────────── */

// AddWeight persists a weight measurement for date and refreshes the
// weight list.
func (s *Store) AddWeight(ctx context.Context, kg float64, date time.Time) (nutrition.WeightLogEntry, error) {
	if !(kg > 0) {
		return nutrition.WeightLogEntry{}, fmt.Errorf("%w: weight must be positive", ErrInvalidAmount)
	}
	userID, err := s.currentUser()
	if err != nil {
		return nutrition.WeightLogEntry{}, err
	}
	if date.IsZero() {
		date = s.opts.Now()
	}
	saved, err := s.repo.InsertWeightLog(ctx, nutrition.WeightLogEntry{
		UserID: userID, Weight: kg, LoggedDate: nutrition.StartOfDay(date),
	})
	if err != nil {
		s.log.Error("add weight failed", zap.String("user_id", userID), zap.Error(err))
		return nutrition.WeightLogEntry{}, fmt.Errorf("add weight: %w", err)
	}

	logs, err := s.repo.ListWeightLogs(ctx, userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != userID {
		return saved, nil
	}
	if err != nil {
		s.log.Warn("weight refresh failed", zap.Error(err))
		s.weights = append([]nutrition.WeightLogEntry{saved}, s.weights...)
		return saved, nil
	}
	s.weights = logs
	return saved, nil
}

// AddWater persists a hydration measurement and refreshes the recent list.
func (s *Store) AddWater(ctx context.Context, ml float64) (nutrition.WaterLogEntry, error) {
	if !(ml >= 0) {
		return nutrition.WaterLogEntry{}, fmt.Errorf("%w: water amount must not be negative", ErrInvalidAmount)
	}
	userID, err := s.currentUser()
	if err != nil {
		return nutrition.WaterLogEntry{}, err
	}
	now := s.opts.Now()
	saved, err := s.repo.InsertWaterLog(ctx, nutrition.WaterLogEntry{UserID: userID, AmountML: ml, CreatedAt: now})
	if err != nil {
		s.log.Error("add water failed", zap.String("user_id", userID), zap.Error(err))
		return nutrition.WaterLogEntry{}, fmt.Errorf("add water: %w", err)
	}

	logs, err := s.repo.ListWaterLogsSince(ctx, userID, waterSince(now))
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != userID {
		return saved, nil
	}
	if err != nil {
		s.log.Warn("water refresh failed", zap.Error(err))
		s.water = append([]nutrition.WaterLogEntry{saved}, s.water...)
		return saved, nil
	}
	s.water = logs
	return saved, nil
}

func waterSince(now time.Time) time.Time {
	return nutrition.StartOfDay(now).Add(-waterLookback)
}

func (s *Store) currentUser() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == "" {
		return "", ErrNoSession
	}
	return s.userID, nil
}

/* ─── Accessors ──────────────────────────────────────────────────────── */

// UserID returns the owner of the current snapshot, or "" after Reset.
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Meals returns a copy of the meals, newest first.
func (s *Store) Meals() []nutrition.MealEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.meals)
}

// WeightLogs returns a copy of the weight logs, newest first.
func (s *Store) WeightLogs() []nutrition.WeightLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.weights)
}

// WaterToday returns a copy of the recent water logs, newest first. They
// reach back two days before the server's midnight; callers keep the ones
// on their own calendar day.
func (s *Store) WaterToday() []nutrition.WaterLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.water)
}

// Loaded reports whether a Load has completed for the current user.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Pending lists in-flight operations, oldest first.
func (s *Store) Pending() []PendingOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.list()
}

// Snapshot returns a consistent copy of everything the store holds.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		UserID:     s.userID,
		Meals:      clone(s.meals),
		WeightLogs: clone(s.weights),
		WaterToday: clone(s.water),
		Loaded:     s.loaded,
	}
}

/* ─── Slice helpers ──────────────────────────────────────────────────── */

func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func indexOf(meals []nutrition.MealEntry, id string) int {
	for i, m := range meals {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func removeByID(meals []nutrition.MealEntry, id string) ([]nutrition.MealEntry, nutrition.MealEntry) {
	i := indexOf(meals, id)
	if i < 0 {
		return meals, nutrition.MealEntry{}
	}
	removed := meals[i]
	out := make([]nutrition.MealEntry, 0, len(meals)-1)
	out = append(out, meals[:i]...)
	return append(out, meals[i+1:]...), removed
}

// insertAt places m at index i, clamped to the slice bounds.
func insertAt(meals []nutrition.MealEntry, i int, m nutrition.MealEntry) []nutrition.MealEntry {
	if i > len(meals) {
		i = len(meals)
	}
	out := make([]nutrition.MealEntry, 0, len(meals)+1)
	out = append(out, meals[:i]...)
	out = append(out, m)
	return append(out, meals[i:]...)
}
