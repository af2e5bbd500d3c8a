package entrystore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

// fakeRepo is an in-memory storage.Repository with injectable failures.
type fakeRepo struct {
	mu      sync.Mutex
	seq     int
	meals   map[string][]nutrition.MealEntry
	weights map[string][]nutrition.WeightLogEntry
	water   map[string][]nutrition.WaterLogEntry
	ings    map[string][]nutrition.Ingredient

	listMealsErr  error
	listWeightErr error
	listWaterErr  error
	insertErr     error
	deleteErr     error
	ingredientErr error

	// insertGate, when set, blocks InsertMeal until it is closed.
	insertGate chan struct{}
	// deleteGate, when set, blocks DeleteMeal until it is closed.
	deleteGate chan struct{}

	// insertAck, when set, blocks InsertMeal after the row is committed.
	insertAck chan struct{}
	// deleteAck, when set, blocks DeleteMeal after it has resolved.
	deleteAck chan struct{}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		meals:   map[string][]nutrition.MealEntry{},
		weights: map[string][]nutrition.WeightLogEntry{},
		water:   map[string][]nutrition.WaterLogEntry{},
		ings:    map[string][]nutrition.Ingredient{},
	}
}

func (f *fakeRepo) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeRepo) ListMeals(_ context.Context, userID string, limit int) ([]nutrition.MealEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listMealsErr != nil {
		return nil, f.listMealsErr
	}
	out := append([]nutrition.MealEntry(nil), f.meals[userID]...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) InsertMeal(_ context.Context, userID string, m nutrition.MealEntry) (nutrition.MealEntry, error) {
	if f.insertGate != nil {
		<-f.insertGate
	}
	f.mu.Lock()
	if f.insertErr != nil {
		f.mu.Unlock()
		return nutrition.MealEntry{}, f.insertErr
	}
	m.ID = f.nextID("meal")
	m.UserID = userID
	f.meals[userID] = append([]nutrition.MealEntry{m}, f.meals[userID]...)
	f.mu.Unlock()

	if f.insertAck != nil {
		<-f.insertAck
	}
	return m, nil
}

func (f *fakeRepo) InsertIngredients(_ context.Context, mealID string, ings []nutrition.Ingredient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ingredientErr != nil {
		return f.ingredientErr
	}
	f.ings[mealID] = append(f.ings[mealID], ings...)
	return nil
}

func (f *fakeRepo) Ingredients(_ context.Context, userID, mealID string) ([]nutrition.Ingredient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.meals[userID] {
		if m.ID == mealID {
			return append([]nutrition.Ingredient{}, f.ings[mealID]...), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeRepo) DeleteMeal(_ context.Context, userID, mealID string) error {
	if f.deleteGate != nil {
		<-f.deleteGate
	}
	err := f.deleteMeal(userID, mealID)
	if f.deleteAck != nil {
		<-f.deleteAck
	}
	return err
}

func (f *fakeRepo) deleteMeal(userID, mealID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, m := range f.meals[userID] {
		if m.ID == mealID {
			f.meals[userID] = append(f.meals[userID][:i], f.meals[userID][i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeRepo) mealCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.meals[userID])
}

func (f *fakeRepo) ListWeightLogs(_ context.Context, userID string) ([]nutrition.WeightLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listWeightErr != nil {
		return nil, f.listWeightErr
	}
	return append([]nutrition.WeightLogEntry(nil), f.weights[userID]...), nil
}

func (f *fakeRepo) InsertWeightLog(_ context.Context, e nutrition.WeightLogEntry) (nutrition.WeightLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = f.nextID("w")
	f.weights[e.UserID] = append([]nutrition.WeightLogEntry{e}, f.weights[e.UserID]...)
	return e, nil
}

func (f *fakeRepo) ListWaterLogsSince(_ context.Context, userID string, since time.Time) ([]nutrition.WaterLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listWaterErr != nil {
		return nil, f.listWaterErr
	}
	var out []nutrition.WaterLogEntry
	for _, e := range f.water[userID] {
		if !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertWaterLog(_ context.Context, e nutrition.WaterLogEntry) (nutrition.WaterLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = f.nextID("water")
	f.water[e.UserID] = append([]nutrition.WaterLogEntry{e}, f.water[e.UserID]...)
	return e, nil
}

func (f *fakeRepo) GetProfile(context.Context, string) (nutrition.Profile, error) {
	return nutrition.Profile{}, storage.ErrNotFound
}

func (f *fakeRepo) UpsertProfile(_ context.Context, p nutrition.Profile) (nutrition.Profile, error) {
	return p, nil
}

func (f *fakeRepo) set(fn func(f *fakeRepo)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}
