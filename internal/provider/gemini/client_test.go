package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func answer(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
		}},
	})
	return string(b)
}

func TestIdentifyMeal_DemoWithoutKey(t *testing.T) {
	c := New(Options{BaseURL: "http://127.0.0.1:1"})
	require.True(t, c.DemoMode())

	p, err := c.IdentifyMeal(context.Background(), "aGVsbG8=")
	require.NoError(t, err)
	require.Equal(t, "Scanned Healthy Bowl", p.Name)
	require.Equal(t, 582.0, p.Calories)
	require.Len(t, p.IngredientsList, 4)

	var sum float64
	for _, ing := range p.IngredientsList {
		sum += ing.Calories
	}
	require.Equal(t, p.Calories, sum)
}

func TestIdentifyMeal_RequiresImage(t *testing.T) {
	_, err := New(Options{}).IdentifyMeal(context.Background(), "  ")
	require.ErrorIs(t, err, ErrNoImage)
}

func TestIdentifyMeal_ParsesModelAnswer(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotKey = r.URL.Path, r.URL.Query().Get("key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = w.Write([]byte(answer("```json\n" + `{
			"name": "Chicken Caesar",
			"calories": 450, "protein": 35, "carbs": 20, "fats": -2,
			"ingredientsList": [
				{"name": "Chicken", "weight_g": 120, "calories": 200, "protein": 30, "carbs": 0, "fats": 8, "icon": "egg"},
				{"name": "Lettuce", "weight_g": 80, "calories": 15, "protein": 1, "carbs": 3, "fats": 0}
			]
		}` + "\n```")))
	}))
	defer ts.Close()

	c := New(Options{APIKey: "secret", BaseURL: ts.URL})
	p, err := c.IdentifyMeal(context.Background(), "data:image/jpeg;base64,QUJD")
	require.NoError(t, err)

	require.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", gotPath)
	require.Equal(t, "secret", gotKey)
	require.Equal(t, "QUJD", gotBody.Contents[0].Parts[1].InlineData.Data, "data URL prefix stripped")
	require.Equal(t, "application/json", gotBody.GenerationConfig.ResponseMimeType)

	require.Equal(t, "Chicken Caesar", p.Name)
	require.Equal(t, 0.0, p.Fats, "negative values clamp to zero")
	require.Len(t, p.IngredientsList, 2)
	require.Equal(t, "Chicken, Lettuce", p.IngredientsText)
}

func TestIdentifyMeal_MalformedAnswerIsUnrecognized(t *testing.T) {
	for name, text := range map[string]string{
		"not json":   "I think this is a salad",
		"no name":    `{"calories": 100}`,
		"empty text": "",
	} {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(answer(text)))
			}))
			defer ts.Close()

			_, err := New(Options{APIKey: "k", BaseURL: ts.URL}).IdentifyMeal(context.Background(), "QUJD")
			require.ErrorIs(t, err, ErrUnrecognized)
		})
	}
}

func TestIdentifyMeal_NoCandidates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer ts.Close()

	_, err := New(Options{APIKey: "k", BaseURL: ts.URL}).IdentifyMeal(context.Background(), "QUJD")
	require.ErrorIs(t, err, ErrUnrecognized)
}

func TestIdentifyMeal_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	_, err := New(Options{APIKey: "k", BaseURL: ts.URL}).IdentifyMeal(context.Background(), "QUJD")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnrecognized)
	require.Equal(t, int32(1), calls.Load())
}
