// Package gemini recognizes meals in photos with the Gemini generateContent
// API and converts the model's JSON answer into a nutrition.Product.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-1.5-flash"

	prompt = "Analyze this food image. Provide name, calories, protein, carbs, fats, " +
		"and a list of ingredients (ingredientsList) with name, weight_g, calories, protein, " +
		"carbs, fats, and a material icon name. Return ONLY valid JSON."
)

var (
	// ErrUnrecognized means the model answered but no meal could be read
	// from it. The user may retry with another photo.
	ErrUnrecognized = errors.New("meal not recognized")
	// ErrNoImage rejects an empty upload.
	ErrNoImage = errors.New("image is required")
)

// Options configure New.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries uint64
	HTTPClient *http.Client
}

// Client calls the recognition model. Without an API key it answers every
// request with DemoProduct.
type Client struct {
	http       *resty.Client
	apiKey     string
	model      string
	maxRetries uint64
}

// New builds a client.
func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 2
	}
	var c *resty.Client
	if opts.HTTPClient != nil {
		c = resty.NewWithClient(opts.HTTPClient)
	} else {
		c = resty.New()
	}
	c.SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetTimeout(opts.Timeout)
	return &Client{http: c, apiKey: opts.APIKey, model: opts.Model, maxRetries: opts.MaxRetries}
}

// DemoMode reports whether the client answers with the demo product.
func (c *Client) DemoMode() bool { return c.apiKey == "" }

// IdentifyMeal sends a base64 JPEG to the model and parses its answer.
func (c *Client) IdentifyMeal(ctx context.Context, imageBase64 string) (nutrition.Product, error) {
	imageBase64 = stripDataURL(strings.TrimSpace(imageBase64))
	if imageBase64 == "" {
		return nutrition.Product{}, ErrNoImage
	}
	if c.DemoMode() {
		return DemoProduct(), nil
	}

	req := generateRequest{
		Contents: []content{{Parts: []part{
			{Text: prompt},
			{InlineData: &inlineData{MimeType: "image/jpeg", Data: imageBase64}},
		}}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	}

	var out generateResponse
	op := func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("key", c.apiKey).
			SetPathParam("model", c.model).
			SetBody(req).
			Post("/v1beta/models/{model}:generateContent")
		if err != nil {
			return fmt.Errorf("gemini request: %w", err)
		}
		code := resp.StatusCode()
		if code == http.StatusTooManyRequests || code >= 500 {
			return fmt.Errorf("gemini status %d", code)
		}
		if code < 200 || code >= 300 {
			return backoff.Permanent(fmt.Errorf("gemini status %d: %s", code, resp.String()))
		}
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: decode response: %v", ErrUnrecognized, err))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 20 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx)); err != nil {
		return nutrition.Product{}, err
	}

	text, ok := out.text()
	if !ok {
		return nutrition.Product{}, fmt.Errorf("%w: empty model answer", ErrUnrecognized)
	}
	return parseMeal(text)
}

/* ─── Wire types ─────────────────────────────────────────────────────── */

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType string `json:"response_mime_type"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (r generateResponse) text() (string, bool) {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	t := strings.TrimSpace(r.Candidates[0].Content.Parts[0].Text)
	return t, t != ""
}

// mealAnswer is the JSON the model is asked to produce.
type mealAnswer struct {
	Name               string                 `json:"name"`
	Calories           float64                `json:"calories"`
	Protein            float64                `json:"protein"`
	Carbs              float64                `json:"carbs"`
	Fats               float64                `json:"fats"`
	RawIngredientsText string                 `json:"raw_ingredients_text"`
	IngredientsList    []nutrition.Ingredient `json:"ingredientsList"`
	Ingredients        json.RawMessage        `json:"ingredients"`
}

func parseMeal(text string) (nutrition.Product, error) {
	text = stripCodeFence(text)
	var a mealAnswer
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return nutrition.Product{}, fmt.Errorf("%w: %v", ErrUnrecognized, err)
	}
	if strings.TrimSpace(a.Name) == "" {
		return nutrition.Product{}, fmt.Errorf("%w: no meal name", ErrUnrecognized)
	}

	ings := a.IngredientsList
	if len(ings) == 0 && len(a.Ingredients) > 0 {
		// Some answers use "ingredients" for the list itself.
		_ = json.Unmarshal(a.Ingredients, &ings)
	}
	names := make([]string, 0, len(ings))
	for i := range ings {
		ings[i].WeightG = clamp(ings[i].WeightG)
		ings[i].Calories = clamp(ings[i].Calories)
		ings[i].Protein = clamp(ings[i].Protein)
		ings[i].Carbs = clamp(ings[i].Carbs)
		ings[i].Fats = clamp(ings[i].Fats)
		names = append(names, ings[i].Name)
	}
	desc := a.RawIngredientsText
	if desc == "" {
		desc = strings.Join(names, ", ")
	}

	return nutrition.Product{
		Name:            strings.TrimSpace(a.Name),
		Calories:        clamp(a.Calories),
		Protein:         clamp(a.Protein),
		Carbs:           clamp(a.Carbs),
		Fats:            clamp(a.Fats),
		IngredientsText: desc,
		IngredientsList: ings,
	}, nil
}

func clamp(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	return v
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// stripDataURL drops a "data:image/...;base64," prefix browsers add.
func stripDataURL(s string) string {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}

// DemoProduct is returned when no API key is configured.
func DemoProduct() nutrition.Product {
	return nutrition.Product{
		Name:            "Scanned Healthy Bowl",
		Calories:        582,
		Protein:         42,
		Carbs:           12,
		Fats:            34,
		IngredientsText: "Grilled Salmon, Fresh Avocado, Quinoa Base, Olive Oil Dressing",
		IngredientsList: []nutrition.Ingredient{
			{Name: "Grilled Salmon", WeightG: 150, Calories: 240, Protein: 34, Carbs: 0, Fats: 11, Icon: "set_meal"},
			{Name: "Fresh Avocado", WeightG: 50, Calories: 160, Protein: 2, Carbs: 8, Fats: 15, Icon: "eco"},
			{Name: "Quinoa Base", WeightG: 100, Calories: 120, Protein: 4, Carbs: 21, Fats: 2, Icon: "grass"},
			{Name: "Olive Oil Dressing", WeightG: 15, Calories: 62, Protein: 0, Carbs: 0, Fats: 7, Icon: "opacity"},
		},
	}
}
