// Package openfoodfacts looks products up by barcode in the Open Food Facts
// v2 API and normalizes them to per-100 g nutrient values.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
)

const (
	DefaultBaseURL = "https://world.openfoodfacts.org"
	userAgent      = "Glymo/1.0 (+https://github.com/foulezombie94/Glymo-ai)"
	unknownName    = "Unknown Product"
)

var (
	// ErrNotFound is returned when the database has no product for the code.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidBarcode rejects empty or non-numeric codes.
	ErrInvalidBarcode = errors.New("barcode must be 8 to 14 digits")
)

// Client is an Open Food Facts API client.
type Client struct {
	http       *resty.Client
	maxRetries uint64
}

// Options configure New. Zero values pick defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries uint64
	HTTPClient *http.Client
}

// New returns a client for opts.BaseURL (DefaultBaseURL when empty).
func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 12 * time.Second
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
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetTimeout(opts.Timeout)
	return &Client{http: c, maxRetries: opts.MaxRetries}
}

// ValidBarcode reports whether code looks like an EAN/UPC barcode.
func ValidBarcode(code string) bool {
	if len(code) < 8 || len(code) > 14 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// LookupBarcode fetches and normalizes the product for code. Server errors
// and transport failures are retried with exponential backoff.
func (c *Client) LookupBarcode(ctx context.Context, code string) (nutrition.Product, error) {
	code = strings.TrimSpace(code)
	if !ValidBarcode(code) {
		return nutrition.Product{}, ErrInvalidBarcode
	}

	var parsed offResponse
	op := func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("code", code).
			Get("/api/v2/product/{code}.json")
		if err != nil {
			return fmt.Errorf("openfoodfacts request: %w", err)
		}
		switch {
		case resp.StatusCode() == http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode() >= 500:
			return fmt.Errorf("openfoodfacts status %d", resp.StatusCode())
		case resp.StatusCode() < 200 || resp.StatusCode() >= 300:
			return backoff.Permanent(fmt.Errorf("openfoodfacts status %d", resp.StatusCode()))
		}
		if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("decode openfoodfacts response: %w", err))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 10 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx)); err != nil {
		return nutrition.Product{}, err
	}

	if parsed.Status != 1 || parsed.Product == nil {
		return nutrition.Product{}, ErrNotFound
	}
	return normalize(code, parsed.Product), nil
}

type offResponse struct {
	Status  int         `json:"status"`
	Product *offProduct `json:"product"`
}

type offProduct struct {
	ProductName         string         `json:"product_name"`
	ProductNameFR       string         `json:"product_name_fr"`
	Brands              string         `json:"brands"`
	Quantity            string         `json:"quantity"`
	Categories          string         `json:"categories"`
	Labels              string         `json:"labels"`
	Origins             string         `json:"origins"`
	ManufacturingPlaces string         `json:"manufacturing_places"`
	Stores              string         `json:"stores"`
	Countries           string         `json:"countries"`
	NutriScoreGrade     string         `json:"nutriscore_grade"`
	EcoScoreGrade       string         `json:"ecoscore_grade"`
	NovaGroup           any            `json:"nova_group"`
	ImageFrontURL       string         `json:"image_front_url"`
	ImageURL            string         `json:"image_url"`
	IngredientsText     string         `json:"ingredients_text"`
	IngredientsTextFR   string         `json:"ingredients_text_fr"`
	Nutriments          map[string]any `json:"nutriments"`
}

func normalize(code string, p *offProduct) nutrition.Product {
	n := p.Nutriments
	nova, _ := parseFloatAny(p.NovaGroup)
	return nutrition.Product{
		Barcode:             code,
		Name:                firstNonEmpty(p.ProductName, p.ProductNameFR, unknownName),
		Brands:              strings.TrimSpace(p.Brands),
		Quantity:            p.Quantity,
		Categories:          p.Categories,
		Labels:              p.Labels,
		Origins:             p.Origins,
		ManufacturingPlaces: p.ManufacturingPlaces,
		Stores:              p.Stores,
		Countries:           p.Countries,
		NutriScoreGrade:     p.NutriScoreGrade,
		EcoScoreGrade:       p.EcoScoreGrade,
		NovaGroup:           int(nova),
		ImageURL:            firstNonEmpty(p.ImageFrontURL, p.ImageURL),
		IngredientsText:     firstNonEmpty(p.IngredientsText, p.IngredientsTextFR),
		Calories:            roundTo(per100g(n, "energy-kcal"), 0),
		Protein:             roundTo(per100g(n, "proteins"), 1),
		Carbs:               roundTo(per100g(n, "carbohydrates"), 1),
		Fats:                roundTo(per100g(n, "fat"), 1),
		Fiber:               roundTo(per100g(n, "fiber"), 1),
		Sugars:              roundTo(per100g(n, "sugars"), 1),
		SaturatedFat:        roundTo(per100g(n, "saturated-fat"), 1),
		Salt:                roundTo(per100g(n, "salt"), 2),
	}
}

// per100g returns the nutrient's per-100 g value, 0 when absent.
func per100g(n map[string]any, base string) float64 {
	v, ok := parseFloatAny(n[base+"_100g"])
	if !ok || v < 0 {
		return 0
	}
	return v
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
