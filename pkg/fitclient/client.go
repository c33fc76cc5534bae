package fitclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fitpro/pkg/domain"
)

// Client calls the fitness API (usually through the same-origin gateway)
// over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a non-2xx response from the API. Only the extracted
// message survives to callers; the status code is kept for transport-level
// decisions, not for display.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs an API client rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// LoginResponse is the payload returned by a successful login. User is kept
// opaque; the API does not commit to a profile schema.
type LoginResponse struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user,omitempty"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", payload, &resp, "Login failed"); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}

// ListCategories fetches all workout categories. No token is required.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.doJSON(ctx, http.MethodGet, "/api/categories", "", nil, &categories, "Failed to fetch categories"); err != nil {
		return nil, err
	}
	return categories, nil
}

// AddCategory creates a category. The server assigns the identifier.
func (c *Client) AddCategory(ctx context.Context, token string, draft domain.Category) (domain.Category, error) {
	var created domain.Category
	if err := c.doJSON(ctx, http.MethodPost, "/api/categories", token, draft, &created, "Failed to add category"); err != nil {
		return domain.Category{}, err
	}
	return created, nil
}

// ListExercises fetches the exercises belonging to one category.
func (c *Client) ListExercises(ctx context.Context, token, categoryID string) ([]domain.Exercise, error) {
	path := "/api/exercises?categoryId=" + url.QueryEscape(categoryID)
	var exercises []domain.Exercise
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &exercises, "Failed to fetch exercises"); err != nil {
		return nil, err
	}
	return exercises, nil
}

// AddExercise creates an exercise inside its CategoryID.
func (c *Client) AddExercise(ctx context.Context, token string, draft domain.Exercise) (domain.Exercise, error) {
	var created domain.Exercise
	if err := c.doJSON(ctx, http.MethodPost, "/api/exercises", token, draft, &created, "Failed to add exercise"); err != nil {
		return domain.Exercise{}, err
	}
	return created, nil
}

// UpdateExercise sends a partial update and returns the raw server payload.
// The raw form is what callers shallow-merge over their local copy, so
// fields the server omitted are preserved rather than zeroed.
func (c *Client) UpdateExercise(ctx context.Context, token, id string, patch domain.Exercise) (json.RawMessage, error) {
	return c.doRaw(ctx, http.MethodPut, "/api/exercises/"+url.PathEscape(id), token, patch, "Failed to edit exercise")
}

// ListFoods fetches all foods. The token is attached when present but the
// read endpoint does not require one.
func (c *Client) ListFoods(ctx context.Context, token string) ([]domain.Food, error) {
	var foods []domain.Food
	if err := c.doJSON(ctx, http.MethodGet, "/api/foods", token, nil, &foods, "Failed to fetch foods"); err != nil {
		return nil, err
	}
	return foods, nil
}

// AddFood creates a food item.
func (c *Client) AddFood(ctx context.Context, token string, draft domain.Food) (domain.Food, error) {
	var created domain.Food
	if err := c.doJSON(ctx, http.MethodPost, "/api/foods", token, draft, &created, "Failed to add food"); err != nil {
		return domain.Food{}, err
	}
	return created, nil
}

// UpdateFood sends a partial update and returns the raw server payload.
func (c *Client) UpdateFood(ctx context.Context, token, id string, patch domain.Food) (json.RawMessage, error) {
	return c.doRaw(ctx, http.MethodPut, "/api/foods/"+url.PathEscape(id), token, patch, "Failed to edit food")
}

// ListDrinks fetches all drinks. Token handling matches ListFoods.
func (c *Client) ListDrinks(ctx context.Context, token string) ([]domain.Drink, error) {
	var drinks []domain.Drink
	if err := c.doJSON(ctx, http.MethodGet, "/api/drinks", token, nil, &drinks, "Failed to fetch drinks"); err != nil {
		return nil, err
	}
	return drinks, nil
}

// AddDrink creates a drink item.
func (c *Client) AddDrink(ctx context.Context, token string, draft domain.Drink) (domain.Drink, error) {
	var created domain.Drink
	if err := c.doJSON(ctx, http.MethodPost, "/api/drinks", token, draft, &created, "Failed to add drink"); err != nil {
		return domain.Drink{}, err
	}
	return created, nil
}

// UpdateDrink sends a partial update and returns the raw server payload.
func (c *Client) UpdateDrink(ctx context.Context, token, id string, patch domain.Drink) (json.RawMessage, error) {
	return c.doRaw(ctx, http.MethodPut, "/api/drinks/"+url.PathEscape(id), token, patch, "Failed to edit drink")
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, payload, out any, fallback string) error {
	body, err := c.doRaw(ctx, method, path, token, payload, fallback)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *Client) doRaw(ctx context.Context, method, path, token string, payload any, fallback string) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{Status: resp.StatusCode, Message: extractMessage(data, fallback)}
	}
	return data, nil
}

// extractMessage recovers a human-readable error from a failure body.
// The fallback chain is deliberate: JSON "message" (or the gateway's
// "error" envelope), else the raw body text, else a fixed string.
func extractMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
		return fallback
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fallback
}
