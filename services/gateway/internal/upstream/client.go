package upstream

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the fitness API over HTTP and relays raw JSON payloads.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a fitness API error response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs a fitness API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Login forwards credentials and returns the raw auth payload.
func (c *Client) Login(body json.RawMessage) (json.RawMessage, int, error) {
	return c.do(http.MethodPost, "/auth/login", "", body)
}

// ListCategories returns the raw category list.
func (c *Client) ListCategories() (json.RawMessage, int, error) {
	return c.do(http.MethodGet, "/api/categories", "", nil)
}

// AddCategory creates a category on behalf of the caller.
func (c *Client) AddCategory(token string, body json.RawMessage) (json.RawMessage, int, error) {
	return c.do(http.MethodPost, "/api/categories", token, body)
}

// ListExercises returns the raw exercise list for one category.
func (c *Client) ListExercises(categoryID string) (json.RawMessage, int, error) {
	return c.do(http.MethodGet, "/api/exercises/"+url.PathEscape(categoryID), "", nil)
}

// AddExercise creates an exercise on behalf of the caller.
func (c *Client) AddExercise(token string, body json.RawMessage) (json.RawMessage, int, error) {
	return c.do(http.MethodPost, "/api/exercises", token, body)
}

// UpdateExercise applies a partial update to an exercise.
func (c *Client) UpdateExercise(token, id string, body json.RawMessage) (json.RawMessage, int, error) {
	return c.do(http.MethodPut, "/api/exercises/"+url.PathEscape(id), token, body)
}

// ListFoods returns the raw food list.
func (c *Client) ListFoods() (json.RawMessage, int, error) {
	return c.do(http.MethodGet, "/api/foods", "", nil)
}

// AddFood creates a food on behalf of the caller.
func (c *Client) AddFood(token string, body json.RawMessage) (json.RawMessage, int, error) {
	return c.do(http.MethodPost, "/api/foods", token, body)
}

// UpdateFood applies a partial update to a food.
func (c *Client) UpdateFood(token, id string, body json.RawMessage) (json.RawMessage, int, error) {
	return c.do(http.MethodPut, "/api/foods/"+url.PathEscape(id), token, body)
}

// ListDrinks returns the raw drink list.
func (c *Client) ListDrinks() (json.RawMessage, int, error) {
	return c.do(http.MethodGet, "/api/drinks", "", nil)
}

// AddDrink creates a drink on behalf of the caller.
func (c *Client) AddDrink(token string, body json.RawMessage) (json.RawMessage, int, error) {
	return c.do(http.MethodPost, "/api/drinks", token, body)
}

// UpdateDrink applies a partial update to a drink.
func (c *Client) UpdateDrink(token, id string, body json.RawMessage) (json.RawMessage, int, error) {
	return c.do(http.MethodPut, "/api/drinks/"+url.PathEscape(id), token, body)
}

func (c *Client) do(method, path, token string, payload json.RawMessage) (json.RawMessage, int, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &errResp)
		msg := strings.TrimSpace(errResp.Message)
		if msg == "" {
			msg = resp.Status
		}
		return nil, resp.StatusCode, &APIError{Status: resp.StatusCode, Message: msg}
	}
	return raw, resp.StatusCode, nil
}
