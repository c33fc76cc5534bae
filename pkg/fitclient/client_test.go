package fitclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fitpro/pkg/domain"
)

func TestErrorMessageFromJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Login(context.Background(), "a@b.c", "nope")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "Invalid credentials" {
		t.Fatalf("expected message from JSON body, got %q", apiErr.Message)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", apiErr.Status)
	}
}

func TestErrorMessageFromErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream unavailable"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListCategories(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "upstream unavailable" {
		t.Fatalf("expected error envelope message, got %q", apiErr.Message)
	}
}

func TestErrorMessageFallsBackToRawText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom: not json"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListFoods(context.Background(), "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "boom: not json" {
		t.Fatalf("expected raw body text, got %q", apiErr.Message)
	}
}

func TestErrorMessageFallsBackToFixedString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListFoods(context.Background(), "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "Failed to fetch foods" {
		t.Fatalf("expected fixed fallback, got %q", apiErr.Message)
	}
}

func TestNetworkFailureIsNotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL).ListDrinks(context.Background(), "")
	if err == nil {
		t.Fatal("expected error against closed server")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("transport failure must not be an APIError: %v", err)
	}
}

func TestBearerHeaderAttachedOnlyWithToken(t *testing.T) {
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if _, err := client.ListFoods(context.Background(), ""); err != nil {
		t.Fatalf("anonymous list: %v", err)
	}
	if _, err := client.ListFoods(context.Background(), "tok-1"); err != nil {
		t.Fatalf("authenticated list: %v", err)
	}
	if gotAuth[0] != "" {
		t.Fatalf("anonymous request carried auth header %q", gotAuth[0])
	}
	if gotAuth[1] != "Bearer tok-1" {
		t.Fatalf("expected bearer header, got %q", gotAuth[1])
	}
}

func TestCategoryIdentifierNormalizedOnDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"c1","programName":"A"},{"_id":"c2","programName":"B"}]`))
	}))
	defer srv.Close()

	categories, err := NewClient(srv.URL).ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}
	if categories[0].ID != "c1" || categories[1].ID != "c2" {
		t.Fatalf("identifier normalization failed: %q, %q", categories[0].ID, categories[1].ID)
	}
}

func TestUpdateReturnsRawPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_id":"f1","name":"Oats"}`))
	}))
	defer srv.Close()

	raw, err := NewClient(srv.URL).UpdateFood(context.Background(), "tok", "f1", domain.Food{Name: "Oats"})
	if err != nil {
		t.Fatalf("update food: %v", err)
	}
	if string(raw) != `{"_id":"f1","name":"Oats"}` {
		t.Fatalf("unexpected raw payload: %s", raw)
	}
}
