package state

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"fitpro/pkg/domain"
	"fitpro/pkg/fitclient"
)

func newFoodsStore(t *testing.T, handler http.HandlerFunc, token string) *FoodsStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFoodsStore(fitclient.NewClient(srv.URL), staticToken(token))
}

func TestFoodsFetchReplacesList(t *testing.T) {
	store := newFoodsStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeItems(t, w, []domain.Food{{ID: "f1", Name: "Oats", Calories: 380}})
	}, "")

	foods, err := store.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(foods) != 1 || foods[0].Name != "Oats" {
		t.Fatalf("unexpected foods: %+v", foods)
	}
}

func TestFoodsFetchFailureKeepsStaleList(t *testing.T) {
	var fail atomic.Bool
	store := newFoodsStore(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"db down"}`))
			return
		}
		writeItems(t, w, []domain.Food{{ID: "f1", Name: "Oats"}})
	}, "")

	if _, err := store.Fetch(context.Background()); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	fail.Store(true)
	if _, err := store.Fetch(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	snap := store.Snapshot()
	if snap.Error != "db down" {
		t.Fatalf("unexpected error %q", snap.Error)
	}
	if len(snap.Foods) != 1 || snap.Foods[0].ID != "f1" {
		t.Fatalf("stale list must survive a failed fetch, got %+v", snap.Foods)
	}
	if snap.IsLoading {
		t.Fatal("isLoading must settle to false")
	}
}

func TestFoodsAddFailureLeavesFetchStateAlone(t *testing.T) {
	store := newFoodsStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeItems(t, w, []domain.Food{{ID: "f1", Name: "Oats"}})
		case http.MethodPost:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"name is required"}`))
		}
	}, "tok")

	if _, err := store.Fetch(context.Background()); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	if _, err := store.Add(context.Background(), domain.Food{}); err == nil {
		t.Fatal("expected add error")
	}
	snap := store.Snapshot()
	if snap.AddError != "name is required" {
		t.Fatalf("unexpected addError %q", snap.AddError)
	}
	if snap.Error != "" || snap.IsLoading {
		t.Fatalf("add failure leaked into fetch state: %+v", snap)
	}
	if snap.EditError != "" || snap.IsEditing {
		t.Fatalf("add failure leaked into edit state: %+v", snap)
	}
	if len(snap.Foods) != 1 {
		t.Fatalf("failed add must not mutate list, got %+v", snap.Foods)
	}
}

func TestFoodsAddWithoutTokenShortCircuits(t *testing.T) {
	var calls int32
	store := newFoodsStore(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, "")

	if _, err := store.Add(context.Background(), domain.Food{Name: "Oats"}); err != ErrNoToken {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatal("expected zero network calls")
	}
	if snap := store.Snapshot(); snap.AddError != "No authentication token found" {
		t.Fatalf("unexpected addError %q", snap.AddError)
	}
}

func TestFoodsEditMergesServerFields(t *testing.T) {
	store := newFoodsStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeItems(t, w, []domain.Food{{ID: "f1", Name: "Oats", Calories: 380, Image: "oats.png"}})
		case http.MethodPut:
			// Response omits image; the local value must survive.
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"_id":"f1","name":"Rolled Oats","calories":370}`))
		}
	}, "tok")

	if _, err := store.Fetch(context.Background()); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	updated, err := store.Edit(context.Background(), "f1", domain.Food{Name: "Rolled Oats", Calories: 370})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if updated.Name != "Rolled Oats" || updated.Calories != 370 {
		t.Fatalf("server fields not applied: %+v", updated)
	}
	if updated.Image != "oats.png" {
		t.Fatalf("locally known field dropped by merge: %+v", updated)
	}
	snap := store.Snapshot()
	if snap.Foods[0].Name != "Rolled Oats" {
		t.Fatalf("list not updated in place: %+v", snap.Foods)
	}
}

func TestFoodsEditUnknownIdentifierLeavesListUntouched(t *testing.T) {
	store := newFoodsStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeItems(t, w, []domain.Food{{ID: "f1", Name: "Oats"}})
		case http.MethodPut:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"_id":"missing","name":"Ghost"}`))
		}
	}, "tok")

	if _, err := store.Fetch(context.Background()); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	if _, err := store.Edit(context.Background(), "missing", domain.Food{Name: "Ghost"}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	snap := store.Snapshot()
	if len(snap.Foods) != 1 || snap.Foods[0].Name != "Oats" {
		t.Fatalf("unknown identifier must not mutate the list, got %+v", snap.Foods)
	}
	if snap.EditError != "" {
		t.Fatalf("unknown identifier is not an error, got %q", snap.EditError)
	}
}

func TestFoodsNetworkFailureUsesGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	store := NewFoodsStore(fitclient.NewClient(srv.URL), staticToken(""))

	if _, err := store.Fetch(context.Background()); err == nil {
		t.Fatal("expected network error")
	}
	if snap := store.Snapshot(); snap.Error != "Network error occurred" {
		t.Fatalf("unexpected error %q", snap.Error)
	}
}

func TestFoodsClearErrors(t *testing.T) {
	store := newFoodsStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, "tok")

	_, _ = store.Fetch(context.Background())
	_, _ = store.Add(context.Background(), domain.Food{})
	snap := store.Snapshot()
	if snap.Error == "" || snap.AddError == "" {
		t.Fatalf("expected both errors set: %+v", snap)
	}

	store.ClearAddError()
	snap = store.Snapshot()
	if snap.AddError != "" || snap.Error == "" {
		t.Fatalf("ClearAddError must touch only addError: %+v", snap)
	}

	store.ClearErrors()
	snap = store.Snapshot()
	if snap.Error != "" || snap.AddError != "" || snap.EditError != "" {
		t.Fatalf("ClearErrors must reset everything: %+v", snap)
	}
}
