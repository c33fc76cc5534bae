package state

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"fitpro/pkg/domain"
	"fitpro/pkg/fitclient"
)

// staticToken is a fixed TokenSource for store tests.
type staticToken string

func (s staticToken) Token() string { return string(s) }

func newExercisesStore(t *testing.T, handler http.HandlerFunc, token string) (*ExercisesStore, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := fitclient.NewClient(srv.URL)
	return NewExercisesStore(client, staticToken(token)), srv
}

func writeItems(t *testing.T, w http.ResponseWriter, items any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(items); err != nil {
		t.Errorf("encode items: %v", err)
	}
}

func TestFetchFillsOnlyTargetBucket(t *testing.T) {
	store, _ := newExercisesStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("categoryId") != "cat1" {
			writeItems(t, w, []domain.Exercise{})
			return
		}
		writeItems(t, w, []domain.Exercise{{ID: "e1", CategoryID: "cat1", Name: "Squat"}})
	}, "tok")

	if _, err := store.Fetch(context.Background(), "cat1"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	snap := store.Snapshot()
	if got := snap.Exercises["cat1"]; len(got) != 1 || got[0].ID != "e1" || got[0].Name != "Squat" {
		t.Fatalf("unexpected cat1 bucket: %+v", got)
	}
	if _, ok := snap.Exercises["cat2"]; ok {
		t.Fatal("cat2 bucket must be absent")
	}
	if snap.IsLoading || snap.Error != "" {
		t.Fatalf("fetch state not settled: %+v", snap)
	}
}

func TestFetchReplacesBucketWithLastResolvedPayload(t *testing.T) {
	var calls int32
	store, _ := newExercisesStore(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			writeItems(t, w, []domain.Exercise{{ID: "e1", CategoryID: "cat1"}, {ID: "e2", CategoryID: "cat1"}})
			return
		}
		writeItems(t, w, []domain.Exercise{{ID: "e3", CategoryID: "cat1"}})
	}, "tok")

	if _, err := store.Fetch(context.Background(), "cat1"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := store.Fetch(context.Background(), "cat1"); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	bucket := store.Bucket("cat1")
	if len(bucket) != 1 || bucket[0].ID != "e3" {
		t.Fatalf("bucket must equal last resolved payload, got %+v", bucket)
	}
}

func TestFetchDoesNotDisturbOtherBuckets(t *testing.T) {
	store, _ := newExercisesStore(t, func(w http.ResponseWriter, r *http.Request) {
		cat := r.URL.Query().Get("categoryId")
		writeItems(t, w, []domain.Exercise{{ID: "e-" + cat, CategoryID: cat}})
	}, "tok")

	if _, err := store.Fetch(context.Background(), "cat1"); err != nil {
		t.Fatalf("fetch cat1: %v", err)
	}
	if _, err := store.Fetch(context.Background(), "cat2"); err != nil {
		t.Fatalf("fetch cat2: %v", err)
	}
	snap := store.Snapshot()
	if len(snap.Exercises["cat1"]) != 1 || snap.Exercises["cat1"][0].ID != "e-cat1" {
		t.Fatalf("cat1 bucket disturbed: %+v", snap.Exercises["cat1"])
	}
	if len(snap.Exercises["cat2"]) != 1 || snap.Exercises["cat2"][0].ID != "e-cat2" {
		t.Fatalf("cat2 bucket wrong: %+v", snap.Exercises["cat2"])
	}
}

func TestAddAppendsIntoResponseBucket(t *testing.T) {
	store, _ := newExercisesStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		writeItems(t, w, domain.Exercise{ID: "e9", NumericID: 9, CategoryID: "cat3", Name: "Plank"})
	}, "tok")

	created, err := store.Add(context.Background(), domain.Exercise{CategoryID: "cat3", Name: "Plank"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if created.ID != "e9" {
		t.Fatalf("expected server-assigned id, got %+v", created)
	}
	bucket := store.Bucket("cat3")
	if len(bucket) != 1 || bucket[0].ID != "e9" {
		t.Fatalf("bucket not created on add: %+v", bucket)
	}
}

func TestAddWithoutTokenShortCircuits(t *testing.T) {
	var calls int32
	store, _ := newExercisesStore(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, "")

	_, err := store.Add(context.Background(), domain.Exercise{CategoryID: "cat1"})
	if err != ErrNoToken {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Fatalf("expected zero network calls, got %d", got)
	}
	snap := store.Snapshot()
	if snap.AddError != "No authentication token found" {
		t.Fatalf("unexpected addError %q", snap.AddError)
	}
	if snap.IsAdding {
		t.Fatal("isAdding must settle to false")
	}
	if len(snap.Exercises) != 0 {
		t.Fatalf("no entry may be appended, got %+v", snap.Exercises)
	}
}

func TestEditRelocatesAcrossBuckets(t *testing.T) {
	store, _ := newExercisesStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeItems(t, w, []domain.Exercise{{ID: "e1", CategoryID: "cat1", Name: "Squat", GifURL: "squat.gif"}})
		case http.MethodPut:
			writeItems(t, w, domain.Exercise{ID: "e1", CategoryID: "cat2", Name: "Front Squat"})
		}
	}, "tok")

	if _, err := store.Fetch(context.Background(), "cat1"); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	updated, err := store.Edit(context.Background(), "e1", domain.Exercise{Name: "Front Squat", CategoryID: "cat2"})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if updated.CategoryID != "cat2" || updated.Name != "Front Squat" {
		t.Fatalf("unexpected updated item: %+v", updated)
	}
	snap := store.Snapshot()
	for _, ex := range snap.Exercises["cat1"] {
		if ex.Matches("e1") {
			t.Fatalf("e1 must leave cat1, still present: %+v", snap.Exercises["cat1"])
		}
	}
	target := snap.Exercises["cat2"]
	if len(target) != 1 || target[0].ID != "e1" || target[0].Name != "Front Squat" {
		t.Fatalf("e1 must land in cat2, got %+v", target)
	}
	// Shallow merge keeps fields the server response omitted.
	if target[0].GifURL != "squat.gif" {
		t.Fatalf("merge dropped local field, got %+v", target[0])
	}
}

func TestEditInsertsUnknownIdentifierIntoResponseBucket(t *testing.T) {
	store, _ := newExercisesStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeItems(t, w, domain.Exercise{ID: "ghost", CategoryID: "cat3", Name: "Burpee"})
	}, "tok")

	if _, err := store.Edit(context.Background(), "ghost", domain.Exercise{Name: "Burpee"}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	bucket := store.Bucket("cat3")
	if len(bucket) != 1 || bucket[0].ID != "ghost" {
		t.Fatalf("self-healing insert missing, got %+v", bucket)
	}
}

func TestEditMatchesNumericIdentifier(t *testing.T) {
	store, _ := newExercisesStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeItems(t, w, []domain.Exercise{{NumericID: 42, CategoryID: "cat1", Name: "Lunge"}})
		case http.MethodPut:
			writeItems(t, w, domain.Exercise{NumericID: 42, CategoryID: "cat1", Name: "Walking Lunge"})
		}
	}, "tok")

	if _, err := store.Fetch(context.Background(), "cat1"); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	if _, err := store.Edit(context.Background(), "42", domain.Exercise{Name: "Walking Lunge"}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	bucket := store.Bucket("cat1")
	if len(bucket) != 1 || bucket[0].Name != "Walking Lunge" {
		t.Fatalf("numeric identifier match failed, got %+v", bucket)
	}
}

func TestEditFailureLeavesBucketsUntouched(t *testing.T) {
	store, _ := newExercisesStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeItems(t, w, []domain.Exercise{{ID: "e1", CategoryID: "cat1", Name: "Squat"}})
		case http.MethodPut:
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"not allowed"}`))
		}
	}, "tok")

	if _, err := store.Fetch(context.Background(), "cat1"); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	if _, err := store.Edit(context.Background(), "e1", domain.Exercise{Name: "Changed"}); err == nil {
		t.Fatal("expected edit error")
	}
	snap := store.Snapshot()
	if snap.EditError != "not allowed" {
		t.Fatalf("unexpected editError %q", snap.EditError)
	}
	bucket := snap.Exercises["cat1"]
	if len(bucket) != 1 || bucket[0].Name != "Squat" {
		t.Fatalf("failed edit must not mutate buckets, got %+v", bucket)
	}
	// Edit failure is confined to the edit pair.
	if snap.Error != "" || snap.AddError != "" {
		t.Fatalf("other error fields must stay clean: %+v", snap)
	}
}
