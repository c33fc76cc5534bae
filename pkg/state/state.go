// Package state holds the dashboard's client-side resource stores. Each
// store owns one resource type, its in-memory items, and a flag+error pair
// per operation kind (fetch, add, edit). Stores never panic on API
// failures; errors become data that views render and clear.
package state

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"fitpro/pkg/fitclient"
)

const (
	networkErrorMessage = "Network error occurred"
	noTokenMessage      = "No authentication token found"
)

// ErrNoToken is returned by write operations invoked without a stored
// bearer token. No network call is made in that case.
var ErrNoToken = errors.New(noTokenMessage)

// TokenSource supplies the current bearer token, empty when anonymous.
type TokenSource interface {
	Token() string
}

// opStatus is one operation kind's in-flight flag and last error. The
// three kinds on a store are fully independent: failing an add never
// touches fetch state.
type opStatus struct {
	running bool
	errMsg  string
}

func (o *opStatus) begin() {
	o.running = true
	o.errMsg = ""
}

func (o *opStatus) succeed() {
	o.running = false
	o.errMsg = ""
}

func (o *opStatus) fail(msg string) {
	o.running = false
	o.errMsg = msg
}

// errorMessage maps a client error to the string stored on the slice.
// API failures keep their extracted message; anything else (DNS failure,
// refused connection, timeout) collapses to a fixed generic message so
// transport details never leak to views.
func errorMessage(err error) string {
	var apiErr *fitclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return networkErrorMessage
}

// Store is the application state root: one instance per process,
// constructed once and passed to consumers. No ambient singletons.
type Store struct {
	Auth       *AuthStore
	Categories *CategoriesStore
	Exercises  *ExercisesStore
	Foods      *FoodsStore
	Drinks     *DrinksStore
}

// New wires the full store set against one API client. The auth store
// hydrates from storage and acts as the token source for every other
// store.
func New(client *fitclient.Client, storage TokenStorage) *Store {
	auth := NewAuthStore(client, storage)
	return &Store{
		Auth:       auth,
		Categories: NewCategoriesStore(client, auth),
		Exercises:  NewExercisesStore(client, auth),
		Foods:      NewFoodsStore(client, auth),
		Drinks:     NewDrinksStore(client, auth),
	}
}

// RefreshAll fetches the flat resource lists concurrently. Exercises are
// excluded: their fetch is scoped per category and driven by navigation.
// The first error is returned, but each store still records its own
// outcome independently.
func (s *Store) RefreshAll(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := s.Categories.Fetch(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.Foods.Fetch(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.Drinks.Fetch(ctx)
		return err
	})
	return g.Wait()
}
