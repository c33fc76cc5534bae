package state

import (
	"context"
	"encoding/json"
	"sync"

	"fitpro/pkg/domain"
	"fitpro/pkg/fitclient"
)

// DrinksSnapshot is a point-in-time copy of the drinks slice.
type DrinksSnapshot struct {
	Drinks    []domain.Drink
	IsLoading bool
	Error     string
	IsAdding  bool
	AddError  string
	IsEditing bool
	EditError string
}

// DrinksStore owns the flat list of drinks. It mirrors FoodsStore; the
// two resources differ only in schema.
type DrinksStore struct {
	mu     sync.Mutex
	client *fitclient.Client
	tokens TokenSource

	drinks []domain.Drink
	fetch  opStatus
	add    opStatus
	edit   opStatus
}

// NewDrinksStore builds an empty store.
func NewDrinksStore(client *fitclient.Client, tokens TokenSource) *DrinksStore {
	return &DrinksStore{client: client, tokens: tokens}
}

// Snapshot returns a copy of the slice state. The item slice is shared,
// not copied; callers must treat it as read-only.
func (s *DrinksStore) Snapshot() DrinksSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DrinksSnapshot{
		Drinks:    s.drinks,
		IsLoading: s.fetch.running,
		Error:     s.fetch.errMsg,
		IsAdding:  s.add.running,
		AddError:  s.add.errMsg,
		IsEditing: s.edit.running,
		EditError: s.edit.errMsg,
	}
}

// Fetch replaces the list with the server's.
func (s *DrinksStore) Fetch(ctx context.Context) ([]domain.Drink, error) {
	token := s.tokens.Token()

	s.mu.Lock()
	s.fetch.begin()
	s.mu.Unlock()

	drinks, err := s.client.ListDrinks(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fetch.fail(errorMessage(err))
		return nil, err
	}
	s.drinks = drinks
	s.fetch.succeed()
	return drinks, nil
}

// Add creates a drink and appends the server-returned item.
func (s *DrinksStore) Add(ctx context.Context, draft domain.Drink) (domain.Drink, error) {
	token := s.tokens.Token()
	if token == "" {
		s.mu.Lock()
		s.add.begin()
		s.add.fail(noTokenMessage)
		s.mu.Unlock()
		return domain.Drink{}, ErrNoToken
	}

	s.mu.Lock()
	s.add.begin()
	s.mu.Unlock()

	created, err := s.client.AddDrink(ctx, token, draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.add.fail(errorMessage(err))
		return domain.Drink{}, err
	}
	s.drinks = append(s.drinks, created)
	s.add.succeed()
	return created, nil
}

// Edit updates a drink in place, shallow-merging the server payload over
// the local item.
func (s *DrinksStore) Edit(ctx context.Context, id string, patch domain.Drink) (domain.Drink, error) {
	token := s.tokens.Token()
	if token == "" {
		s.mu.Lock()
		s.edit.begin()
		s.edit.fail(noTokenMessage)
		s.mu.Unlock()
		return domain.Drink{}, ErrNoToken
	}

	s.mu.Lock()
	s.edit.begin()
	s.mu.Unlock()

	raw, err := s.client.UpdateDrink(ctx, token, id, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.edit.fail(errorMessage(err))
		return domain.Drink{}, err
	}
	var updated domain.Drink
	for i, drink := range s.drinks {
		if !drink.Matches(id) {
			continue
		}
		merged := drink
		if err := json.Unmarshal(raw, &merged); err != nil {
			s.edit.fail(networkErrorMessage)
			return domain.Drink{}, err
		}
		s.drinks[i] = merged
		updated = merged
		break
	}
	s.edit.succeed()
	return updated, nil
}

// ClearErrors resets every error field on the slice.
func (s *DrinksStore) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetch.errMsg = ""
	s.add.errMsg = ""
	s.edit.errMsg = ""
}

// ClearFetchError resets only the fetch error.
func (s *DrinksStore) ClearFetchError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetch.errMsg = ""
}

// ClearAddError resets only the add error.
func (s *DrinksStore) ClearAddError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add.errMsg = ""
}

// ClearEditError resets only the edit error.
func (s *DrinksStore) ClearEditError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edit.errMsg = ""
}
