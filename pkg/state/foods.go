package state

import (
	"context"
	"encoding/json"
	"sync"

	"fitpro/pkg/domain"
	"fitpro/pkg/fitclient"
)

// FoodsSnapshot is a point-in-time copy of the foods slice.
type FoodsSnapshot struct {
	Foods     []domain.Food
	IsLoading bool
	Error     string
	IsAdding  bool
	AddError  string
	IsEditing bool
	EditError string
}

// FoodsStore owns the flat list of foods.
type FoodsStore struct {
	mu     sync.Mutex
	client *fitclient.Client
	tokens TokenSource

	foods []domain.Food
	fetch opStatus
	add   opStatus
	edit  opStatus
}

// NewFoodsStore builds an empty store.
func NewFoodsStore(client *fitclient.Client, tokens TokenSource) *FoodsStore {
	return &FoodsStore{client: client, tokens: tokens}
}

// Snapshot returns a copy of the slice state. The item slice is shared,
// not copied; callers must treat it as read-only.
func (s *FoodsStore) Snapshot() FoodsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FoodsSnapshot{
		Foods:     s.foods,
		IsLoading: s.fetch.running,
		Error:     s.fetch.errMsg,
		IsAdding:  s.add.running,
		AddError:  s.add.errMsg,
		IsEditing: s.edit.running,
		EditError: s.edit.errMsg,
	}
}

// Fetch replaces the list with the server's. The token is attached when
// present; the read endpoint accepts anonymous requests.
func (s *FoodsStore) Fetch(ctx context.Context) ([]domain.Food, error) {
	token := s.tokens.Token()

	s.mu.Lock()
	s.fetch.begin()
	s.mu.Unlock()

	foods, err := s.client.ListFoods(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fetch.fail(errorMessage(err))
		return nil, err
	}
	s.foods = foods
	s.fetch.succeed()
	return foods, nil
}

// Add creates a food and appends the server-returned item.
func (s *FoodsStore) Add(ctx context.Context, draft domain.Food) (domain.Food, error) {
	token := s.tokens.Token()
	if token == "" {
		s.mu.Lock()
		s.add.begin()
		s.add.fail(noTokenMessage)
		s.mu.Unlock()
		return domain.Food{}, ErrNoToken
	}

	s.mu.Lock()
	s.add.begin()
	s.mu.Unlock()

	created, err := s.client.AddFood(ctx, token, draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.add.fail(errorMessage(err))
		return domain.Food{}, err
	}
	s.foods = append(s.foods, created)
	s.add.succeed()
	return created, nil
}

// Edit updates a food in place, shallow-merging the server payload over
// the local item so locally known fields the server omitted survive.
// An identifier no longer present locally is not an error; the update
// simply has nothing to land on.
func (s *FoodsStore) Edit(ctx context.Context, id string, patch domain.Food) (domain.Food, error) {
	token := s.tokens.Token()
	if token == "" {
		s.mu.Lock()
		s.edit.begin()
		s.edit.fail(noTokenMessage)
		s.mu.Unlock()
		return domain.Food{}, ErrNoToken
	}

	s.mu.Lock()
	s.edit.begin()
	s.mu.Unlock()

	raw, err := s.client.UpdateFood(ctx, token, id, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.edit.fail(errorMessage(err))
		return domain.Food{}, err
	}
	var updated domain.Food
	for i, food := range s.foods {
		if !food.Matches(id) {
			continue
		}
		merged := food
		if err := json.Unmarshal(raw, &merged); err != nil {
			s.edit.fail(networkErrorMessage)
			return domain.Food{}, err
		}
		s.foods[i] = merged
		updated = merged
		break
	}
	s.edit.succeed()
	return updated, nil
}

// ClearErrors resets every error field on the slice.
func (s *FoodsStore) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetch.errMsg = ""
	s.add.errMsg = ""
	s.edit.errMsg = ""
}

// ClearFetchError resets only the fetch error.
func (s *FoodsStore) ClearFetchError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetch.errMsg = ""
}

// ClearAddError resets only the add error.
func (s *FoodsStore) ClearAddError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add.errMsg = ""
}

// ClearEditError resets only the edit error.
func (s *FoodsStore) ClearEditError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edit.errMsg = ""
}
