package state

import (
	"context"
	"sync"

	"fitpro/pkg/domain"
	"fitpro/pkg/fitclient"
)

// CategoriesSnapshot is a point-in-time copy of the categories slice.
type CategoriesSnapshot struct {
	Categories []domain.Category
	IsLoading  bool
	Error      string
	IsAdding   bool
	AddError   string
}

// CategoriesStore owns the flat list of workout categories. Categories
// support fetch and add; editing happens through the exercise dashboard,
// not here.
type CategoriesStore struct {
	mu     sync.Mutex
	client *fitclient.Client
	tokens TokenSource

	categories []domain.Category
	fetch      opStatus
	add        opStatus
}

// NewCategoriesStore builds an empty store.
func NewCategoriesStore(client *fitclient.Client, tokens TokenSource) *CategoriesStore {
	return &CategoriesStore{client: client, tokens: tokens}
}

// Snapshot returns a copy of the slice state. The item slice is shared,
// not copied; callers must treat it as read-only.
func (s *CategoriesStore) Snapshot() CategoriesSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CategoriesSnapshot{
		Categories: s.categories,
		IsLoading:  s.fetch.running,
		Error:      s.fetch.errMsg,
		IsAdding:   s.add.running,
		AddError:   s.add.errMsg,
	}
}

// Fetch replaces the list with the server's. On failure the previous
// list stays available alongside the recorded error.
func (s *CategoriesStore) Fetch(ctx context.Context) ([]domain.Category, error) {
	s.mu.Lock()
	s.fetch.begin()
	s.mu.Unlock()

	categories, err := s.client.ListCategories(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fetch.fail(errorMessage(err))
		return nil, err
	}
	s.categories = categories
	s.fetch.succeed()
	return categories, nil
}

// Add creates a category and appends the server-returned item. A missing
// token fails locally before any network I/O.
func (s *CategoriesStore) Add(ctx context.Context, draft domain.Category) (domain.Category, error) {
	token := s.tokens.Token()
	if token == "" {
		s.mu.Lock()
		s.add.begin()
		s.add.fail(noTokenMessage)
		s.mu.Unlock()
		return domain.Category{}, ErrNoToken
	}

	s.mu.Lock()
	s.add.begin()
	s.mu.Unlock()

	created, err := s.client.AddCategory(ctx, token, draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.add.fail(errorMessage(err))
		return domain.Category{}, err
	}
	s.categories = append(s.categories, created)
	s.add.succeed()
	return created, nil
}

// ClearErrors resets every error field on the slice.
func (s *CategoriesStore) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetch.errMsg = ""
	s.add.errMsg = ""
}

// ClearFetchError resets only the fetch error.
func (s *CategoriesStore) ClearFetchError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetch.errMsg = ""
}

// ClearAddError resets only the add error.
func (s *CategoriesStore) ClearAddError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add.errMsg = ""
}
