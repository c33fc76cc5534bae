package state

import (
	"context"
	"encoding/json"
	"sync"

	"fitpro/pkg/domain"
	"fitpro/pkg/fitclient"
)

// ExercisesSnapshot is a point-in-time copy of the exercises slice.
type ExercisesSnapshot struct {
	Exercises map[string][]domain.Exercise
	IsLoading bool
	Error     string
	IsAdding  bool
	AddError  string
	IsEditing bool
	EditError string
}

// ExercisesStore owns the standalone exercises, partitioned into buckets
// keyed by categoryId. A fetch replaces exactly one bucket; other buckets
// are never touched. There is no cross-bucket invalidation: overwrite on
// the next fetch is the only refresh mechanism.
type ExercisesStore struct {
	mu     sync.Mutex
	client *fitclient.Client
	tokens TokenSource

	buckets map[string][]domain.Exercise
	fetch   opStatus
	add     opStatus
	edit    opStatus
}

// NewExercisesStore builds a store with no buckets.
func NewExercisesStore(client *fitclient.Client, tokens TokenSource) *ExercisesStore {
	return &ExercisesStore{
		client:  client,
		tokens:  tokens,
		buckets: make(map[string][]domain.Exercise),
	}
}

// Snapshot returns a copy of the slice state. The map is copied; the
// per-bucket slices are shared and must be treated as read-only.
func (s *ExercisesStore) Snapshot() ExercisesSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	buckets := make(map[string][]domain.Exercise, len(s.buckets))
	for k, v := range s.buckets {
		buckets[k] = v
	}
	return ExercisesSnapshot{
		Exercises: buckets,
		IsLoading: s.fetch.running,
		Error:     s.fetch.errMsg,
		IsAdding:  s.add.running,
		AddError:  s.add.errMsg,
		IsEditing: s.edit.running,
		EditError: s.edit.errMsg,
	}
}

// Bucket returns the exercises currently held for one category.
func (s *ExercisesStore) Bucket(categoryID string) []domain.Exercise {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buckets[categoryID]
}

// Fetch loads the exercises of one category and replaces that bucket
// wholesale. Two racing fetches for the same category resolve
// last-write-wins; the store does not serialize them.
func (s *ExercisesStore) Fetch(ctx context.Context, categoryID string) ([]domain.Exercise, error) {
	token := s.tokens.Token()

	s.mu.Lock()
	s.fetch.begin()
	s.mu.Unlock()

	exercises, err := s.client.ListExercises(ctx, token, categoryID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fetch.fail(errorMessage(err))
		return nil, err
	}
	s.buckets[categoryID] = exercises
	s.fetch.succeed()
	return exercises, nil
}

// Add creates an exercise and appends the server-returned item into the
// bucket named by its categoryId, creating the bucket if absent.
func (s *ExercisesStore) Add(ctx context.Context, draft domain.Exercise) (domain.Exercise, error) {
	token := s.tokens.Token()
	if token == "" {
		s.mu.Lock()
		s.add.begin()
		s.add.fail(noTokenMessage)
		s.mu.Unlock()
		return domain.Exercise{}, ErrNoToken
	}

	s.mu.Lock()
	s.add.begin()
	s.mu.Unlock()

	created, err := s.client.AddExercise(ctx, token, draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.add.fail(errorMessage(err))
		return domain.Exercise{}, err
	}
	s.buckets[created.CategoryID] = append(s.buckets[created.CategoryID], created)
	s.add.succeed()
	return created, nil
}

// Edit updates an exercise wherever it currently lives. The item is
// located across all buckets by either identifier, shallow-merged with
// the server payload, and — when the server reports a different
// categoryId — relocated into that bucket. An identifier found in no
// bucket is inserted into the bucket the response names rather than
// dropped.
func (s *ExercisesStore) Edit(ctx context.Context, id string, patch domain.Exercise) (domain.Exercise, error) {
	token := s.tokens.Token()
	if token == "" {
		s.mu.Lock()
		s.edit.begin()
		s.edit.fail(noTokenMessage)
		s.mu.Unlock()
		return domain.Exercise{}, ErrNoToken
	}

	s.mu.Lock()
	s.edit.begin()
	s.mu.Unlock()

	raw, err := s.client.UpdateExercise(ctx, token, id, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.edit.fail(errorMessage(err))
		return domain.Exercise{}, err
	}

	categoryID, index, found := s.locate(id)
	var merged domain.Exercise
	if found {
		merged = s.buckets[categoryID][index]
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		s.edit.fail(networkErrorMessage)
		return domain.Exercise{}, err
	}

	switch {
	case found && (merged.CategoryID == "" || merged.CategoryID == categoryID):
		if merged.CategoryID == "" {
			merged.CategoryID = categoryID
		}
		s.buckets[categoryID][index] = merged
	case found:
		s.relocate(categoryID, index, merged)
	case merged.CategoryID != "":
		// Self-healing insert: the store never saw this identifier, but
		// the response names a home for it.
		upsertIntoBucket(s.buckets, merged.CategoryID, merged)
	}
	s.edit.succeed()
	return merged, nil
}

// ClearErrors resets every error field on the slice.
func (s *ExercisesStore) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetch.errMsg = ""
	s.add.errMsg = ""
	s.edit.errMsg = ""
}

// ClearFetchError resets only the fetch error.
func (s *ExercisesStore) ClearFetchError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetch.errMsg = ""
}

// ClearAddError resets only the add error.
func (s *ExercisesStore) ClearAddError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add.errMsg = ""
}

// ClearEditError resets only the edit error.
func (s *ExercisesStore) ClearEditError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edit.errMsg = ""
}

// locate finds the bucket and index of the exercise matching id.
// Callers must hold the lock.
func (s *ExercisesStore) locate(id string) (string, int, bool) {
	for categoryID, bucket := range s.buckets {
		for i, ex := range bucket {
			if ex.Matches(id) {
				return categoryID, i, true
			}
		}
	}
	return "", 0, false
}

// relocate moves an updated exercise from its old bucket into the bucket
// named by its CategoryID. Callers must hold the lock.
func (s *ExercisesStore) relocate(fromCategory string, index int, ex domain.Exercise) {
	bucket := s.buckets[fromCategory]
	s.buckets[fromCategory] = append(bucket[:index], bucket[index+1:]...)
	upsertIntoBucket(s.buckets, ex.CategoryID, ex)
}

// upsertIntoBucket replaces an exercise with a matching identifier inside
// the bucket, or appends when none matches. The bucket is created if it
// does not exist.
func upsertIntoBucket(buckets map[string][]domain.Exercise, categoryID string, ex domain.Exercise) {
	bucket := buckets[categoryID]
	for i, existing := range bucket {
		if (ex.ID != "" && existing.Matches(ex.ID)) ||
			(ex.ID == "" && ex.NumericID != 0 && existing.NumericID == ex.NumericID) {
			bucket[i] = ex
			return
		}
	}
	buckets[categoryID] = append(bucket, ex)
}
