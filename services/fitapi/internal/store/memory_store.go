package store

import (
	"sync"

	"fitpro/pkg/domain"
)

// MemoryStore keeps everything in-process. It backs tests and local
// development; production deployments use the GORM store.
type MemoryStore struct {
	mu sync.RWMutex

	users map[string]domain.User // key: user ID
	email map[string]string      // email -> user ID

	categories    map[string]domain.Category
	categoryOrder []string

	exercises     map[string]domain.Exercise // key: persistence ID
	exerciseOrder []string

	foods     map[string]domain.Food
	foodOrder []string

	drinks     map[string]domain.Drink
	drinkOrder []string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]domain.User),
		email:      make(map[string]string),
		categories: make(map[string]domain.Category),
		exercises:  make(map[string]domain.Exercise),
		foods:      make(map[string]domain.Food),
		drinks:     make(map[string]domain.Drink),
	}
}

// SaveUser registers or replaces a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	u, exists := m.users[id]
	return u, exists, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// UserCount returns the number of users.
func (m *MemoryStore) UserCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

// ListCategories returns categories in insertion order.
func (m *MemoryStore) ListCategories() ([]domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Category, 0, len(m.categoryOrder))
	for _, id := range m.categoryOrder {
		if c, ok := m.categories[id]; ok {
			res = append(res, c)
		}
	}
	return res, nil
}

// SaveCategory stores or replaces a category, tracking insertion order.
func (m *MemoryStore) SaveCategory(c domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.categories[c.ID]; !exists {
		m.categoryOrder = append(m.categoryOrder, c.ID)
	}
	m.categories[c.ID] = c
	return nil
}

// ListExercisesByCategory returns the category's exercises in insertion order.
func (m *MemoryStore) ListExercisesByCategory(categoryID string) ([]domain.Exercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Exercise, 0)
	for _, id := range m.exerciseOrder {
		if ex, ok := m.exercises[id]; ok && ex.CategoryID == categoryID {
			res = append(res, ex)
		}
	}
	return res, nil
}

// SaveExercise stores or replaces an exercise.
func (m *MemoryStore) SaveExercise(ex domain.Exercise) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.exercises[ex.ID]; !exists {
		m.exerciseOrder = append(m.exerciseOrder, ex.ID)
	}
	m.exercises[ex.ID] = ex
	return nil
}

// FindExercise locates an exercise by either identifier form.
func (m *MemoryStore) FindExercise(id string) (domain.Exercise, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ex, ok := m.exercises[id]; ok {
		return ex, true, nil
	}
	for _, ex := range m.exercises {
		if ex.Matches(id) {
			return ex, true, nil
		}
	}
	return domain.Exercise{}, false, nil
}

// ReplaceExercise swaps the stored exercise matching id for ex.
func (m *MemoryStore) ReplaceExercise(id string, ex domain.Exercise) error {
	existing, ok, err := m.FindExercise(id)
	if err != nil || !ok {
		return ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exercises[existing.ID] = ex
	return nil
}

// ListFoods returns foods in insertion order.
func (m *MemoryStore) ListFoods() ([]domain.Food, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Food, 0, len(m.foodOrder))
	for _, id := range m.foodOrder {
		if f, ok := m.foods[id]; ok {
			res = append(res, f)
		}
	}
	return res, nil
}

// SaveFood stores or replaces a food.
func (m *MemoryStore) SaveFood(f domain.Food) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.foods[f.ID]; !exists {
		m.foodOrder = append(m.foodOrder, f.ID)
	}
	m.foods[f.ID] = f
	return nil
}

// FindFood locates a food by identifier.
func (m *MemoryStore) FindFood(id string) (domain.Food, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.foods[id]
	return f, ok, nil
}

// ReplaceFood swaps the stored food for f.
func (m *MemoryStore) ReplaceFood(id string, f domain.Food) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.foods[id]; !ok {
		return ErrNotFound
	}
	m.foods[id] = f
	return nil
}

// ListDrinks returns drinks in insertion order.
func (m *MemoryStore) ListDrinks() ([]domain.Drink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Drink, 0, len(m.drinkOrder))
	for _, id := range m.drinkOrder {
		if d, ok := m.drinks[id]; ok {
			res = append(res, d)
		}
	}
	return res, nil
}

// SaveDrink stores or replaces a drink.
func (m *MemoryStore) SaveDrink(d domain.Drink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.drinks[d.ID]; !exists {
		m.drinkOrder = append(m.drinkOrder, d.ID)
	}
	m.drinks[d.ID] = d
	return nil
}

// FindDrink locates a drink by identifier.
func (m *MemoryStore) FindDrink(id string) (domain.Drink, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drinks[id]
	return d, ok, nil
}

// ReplaceDrink swaps the stored drink for d.
func (m *MemoryStore) ReplaceDrink(id string, d domain.Drink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drinks[id]; !ok {
		return ErrNotFound
	}
	m.drinks[id] = d
	return nil
}
