package store

import "fitpro/pkg/domain"

// Store defines persistence for users and the four fitness resources.
// Exercise, food, and drink lookups accept either identifier form the
// API has historically served (persistence ID or, for exercises, the
// numeric secondary ID).
type Store interface {
	// users
	SaveUser(domain.User) error
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	UserCount() (int, error)

	// categories
	ListCategories() ([]domain.Category, error)
	SaveCategory(domain.Category) error

	// exercises
	ListExercisesByCategory(categoryID string) ([]domain.Exercise, error)
	SaveExercise(domain.Exercise) error
	FindExercise(id string) (domain.Exercise, bool, error)
	ReplaceExercise(id string, ex domain.Exercise) error

	// foods
	ListFoods() ([]domain.Food, error)
	SaveFood(domain.Food) error
	FindFood(id string) (domain.Food, bool, error)
	ReplaceFood(id string, f domain.Food) error

	// drinks
	ListDrinks() ([]domain.Drink, error)
	SaveDrink(domain.Drink) error
	FindDrink(id string) (domain.Drink, bool, error)
	ReplaceDrink(id string, d domain.Drink) error
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
