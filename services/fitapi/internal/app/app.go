package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"fitpro/pkg/auth"
	"fitpro/pkg/domain"
	"fitpro/services/fitapi/internal/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	SessionTTL    time.Duration
	AdminEmail    string
	AdminPassword string
	Store         store.Store
	Sessions      store.SessionStore
}

// App wires storage and session management behind the HTTP surface.
type App struct {
	store    store.Store
	sessions store.SessionStore
}

// New constructs the application with database storage and session management.
// When AdminEmail is set and no users exist, a dashboard account is seeded.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		if strings.TrimSpace(cfg.RedisAddr) != "" {
			sessionStore = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
		} else {
			if strings.TrimSpace(cfg.JWTSecret) == "" {
				return nil, fmt.Errorf("jwtSecret is required without redis sessions")
			}
			sessionStore = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL)
		}
	}

	a := &App{store: dataStore, sessions: sessionStore}
	if err := a.seedAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) seedAdmin(email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil
	}
	count, err := a.store.UserCount()
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.SaveUser(user); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	slog.Info("seeded dashboard account", "email", email)
	return nil
}

// Login validates credentials and issues a session token.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.User{}, "", ErrEmailAndPasswordRequired
	}
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// UserFromToken resolves a user from a session token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// Logout invalidates a session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// ListCategories returns all workout categories.
func (a *App) ListCategories() ([]domain.Category, error) {
	return a.store.ListCategories()
}

// AddCategory validates and stores a new category.
func (a *App) AddCategory(c domain.Category) (domain.Category, error) {
	if strings.TrimSpace(c.ProgramName) == "" {
		return domain.Category{}, ErrProgramNameRequired
	}
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	if c.Exercises == nil {
		c.Exercises = []domain.CategoryExercise{}
	}
	if err := a.store.SaveCategory(c); err != nil {
		return domain.Category{}, fmt.Errorf("save category: %w", err)
	}
	return c, nil
}

// ListExercisesByCategory returns the category's standalone exercises.
func (a *App) ListExercisesByCategory(categoryID string) ([]domain.Exercise, error) {
	if strings.TrimSpace(categoryID) == "" {
		return nil, ErrCategoryIDRequired
	}
	return a.store.ListExercisesByCategory(categoryID)
}

// AddExercise validates and stores a new exercise. A numeric secondary ID
// is assigned when the caller did not supply one.
func (a *App) AddExercise(ex domain.Exercise) (domain.Exercise, error) {
	if strings.TrimSpace(ex.Name) == "" {
		return domain.Exercise{}, ErrNameRequired
	}
	if strings.TrimSpace(ex.CategoryID) == "" {
		return domain.Exercise{}, ErrCategoryIDRequired
	}
	ex.ID = uuid.NewString()
	if ex.NumericID == 0 {
		ex.NumericID = time.Now().UnixMilli()
	}
	if ex.SecondaryMuscles == nil {
		ex.SecondaryMuscles = []string{}
	}
	if ex.Instructions == nil {
		ex.Instructions = []string{}
	}
	if err := a.store.SaveExercise(ex); err != nil {
		return domain.Exercise{}, fmt.Errorf("save exercise: %w", err)
	}
	return ex, nil
}

// UpdateExercise applies a partial JSON patch to the exercise matching id
// and returns the merged entity. Fields absent from the patch keep their
// stored values; identifiers never change.
func (a *App) UpdateExercise(id string, patch json.RawMessage) (domain.Exercise, error) {
	existing, ok, err := a.store.FindExercise(id)
	if err != nil {
		return domain.Exercise{}, fmt.Errorf("find exercise: %w", err)
	}
	if !ok {
		return domain.Exercise{}, ErrNotFound
	}
	merged := existing
	if err := json.Unmarshal(patch, &merged); err != nil {
		return domain.Exercise{}, fmt.Errorf("decode patch: %w", err)
	}
	merged.ID = existing.ID
	merged.NumericID = existing.NumericID
	if err := a.store.ReplaceExercise(id, merged); err != nil {
		return domain.Exercise{}, fmt.Errorf("replace exercise: %w", err)
	}
	return merged, nil
}

// ListFoods returns all nutrition foods.
func (a *App) ListFoods() ([]domain.Food, error) {
	return a.store.ListFoods()
}

// AddFood validates and stores a new food.
func (a *App) AddFood(f domain.Food) (domain.Food, error) {
	if strings.TrimSpace(f.Name) == "" {
		return domain.Food{}, ErrNameRequired
	}
	f.ID = uuid.NewString()
	if err := a.store.SaveFood(f); err != nil {
		return domain.Food{}, fmt.Errorf("save food: %w", err)
	}
	return f, nil
}

// UpdateFood applies a partial JSON patch to the food matching id.
func (a *App) UpdateFood(id string, patch json.RawMessage) (domain.Food, error) {
	existing, ok, err := a.store.FindFood(id)
	if err != nil {
		return domain.Food{}, fmt.Errorf("find food: %w", err)
	}
	if !ok {
		return domain.Food{}, ErrNotFound
	}
	merged := existing
	if err := json.Unmarshal(patch, &merged); err != nil {
		return domain.Food{}, fmt.Errorf("decode patch: %w", err)
	}
	merged.ID = existing.ID
	if err := a.store.ReplaceFood(existing.ID, merged); err != nil {
		return domain.Food{}, fmt.Errorf("replace food: %w", err)
	}
	return merged, nil
}

// ListDrinks returns all nutrition drinks.
func (a *App) ListDrinks() ([]domain.Drink, error) {
	return a.store.ListDrinks()
}

// AddDrink validates and stores a new drink.
func (a *App) AddDrink(d domain.Drink) (domain.Drink, error) {
	if strings.TrimSpace(d.Name) == "" {
		return domain.Drink{}, ErrNameRequired
	}
	d.ID = uuid.NewString()
	if err := a.store.SaveDrink(d); err != nil {
		return domain.Drink{}, fmt.Errorf("save drink: %w", err)
	}
	return d, nil
}

// UpdateDrink applies a partial JSON patch to the drink matching id.
func (a *App) UpdateDrink(id string, patch json.RawMessage) (domain.Drink, error) {
	existing, ok, err := a.store.FindDrink(id)
	if err != nil {
		return domain.Drink{}, fmt.Errorf("find drink: %w", err)
	}
	if !ok {
		return domain.Drink{}, ErrNotFound
	}
	merged := existing
	if err := json.Unmarshal(patch, &merged); err != nil {
		return domain.Drink{}, fmt.Errorf("decode patch: %w", err)
	}
	merged.ID = existing.ID
	if err := a.store.ReplaceDrink(existing.ID, merged); err != nil {
		return domain.Drink{}, fmt.Errorf("replace drink: %w", err)
	}
	return merged, nil
}
