package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"fitpro/pkg/domain"
)

const migrateLockID int64 = 52105210

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&UserModel{}, &CategoryModel{}, &ExerciseModel{}, &FoodModel{}, &DrinkModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "password_hash", "updated_at"}),
	}).Create(&model).Error
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// UserCount returns number of users.
func (s *GormStore) UserCount() (int, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// ListCategories returns all categories ordered by created_at.
func (s *GormStore) ListCategories() ([]domain.Category, error) {
	var models []CategoryModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Category, 0, len(models))
	for _, m := range models {
		res = append(res, categoryFromModel(m))
	}
	return res, nil
}

// SaveCategory stores or updates a category.
func (s *GormStore) SaveCategory(c domain.Category) error {
	model := categoryToModel(c)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"thumbnail", "program_name", "workout_name", "time_of_full_program", "level", "burned_calories", "exercises", "updated_at"}),
	}).Create(&model).Error
}

// ListExercisesByCategory returns the category's exercises ordered by created_at.
func (s *GormStore) ListExercisesByCategory(categoryID string) ([]domain.Exercise, error) {
	var models []ExerciseModel
	if err := s.db.Where("category_id = ?", categoryID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Exercise, 0, len(models))
	for _, m := range models {
		res = append(res, exerciseFromModel(m))
	}
	return res, nil
}

// SaveExercise stores or updates an exercise.
func (s *GormStore) SaveExercise(ex domain.Exercise) error {
	model := exerciseToModel(ex)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"numeric_id", "category_id", "equipment", "gif_url", "name", "target", "secondary_muscles", "instructions", "updated_at"}),
	}).Create(&model).Error
}

// FindExercise locates an exercise by persistence ID or numeric ID.
func (s *GormStore) FindExercise(id string) (domain.Exercise, bool, error) {
	var model ExerciseModel
	err := s.db.First(&model, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		if numeric, convErr := strconv.ParseInt(id, 10, 64); convErr == nil && numeric != 0 {
			err = s.db.First(&model, "numeric_id = ?", numeric).Error
		}
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Exercise{}, false, nil
		}
		return domain.Exercise{}, false, err
	}
	return exerciseFromModel(model), true, nil
}

// ReplaceExercise swaps the stored exercise matching id for ex.
func (s *GormStore) ReplaceExercise(id string, ex domain.Exercise) error {
	existing, ok, err := s.FindExercise(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	ex.ID = existing.ID
	return s.SaveExercise(ex)
}

// ListFoods returns all foods ordered by created_at.
func (s *GormStore) ListFoods() ([]domain.Food, error) {
	var models []FoodModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Food, 0, len(models))
	for _, m := range models {
		res = append(res, foodFromModel(m))
	}
	return res, nil
}

// SaveFood stores or updates a food.
func (s *GormStore) SaveFood(f domain.Food) error {
	model := foodToModel(f)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "calories", "protein", "carbs", "fat", "image", "updated_at"}),
	}).Create(&model).Error
}

// FindFood locates a food by identifier.
func (s *GormStore) FindFood(id string) (domain.Food, bool, error) {
	var model FoodModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Food{}, false, nil
		}
		return domain.Food{}, false, err
	}
	return foodFromModel(model), true, nil
}

// ReplaceFood swaps the stored food for f.
func (s *GormStore) ReplaceFood(id string, f domain.Food) error {
	_, ok, err := s.FindFood(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	f.ID = id
	return s.SaveFood(f)
}

// ListDrinks returns all drinks ordered by created_at.
func (s *GormStore) ListDrinks() ([]domain.Drink, error) {
	var models []DrinkModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Drink, 0, len(models))
	for _, m := range models {
		res = append(res, drinkFromModel(m))
	}
	return res, nil
}

// SaveDrink stores or updates a drink.
func (s *GormStore) SaveDrink(d domain.Drink) error {
	model := drinkToModel(d)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "calories", "protein", "fats", "image", "updated_at"}),
	}).Create(&model).Error
}

// FindDrink locates a drink by identifier.
func (s *GormStore) FindDrink(id string) (domain.Drink, bool, error) {
	var model DrinkModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Drink{}, false, nil
		}
		return domain.Drink{}, false, err
	}
	return drinkFromModel(model), true, nil
}

// ReplaceDrink swaps the stored drink for d.
func (s *GormStore) ReplaceDrink(id string, d domain.Drink) error {
	_, ok, err := s.FindDrink(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	d.ID = id
	return s.SaveDrink(d)
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    time.Now().UTC(),
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

func categoryToModel(c domain.Category) CategoryModel {
	rawExercises, _ := json.Marshal(c.Exercises)
	createdAt, _ := time.Parse(time.RFC3339, c.CreatedAt)
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return CategoryModel{
		ID:                c.ID,
		Thumbnail:         c.Thumbnail,
		ProgramName:       c.ProgramName,
		WorkoutName:       c.WorkoutName,
		TimeOfFullProgram: c.TimeOfFullProgram,
		Level:             c.Level,
		BurnedCalories:    c.BurnedCalories,
		Exercises:         rawExercises,
		CreatedAt:         createdAt,
		UpdatedAt:         time.Now().UTC(),
	}
}

func categoryFromModel(m CategoryModel) domain.Category {
	var exercises []domain.CategoryExercise
	if len(m.Exercises) > 0 {
		_ = json.Unmarshal(m.Exercises, &exercises)
	}
	return domain.Category{
		ID:                m.ID,
		Thumbnail:         m.Thumbnail,
		ProgramName:       m.ProgramName,
		WorkoutName:       m.WorkoutName,
		TimeOfFullProgram: m.TimeOfFullProgram,
		Level:             m.Level,
		BurnedCalories:    m.BurnedCalories,
		Exercises:         exercises,
		CreatedAt:         m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func exerciseToModel(ex domain.Exercise) ExerciseModel {
	rawMuscles, _ := json.Marshal(ex.SecondaryMuscles)
	rawInstructions, _ := json.Marshal(ex.Instructions)
	return ExerciseModel{
		ID:               ex.ID,
		NumericID:        ex.NumericID,
		CategoryID:       ex.CategoryID,
		Equipment:        ex.Equipment,
		GifURL:           ex.GifURL,
		Name:             ex.Name,
		Target:           ex.Target,
		SecondaryMuscles: rawMuscles,
		Instructions:     rawInstructions,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
}

func exerciseFromModel(m ExerciseModel) domain.Exercise {
	var muscles, instructions []string
	if len(m.SecondaryMuscles) > 0 {
		_ = json.Unmarshal(m.SecondaryMuscles, &muscles)
	}
	if len(m.Instructions) > 0 {
		_ = json.Unmarshal(m.Instructions, &instructions)
	}
	return domain.Exercise{
		ID:               m.ID,
		NumericID:        m.NumericID,
		CategoryID:       m.CategoryID,
		Equipment:        m.Equipment,
		GifURL:           m.GifURL,
		Name:             m.Name,
		Target:           m.Target,
		SecondaryMuscles: muscles,
		Instructions:     instructions,
	}
}

func foodToModel(f domain.Food) FoodModel {
	return FoodModel{
		ID:        f.ID,
		Name:      f.Name,
		Calories:  f.Calories,
		Protein:   f.Protein,
		Carbs:     f.Carbs,
		Fat:       f.Fat,
		Image:     f.Image,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func foodFromModel(m FoodModel) domain.Food {
	return domain.Food{
		ID:       m.ID,
		Name:     m.Name,
		Calories: m.Calories,
		Protein:  m.Protein,
		Carbs:    m.Carbs,
		Fat:      m.Fat,
		Image:    m.Image,
	}
}

func drinkToModel(d domain.Drink) DrinkModel {
	return DrinkModel{
		ID:        d.ID,
		Name:      d.Name,
		Calories:  d.Calories,
		Protein:   d.Protein,
		Fats:      d.Fats,
		Image:     d.Image,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func drinkFromModel(m DrinkModel) domain.Drink {
	return domain.Drink{
		ID:       m.ID,
		Name:     m.Name,
		Calories: m.Calories,
		Protein:  m.Protein,
		Fats:     m.Fats,
		Image:    m.Image,
	}
}
