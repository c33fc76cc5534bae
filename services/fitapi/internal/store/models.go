package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type CategoryModel struct {
	ID                string `gorm:"primaryKey"`
	Thumbnail         string
	ProgramName       string `gorm:"not null"`
	WorkoutName       string
	TimeOfFullProgram string
	Level             string
	BurnedCalories    float64
	Exercises         datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time      `gorm:"not null"`
	UpdatedAt         time.Time
}

type ExerciseModel struct {
	ID               string `gorm:"primaryKey"`
	NumericID        int64  `gorm:"index"`
	CategoryID       string `gorm:"not null;index"`
	Equipment        string
	GifURL           string
	Name             string `gorm:"not null"`
	Target           string
	SecondaryMuscles datatypes.JSON `gorm:"type:jsonb"`
	Instructions     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt        time.Time      `gorm:"not null;index"`
	UpdatedAt        time.Time
}

type FoodModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Calories  float64
	Protein   float64
	Carbs     float64
	Fat       float64
	Image     string
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time
}

type DrinkModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Calories  float64
	Protein   float64
	Fats      float64
	Image     string
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time
}
