package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// CategoryExercise is the embedded workout summary carried inside a Category.
// It shares a name with Exercise but not a schema or an identifier space;
// the two must stay separate types.
type CategoryExercise struct {
	Name           string  `json:"name"`
	Duration       string  `json:"duration"`
	CaloriesBurned float64 `json:"caloriesBurned"`
}

// Category is a workout program category.
type Category struct {
	ID                string             `json:"id,omitempty"`
	Thumbnail         string             `json:"thumbnail"`
	ProgramName       string             `json:"programName"`
	WorkoutName       string             `json:"workoutName"`
	TimeOfFullProgram string             `json:"timeOf_FullProgram"`
	Level             string             `json:"level"`
	BurnedCalories    float64            `json:"burnedCalories"`
	Exercises         []CategoryExercise `json:"exercises"`
	CreatedAt         string             `json:"createdAt,omitempty"`
}

// UnmarshalJSON normalizes the upstream identifier at the decode boundary.
// The remote API emits either "id" or a persistence-layer "_id"; callers
// only ever see the canonical ID field.
func (c *Category) UnmarshalJSON(data []byte) error {
	type alias Category
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.MongoID
	}
	return nil
}

// Exercise is the standalone exercise resource, scoped to one Category
// via CategoryID. It carries two identifiers: the persistence-layer ID
// and a numeric secondary NumericID assigned at creation time.
type Exercise struct {
	ID               string   `json:"_id,omitempty"`
	NumericID        int64    `json:"id,omitempty"`
	CategoryID       string   `json:"categoryId"`
	Equipment        string   `json:"equipment"`
	GifURL           string   `json:"gifUrl"`
	Name             string   `json:"name"`
	Target           string   `json:"target"`
	SecondaryMuscles []string `json:"secondaryMuscles"`
	Instructions     []string `json:"instructions"`
}

// Matches reports whether the exercise answers to the given identifier.
// The persistence ID is checked first, then the stringified numeric ID;
// call sites historically used either form.
func (e Exercise) Matches(id string) bool {
	if id == "" {
		return false
	}
	if e.ID == id {
		return true
	}
	return e.NumericID != 0 && strconv.FormatInt(e.NumericID, 10) == id
}

// Food is a nutrition item.
type Food struct {
	ID       string  `json:"_id,omitempty"`
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs,omitempty"`
	Fat      float64 `json:"fat,omitempty"`
	Image    string  `json:"image,omitempty"`
}

// Matches reports whether the food answers to the given identifier.
func (f Food) Matches(id string) bool {
	return id != "" && f.ID == id
}

// Drink is a nutrition item. Note the field is "fats" here, not "fat";
// the upstream schemas disagree and both are kept as-is.
type Drink struct {
	ID       string  `json:"_id,omitempty"`
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fats     float64 `json:"fats"`
	Image    string  `json:"image,omitempty"`
}

// Matches reports whether the drink answers to the given identifier.
func (d Drink) Matches(id string) bool {
	return id != "" && d.ID == id
}

// User is a dashboard account on the fitness API side.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
