package workouts

import (
	"errors"
	"time"
)

var (
	ErrWorkoutNotFound = errors.New("workout not found")
	ErrNotOwner        = errors.New("workout belongs to another user")
)

type Set struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

type Workout struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ExerciseID   string    `json:"exerciseId"`
	ExerciseName string    `json:"exerciseName"`
	Category     string    `json:"category"`
	Sets         []Set     `json:"sets"`
	Notes        string    `json:"notes,omitempty"`
	Date         time.Time `json:"date"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate checks the client provided fields. Every set needs at least one
// rep, and weight cannot be negative (bodyweight exercises use 0).
func (w *Workout) Validate() error {
	if w.ExerciseID == "" || w.ExerciseName == "" || w.Category == "" {
		return errors.New("exercise id, name and category are required")
	}
	if len(w.Sets) == 0 {
		return errors.New("at least one set is required")
	}
	for _, set := range w.Sets {
		if set.Reps < 1 {
			return errors.New("set reps must be at least 1")
		}
		if set.Weight < 0 {
			return errors.New("set weight cannot be negative")
		}
	}
	return nil
}
