package workouts

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrWorkoutNotFound = errors.New("workout not found")
	ErrInvalidWorkout  = errors.New("invalid workout")

	minWorkoutDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Workout is a single logged exercise entry. Date is the calendar day the
// workout happened on and is the only field used for grouping; CreatedAt is
// only used for display ordering.
type Workout struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"ownerId"`
	Date           string    `json:"date"`
	ExerciseName   string    `json:"exerciseName"`
	WeightKg       *float64  `json:"weightKg,omitempty"`
	Reps           *int      `json:"reps,omitempty"`
	Sets           *int      `json:"sets,omitempty"`
	Duration       string    `json:"duration"`
	CaloriesBurned *int      `json:"caloriesBurned,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Patch holds the editable fields of a workout; nil fields are left as they are.
type Patch struct {
	Date         *string  `json:"date"`
	ExerciseName *string  `json:"exerciseName"`
	WeightKg     *float64 `json:"weightKg"`
	Reps         *int     `json:"reps"`
	Sets         *int     `json:"sets"`
	Duration     *string  `json:"duration"`
}

func (p Patch) IsEmpty() bool {
	return p.Date == nil && p.ExerciseName == nil && p.WeightKg == nil &&
		p.Reps == nil && p.Sets == nil && p.Duration == nil
}

func (p Patch) ApplyTo(w *Workout) {
	if p.Date != nil {
		w.Date = strings.TrimSpace(*p.Date)
	}
	if p.ExerciseName != nil {
		w.ExerciseName = strings.TrimSpace(*p.ExerciseName)
	}
	if p.WeightKg != nil {
		w.WeightKg = p.WeightKg
	}
	if p.Reps != nil {
		w.Reps = p.Reps
	}
	if p.Sets != nil {
		w.Sets = p.Sets
	}
	if p.Duration != nil {
		w.Duration = strings.TrimSpace(*p.Duration)
	}
}

// ParseDate parses a workout date given either as YYYY-MM-DD or as an RFC 3339
// timestamp. The time of day is dropped and the result is midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Validate checks a workout before it is stored. today is the current
// calendar day of the user; workouts in the future are rejected.
func (w *Workout) Validate(today time.Time) error {
	if strings.TrimSpace(w.ExerciseName) == "" {
		return fmt.Errorf("%w: exercise name is required", ErrInvalidWorkout)
	}

	date, err := ParseDate(w.Date)
	if err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidWorkout)
	}
	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if date.After(todayDate) {
		return fmt.Errorf("%w: date cannot be in the future", ErrInvalidWorkout)
	}
	if date.Before(minWorkoutDate) {
		return fmt.Errorf("%w: date cannot be before 1900-01-01", ErrInvalidWorkout)
	}

	if w.WeightKg != nil && *w.WeightKg < 0 {
		return fmt.Errorf("%w: weight cannot be negative", ErrInvalidWorkout)
	}
	if w.Reps != nil && *w.Reps < 1 {
		return fmt.Errorf("%w: reps must be at least 1", ErrInvalidWorkout)
	}
	if w.Sets != nil && *w.Sets < 1 {
		return fmt.Errorf("%w: sets must be at least 1", ErrInvalidWorkout)
	}
	if w.CaloriesBurned != nil && *w.CaloriesBurned < 0 {
		return fmt.Errorf("%w: calories cannot be negative", ErrInvalidWorkout)
	}

	return nil
}
