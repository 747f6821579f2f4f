package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/2beens/fittrack/internal/exercise"
	"github.com/2beens/fittrack/internal/progress"
	"github.com/2beens/fittrack/internal/workouts"
)

type dashboardReader interface {
	Dashboard(ctx context.Context, ownerID string, metric progress.Metric) (*progress.Summary, error)
}

type workoutsLister interface {
	List(ctx context.Context, params workouts.ListParams) ([]workouts.Workout, error)
}

type profileReader interface {
	BodyWeightKg(ctx context.Context, ownerID string) (float64, error)
}

// contextService is what the tool handlers need; kept as an interface for tests.
type contextService interface {
	Dashboard(ctx context.Context, metric progress.Metric) (*progress.Summary, error)
	ListWorkouts(ctx context.Context, from, to string) ([]workouts.Workout, error)
	EstimateCalories(ctx context.Context, exerciseName string, durationMinutes, bodyWeightKg float64) (*CaloriesEstimate, error)
}

type ExerciseClassification struct {
	Name  string               `json:"name"`
	Group exercise.MuscleGroup `json:"group"`
	MET   float64              `json:"met"`
}

type CaloriesEstimate struct {
	ExerciseClassification
	DurationMinutes float64 `json:"durationMinutes"`
	BodyWeightKg    float64 `json:"bodyWeightKg"`
	Calories        int     `json:"calories"`
}

// ContextService answers tool calls on behalf of a single owner.
type ContextService struct {
	ownerID   string
	dashboard dashboardReader
	workouts  workoutsLister
	profiles  profileReader
}

func NewContextService(ownerID string, dashboard dashboardReader, lister workoutsLister, profiles profileReader) *ContextService {
	return &ContextService{
		ownerID:   ownerID,
		dashboard: dashboard,
		workouts:  lister,
		profiles:  profiles,
	}
}

func (s *ContextService) Dashboard(ctx context.Context, metric progress.Metric) (*progress.Summary, error) {
	if !metric.IsValid() {
		return nil, fmt.Errorf("unknown metric %q", metric)
	}
	return s.dashboard.Dashboard(ctx, s.ownerID, metric)
}

func (s *ContextService) ListWorkouts(ctx context.Context, from, to string) ([]workouts.Workout, error) {
	return s.workouts.List(ctx, workouts.ListParams{
		OwnerID: s.ownerID,
		From:    from,
		To:      to,
	})
}

// EstimateCalories uses the owner's profile weight when bodyWeightKg is not
// given, and the default weight when the profile cannot be read.
func (s *ContextService) EstimateCalories(
	ctx context.Context,
	exerciseName string,
	durationMinutes, bodyWeightKg float64,
) (*CaloriesEstimate, error) {
	exerciseName = strings.TrimSpace(exerciseName)
	if exerciseName == "" {
		return nil, fmt.Errorf("exercise name empty")
	}

	if bodyWeightKg <= 0 && s.profiles != nil {
		if weight, err := s.profiles.BodyWeightKg(ctx, s.ownerID); err == nil {
			bodyWeightKg = weight
		}
	}
	if bodyWeightKg <= 0 {
		bodyWeightKg = exercise.DefaultBodyWeightKg
	}
	if durationMinutes <= 0 {
		durationMinutes = exercise.DefaultDurationMinutes
	}

	return &CaloriesEstimate{
		ExerciseClassification: Classify(exerciseName),
		DurationMinutes:        durationMinutes,
		BodyWeightKg:           bodyWeightKg,
		Calories:               exercise.EstimateCalories(exerciseName, durationMinutes, bodyWeightKg),
	}, nil
}

func Classify(exerciseName string) ExerciseClassification {
	group := exercise.Classify(exerciseName)
	return ExerciseClassification{
		Name:  exerciseName,
		Group: group,
		MET:   exercise.MET(group),
	}
}
