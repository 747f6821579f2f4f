package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fittrack/internal/events"
	"github.com/2beens/fittrack/internal/exercise"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=workouts_test

const publishTimeout = 3 * time.Second

type workoutsRepo interface {
	Add(ctx context.Context, workout Workout) (*Workout, error)
	Get(ctx context.Context, id string) (*Workout, error)
	Update(ctx context.Context, workout *Workout) error
	ListAll(ctx context.Context, params ListParams) ([]Workout, error)
	Count(ctx context.Context, ownerID string) (int, error)
}

type profileReader interface {
	BodyWeightKg(ctx context.Context, ownerID string) (float64, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type dashboardInvalidator interface {
	Invalidate(ownerID string)
}

type Service struct {
	repo           workoutsRepo
	profiles       profileReader
	publisher      eventPublisher
	invalidator    dashboardInvalidator
	metricsManager *metrics.Manager
	location       *time.Location
	now            func() time.Time
}

type NewServiceParams struct {
	Repo           workoutsRepo
	Profiles       profileReader
	Publisher      eventPublisher
	Invalidator    dashboardInvalidator
	MetricsManager *metrics.Manager
	Location       *time.Location
	Now            func() time.Time
}

func NewService(params NewServiceParams) *Service {
	s := &Service{
		repo:           params.Repo,
		profiles:       params.Profiles,
		publisher:      params.Publisher,
		invalidator:    params.Invalidator,
		metricsManager: params.MetricsManager,
		location:       params.Location,
		now:            params.Now,
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	return s
}

// SetInvalidator wires the dashboard cache after construction; the dashboard
// service lists workouts through this service.
func (s *Service) SetInvalidator(invalidator dashboardInvalidator) {
	s.invalidator = invalidator
}

func (s *Service) today() time.Time {
	return s.now().In(s.location)
}

// Add validates and stores a new workout for the owner. The stored date is
// normalized to YYYY-MM-DD and the duration defaults to "45 min". A missing
// calories value is kept missing and derived on read.
func (s *Service) Add(ctx context.Context, ownerID string, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	workout.ID = ""
	workout.OwnerID = ownerID
	if workout.Duration == "" {
		workout.Duration = exercise.DefaultDurationLabel
	}

	if err := workout.Validate(s.today()); err != nil {
		return nil, err
	}
	date, _ := ParseDate(workout.Date)
	workout.Date = date.Format(DateLayout)

	added, err := s.repo.Add(ctx, workout)
	if err != nil {
		return nil, fmt.Errorf("add workout: %w", err)
	}

	if s.metricsManager != nil {
		s.metricsManager.CounterWorkoutsLogged.Inc()
	}
	s.afterChange(ctx, events.NewWorkoutLoggedEvent(
		ownerID, added.ID, added.ExerciseName, string(exercise.Classify(added.ExerciseName)), added.Date,
	))

	return added, nil
}

// Get returns the workout only if it belongs to the owner.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*Workout, error) {
	workout, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if workout.OwnerID != ownerID {
		return nil, ErrWorkoutNotFound
	}
	return workout, nil
}

// Update applies a partial edit. Calories are always recomputed from the
// edited record and overwrite any previously stored value.
func (s *Service) Update(ctx context.Context, ownerID, id string, patch Patch) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	workout, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	patch.ApplyTo(workout)
	if workout.Duration == "" {
		workout.Duration = exercise.DefaultDurationLabel
	}
	workout.CaloriesBurned = nil
	if err := workout.Validate(s.today()); err != nil {
		return nil, err
	}
	date, _ := ParseDate(workout.Date)
	workout.Date = date.Format(DateLayout)

	calories := exercise.EstimateCalories(
		workout.ExerciseName,
		exercise.DurationMinutes(workout.Duration),
		s.bodyWeightKg(ctx, ownerID),
	)
	workout.CaloriesBurned = &calories

	if err := s.repo.Update(ctx, workout); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update workout: %w", err)
	}

	s.afterChange(ctx, events.NewWorkoutUpdatedEvent(ownerID, workout.ID, calories))

	return workout, nil
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Workout, error) {
	if params.From != "" {
		from, err := ParseDate(params.From)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid from date", ErrInvalidWorkout)
		}
		params.From = from.Format(DateLayout)
	}
	if params.To != "" {
		to, err := ParseDate(params.To)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid to date", ErrInvalidWorkout)
		}
		params.To = to.Format(DateLayout)
	}
	return s.repo.ListAll(ctx, params)
}

// Count returns how many workouts the owner has logged.
func (s *Service) Count(ctx context.Context, ownerID string) (int, error) {
	count, err := s.repo.Count(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("count workouts: %w", err)
	}
	return count, nil
}

func (s *Service) bodyWeightKg(ctx context.Context, ownerID string) float64 {
	if s.profiles == nil {
		return exercise.DefaultBodyWeightKg
	}
	weight, err := s.profiles.BodyWeightKg(ctx, ownerID)
	if err != nil {
		log.Warnf("workouts: body weight of %s not available, using default: %s", ownerID, err)
		return exercise.DefaultBodyWeightKg
	}
	return weight
}

// afterChange drops the cached dashboard and publishes the event. Neither can
// fail the already stored change.
func (s *Service) afterChange(ctx context.Context, event events.Event) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(event.OwnerID)
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(publishCtx, event); err != nil {
		log.Errorf("workouts: publish %s event for %s: %s", event.Type, event.OwnerID, err)
	}
}
