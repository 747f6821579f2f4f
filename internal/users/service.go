package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fittrack/internal/events"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=users_test

const publishTimeout = 3 * time.Second

type usersRepo interface {
	Add(ctx context.Context, user User) (*User, error)
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
}

type eventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type dashboardInvalidator interface {
	Invalidate(ownerID string)
}

type Service struct {
	repo        usersRepo
	publisher   eventPublisher
	invalidator dashboardInvalidator
	// ability to inject password hash func (bcrypt is slow in unit tests)
	HashPasswordFunc func(password string) (string, error)
}

func NewService(repo usersRepo, publisher eventPublisher, invalidator dashboardInvalidator) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:             repo,
		publisher:        publisher,
		invalidator:      invalidator,
		HashPasswordFunc: pkg.HashPassword,
	}
}

// SetInvalidator wires the dashboard cache after construction, since the
// dashboard service itself reads profiles through this service.
func (s *Service) SetInvalidator(invalidator dashboardInvalidator) {
	s.invalidator = invalidator
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.signup")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	passwordHash, err := s.HashPasswordFunc(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.Add(ctx, User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		DisplayName:  req.DisplayName,
		Age:          req.Age,
		HeightCm:     req.HeightCm,
		WeightKg:     req.WeightKg,
		TrainingGoal: req.TrainingGoal,
		Gender:       req.Gender,
	})
}

// Authenticate returns the user with the given credentials. Unknown email
// and wrong password both yield ErrWrongCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrWrongCredentials
		}
		return nil, err
	}

	if !pkg.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrWrongCredentials
	}

	return user, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	return s.repo.Get(ctx, userID)
}

// UpdateProfile applies the patch. A changed body weight is reported as an
// event and drops the cached dashboards, since calorie estimates depend on it.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.updateProfile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	if err := patch.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	previousWeight := user.WeightKg
	patch.ApplyTo(user)
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if user.WeightKg != previousWeight {
		if s.invalidator != nil {
			s.invalidator.Invalidate(userID)
		}

		publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(publishCtx, events.NewWeightReportEvent(userID, user.WeightKg)); err != nil {
			log.Errorf("users: publish weight report for %s: %s", userID, err)
		}
	}

	return user, nil
}

// BodyWeightKg returns the profile weight used for calorie estimation.
func (s *Service) BodyWeightKg(ctx context.Context, userID string) (float64, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.WeightKg, nil
}

func (s *Service) TrainingGoal(ctx context.Context, userID string) (string, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.TrainingGoal, nil
}
