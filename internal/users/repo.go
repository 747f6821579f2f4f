package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const userColumns = `id, email, password_hash, display_name, age, height_cm, weight_kg, training_goal, gender, created_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	row := r.db.QueryRow(
		ctx,
		`INSERT INTO app_user
				(id, email, password_hash, display_name, age, height_cm, weight_kg, training_goal, gender)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at;`,
		user.ID, user.Email, user.PasswordHash, user.DisplayName,
		user.Age, user.HeightCm, user.WeightKg, user.TrainingGoal, user.Gender,
	)
	if err := row.Scan(&user.CreatedAt); err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &user, nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUserNotFound
	}

	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE id = $1;`, id)
	return scanUser(row)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByEmail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE email = $1;`, email)
	return scanUser(row)
}

func (r *Repo) Update(ctx context.Context, user *User) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", user.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE app_user
			SET display_name = $1, age = $2, height_cm = $3, weight_kg = $4, training_goal = $5, gender = $6
			WHERE id = $7;`,
		user.DisplayName, user.Age, user.HeightCm, user.WeightKg, user.TrainingGoal, user.Gender, user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Age,
		&user.HeightCm,
		&user.WeightKg,
		&user.TrainingGoal,
		&user.Gender,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
