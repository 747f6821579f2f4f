package workouts

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

// ListParams filters the workouts of one owner. From and To are inclusive
// YYYY-MM-DD bounds on the workout date; empty means unbounded.
type ListParams struct {
	OwnerID string
	From    string
	To      string
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if workout.ID == "" {
		workout.ID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("workout.id", workout.ID))

	row := r.db.QueryRow(
		ctx,
		`INSERT INTO workout
				(id, owner_id, workout_date, exercise_name, weight_kg, reps, sets, duration_label, calories_burned)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at;`,
		workout.ID, workout.OwnerID, workout.Date, workout.ExerciseName,
		workout.WeightKg, workout.Reps, workout.Sets, workout.Duration, workout.CaloriesBurned,
	)
	if err := row.Scan(&workout.CreatedAt); err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, fmt.Errorf("%w: unknown owner %s", ErrInvalidWorkout, workout.OwnerID)
		}
		return nil, fmt.Errorf("insert workout: %w", err)
	}

	return &workout, nil
}

func (r *Repo) Update(ctx context.Context, workout *Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", workout.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout SET
				workout_date = $1, exercise_name = $2, weight_kg = $3, reps = $4, sets = $5,
				duration_label = $6, calories_burned = $7
			WHERE id = $8 AND owner_id = $9;`,
		workout.Date, workout.ExerciseName, workout.WeightKg, workout.Reps, workout.Sets,
		workout.Duration, workout.CaloriesBurned,
		workout.ID, workout.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update workout: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}

	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrWorkoutNotFound
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT
				id, owner_id, workout_date, exercise_name, weight_kg, reps, sets,
				duration_label, calories_burned, created_at
			FROM workout
			WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts, err := rows2workouts(rows)
	if err != nil {
		return nil, err
	}

	if len(workouts) != 1 {
		return nil, ErrWorkoutNotFound
	}

	return &workouts[0], nil
}

// ListAll returns all workouts of the owner, most recently created first.
func (r *Repo) ListAll(ctx context.Context, params ListParams) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner.id", params.OwnerID))
	span.SetAttributes(attribute.String("from", params.From))
	span.SetAttributes(attribute.String("to", params.To))

	rows, err := r.db.Query(
		ctx,
		`SELECT
				id, owner_id, workout_date, exercise_name, weight_kg, reps, sets,
				duration_label, calories_burned, created_at
			FROM workout
				WHERE owner_id = $1
				AND ($2::text = '' OR workout_date >= $2)
				AND ($3::text = '' OR workout_date <= $3)
			ORDER BY created_at DESC;`,
		params.OwnerID, params.From, params.To,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	workouts, err := rows2workouts(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2workouts: %w", err)
	}
	return workouts, nil
}

func (r *Repo) Count(ctx context.Context, ownerID string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	if err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM workout WHERE owner_id = $1;`,
		ownerID,
	).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

func rows2workouts(rows pgx.Rows) ([]Workout, error) {
	var workouts []Workout
	for rows.Next() {
		var w Workout
		if err := rows.Scan(
			&w.ID, &w.OwnerID, &w.Date, &w.ExerciseName, &w.WeightKg, &w.Reps, &w.Sets,
			&w.Duration, &w.CaloriesBurned, &w.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return workouts, nil
}
