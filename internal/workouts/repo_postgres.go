package workouts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/ironlog/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{
		db: db,
	}
}

func (r *PostgresRepo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	workout.ID = uuid.NewString()
	workout.CreatedAt = time.Now()
	if workout.Date.IsZero() {
		workout.Date = workout.CreatedAt
	}

	setsJson, err := json.Marshal(workout.Sets)
	if err != nil {
		return nil, fmt.Errorf("marshal sets: %w", err)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO workout
				(id, user_id, exercise_id, exercise_name, category, sets, notes, date, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
		workout.ID, workout.UserID, workout.ExerciseID, workout.ExerciseName,
		workout.Category, setsJson, workout.Notes, workout.Date, workout.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("workout.id", workout.ID))

	return &workout, nil
}

// List returns all workouts of the given user, newest first.
func (r *PostgresRepo) List(ctx context.Context, ownerID string) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, user_id, exercise_id, exercise_name, category, sets, notes, date, created_at
			FROM workout
			WHERE user_id = $1
			ORDER BY date DESC;`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return r.rows2workouts(rows)
}

// ListByExercise returns the per-exercise history of the given user, oldest
// first (chronological reading, the opposite of the general feed).
func (r *PostgresRepo) ListByExercise(ctx context.Context, ownerID, exerciseID string) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listByExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner.id", ownerID))
	span.SetAttributes(attribute.String("exercise.id", exerciseID))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, user_id, exercise_id, exercise_name, category, sets, notes, date, created_at
			FROM workout
			WHERE user_id = $1 AND exercise_id = $2
			ORDER BY date ASC;`,
		ownerID, exerciseID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return r.rows2workouts(rows)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, user_id, exercise_id, exercise_name, category, sets, notes, date, created_at
			FROM workout
			WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, err
	}

	if len(workouts) != 1 {
		return nil, ErrWorkoutNotFound
	}

	return &workouts[0], nil
}

// Delete removes the workout, but only when it belongs to ownerID. A missing
// record and a non-owned record are distinct outcomes.
func (r *PostgresRepo) Delete(ctx context.Context, ownerID, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	workout, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if workout.UserID != ownerID {
		return ErrNotOwner
	}

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout WHERE id = $1 AND user_id = $2;`,
		id, ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func (r *PostgresRepo) rows2workouts(rows pgx.Rows) ([]Workout, error) {
	var workouts []Workout
	for rows.Next() {
		var w Workout
		var setsBytes []byte
		if err := rows.Scan(
			&w.ID, &w.UserID, &w.ExerciseID, &w.ExerciseName,
			&w.Category, &setsBytes, &w.Notes, &w.Date, &w.CreatedAt,
		); err != nil {
			return nil, err
		}

		if err := json.Unmarshal(setsBytes, &w.Sets); err != nil {
			return nil, fmt.Errorf("unmarshal sets for workout %s: %w", w.ID, err)
		}

		workouts = append(workouts, w)
	}

	if workouts == nil {
		workouts = make([]Workout, 0)
	}

	return workouts, nil
}
