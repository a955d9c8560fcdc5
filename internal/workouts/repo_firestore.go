package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/ironlog/internal/telemetry/tracing"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const workoutsCollection = "workouts"

// workoutDoc is the firestore representation of a workout entry.
type workoutDoc struct {
	UserID       string    `firestore:"userId"`
	ExerciseID   string    `firestore:"exerciseId"`
	ExerciseName string    `firestore:"exerciseName"`
	Category     string    `firestore:"category"`
	Sets         []Set     `firestore:"sets"`
	Notes        string    `firestore:"notes"`
	Date         time.Time `firestore:"date"`
	CreatedAt    time.Time `firestore:"createdAt"`
}

func (d workoutDoc) toWorkout(id string) Workout {
	return Workout{
		ID:           id,
		UserID:       d.UserID,
		ExerciseID:   d.ExerciseID,
		ExerciseName: d.ExerciseName,
		Category:     d.Category,
		Sets:         d.Sets,
		Notes:        d.Notes,
		Date:         d.Date,
		CreatedAt:    d.CreatedAt,
	}
}

type FirestoreRepo struct {
	client *firestore.Client
}

func NewFirestoreRepo(client *firestore.Client) *FirestoreRepo {
	return &FirestoreRepo{
		client: client,
	}
}

func (r *FirestoreRepo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.fs.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	workout.ID = uuid.NewString()
	workout.CreatedAt = time.Now()
	if workout.Date.IsZero() {
		workout.Date = workout.CreatedAt
	}

	doc := workoutDoc{
		UserID:       workout.UserID,
		ExerciseID:   workout.ExerciseID,
		ExerciseName: workout.ExerciseName,
		Category:     workout.Category,
		Sets:         workout.Sets,
		Notes:        workout.Notes,
		Date:         workout.Date,
		CreatedAt:    workout.CreatedAt,
	}

	if _, err := r.client.Collection(workoutsCollection).Doc(workout.ID).Set(ctx, doc); err != nil {
		return nil, fmt.Errorf("set workout doc: %w", err)
	}

	span.SetAttributes(attribute.String("workout.id", workout.ID))

	return &workout, nil
}

func (r *FirestoreRepo) List(ctx context.Context, ownerID string) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.fs.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	query := r.client.Collection(workoutsCollection).
		Where("userId", "==", ownerID).
		OrderBy("date", firestore.Desc)

	return r.queryWorkouts(ctx, query)
}

func (r *FirestoreRepo) ListByExercise(ctx context.Context, ownerID, exerciseID string) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.fs.listByExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner.id", ownerID))
	span.SetAttributes(attribute.String("exercise.id", exerciseID))

	query := r.client.Collection(workoutsCollection).
		Where("userId", "==", ownerID).
		Where("exerciseId", "==", exerciseID).
		OrderBy("date", firestore.Asc)

	return r.queryWorkouts(ctx, query)
}

func (r *FirestoreRepo) Get(ctx context.Context, id string) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.fs.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	snapshot, err := r.client.Collection(workoutsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}

	var doc workoutDoc
	if err := snapshot.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("read workout doc %s: %w", id, err)
	}

	workout := doc.toWorkout(snapshot.Ref.ID)
	return &workout, nil
}

func (r *FirestoreRepo) Delete(ctx context.Context, ownerID, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.fs.delete")
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

	if _, err := r.client.Collection(workoutsCollection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete workout doc: %w", err)
	}
	return nil
}

func (r *FirestoreRepo) queryWorkouts(ctx context.Context, query firestore.Query) ([]Workout, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	workouts := make([]Workout, 0)
	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate workout docs: %w", err)
		}

		var doc workoutDoc
		if err := snapshot.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("read workout doc %s: %w", snapshot.Ref.ID, err)
		}
		workouts = append(workouts, doc.toWorkout(snapshot.Ref.ID))
	}

	return workouts, nil
}
