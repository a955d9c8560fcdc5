package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/ironlog/internal/auth"
	"github.com/2beens/ironlog/internal/events"
	"github.com/2beens/ironlog/internal/telemetry/metrics"
	"github.com/2beens/ironlog/internal/telemetry/tracing"
	"github.com/2beens/ironlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=workouts_mocks_test.go -package=workouts_test

type workoutsRepo interface {
	Add(ctx context.Context, workout Workout) (*Workout, error)
	List(ctx context.Context, ownerID string) ([]Workout, error)
	ListByExercise(ctx context.Context, ownerID, exerciseID string) ([]Workout, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type DeleteWorkoutResponse struct {
	Message string `json:"message"`
}

type Handler struct {
	repo      workoutsRepo
	publisher events.Publisher
	metrics   *metrics.Manager
}

func NewHandler(
	repo workoutsRepo,
	publisher events.Publisher,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:      repo,
		publisher: publisher,
		metrics:   metricsManager,
	}
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	workouts, err := handler.repo.List(ctx, principal.UID)
	if err != nil {
		log.Errorf("list workouts for %s: %s", principal.UID, err)
		http.Error(w, "failed to get workouts", http.StatusInternalServerError)
		return
	}

	workoutsJson, err := json.Marshal(workouts)
	if err != nil {
		log.Errorf("marshal workouts: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutsJson, http.StatusOK)
}

func (handler *Handler) HandleListByExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.listByExercise")
	defer span.End()

	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	exerciseID := vars["exerciseId"]
	if exerciseID == "" {
		http.Error(w, "error, exercise id empty", http.StatusBadRequest)
		return
	}

	workouts, err := handler.repo.ListByExercise(ctx, principal.UID, exerciseID)
	if err != nil {
		log.Errorf("list workouts for %s / exercise %s: %s", principal.UID, exerciseID, err)
		http.Error(w, "failed to get workouts", http.StatusInternalServerError)
		return
	}

	workoutsJson, err := json.Marshal(workouts)
	if err != nil {
		log.Errorf("marshal workouts: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutsJson, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.add")
	defer span.End()

	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var workout Workout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		log.Tracef("new workout, unmarshal json params: %s", err)
		http.Error(w, "add workout failed", http.StatusBadRequest)
		return
	}

	if err := workout.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// ownership comes from the verified principal, never from the body
	workout.UserID = principal.UID

	addedWorkout, err := handler.repo.Add(ctx, workout)
	if err != nil {
		log.Errorf("failed to add new workout [%s] for %s: %s", workout.ExerciseID, principal.UID, err)
		http.Error(w, "error, failed to add new workout", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterWorkoutsAdded.Inc()
	handler.publish(ctx, events.Event{
		Type:       events.TypeWorkoutCreated,
		UserID:     principal.UID,
		WorkoutID:  addedWorkout.ID,
		ExerciseID: addedWorkout.ExerciseID,
	})

	addedWorkoutJson, err := json.Marshal(addedWorkout)
	if err != nil {
		log.Errorf("failed to marshal new workout: %s", err)
		http.Error(w, "error, failed to add new workout", http.StatusInternalServerError)
		return
	}

	log.Debugf("new workout added: %s", addedWorkout.ID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedWorkoutJson, http.StatusCreated)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	err := handler.repo.Delete(ctx, principal.UID, id)
	switch {
	case errors.Is(err, ErrWorkoutNotFound):
		log.Debugf("workout %s not found", id)
		http.Error(w, "workout not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrNotOwner):
		log.Warnf("user %s tried to delete workout %s of another user", principal.UID, id)
		http.Error(w, "no can do", http.StatusForbidden)
		return
	case err != nil:
		log.Errorf("failed to delete workout %s: %s", id, err)
		http.Error(w, "workout not deleted", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterWorkoutsDeleted.Inc()
	handler.publish(ctx, events.Event{
		Type:      events.TypeWorkoutDeleted,
		UserID:    principal.UID,
		WorkoutID: id,
	})

	deleteRespJson, err := json.Marshal(DeleteWorkoutResponse{
		Message: "workout deleted successfully",
	})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}

func (handler *Handler) publish(ctx context.Context, event events.Event) {
	if err := handler.publisher.Publish(ctx, event); err != nil {
		// best effort, the request already succeeded
		log.Errorf("publish %s event: %s", event.Type, err)
	}
}
