package favorites

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/2beens/ironlog/internal/auth"
	"github.com/2beens/ironlog/internal/events"
	"github.com/2beens/ironlog/internal/telemetry/metrics"
	"github.com/2beens/ironlog/internal/telemetry/tracing"
	"github.com/2beens/ironlog/pkg"

	log "github.com/sirupsen/logrus"
)

type favoritesRepo interface {
	List(ctx context.Context, ownerID string) ([]string, error)
	Toggle(ctx context.Context, ownerID, exerciseID string) (isFavorite bool, err error)
}

type ToggleFavoriteRequest struct {
	ExerciseID string `json:"exerciseId"`
}

type ToggleFavoriteResponse struct {
	IsFavorite bool   `json:"isFavorite"`
	Message    string `json:"message"`
}

type Handler struct {
	repo      favoritesRepo
	publisher events.Publisher
	metrics   *metrics.Manager
}

func NewHandler(
	repo favoritesRepo,
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
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.favorites.list")
	defer span.End()

	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	exerciseIDs, err := handler.repo.List(ctx, principal.UID)
	if err != nil {
		log.Errorf("list favorites for %s: %s", principal.UID, err)
		http.Error(w, "failed to get favorites", http.StatusInternalServerError)
		return
	}

	exerciseIDsJson, err := json.Marshal(exerciseIDs)
	if err != nil {
		log.Errorf("marshal favorites: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, exerciseIDsJson, http.StatusOK)
}

func (handler *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.favorites.toggle")
	defer span.End()

	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var toggleReq ToggleFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&toggleReq); err != nil {
		log.Tracef("toggle favorite, unmarshal json params: %s", err)
		http.Error(w, "toggle favorite failed", http.StatusBadRequest)
		return
	}
	if toggleReq.ExerciseID == "" {
		http.Error(w, "error, exercise id empty", http.StatusBadRequest)
		return
	}

	isFavorite, err := handler.repo.Toggle(ctx, principal.UID, toggleReq.ExerciseID)
	if err != nil {
		log.Errorf("toggle favorite [%s] for %s: %s", toggleReq.ExerciseID, principal.UID, err)
		http.Error(w, "error, failed to toggle favorite", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterFavoriteToggles.Inc()
	handler.publish(ctx, events.Event{
		Type:       events.TypeFavoriteToggled,
		UserID:     principal.UID,
		ExerciseID: toggleReq.ExerciseID,
		IsFavorite: &isFavorite,
	})

	message := "favorite removed"
	if isFavorite {
		message = "favorite added"
	}
	toggleRespJson, err := json.Marshal(ToggleFavoriteResponse{
		IsFavorite: isFavorite,
		Message:    message,
	})
	if err != nil {
		log.Errorf("failed to marshal toggle response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	log.Debugf("favorite [%s] toggled for %s: %t", toggleReq.ExerciseID, principal.UID, isFavorite)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, toggleRespJson, http.StatusOK)
}

func (handler *Handler) publish(ctx context.Context, event events.Event) {
	if err := handler.publisher.Publish(ctx, event); err != nil {
		// best effort, the request already succeeded
		log.Errorf("publish %s event: %s", event.Type, err)
	}
}
