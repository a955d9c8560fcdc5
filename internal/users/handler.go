package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/ironlog/internal/auth"
	"github.com/2beens/ironlog/internal/events"
	"github.com/2beens/ironlog/internal/middleware"
	"github.com/2beens/ironlog/internal/telemetry/metrics"
	"github.com/2beens/ironlog/internal/telemetry/tracing"
	"github.com/2beens/ironlog/pkg"

	log "github.com/sirupsen/logrus"
)

type usersRepo interface {
	Create(ctx context.Context, user User) (*User, error)
	Get(ctx context.Context, uid string) (*User, error)
}

type RegisterRequest struct {
	UID      string `json:"uid,omitempty"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

type MeResponse struct {
	User User `json:"user"`
}

type Handler struct {
	repo      usersRepo
	verifier  auth.TokenVerifier
	publisher events.Publisher
	metrics   *metrics.Manager
}

func NewHandler(
	repo usersRepo,
	verifier auth.TokenVerifier,
	publisher events.Publisher,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:      repo,
		verifier:  verifier,
		publisher: publisher,
		metrics:   metricsManager,
	}
}

// HandleRegister mirrors a provider account into the profile store. The
// route is public because the identity provider registers the account
// first, client side; when the request does carry a bearer token the uid
// is taken from the verified principal instead of the body.
func (handler *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.register")
	defer span.End()

	var registerReq RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&registerReq); err != nil {
		log.Tracef("register, unmarshal json params: %s", err)
		http.Error(w, "register failed", http.StatusBadRequest)
		return
	}

	uid := registerReq.UID
	email := registerReq.Email
	username := registerReq.Username

	if token := middleware.BearerToken(r); token != "" {
		principal, err := handler.verifier.Verify(ctx, token)
		if err != nil {
			log.Tracef("register, verify token: %s", err)
			http.Error(w, "no can do", http.StatusUnauthorized)
			return
		}
		if registerReq.UID != "" && registerReq.UID != principal.UID {
			http.Error(w, "error, uid mismatch", http.StatusBadRequest)
			return
		}
		uid = principal.UID
		if email == "" {
			email = principal.Email
		}
	}

	if uid == "" {
		http.Error(w, "error, uid empty", http.StatusBadRequest)
		return
	}
	if email == "" {
		http.Error(w, "error, email empty", http.StatusBadRequest)
		return
	}
	if username == "" {
		username = auth.UsernameFallback(email)
	}

	createdUser, err := handler.repo.Create(ctx, User{
		UID:      uid,
		Email:    email,
		Username: username,
	})
	if err != nil {
		log.Errorf("failed to register user %s: %s", uid, err)
		http.Error(w, "error, failed to register user", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterRegisteredUsers.Inc()
	handler.publish(ctx, events.Event{
		Type:   events.TypeUserRegistered,
		UserID: createdUser.UID,
	})

	registerRespJson, err := json.Marshal(RegisterResponse{
		Message: "user registered successfully",
		User:    *createdUser,
	})
	if err != nil {
		log.Errorf("failed to marshal register response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	log.Debugf("user registered: %s [%s]", createdUser.Username, createdUser.UID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, registerRespJson, http.StatusCreated)
}

func (handler *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.me")
	defer span.End()

	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	user, err := handler.repo.Get(ctx, principal.UID)
	switch {
	case errors.Is(err, ErrUserNotFound):
		log.Debugf("user %s not registered", principal.UID)
		http.Error(w, "user not found", http.StatusNotFound)
		return
	case err != nil:
		log.Errorf("get user %s: %s", principal.UID, err)
		http.Error(w, "failed to get user", http.StatusInternalServerError)
		return
	}

	meRespJson, err := json.Marshal(MeResponse{User: *user})
	if err != nil {
		log.Errorf("failed to marshal me response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, meRespJson, http.StatusOK)
}

func (handler *Handler) publish(ctx context.Context, event events.Event) {
	if err := handler.publisher.Publish(ctx, event); err != nil {
		// best effort, the request already succeeded
		log.Errorf("publish %s event: %s", event.Type, err)
	}
}
