// Package client is the data-access layer used by ironlog frontends: a
// typed wrapper around the REST API plus a file backed local cache, combined
// by Storage into an offline-first interface.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TokenProvider supplies the bearer token attached to every request.
// Invalidate is called when the server rejects the token, so the provider
// can drop a stale remembered credential.
type TokenProvider interface {
	Token() string
	Invalidate()
}

// StaticToken is a TokenProvider for a fixed token, mostly for tests and
// one-shot tools.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }
func (StaticToken) Invalidate()     {}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error [%d]: %s", e.StatusCode, e.Message)
}

type User struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

type Set struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

type Workout struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ExerciseID   string    `json:"exerciseId"`
	ExerciseName string    `json:"exerciseName"`
	Category     string    `json:"category"`
	Sets         []Set     `json:"sets"`
	Notes        string    `json:"notes,omitempty"`
	Date         time.Time `json:"date"`
	CreatedAt    time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	UID      string `json:"uid,omitempty"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

type registerResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

type meResponse struct {
	User User `json:"user"`
}

type toggleFavoriteResponse struct {
	IsFavorite bool   `json:"isFavorite"`
	Message    string `json:"message"`
}

type Client struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
}

func New(baseURL string, tokens TokenProvider) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
	}
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var resp registerResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp meResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) GetWorkouts(ctx context.Context) ([]Workout, error) {
	var workouts []Workout
	if err := c.do(ctx, http.MethodGet, "/api/workouts", nil, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *Client) GetWorkoutsByExercise(ctx context.Context, exerciseID string) ([]Workout, error) {
	var workouts []Workout
	if err := c.do(ctx, http.MethodGet, "/api/workouts/exercise/"+exerciseID, nil, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *Client) CreateWorkout(ctx context.Context, workout Workout) (*Workout, error) {
	var created Workout
	if err := c.do(ctx, http.MethodPost, "/api/workouts", workout, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteWorkout(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/workouts/"+id, nil, nil)
}

func (c *Client) GetFavorites(ctx context.Context) ([]string, error) {
	var exerciseIDs []string
	if err := c.do(ctx, http.MethodGet, "/api/favorites", nil, &exerciseIDs); err != nil {
		return nil, err
	}
	return exerciseIDs, nil
}

func (c *Client) ToggleFavorite(ctx context.Context, exerciseID string) (bool, error) {
	var resp toggleFavoriteResponse
	err := c.do(ctx, http.MethodPost, "/api/favorites/toggle", map[string]string{
		"exerciseId": exerciseID,
	}, &resp)
	if err != nil {
		return false, err
	}
	return resp.IsFavorite, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(bodyJson)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "IronLog/1.0")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			// the remembered token is stale, drop it
			c.tokens.Invalidate()
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBody)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
