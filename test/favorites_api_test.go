package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/2beens/ironlog/internal/favorites"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) deleteAllFavorites(ctx context.Context) {
	_, err := s.dbPool.Exec(ctx, "DELETE FROM favorite")
	require.NoError(s.T(), err)
}

func (s *IntegrationTestSuite) toggleFavoriteRequest(
	ctx context.Context,
	token, exerciseID string,
) favorites.ToggleFavoriteResponse {
	toggleJson, err := json.Marshal(favorites.ToggleFavoriteRequest{
		ExerciseID: exerciseID,
	})
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"POST", fmt.Sprintf("%s/api/favorites/toggle", serverEndpoint),
		bytes.NewReader(toggleJson),
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var toggleResp favorites.ToggleFavoriteResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &toggleResp))

	return toggleResp
}

func (s *IntegrationTestSuite) getFavoritesRequest(ctx context.Context, token string) []string {
	req, err := http.NewRequestWithContext(
		ctx,
		"GET", fmt.Sprintf("%s/api/favorites", serverEndpoint),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var favoriteIDs []string
	require.NoError(s.T(), json.Unmarshal(respBytes, &favoriteIDs))

	return favoriteIDs
}

func (s *IntegrationTestSuite) TestFavorites_ToggleAndList() {
	ctx := context.Background()
	s.deleteAllFavorites(ctx)

	token := testToken(s.T(), "favorites-user-1", "fu1@ironlog.test", "")
	otherToken := testToken(s.T(), "favorites-user-2", "fu2@ironlog.test", "")

	toggleResp := s.toggleFavoriteRequest(ctx, token, "squat")
	assert.True(s.T(), toggleResp.IsFavorite)

	toggleResp = s.toggleFavoriteRequest(ctx, token, "bench-press")
	assert.True(s.T(), toggleResp.IsFavorite)

	favoriteIDs := s.getFavoritesRequest(ctx, token)
	assert.Equal(s.T(), []string{"squat", "bench-press"}, favoriteIDs)

	// favorites are per user
	assert.Empty(s.T(), s.getFavoritesRequest(ctx, otherToken))

	// second toggle removes
	toggleResp = s.toggleFavoriteRequest(ctx, token, "squat")
	assert.False(s.T(), toggleResp.IsFavorite)

	favoriteIDs = s.getFavoritesRequest(ctx, token)
	assert.Equal(s.T(), []string{"bench-press"}, favoriteIDs)

	// toggling back on appends at the end again
	toggleResp = s.toggleFavoriteRequest(ctx, token, "squat")
	assert.True(s.T(), toggleResp.IsFavorite)

	favoriteIDs = s.getFavoritesRequest(ctx, token)
	assert.Equal(s.T(), []string{"bench-press", "squat"}, favoriteIDs)
}

func (s *IntegrationTestSuite) TestFavorites_ToggleEmptyExercise() {
	ctx := context.Background()

	token := testToken(s.T(), "favorites-user-3", "fu3@ironlog.test", "")

	toggleJson, err := json.Marshal(favorites.ToggleFavoriteRequest{})
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"POST", fmt.Sprintf("%s/api/favorites/toggle", serverEndpoint),
		bytes.NewReader(toggleJson),
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	resp.Body.Close()
	assert.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)
}
