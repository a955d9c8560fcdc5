package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2beens/ironlog/internal/workouts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) deleteAllWorkouts(ctx context.Context) {
	_, err := s.dbPool.Exec(ctx, "DELETE FROM workout")
	require.NoError(s.T(), err)
}

func (s *IntegrationTestSuite) addWorkoutRequest(
	ctx context.Context,
	token string,
	workout workouts.Workout,
) workouts.Workout {
	workoutJson, err := json.Marshal(workout)
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"POST", fmt.Sprintf("%s/api/workouts", serverEndpoint),
		bytes.NewReader(workoutJson),
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var addedWorkout workouts.Workout
	require.NoError(s.T(), json.Unmarshal(respBytes, &addedWorkout))

	return addedWorkout
}

func (s *IntegrationTestSuite) getWorkoutsRequest(ctx context.Context, token, path string) []workouts.Workout {
	req, err := http.NewRequestWithContext(
		ctx,
		"GET", fmt.Sprintf("%s%s", serverEndpoint, path),
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

	var gotWorkouts []workouts.Workout
	require.NoError(s.T(), json.Unmarshal(respBytes, &gotWorkouts))

	return gotWorkouts
}

func (s *IntegrationTestSuite) deleteWorkoutRequest(ctx context.Context, token, id string) *http.Response {
	req, err := http.NewRequestWithContext(
		ctx,
		"DELETE", fmt.Sprintf("%s/api/workouts/%s", serverEndpoint, id),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	resp.Body.Close()

	return resp
}

func (s *IntegrationTestSuite) TestWorkouts_AddListDelete() {
	ctx := context.Background()
	s.deleteAllWorkouts(ctx)

	token := testToken(s.T(), "workouts-user-1", "wu1@ironlog.test", "")
	otherToken := testToken(s.T(), "workouts-user-2", "wu2@ironlog.test", "")

	now := time.Now()
	oldSquat := s.addWorkoutRequest(ctx, token, workouts.Workout{
		ExerciseID:   "squat",
		ExerciseName: "Squat",
		Category:     "legs",
		Sets:         []workouts.Set{{Reps: 5, Weight: 100}},
		Date:         now.Add(-48 * time.Hour),
	})
	bench := s.addWorkoutRequest(ctx, token, workouts.Workout{
		ExerciseID:   "bench-press",
		ExerciseName: "Bench Press",
		Category:     "chest",
		Sets:         []workouts.Set{{Reps: 8, Weight: 60}, {Reps: 6, Weight: 65}},
		Date:         now.Add(-24 * time.Hour),
	})
	newSquat := s.addWorkoutRequest(ctx, token, workouts.Workout{
		ExerciseID:   "squat",
		ExerciseName: "Squat",
		Category:     "legs",
		Sets:         []workouts.Set{{Reps: 5, Weight: 105}},
		Date:         now,
	})

	require.NotEmpty(s.T(), oldSquat.ID)
	assert.Equal(s.T(), "workouts-user-1", oldSquat.UserID)

	// feed: newest first
	feed := s.getWorkoutsRequest(ctx, token, "/api/workouts")
	require.Len(s.T(), feed, 3)
	assert.Equal(s.T(), newSquat.ID, feed[0].ID)
	assert.Equal(s.T(), bench.ID, feed[1].ID)
	assert.Equal(s.T(), oldSquat.ID, feed[2].ID)

	// exercise history: oldest first
	history := s.getWorkoutsRequest(ctx, token, "/api/workouts/exercise/squat")
	require.Len(s.T(), history, 2)
	assert.Equal(s.T(), oldSquat.ID, history[0].ID)
	assert.Equal(s.T(), newSquat.ID, history[1].ID)

	// another user sees nothing and cannot delete
	otherFeed := s.getWorkoutsRequest(ctx, otherToken, "/api/workouts")
	assert.Empty(s.T(), otherFeed)

	resp := s.deleteWorkoutRequest(ctx, otherToken, bench.ID)
	assert.Equal(s.T(), http.StatusForbidden, resp.StatusCode)

	resp = s.deleteWorkoutRequest(ctx, token, "no-such-workout")
	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)

	resp = s.deleteWorkoutRequest(ctx, token, bench.ID)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	feed = s.getWorkoutsRequest(ctx, token, "/api/workouts")
	require.Len(s.T(), feed, 2)
	for _, workout := range feed {
		assert.NotEqual(s.T(), bench.ID, workout.ID)
	}
}

func (s *IntegrationTestSuite) TestWorkouts_InvalidInput() {
	ctx := context.Background()

	token := testToken(s.T(), "workouts-user-3", "wu3@ironlog.test", "")

	workoutJson, err := json.Marshal(workouts.Workout{
		ExerciseID:   "deadlift",
		ExerciseName: "Deadlift",
		Category:     "back",
		// no sets
	})
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"POST", fmt.Sprintf("%s/api/workouts", serverEndpoint),
		bytes.NewReader(workoutJson),
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

func (s *IntegrationTestSuite) TestWorkouts_NoToken() {
	ctx := context.Background()

	req, err := http.NewRequestWithContext(
		ctx,
		"GET", fmt.Sprintf("%s/api/workouts", serverEndpoint),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	resp.Body.Close()
	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
}
