package client

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Source tags where a Storage result came from.
type Source int

const (
	// SourceRemote marks a server confirmed result.
	SourceRemote Source = iota
	// SourceLocalFallback marks a result served or committed from the
	// local cache after a remote failure. Local-only commits are never
	// retried against the server.
	SourceLocalFallback
)

func (s Source) String() string {
	if s == SourceRemote {
		return "remote"
	}
	return "local-fallback"
}

type remoteAPI interface {
	GetWorkouts(ctx context.Context) ([]Workout, error)
	CreateWorkout(ctx context.Context, workout Workout) (*Workout, error)
	DeleteWorkout(ctx context.Context, id string) error
	GetFavorites(ctx context.Context) ([]string, error)
	ToggleFavorite(ctx context.Context, exerciseID string) (bool, error)
}

// Storage routes reads and writes to the remote API and transparently
// degrades to the local cache when the API is unreachable. Reads never
// fail; writes either land on the server (and are mirrored into the
// cache) or are committed locally with a synthesized id.
type Storage struct {
	remote remoteAPI
	cache  *LocalCache
}

func NewStorage(remote remoteAPI, cache *LocalCache) *Storage {
	return &Storage{
		remote: remote,
		cache:  cache,
	}
}

func (s *Storage) GetWorkouts(ctx context.Context) ([]Workout, Source) {
	workouts, err := s.remote.GetWorkouts(ctx)
	if err != nil {
		log.Debugf("get workouts from api: %s; serving cached snapshot", err)
		return s.cache.Workouts(), SourceLocalFallback
	}
	s.cache.SetWorkouts(workouts)
	return workouts, SourceRemote
}

func (s *Storage) SaveWorkout(ctx context.Context, workout Workout) (Workout, Source) {
	created, err := s.remote.CreateWorkout(ctx, workout)
	if err == nil {
		s.cache.AppendWorkout(*created)
		return *created, SourceRemote
	}

	log.Debugf("save workout via api: %s; committing locally", err)
	workout.ID = "local-" + uuid.NewString()
	workout.Date = time.Now()
	workout.CreatedAt = workout.Date
	s.cache.AppendWorkout(workout)
	return workout, SourceLocalFallback
}

func (s *Storage) DeleteWorkout(ctx context.Context, id string) Source {
	if err := s.remote.DeleteWorkout(ctx, id); err != nil {
		log.Debugf("delete workout via api: %s; removing locally", err)
		s.cache.RemoveWorkout(id)
		return SourceLocalFallback
	}
	s.cache.RemoveWorkout(id)
	return SourceRemote
}

func (s *Storage) GetFavorites(ctx context.Context) ([]string, Source) {
	exerciseIDs, err := s.remote.GetFavorites(ctx)
	if err != nil {
		log.Debugf("get favorites from api: %s; serving cached snapshot", err)
		return s.cache.Favorites(), SourceLocalFallback
	}
	s.cache.SetFavorites(exerciseIDs)
	return exerciseIDs, SourceRemote
}

func (s *Storage) ToggleFavorite(ctx context.Context, exerciseID string) (bool, Source) {
	isFavorite, err := s.remote.ToggleFavorite(ctx, exerciseID)
	if err != nil {
		log.Debugf("toggle favorite via api: %s; toggling locally", err)
		return s.cache.ToggleFavorite(exerciseID), SourceLocalFallback
	}

	// mirror the confirmed state instead of blindly flipping, the cache
	// may be behind the server
	s.mirrorFavorite(exerciseID, isFavorite)
	return isFavorite, SourceRemote
}

func (s *Storage) mirrorFavorite(exerciseID string, isFavorite bool) {
	cached := s.cache.Favorites()
	has := false
	for _, id := range cached {
		if id == exerciseID {
			has = true
			break
		}
	}
	if has == isFavorite {
		return
	}
	s.cache.ToggleFavorite(exerciseID)
}
