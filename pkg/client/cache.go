package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	workoutsCacheFile  = "workout-tracker-data.json"
	favoritesCacheFile = "workout-favorites.json"
)

// LocalCache persists the two client-side snapshots, workout entries and
// favorite exercise ids, as JSON files under a caller-chosen directory.
// Corrupt or missing files read as empty, a cache never fails a read.
type LocalCache struct {
	mu  sync.Mutex
	dir string
}

func NewLocalCache(dir string) (*LocalCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &LocalCache{dir: dir}, nil
}

func (c *LocalCache) Workouts() []Workout {
	c.mu.Lock()
	defer c.mu.Unlock()
	workouts := make([]Workout, 0)
	c.read(workoutsCacheFile, &workouts)
	return workouts
}

func (c *LocalCache) SetWorkouts(workouts []Workout) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.write(workoutsCacheFile, workouts)
}

func (c *LocalCache) AppendWorkout(workout Workout) {
	c.mu.Lock()
	defer c.mu.Unlock()
	workouts := make([]Workout, 0)
	c.read(workoutsCacheFile, &workouts)
	workouts = append(workouts, workout)
	c.write(workoutsCacheFile, workouts)
}

func (c *LocalCache) RemoveWorkout(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	workouts := make([]Workout, 0)
	c.read(workoutsCacheFile, &workouts)
	filtered := workouts[:0]
	for _, w := range workouts {
		if w.ID != id {
			filtered = append(filtered, w)
		}
	}
	c.write(workoutsCacheFile, filtered)
}

func (c *LocalCache) Favorites() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	exerciseIDs := make([]string, 0)
	c.read(favoritesCacheFile, &exerciseIDs)
	return exerciseIDs
}

func (c *LocalCache) SetFavorites(exerciseIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.write(favoritesCacheFile, exerciseIDs)
}

// ToggleFavorite flips the cached marker and reports the new state.
func (c *LocalCache) ToggleFavorite(exerciseID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	exerciseIDs := make([]string, 0)
	c.read(favoritesCacheFile, &exerciseIDs)
	for i, id := range exerciseIDs {
		if id == exerciseID {
			exerciseIDs = append(exerciseIDs[:i], exerciseIDs[i+1:]...)
			c.write(favoritesCacheFile, exerciseIDs)
			return false
		}
	}
	exerciseIDs = append(exerciseIDs, exerciseID)
	c.write(favoritesCacheFile, exerciseIDs)
	return true
}

func (c *LocalCache) read(file string, out any) {
	data, err := os.ReadFile(filepath.Join(c.dir, file))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("read cache %s: %s", file, err)
		}
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Warnf("corrupt cache %s, treating as empty: %s", file, err)
	}
}

func (c *LocalCache) write(file string, in any) {
	data, err := json.Marshal(in)
	if err != nil {
		log.Errorf("marshal cache %s: %s", file, err)
		return
	}
	if err := os.WriteFile(filepath.Join(c.dir, file), data, 0o644); err != nil {
		log.Errorf("write cache %s: %s", file, err)
	}
}
