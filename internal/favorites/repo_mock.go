package favorites

import (
	"context"
	"sort"
)

type repoMock struct {
	// ownerID -> set of exercise ids
	markers map[string]map[string]struct{}
}

func NewMockFavoritesRepo() *repoMock {
	return &repoMock{
		markers: make(map[string]map[string]struct{}),
	}
}

func (r *repoMock) List(_ context.Context, ownerID string) ([]string, error) {
	exerciseIDs := make([]string, 0)
	for exerciseID := range r.markers[ownerID] {
		exerciseIDs = append(exerciseIDs, exerciseID)
	}
	sort.Strings(exerciseIDs)
	return exerciseIDs, nil
}

func (r *repoMock) Toggle(_ context.Context, ownerID, exerciseID string) (bool, error) {
	if r.markers[ownerID] == nil {
		r.markers[ownerID] = make(map[string]struct{})
	}
	if _, ok := r.markers[ownerID][exerciseID]; ok {
		delete(r.markers[ownerID], exerciseID)
		return false, nil
	}
	r.markers[ownerID][exerciseID] = struct{}{}
	return true, nil
}
