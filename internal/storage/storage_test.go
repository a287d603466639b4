package storage

import (
	"sync"
	"testing"

	"github.com/in4it/ecs-describe/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestDetailStore_Reset(t *testing.T) {
	store := NewDetailStore()
	store.SetService("", &models.RunningService{ServiceName: "stale"})

	store.Reset("web")

	snapshot := store.Snapshot()
	assert.Equal(t, "web", snapshot.ServiceName)
	assert.Nil(t, snapshot.Service)
	assert.Nil(t, snapshot.Versions)
}

func TestDetailStore_SetServiceIgnoresOtherName(t *testing.T) {
	store := NewDetailStore()
	store.Reset("web")

	updated := store.SetService("worker", &models.RunningService{ServiceName: "worker"})
	assert.False(t, updated)
	assert.Nil(t, store.Snapshot().Service)

	updated = store.SetService("web", &models.RunningService{ServiceName: "web", DesiredCount: 2})
	assert.True(t, updated)
	assert.Equal(t, int64(2), store.Snapshot().Service.DesiredCount)
}

func TestDetailStore_SnapshotIsIsolated(t *testing.T) {
	store := NewDetailStore()
	store.Reset("web")
	store.SetService("web", &models.RunningService{
		ServiceName: "web",
		Events:      []models.RunningServiceEvent{{ID: "1", Message: "steady state"}},
	})
	store.SetVersions("web", []models.ServiceVersion{{ImageName: "web", Tag: "v1"}})

	snapshot := store.Snapshot()
	snapshot.Service.Events[0].Message = "changed"
	snapshot.Versions[0].Tag = "v2"

	fresh := store.Snapshot()
	assert.Equal(t, "steady state", fresh.Service.Events[0].Message)
	assert.Equal(t, "v1", fresh.Versions[0].Tag)
}

func TestDetailStore_ConcurrentAccess(t *testing.T) {
	store := NewDetailStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Reset("web")
			store.SetVersions("web", []models.ServiceVersion{{Tag: "latest"}})
		}()
		go func() {
			defer wg.Done()
			_ = store.Snapshot()
			_ = store.ServiceName()
		}()
	}
	wg.Wait()

	assert.Equal(t, "web", store.ServiceName())
}

func TestDetailStore_WithLockPropagatesError(t *testing.T) {
	store := NewDetailStore()
	store.Reset("web")

	err := store.WithLock(func() error {
		store.Detail.Versions = []models.ServiceVersion{{Tag: "v1"}}
		return errSuperseded
	})
	assert.ErrorIs(t, err, errSuperseded)

	var name string
	err = store.WithRLock(func() error {
		name = store.Detail.ServiceName
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "web", name)
	assert.Len(t, store.Snapshot().Versions, 1)
}
