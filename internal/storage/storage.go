package storage

import (
	"errors"
	"sync"

	"github.com/in4it/ecs-describe/pkg/models"
)

var errSuperseded = errors.New("detail belongs to another service")

// DetailStore is an in-memory holder for the service detail currently being described.
type DetailStore struct {
	Detail *models.ServiceDetail // Detail being populated, replaced on every Reset
	mu     sync.RWMutex          // Mutex to handle concurrent access safely
}

// NewDetailStore returns a store holding an empty detail.
func NewDetailStore() *DetailStore {
	return &DetailStore{
		Detail: models.NewServiceDetail(""),
	}
}

// WithLock executes fn while holding the write lock.
func (s *DetailStore) WithLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// WithRLock executes fn while holding the read lock.
func (s *DetailStore) WithRLock(fn func() error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}

// Reset replaces the held detail with a fresh one for serviceName.
func (s *DetailStore) Reset(serviceName string) {
	_ = s.WithLock(func() error {
		s.Detail = models.NewServiceDetail(serviceName)
		return nil
	})
}

// SetService stores the descriptor if serviceName still matches the held detail.
// It reports whether the detail was updated.
func (s *DetailStore) SetService(serviceName string, service *models.RunningService) bool {
	return s.WithLock(func() error {
		if s.Detail.ServiceName != serviceName {
			return errSuperseded
		}
		s.Detail.Service = service
		return nil
	}) == nil
}

// SetVersions stores the version list if serviceName still matches the held detail.
func (s *DetailStore) SetVersions(serviceName string, versions []models.ServiceVersion) bool {
	return s.WithLock(func() error {
		if s.Detail.ServiceName != serviceName {
			return errSuperseded
		}
		s.Detail.Versions = versions
		return nil
	}) == nil
}

// ServiceName returns the name of the held detail.
func (s *DetailStore) ServiceName() string {
	var name string
	_ = s.WithRLock(func() error {
		name = s.Detail.ServiceName
		return nil
	})
	return name
}

// Snapshot returns a deep copy of the held detail.
func (s *DetailStore) Snapshot() *models.ServiceDetail {
	var snapshot *models.ServiceDetail
	_ = s.WithRLock(func() error {
		snapshot = s.Detail.Copy()
		return nil
	})
	return snapshot
}
