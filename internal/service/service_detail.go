package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/in4it/ecs-describe/internal/api"
	"github.com/in4it/ecs-describe/internal/storage"
	"github.com/in4it/ecs-describe/pkg/models"
	"go.uber.org/zap"
)

// ErrNoServiceSelected is returned by GetVersions before any GetServiceDetail call.
var ErrNoServiceSelected = errors.New("no service selected")

// ErrServiceChanged is returned when a fetch is superseded by a request for another service.
var ErrServiceChanged = errors.New("service detail was reset for another service")

// DetailResult is the single value delivered on a GetServiceDetail channel.
type DetailResult struct {
	Detail *models.ServiceDetail
	Err    error
}

// ServiceDetailServiceInterface defines the operations used by callers that display a service.
type ServiceDetailServiceInterface interface {
	GetServiceDetail(ctx context.Context, serviceName string) <-chan DetailResult
	GetServices(ctx context.Context, serviceName string) error
	GetVersions(ctx context.Context) ([]models.ServiceVersion, error)
	Describe(ctx context.Context, serviceName string) (*models.ServiceDetail, error)
	ListServices(ctx context.Context) ([]models.RunningService, error)
	Current() *models.ServiceDetail
}

// ServiceDetailService fetches a service and its versions and keeps the result as shared state.
type ServiceDetailService struct {
	API    api.DescribeAPIInterface
	Store  *storage.DetailStore
	auth   api.AuthMiddleware
	logger *zap.Logger
}

// NewServiceDetailService creates a ServiceDetailService with the given API client and auth middleware.
func NewServiceDetailService(describeAPI api.DescribeAPIInterface, authMiddleware api.AuthMiddleware, store *storage.DetailStore, logger *zap.Logger) *ServiceDetailService {
	return &ServiceDetailService{
		API:    describeAPI,
		Store:  store,
		auth:   authMiddleware,
		logger: logger,
	}
}

// GetServiceDetail resets the shared detail to serviceName and starts fetching it.
// The returned channel delivers exactly one result and is then closed.
func (s *ServiceDetailService) GetServiceDetail(ctx context.Context, serviceName string) <-chan DetailResult {
	s.Store.Reset(serviceName)
	results := make(chan DetailResult, 1)

	go func() {
		defer close(results)

		if err := s.GetServices(ctx, serviceName); err != nil {
			s.logger.Warn("failed to fetch service detail", zap.String("service", serviceName), zap.Error(err))
			results <- DetailResult{Err: err}
			return
		}
		detail := s.Store.Snapshot()
		if detail.ServiceName != serviceName {
			results <- DetailResult{Err: fmt.Errorf("%w: %s", ErrServiceChanged, serviceName)}
			return
		}
		results <- DetailResult{Detail: detail}
	}()

	return results
}

// GetServices fetches the descriptor of serviceName and stores it in the shared detail.
func (s *ServiceDetailService) GetServices(ctx context.Context, serviceName string) error {
	var service *models.RunningService
	err := s.auth(ctx, func(token string) error {
		var err error
		service, err = s.API.DescribeService(ctx, token, serviceName)
		return err
	})
	if err != nil {
		return err
	}

	if !s.Store.SetService(serviceName, service) {
		return fmt.Errorf("%w: %s", ErrServiceChanged, serviceName)
	}
	s.logger.Info("service detail loaded", zap.String("service", serviceName))
	return nil
}

// GetVersions fetches the version list of the service selected by the last GetServiceDetail call.
func (s *ServiceDetailService) GetVersions(ctx context.Context) ([]models.ServiceVersion, error) {
	serviceName := s.Store.ServiceName()
	if serviceName == "" {
		return nil, ErrNoServiceSelected
	}
	return s.getVersions(ctx, serviceName)
}

// getVersions fetches the versions of serviceName and stores them if the shared detail still belongs to it.
func (s *ServiceDetailService) getVersions(ctx context.Context, serviceName string) ([]models.ServiceVersion, error) {
	var versions []models.ServiceVersion
	err := s.auth(ctx, func(token string) error {
		var err error
		versions, err = s.API.DescribeServiceVersions(ctx, token, serviceName)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !s.Store.SetVersions(serviceName, versions) {
		return nil, fmt.Errorf("%w: %s", ErrServiceChanged, serviceName)
	}
	return versions, nil
}

// Describe fetches the service and its versions and returns the combined detail.
func (s *ServiceDetailService) Describe(ctx context.Context, serviceName string) (*models.ServiceDetail, error) {
	var result DetailResult
	select {
	case result = <-s.GetServiceDetail(ctx, serviceName):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if result.Err != nil {
		return nil, result.Err
	}

	versions, err := s.getVersions(ctx, result.Detail.ServiceName)
	if err != nil {
		return nil, err
	}
	result.Detail.Versions = versions
	return result.Detail, nil
}

// ListServices returns the descriptors of all services known to ecs-deploy.
func (s *ServiceDetailService) ListServices(ctx context.Context) ([]models.RunningService, error) {
	var services []models.RunningService
	err := s.auth(ctx, func(token string) error {
		var err error
		services, err = s.API.DescribeServices(ctx, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return services, nil
}

// Current returns a deep copy of the shared detail; callers may modify it freely.
func (s *ServiceDetailService) Current() *models.ServiceDetail {
	return s.Store.Snapshot()
}
