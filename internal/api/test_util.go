package api

import (
	"context"

	"github.com/in4it/ecs-describe/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockTokenProvider mocks the auth.TokenProviderInterface
type MockTokenProvider struct {
	mock.Mock
}

// GetToken mocks the GetToken method
func (m *MockTokenProvider) GetToken(ctx context.Context) (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// Invalidate mocks the Invalidate method
func (m *MockTokenProvider) Invalidate() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockDescribeAPI mocks the DescribeAPIInterface
type MockDescribeAPI struct {
	mock.Mock
}

// DescribeServices mocks the DescribeServices method
func (m *MockDescribeAPI) DescribeServices(ctx context.Context, token string) ([]models.RunningService, error) {
	args := m.Called(token)
	return args.Get(0).([]models.RunningService), args.Error(1)
}

// DescribeService mocks the DescribeService method
func (m *MockDescribeAPI) DescribeService(ctx context.Context, token, serviceName string) (*models.RunningService, error) {
	args := m.Called(token, serviceName)
	return args.Get(0).(*models.RunningService), args.Error(1)
}

// DescribeServiceVersions mocks the DescribeServiceVersions method
func (m *MockDescribeAPI) DescribeServiceVersions(ctx context.Context, token, serviceName string) ([]models.ServiceVersion, error) {
	args := m.Called(token, serviceName)
	return args.Get(0).([]models.ServiceVersion), args.Error(1)
}
