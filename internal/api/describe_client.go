package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/in4it/ecs-describe/pkg/models"
	"go.uber.org/zap"
)

const (
	describePath         = "/ecs-deploy/api/v1/service/describe"
	describeServicePath  = describePath + "/{serviceName}"
	describeVersionsPath = describeServicePath + "/versions"
)

var (
	// ErrUnauthorized is returned when the backend rejects the bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrServiceNotFound is returned when the backend does not know the service.
	ErrServiceNotFound = errors.New("service not found")
)

// DescribeAPIInterface defines the read-only describe endpoints of ecs-deploy.
type DescribeAPIInterface interface {
	DescribeServices(ctx context.Context, token string) ([]models.RunningService, error)
	DescribeService(ctx context.Context, token, serviceName string) (*models.RunningService, error)
	DescribeServiceVersions(ctx context.Context, token, serviceName string) ([]models.ServiceVersion, error)
}

// DescribeConfig holds what is needed to reach the ecs-deploy API.
type DescribeConfig struct {
	APIURL  string
	Timeout time.Duration
}

// DescribeAPI is the concrete implementation of DescribeAPIInterface.
type DescribeAPI struct {
	client *resty.Client
	logger *zap.Logger
}

// NewDescribeAPI initializes the API client with the provided DescribeConfig.
func NewDescribeAPI(config DescribeConfig, logger *zap.Logger) *DescribeAPI {
	client := resty.New()
	client.SetBaseURL(config.APIURL)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	client.SetDisableWarn(true)
	if config.Timeout > 0 {
		client.SetTimeout(config.Timeout)
	}

	return &DescribeAPI{
		client: client,
		logger: logger,
	}
}

// DescribeServices retrieves the descriptors of every service known to ecs-deploy.
func (c *DescribeAPI) DescribeServices(ctx context.Context, token string) ([]models.RunningService, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get(describePath)
	if err != nil {
		return nil, fmt.Errorf("failed to describe services: %w", err)
	}
	if err := checkStatus(resp, ""); err != nil {
		return nil, err
	}

	var body struct {
		Services []models.RunningService `json:"services"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to parse service list: %w", err)
	}

	c.logger.Debug("described services", zap.Int("count", len(body.Services)))
	return body.Services, nil
}

// DescribeService retrieves the descriptor of a single service.
func (c *DescribeAPI) DescribeService(ctx context.Context, token, serviceName string) (*models.RunningService, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("serviceName", serviceName).
		Get(describeServicePath)
	if err != nil {
		return nil, fmt.Errorf("failed to describe service %s: %w", serviceName, err)
	}
	if err := checkStatus(resp, serviceName); err != nil {
		return nil, err
	}

	var body struct {
		Service *models.RunningService `json:"service"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to parse service %s: %w", serviceName, err)
	}
	if body.Service == nil {
		return nil, fmt.Errorf("describe response for %s has no service field", serviceName)
	}

	c.logger.Debug("described service",
		zap.String("service", serviceName),
		zap.String("status", body.Service.Status),
		zap.Int64("running", body.Service.RunningCount))
	return body.Service, nil
}

// DescribeServiceVersions retrieves the image versions available for a service.
func (c *DescribeAPI) DescribeServiceVersions(ctx context.Context, token, serviceName string) ([]models.ServiceVersion, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("serviceName", serviceName).
		Get(describeVersionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to describe versions of %s: %w", serviceName, err)
	}
	if err := checkStatus(resp, serviceName); err != nil {
		return nil, err
	}

	var body struct {
		Versions []models.ServiceVersion `json:"versions"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to parse versions of %s: %w", serviceName, err)
	}

	c.logger.Debug("described service versions", zap.String("service", serviceName), zap.Int("count", len(body.Versions)))
	return body.Versions, nil
}

func checkStatus(resp *resty.Response, serviceName string) error {
	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, resp.String())
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrServiceNotFound, serviceName)
	default:
		return fmt.Errorf("unexpected status code: %d, response: %s", resp.StatusCode(), resp.String())
	}
}
