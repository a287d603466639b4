package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/in4it/ecs-describe/internal/auth"
	"go.uber.org/zap"
)

// AuthMiddleware wraps an API call with bearer token acquisition.
type AuthMiddleware func(ctx context.Context, next func(token string) error) error

// NewAuthMiddleware creates an AuthMiddleware backed by the given token provider.
// A call rejected with ErrUnauthorized is retried once with a fresh token,
// unless the provider cannot issue a different one.
func NewAuthMiddleware(tokens auth.TokenProviderInterface, logger *zap.Logger) AuthMiddleware {
	return func(ctx context.Context, next func(token string) error) error {
		token, err := tokens.GetToken(ctx)
		if err != nil {
			logger.Error("failed to get token", zap.Error(err))
			return fmt.Errorf("failed to get token: %w", err)
		}

		err = next(token)
		if !errors.Is(err, ErrUnauthorized) {
			return err
		}

		if !tokens.Invalidate() {
			logger.Warn("token rejected and cannot be refreshed")
			return err
		}
		logger.Info("token rejected, retrying with a fresh one")
		token, err = tokens.GetToken(ctx)
		if err != nil {
			logger.Error("failed to refresh token", zap.Error(err))
			return fmt.Errorf("failed to refresh token: %w", err)
		}
		return next(token)
	}
}
