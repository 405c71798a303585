package service

import (
	"context"

	"github.com/pesio-ai/be-ap-procurement/internal/apperrors"
	"github.com/pesio-ai/be-ap-procurement/internal/client"
	"github.com/pesio-ai/be-ap-procurement/internal/logger"
	"github.com/pesio-ai/be-ap-procurement/internal/repository"
)

// SafeLimitService answers approval limit checks and administers per-user
// limits. Checks are advisory reads; the only mutation is a strictly
// monotonic increase.
type SafeLimitService struct {
	repo      *repository.SafeLimitRepository
	publisher *client.NotificationPublisher
	log       *logger.Logger
}

// NewSafeLimitService creates a new SafeLimitService.
func NewSafeLimitService(repo *repository.SafeLimitRepository, publisher *client.NotificationPublisher, log *logger.Logger) *SafeLimitService {
	return &SafeLimitService{repo: repo, publisher: publisher, log: log}
}

// CheckApproval reports whether userName may approve an invoice of the given
// amount (cents). An unknown user is a plain "no", not an error: absence of a
// limit record means absence of approval authority.
func (s *SafeLimitService) CheckApproval(ctx context.Context, userName string, invoiceAmount int64) (bool, error) {
	if userName == "" {
		return false, apperrors.InvalidInput("userName", "user name is required")
	}
	if invoiceAmount < 0 {
		return false, apperrors.InvalidInput("invoiceAmount", "invoice amount must not be negative")
	}

	limit, err := s.repo.GetByUserName(ctx, userName)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
			s.log.Warn().
				Str("user_name", userName).
				Msg("Approval check for user with no safe limit record")
			return false, nil
		}
		return false, err
	}

	return invoiceAmount <= limit.ApprovalLimit, nil
}

// GetByUserName retrieves a user's safe limit record.
func (s *SafeLimitService) GetByUserName(ctx context.Context, userName string) (*repository.SafeLimit, error) {
	return s.repo.GetByUserName(ctx, userName)
}

// List returns all safe limit records.
func (s *SafeLimitService) List(ctx context.Context) ([]*repository.SafeLimit, error) {
	return s.repo.List(ctx)
}

// IncreaseLimit raises a user's approval limit. The new limit must strictly
// exceed the current one; limits are never lowered through this service.
func (s *SafeLimitService) IncreaseLimit(ctx context.Context, userID string, newLimit int64) (*repository.SafeLimit, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("userId", "user ID is required")
	}
	if newLimit <= 0 {
		return nil, apperrors.InvalidInput("newLimit", "new limit must be positive")
	}

	limit, err := s.repo.IncreaseLimit(ctx, userID, newLimit)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishEvent("safe_limit_increased", "safe_limit", limit.UserID, limit.UserName, map[string]any{
		"approval_limit": limit.ApprovalLimit,
	})

	s.log.Info().
		Str("user_id", limit.UserID).
		Str("user_name", limit.UserName).
		Int64("approval_limit", limit.ApprovalLimit).
		Msg("Safe limit increased")

	return limit, nil
}
