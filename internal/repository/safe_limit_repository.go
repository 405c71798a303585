package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-ap-procurement/internal/apperrors"
	"github.com/pesio-ai/be-ap-procurement/internal/database"
)

// SafeLimitRepository owns per-approver spend ceilings, keyed by user name
// (case-insensitive). Limits are raised through IncreaseLimit only; there is
// deliberately no operation that lowers one.
type SafeLimitRepository struct {
	db *database.DB
}

// NewSafeLimitRepository creates a new safe limit repository.
func NewSafeLimitRepository(db *database.DB) *SafeLimitRepository {
	return &SafeLimitRepository{db: db}
}

const safeLimitColumns = `user_id, user_name, approval_limit, currency, role, last_modified`

// GetByUserName retrieves the limit record for an approver.
func (r *SafeLimitRepository) GetByUserName(ctx context.Context, userName string) (*SafeLimit, error) {
	query := `SELECT ` + safeLimitColumns + ` FROM safe_limits WHERE lower(user_name) = lower($1)`

	limit, err := scanSafeLimit(r.db.QueryRow(ctx, query, userName))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("safe limit", userName)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to get safe limit")
	}
	return limit, nil
}

// List returns all safe limit records.
func (r *SafeLimitRepository) List(ctx context.Context) ([]*SafeLimit, error) {
	rows, err := r.db.Query(ctx, `SELECT `+safeLimitColumns+` FROM safe_limits ORDER BY user_name`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to list safe limits")
	}
	defer rows.Close()

	limits := make([]*SafeLimit, 0)
	for rows.Next() {
		limit, err := scanSafeLimit(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan safe limit")
		}
		limits = append(limits, limit)
	}
	return limits, rows.Err()
}

// IncreaseLimit raises a user's approval limit. The new limit must strictly
// exceed the current one; the guard lives in the UPDATE predicate so two
// concurrent increases cannot interleave into a decrease.
func (r *SafeLimitRepository) IncreaseLimit(ctx context.Context, userID string, newLimit int64) (*SafeLimit, error) {
	query := `
		UPDATE safe_limits
		SET approval_limit = $2, last_modified = NOW()
		WHERE user_id = $1 AND approval_limit < $2
		RETURNING ` + safeLimitColumns

	limit, err := scanSafeLimit(r.db.QueryRow(ctx, query, userID, newLimit))
	if errors.Is(err, pgx.ErrNoRows) {
		// Missing user and non-increasing limit both land here; look up to tell apart.
		var current int64
		checkErr := r.db.QueryRow(ctx,
			`SELECT approval_limit FROM safe_limits WHERE user_id = $1`, userID,
		).Scan(&current)
		if errors.Is(checkErr, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("safe limit", userID)
		}
		if checkErr != nil {
			return nil, apperrors.Wrap(checkErr, apperrors.ErrCodeInternal, "failed to check safe limit")
		}
		return nil, apperrors.Newf(apperrors.ErrCodePolicyDenied,
			"new limit %d must be greater than current limit %d", newLimit, current)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to increase safe limit")
	}
	return limit, nil
}

func scanSafeLimit(row rowScanner) (*SafeLimit, error) {
	limit := &SafeLimit{}
	err := row.Scan(
		&limit.UserID,
		&limit.UserName,
		&limit.ApprovalLimit,
		&limit.Currency,
		&limit.Role,
		&limit.LastModified,
	)
	if err != nil {
		return nil, err
	}
	return limit, nil
}
