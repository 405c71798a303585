package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/pesio-ai/be-ap-procurement/internal/apperrors"
	"github.com/pesio-ai/be-ap-procurement/internal/database"
)

// ApprovalHistoryRepository appends and reads immutable approval log entries.
// Append is the only mutation exposed; entries are never updated or deleted.
type ApprovalHistoryRepository struct {
	db *database.DB
}

// NewApprovalHistoryRepository creates a new approval history repository.
func NewApprovalHistoryRepository(db *database.DB) *ApprovalHistoryRepository {
	return &ApprovalHistoryRepository{db: db}
}

// Append inserts one history entry.
func (r *ApprovalHistoryRepository) Append(ctx context.Context, entry *ApprovalHistoryRecord) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO approval_history (id, invoice_number, approver_name, action, comments)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		entry.ID,
		entry.InvoiceNumber,
		entry.ApproverName,
		entry.Action,
		entry.Comments,
	).Scan(&entry.Timestamp)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to append approval history")
	}
	return nil
}

// List returns history entries oldest-first, optionally filtered by invoice.
func (r *ApprovalHistoryRepository) List(ctx context.Context, invoiceNumber string) ([]*ApprovalHistoryRecord, error) {
	query := `
		SELECT id, invoice_number, approver_name, action, comments, created_at
		FROM approval_history
	`
	args := []any{}
	if invoiceNumber != "" {
		query += ` WHERE lower(invoice_number) = lower($1)`
		args = append(args, invoiceNumber)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to list approval history")
	}
	defer rows.Close()

	entries := make([]*ApprovalHistoryRecord, 0)
	for rows.Next() {
		entry := &ApprovalHistoryRecord{}
		err := rows.Scan(
			&entry.ID,
			&entry.InvoiceNumber,
			&entry.ApproverName,
			&entry.Action,
			&entry.Comments,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan approval history entry")
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
