package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-ap-procurement/internal/apperrors"
	"github.com/pesio-ai/be-ap-procurement/internal/database"
)

// InvoiceRepository owns the invoices collection. Line items are stored as a
// JSONB document alongside the header, matching the keyed-record layout the
// sibling services use.
type InvoiceRepository struct {
	db *database.DB
}

// NewInvoiceRepository creates a new invoice repository.
func NewInvoiceRepository(db *database.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `
	invoice_number, purchase_order_number, supplier_name, supplier_id,
	invoice_date, due_date, approver, auto_approve, line_items,
	subtotal, tax, shipping, total, currency, status,
	created_at, updated_at
`

// Create inserts a new invoice, or replaces an existing one in place when the
// stored row is still a Draft. Any other collision is a conflict. Creating a
// non-Draft invoice is rejected when the purchase order already has one.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *Invoice) error {
	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		var existingStatus string
		err := tx.QueryRow(ctx,
			`SELECT status FROM invoices WHERE lower(invoice_number) = lower($1) FOR UPDATE`,
			invoice.InvoiceNumber,
		).Scan(&existingStatus)

		exists := err == nil
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to check existing invoice")
		}
		if exists && existingStatus != InvoiceStatusDraft {
			return apperrors.Newf(apperrors.ErrCodeConflict,
				"invoice with number %s already exists", invoice.InvoiceNumber)
		}

		if invoice.Status != InvoiceStatusDraft {
			var n int
			err := tx.QueryRow(ctx, `
				SELECT COUNT(*) FROM invoices
				WHERE purchase_order_number = $1
				  AND status <> $2
				  AND lower(invoice_number) <> lower($3)
			`, invoice.PurchaseOrderNumber, InvoiceStatusDraft, invoice.InvoiceNumber).Scan(&n)
			if err != nil {
				return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to check invoices for purchase order")
			}
			if n > 0 {
				return apperrors.Newf(apperrors.ErrCodeConflict,
					"purchase order %s already has a non-draft invoice", invoice.PurchaseOrderNumber)
			}
		}

		lineItems, err := json.Marshal(invoice.LineItems)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to marshal line items")
		}

		if exists {
			query := `
				UPDATE invoices
				SET purchase_order_number = $2, supplier_name = $3, supplier_id = $4,
				    invoice_date = $5, due_date = $6, approver = $7, auto_approve = $8,
				    line_items = $9, subtotal = $10, tax = $11, shipping = $12,
				    total = $13, currency = $14, status = $15, updated_at = NOW()
				WHERE lower(invoice_number) = lower($1)
				RETURNING created_at, updated_at
			`
			err = tx.QueryRow(ctx, query,
				invoice.InvoiceNumber, invoice.PurchaseOrderNumber,
				invoice.SupplierName, invoice.SupplierID,
				invoice.InvoiceDate, invoice.DueDate, invoice.Approver, invoice.AutoApprove,
				lineItems, invoice.Subtotal, invoice.Tax, invoice.Shipping,
				invoice.Total, invoice.Currency, invoice.Status,
			).Scan(&invoice.CreatedAt, &invoice.UpdatedAt)
			if err != nil {
				return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to update draft invoice")
			}
			return nil
		}

		query := `
			INSERT INTO invoices (invoice_number, purchase_order_number, supplier_name, supplier_id,
			                      invoice_date, due_date, approver, auto_approve, line_items,
			                      subtotal, tax, shipping, total, currency, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING created_at, updated_at
		`
		err = tx.QueryRow(ctx, query,
			invoice.InvoiceNumber, invoice.PurchaseOrderNumber,
			invoice.SupplierName, invoice.SupplierID,
			invoice.InvoiceDate, invoice.DueDate, invoice.Approver, invoice.AutoApprove,
			lineItems, invoice.Subtotal, invoice.Tax, invoice.Shipping,
			invoice.Total, invoice.Currency, invoice.Status,
		).Scan(&invoice.CreatedAt, &invoice.UpdatedAt)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create invoice")
		}
		return nil
	})
}

// GetByNumber retrieves an invoice by its number (case-insensitive).
func (r *InvoiceRepository) GetByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE lower(invoice_number) = lower($1)`, invoiceColumns)

	invoice, err := scanInvoice(r.db.QueryRow(ctx, query, invoiceNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("invoice", invoiceNumber)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to get invoice")
	}
	return invoice, nil
}

// List retrieves invoices, optionally filtered by status.
func (r *InvoiceRepository) List(ctx context.Context, status string) ([]*Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices`, invoiceColumns)
	args := []any{}
	if status != "" {
		query += ` WHERE lower(status) = lower($1)`
		args = append(args, status)
	}
	query += ` ORDER BY invoice_number`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to list invoices")
	}
	defer rows.Close()

	invoices := make([]*Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan invoice")
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

// UpdateStatus sets the invoice status. When expectedStatus is non-empty the
// update is conditional on the stored status still matching it, which is the
// optimistic-concurrency guard concurrent approvers rely on.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, invoiceNumber, status, expectedStatus string) (*Invoice, error) {
	query := `
		UPDATE invoices
		SET status = $2, updated_at = NOW()
		WHERE lower(invoice_number) = lower($1)`
	args := []any{invoiceNumber, status}
	if expectedStatus != "" {
		query += ` AND status = $3`
		args = append(args, expectedStatus)
	}
	query += fmt.Sprintf(` RETURNING %s`, invoiceColumns)

	invoice, err := scanInvoice(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing invoice from a lost conditional update.
		current, getErr := r.GetByNumber(ctx, invoiceNumber)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidState,
			"invoice %s is in status '%s', expected '%s'", invoiceNumber, current.Status, expectedStatus)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to update invoice status")
	}
	return invoice, nil
}

// DeleteDraft removes a draft invoice. Non-draft invoices are immutable
// records and cannot be deleted.
func (r *InvoiceRepository) DeleteDraft(ctx context.Context, invoiceNumber string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM invoices WHERE lower(invoice_number) = lower($1) AND status = $2`,
		invoiceNumber, InvoiceStatusDraft)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to delete draft invoice")
	}
	if tag.RowsAffected() == 0 {
		current, getErr := r.GetByNumber(ctx, invoiceNumber)
		if getErr != nil {
			return getErr
		}
		return apperrors.Newf(apperrors.ErrCodeInvalidState,
			"invoice %s is not a draft (status: %s) and cannot be deleted", invoiceNumber, current.Status)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*Invoice, error) {
	invoice := &Invoice{}
	var lineItems []byte

	err := row.Scan(
		&invoice.InvoiceNumber,
		&invoice.PurchaseOrderNumber,
		&invoice.SupplierName,
		&invoice.SupplierID,
		&invoice.InvoiceDate,
		&invoice.DueDate,
		&invoice.Approver,
		&invoice.AutoApprove,
		&lineItems,
		&invoice.Subtotal,
		&invoice.Tax,
		&invoice.Shipping,
		&invoice.Total,
		&invoice.Currency,
		&invoice.Status,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lineItems != nil {
		if err := json.Unmarshal(lineItems, &invoice.LineItems); err != nil {
			return nil, fmt.Errorf("unmarshal line items: %w", err)
		}
	}
	return invoice, nil
}
