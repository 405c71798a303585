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

// PurchaseOrderRepository owns the purchase orders collection. Orders are
// created externally; this service only reads them and mutates status and the
// draft counter.
type PurchaseOrderRepository struct {
	db *database.DB
}

// NewPurchaseOrderRepository creates a new purchase order repository.
func NewPurchaseOrderRepository(db *database.DB) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db}
}

const purchaseOrderColumns = `
	purchase_order_number, supplier_name, supplier_id, order_date,
	expected_delivery_date, shipping_address, auto_approve, line_items,
	subtotal, tax, shipping, total, currency, status,
	requestor_name, approval_date, draft_count, draft_sequence, created_at, updated_at
`

// Create inserts a purchase order.
func (r *PurchaseOrderRepository) Create(ctx context.Context, po *PurchaseOrder) error {
	lineItems, err := json.Marshal(po.LineItems)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to marshal line items")
	}

	query := `
		INSERT INTO purchase_orders (purchase_order_number, supplier_name, supplier_id, order_date,
		                             expected_delivery_date, shipping_address, auto_approve, line_items,
		                             subtotal, tax, shipping, total, currency, status,
		                             requestor_name, approval_date, draft_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query,
		po.PurchaseOrderNumber, po.SupplierName, po.SupplierID, po.OrderDate,
		po.ExpectedDeliveryDate, po.ShippingAddress, po.AutoApprove, lineItems,
		po.Subtotal, po.Tax, po.Shipping, po.Total, po.Currency, po.Status,
		po.RequestorName, po.ApprovalDate, po.DraftCount,
	).Scan(&po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create purchase order")
	}
	return nil
}

// GetByNumber retrieves a purchase order by its number (case-insensitive).
func (r *PurchaseOrderRepository) GetByNumber(ctx context.Context, poNumber string) (*PurchaseOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM purchase_orders WHERE lower(purchase_order_number) = lower($1)`, purchaseOrderColumns)

	po, err := scanPurchaseOrder(r.db.QueryRow(ctx, query, poNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("purchase order", poNumber)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to get purchase order")
	}
	return po, nil
}

// List retrieves purchase orders, optionally filtered by status.
func (r *PurchaseOrderRepository) List(ctx context.Context, status string) ([]*PurchaseOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM purchase_orders`, purchaseOrderColumns)
	args := []any{}
	if status != "" {
		query += ` WHERE lower(status) = lower($1)`
		args = append(args, status)
	}
	query += ` ORDER BY purchase_order_number`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to list purchase orders")
	}
	defer rows.Close()

	orders := make([]*PurchaseOrder, 0)
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan purchase order")
		}
		orders = append(orders, po)
	}
	return orders, rows.Err()
}

// UpdateStatus sets the purchase order status.
func (r *PurchaseOrderRepository) UpdateStatus(ctx context.Context, poNumber, status string) (*PurchaseOrder, error) {
	query := fmt.Sprintf(`
		UPDATE purchase_orders
		SET status = $2, updated_at = NOW()
		WHERE lower(purchase_order_number) = lower($1)
		RETURNING %s
	`, purchaseOrderColumns)

	po, err := scanPurchaseOrder(r.db.QueryRow(ctx, query, poNumber, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("purchase order", poNumber)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to update purchase order status")
	}
	return po, nil
}

// AdjustDraftCount adds delta to the live-draft counter, flooring at zero.
// Positive deltas also advance draft_sequence, which never decreases, so
// draft numbers derived from it are never reissued while a draft is alive.
func (r *PurchaseOrderRepository) AdjustDraftCount(ctx context.Context, poNumber string, delta int) (*PurchaseOrder, error) {
	query := fmt.Sprintf(`
		UPDATE purchase_orders
		SET draft_count = GREATEST(draft_count + $2, 0),
		    draft_sequence = draft_sequence + GREATEST($2, 0),
		    updated_at = NOW()
		WHERE lower(purchase_order_number) = lower($1)
		RETURNING %s
	`, purchaseOrderColumns)

	po, err := scanPurchaseOrder(r.db.QueryRow(ctx, query, poNumber, delta))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("purchase order", poNumber)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to adjust draft count")
	}
	return po, nil
}

func scanPurchaseOrder(row rowScanner) (*PurchaseOrder, error) {
	po := &PurchaseOrder{}
	var lineItems []byte

	err := row.Scan(
		&po.PurchaseOrderNumber,
		&po.SupplierName,
		&po.SupplierID,
		&po.OrderDate,
		&po.ExpectedDeliveryDate,
		&po.ShippingAddress,
		&po.AutoApprove,
		&lineItems,
		&po.Subtotal,
		&po.Tax,
		&po.Shipping,
		&po.Total,
		&po.Currency,
		&po.Status,
		&po.RequestorName,
		&po.ApprovalDate,
		&po.DraftCount,
		&po.DraftSequence,
		&po.CreatedAt,
		&po.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lineItems != nil {
		if err := json.Unmarshal(lineItems, &po.LineItems); err != nil {
			return nil, fmt.Errorf("unmarshal line items: %w", err)
		}
	}
	return po, nil
}
