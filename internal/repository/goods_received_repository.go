package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-ap-procurement/internal/apperrors"
	"github.com/pesio-ai/be-ap-procurement/internal/database"
)

// GoodsReceivedRepository owns goods-received confirmations, keyed by
// (purchase order number, item ID). Records are written by the receiving
// workflow; the approval orchestrator only reads them.
type GoodsReceivedRepository struct {
	db *database.DB
}

// NewGoodsReceivedRepository creates a new goods received repository.
func NewGoodsReceivedRepository(db *database.DB) *GoodsReceivedRepository {
	return &GoodsReceivedRepository{db: db}
}

const goodsReceivedColumns = `
	id, purchase_order_number, item_id, serial_number, asset_tag_number,
	status, received_date, last_modified
`

// ListByPO returns the records for a purchase order, optionally narrowed to a
// single item.
func (r *GoodsReceivedRepository) ListByPO(ctx context.Context, poNumber, itemID string) ([]*GoodsReceivedRecord, error) {
	query := `
		SELECT ` + goodsReceivedColumns + `
		FROM goods_received
		WHERE lower(purchase_order_number) = lower($1)
	`
	args := []any{poNumber}
	if itemID != "" {
		query += ` AND lower(item_id) = lower($2)`
		args = append(args, itemID)
	}
	query += ` ORDER BY item_id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to list goods received records")
	}
	defer rows.Close()

	records := make([]*GoodsReceivedRecord, 0)
	for rows.Next() {
		rec := &GoodsReceivedRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.PurchaseOrderNumber,
			&rec.ItemID,
			&rec.SerialNumber,
			&rec.AssetTagNumber,
			&rec.Status,
			&rec.ReceivedDate,
			&rec.LastModified,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan goods received record")
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Upsert updates the record for (poNumber, itemID), creating it when absent.
// receivedDate is set when the status is Received and cleared otherwise.
func (r *GoodsReceivedRepository) Upsert(ctx context.Context, rec *GoodsReceivedRecord) error {
	var receivedDate *string
	if rec.Status == GoodsStatusReceived {
		if rec.ReceivedDate != nil {
			receivedDate = rec.ReceivedDate
		} else {
			d := time.Now().Format("2006-01-02")
			receivedDate = &d
		}
	}
	rec.ReceivedDate = receivedDate

	query := `
		UPDATE goods_received
		SET serial_number = $3, asset_tag_number = $4, status = $5,
		    received_date = $6, last_modified = NOW()
		WHERE lower(purchase_order_number) = lower($1) AND lower(item_id) = lower($2)
		RETURNING id, last_modified
	`
	err := r.db.QueryRow(ctx, query,
		rec.PurchaseOrderNumber, rec.ItemID,
		rec.SerialNumber, rec.AssetTagNumber, rec.Status, receivedDate,
	).Scan(&rec.ID, &rec.LastModified)

	if errors.Is(err, pgx.ErrNoRows) {
		rec.ID = uuid.New().String()
		insert := `
			INSERT INTO goods_received (id, purchase_order_number, item_id, serial_number,
			                            asset_tag_number, status, received_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING last_modified
		`
		err = r.db.QueryRow(ctx, insert,
			rec.ID, rec.PurchaseOrderNumber, rec.ItemID,
			rec.SerialNumber, rec.AssetTagNumber, rec.Status, receivedDate,
		).Scan(&rec.LastModified)
	}
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to upsert goods received record")
	}
	return nil
}
