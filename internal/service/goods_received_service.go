package service

import (
	"context"
	"strings"

	"github.com/pesio-ai/be-ap-procurement/internal/apperrors"
	"github.com/pesio-ai/be-ap-procurement/internal/client"
	"github.com/pesio-ai/be-ap-procurement/internal/logger"
	"github.com/pesio-ai/be-ap-procurement/internal/repository"
)

// GoodsReceivedService records goods arrival per purchase order line item.
// Records are keyed by (purchase order number, item ID) and updated in place
// as shipments arrive.
type GoodsReceivedService struct {
	repo      *repository.GoodsReceivedRepository
	poRepo    *repository.PurchaseOrderRepository
	publisher *client.NotificationPublisher
	log       *logger.Logger
}

// NewGoodsReceivedService creates a new GoodsReceivedService.
func NewGoodsReceivedService(
	repo *repository.GoodsReceivedRepository,
	poRepo *repository.PurchaseOrderRepository,
	publisher *client.NotificationPublisher,
	log *logger.Logger,
) *GoodsReceivedService {
	return &GoodsReceivedService{repo: repo, poRepo: poRepo, publisher: publisher, log: log}
}

func normalizeGoodsStatus(status string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case strings.ToLower(repository.GoodsStatusReceived):
		return repository.GoodsStatusReceived, true
	case strings.ToLower(repository.GoodsStatusNotReceived):
		return repository.GoodsStatusNotReceived, true
	default:
		return "", false
	}
}

// ListByPO returns goods received records for a purchase order, optionally
// narrowed to one item.
func (s *GoodsReceivedService) ListByPO(ctx context.Context, poNumber, itemID string) ([]*repository.GoodsReceivedRecord, error) {
	if poNumber == "" {
		return nil, apperrors.InvalidInput("purchaseOrderNumber", "purchase order number is required")
	}
	return s.repo.ListByPO(ctx, poNumber, itemID)
}

// Record upserts the goods received record for one line item. The purchase
// order must exist and the item must appear on it; receivedDate is managed by
// the store from the status.
func (s *GoodsReceivedService) Record(ctx context.Context, rec *repository.GoodsReceivedRecord) (*repository.GoodsReceivedRecord, error) {
	if rec.PurchaseOrderNumber == "" {
		return nil, apperrors.InvalidInput("purchaseOrderNumber", "purchase order number is required")
	}
	if rec.ItemID == "" {
		return nil, apperrors.InvalidInput("itemId", "item ID is required")
	}
	status, ok := normalizeGoodsStatus(rec.Status)
	if !ok {
		return nil, apperrors.InvalidInput("status", "unknown goods received status: "+rec.Status)
	}
	rec.Status = status

	po, err := s.poRepo.GetByNumber(ctx, rec.PurchaseOrderNumber)
	if err != nil {
		return nil, err
	}
	onOrder := false
	for _, item := range po.LineItems {
		if strings.EqualFold(item.ItemID, rec.ItemID) {
			onOrder = true
			break
		}
	}
	if !onOrder {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidInput,
			"item %s is not on purchase order %s", rec.ItemID, rec.PurchaseOrderNumber)
	}

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	if rec.Status == repository.GoodsStatusReceived {
		s.publisher.PublishEvent("goods_received", "goods_received", rec.ID, "", map[string]any{
			"purchase_order_number": rec.PurchaseOrderNumber,
			"item_id":               rec.ItemID,
		})
	}

	s.log.Info().
		Str("purchase_order_number", rec.PurchaseOrderNumber).
		Str("item_id", rec.ItemID).
		Str("status", rec.Status).
		Msg("Goods received record updated")

	return rec, nil
}
