package service

import (
	"context"
	"strings"

	"github.com/pesio-ai/be-ap-procurement/internal/apperrors"
	"github.com/pesio-ai/be-ap-procurement/internal/logger"
	"github.com/pesio-ai/be-ap-procurement/internal/repository"
)

// PurchaseOrderService owns the purchase order collection. Orders originate
// upstream; beyond creation this service only serves reads, status changes,
// and the draft counter used by the invoice generator.
type PurchaseOrderService struct {
	repo *repository.PurchaseOrderRepository
	log  *logger.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService.
func NewPurchaseOrderService(repo *repository.PurchaseOrderRepository, log *logger.Logger) *PurchaseOrderService {
	return &PurchaseOrderService{repo: repo, log: log}
}

func normalizePOStatus(status string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case strings.ToLower(repository.POStatusOpen):
		return repository.POStatusOpen, true
	case strings.ToLower(repository.POStatusClosed):
		return repository.POStatusClosed, true
	default:
		return "", false
	}
}

// Create persists a purchase order. Line totals and the subtotal are
// recomputed from quantities and unit prices so stored aggregates always
// agree with the lines.
func (s *PurchaseOrderService) Create(ctx context.Context, po *repository.PurchaseOrder) (*repository.PurchaseOrder, error) {
	if po.PurchaseOrderNumber == "" {
		return nil, apperrors.InvalidInput("purchaseOrderNumber", "purchase order number is required")
	}
	if len(po.LineItems) == 0 {
		return nil, apperrors.InvalidInput("lineItems", "at least one line item is required")
	}

	if po.Status == "" {
		po.Status = repository.POStatusOpen
	}
	status, ok := normalizePOStatus(po.Status)
	if !ok {
		return nil, apperrors.InvalidInput("status", "unknown purchase order status: "+po.Status)
	}
	po.Status = status

	var subtotal int64
	for i := range po.LineItems {
		item := &po.LineItems[i]
		item.TotalPrice = int64(item.Quantity) * item.UnitPrice
		subtotal += item.TotalPrice
	}
	po.Subtotal = subtotal
	po.Total = subtotal + po.Tax + po.Shipping

	if err := s.repo.Create(ctx, po); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("purchase_order_number", po.PurchaseOrderNumber).
		Str("supplier_name", po.SupplierName).
		Int64("total", po.Total).
		Msg("Purchase order created")

	return po, nil
}

// GetByNumber retrieves a purchase order by number.
func (s *PurchaseOrderService) GetByNumber(ctx context.Context, poNumber string) (*repository.PurchaseOrder, error) {
	return s.repo.GetByNumber(ctx, poNumber)
}

// List retrieves purchase orders, optionally filtered by status.
func (s *PurchaseOrderService) List(ctx context.Context, status string) ([]*repository.PurchaseOrder, error) {
	if status != "" {
		normalized, ok := normalizePOStatus(status)
		if !ok {
			return nil, apperrors.InvalidInput("status", "unknown purchase order status: "+status)
		}
		status = normalized
	}
	return s.repo.List(ctx, status)
}

// UpdateStatus transitions a purchase order between Open and Closed.
func (s *PurchaseOrderService) UpdateStatus(ctx context.Context, poNumber, status string) (*repository.PurchaseOrder, error) {
	normalized, ok := normalizePOStatus(status)
	if !ok {
		return nil, apperrors.InvalidInput("status", "unknown purchase order status: "+status)
	}

	po, err := s.repo.UpdateStatus(ctx, poNumber, normalized)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("purchase_order_number", poNumber).
		Str("status", normalized).
		Msg("Purchase order status updated")

	return po, nil
}

// IncrementDraftCount bumps the order's draft counter and returns the updated
// order.
func (s *PurchaseOrderService) IncrementDraftCount(ctx context.Context, poNumber string) (*repository.PurchaseOrder, error) {
	return s.repo.AdjustDraftCount(ctx, poNumber, 1)
}

// DecrementDraftCount lowers the order's draft counter, floored at zero.
func (s *PurchaseOrderService) DecrementDraftCount(ctx context.Context, poNumber string) (*repository.PurchaseOrder, error) {
	return s.repo.AdjustDraftCount(ctx, poNumber, -1)
}
