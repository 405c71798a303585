package service

import (
	"context"
	"strings"

	"github.com/pesio-ai/be-ap-procurement/internal/apperrors"
	"github.com/pesio-ai/be-ap-procurement/internal/logger"
	"github.com/pesio-ai/be-ap-procurement/internal/repository"
)

// InvoiceService owns the invoice collection and is the only writer of
// invoice status. Other components, the approval orchestrator included, go
// through its API rather than touching the rows directly.
type InvoiceService struct {
	repo *repository.InvoiceRepository
	log  *logger.Logger
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(repo *repository.InvoiceRepository, log *logger.Logger) *InvoiceService {
	return &InvoiceService{repo: repo, log: log}
}

var validInvoiceStatuses = map[string]string{
	strings.ToLower(repository.InvoiceStatusDraft):           repository.InvoiceStatusDraft,
	strings.ToLower(repository.InvoiceStatusPendingApproval): repository.InvoiceStatusPendingApproval,
	strings.ToLower(repository.InvoiceStatusApproved):        repository.InvoiceStatusApproved,
	strings.ToLower(repository.InvoiceStatusPaid):            repository.InvoiceStatusPaid,
}

// normalizeInvoiceStatus maps any casing of a known status onto its canonical
// wire spelling.
func normalizeInvoiceStatus(status string) (string, bool) {
	s, ok := validInvoiceStatuses[strings.ToLower(strings.TrimSpace(status))]
	return s, ok
}

// Create persists an invoice. Drafts may be re-created in place any number of
// times; a non-draft invoice number must be new, and a purchase order can
// carry at most one non-draft invoice.
func (s *InvoiceService) Create(ctx context.Context, invoice *repository.Invoice) (*repository.Invoice, error) {
	if invoice.InvoiceNumber == "" {
		return nil, apperrors.InvalidInput("invoiceNumber", "invoice number is required")
	}
	if invoice.PurchaseOrderNumber == "" {
		return nil, apperrors.InvalidInput("purchaseOrderNumber", "purchase order number is required")
	}
	if len(invoice.LineItems) == 0 {
		return nil, apperrors.InvalidInput("lineItems", "at least one line item is required")
	}

	if invoice.Status == "" {
		invoice.Status = repository.InvoiceStatusDraft
	}
	status, ok := normalizeInvoiceStatus(invoice.Status)
	if !ok {
		return nil, apperrors.InvalidInput("status", "unknown invoice status: "+invoice.Status)
	}
	invoice.Status = status

	if err := s.repo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_number", invoice.InvoiceNumber).
		Str("purchase_order_number", invoice.PurchaseOrderNumber).
		Str("status", invoice.Status).
		Int64("total", invoice.Total).
		Msg("Invoice created")

	return invoice, nil
}

// GetByNumber retrieves an invoice by number.
func (s *InvoiceService) GetByNumber(ctx context.Context, invoiceNumber string) (*repository.Invoice, error) {
	return s.repo.GetByNumber(ctx, invoiceNumber)
}

// List retrieves invoices, optionally filtered by status.
func (s *InvoiceService) List(ctx context.Context, status string) ([]*repository.Invoice, error) {
	if status != "" {
		normalized, ok := normalizeInvoiceStatus(status)
		if !ok {
			return nil, apperrors.InvalidInput("status", "unknown invoice status: "+status)
		}
		status = normalized
	}
	return s.repo.List(ctx, status)
}

// UpdateStatus transitions an invoice to a new status. A non-empty
// expectedStatus makes the write conditional on the stored status still
// matching, so concurrent callers cannot double-apply a transition.
func (s *InvoiceService) UpdateStatus(ctx context.Context, invoiceNumber, status, expectedStatus, updatedBy string) (*repository.Invoice, error) {
	normalized, ok := normalizeInvoiceStatus(status)
	if !ok {
		return nil, apperrors.InvalidInput("status", "unknown invoice status: "+status)
	}
	if expectedStatus != "" {
		expected, ok := normalizeInvoiceStatus(expectedStatus)
		if !ok {
			return nil, apperrors.InvalidInput("expectedStatus", "unknown invoice status: "+expectedStatus)
		}
		expectedStatus = expected
	}

	invoice, err := s.repo.UpdateStatus(ctx, invoiceNumber, normalized, expectedStatus)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_number", invoiceNumber).
		Str("status", normalized).
		Str("updated_by", updatedBy).
		Msg("Invoice status updated")

	return invoice, nil
}

// DeleteDraft removes a draft invoice. Any other status is refused.
func (s *InvoiceService) DeleteDraft(ctx context.Context, invoiceNumber string) error {
	if err := s.repo.DeleteDraft(ctx, invoiceNumber); err != nil {
		return err
	}

	s.log.Info().
		Str("invoice_number", invoiceNumber).
		Msg("Draft invoice deleted")

	return nil
}
