package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pesio-ai/be-ap-procurement/internal/apperrors"
	"github.com/pesio-ai/be-ap-procurement/internal/client"
	"github.com/pesio-ai/be-ap-procurement/internal/config"
	"github.com/pesio-ai/be-ap-procurement/internal/logger"
	"github.com/pesio-ai/be-ap-procurement/internal/repository"
)

// Amount tier boundaries for the approver fallback, in cents.
const (
	juniorTierLimit = 1_000_000 // 10,000.00
	seniorTierLimit = 5_000_000 // 50,000.00
)

// TemplateOverrides is the closed set of invoice fields a caller may override
// when generating or editing a draft. Monetary values are cents.
type TemplateOverrides struct {
	InvoiceDate *string `json:"invoiceDate,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Currency    *string `json:"currency,omitempty"`
	Shipping    *int64  `json:"shipping,omitempty"`
	Tax         *int64  `json:"tax,omitempty"`
	Approver    *string `json:"approver,omitempty"`
}

// TemplateService derives invoice drafts from purchase orders, applies field
// overrides, and finalizes drafts into approvable invoices.
type TemplateService struct {
	invoiceClient client.InvoiceClientInterface
	poClient      client.PurchaseOrderClientInterface
	approvers     config.ApproversConfig
	publisher     *client.NotificationPublisher
	log           *logger.Logger
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(
	invoiceClient client.InvoiceClientInterface,
	poClient client.PurchaseOrderClientInterface,
	approvers config.ApproversConfig,
	publisher *client.NotificationPublisher,
	log *logger.Logger,
) *TemplateService {
	return &TemplateService{
		invoiceClient: invoiceClient,
		poClient:      poClient,
		approvers:     approvers,
		publisher:     publisher,
		log:           log,
	}
}

// GenerateTemplate materializes a draft invoice from a purchase order. Line
// totals and the subtotal are always recomputed from quantities and unit
// prices; overrides are applied afterwards and the grand total recomputed
// last, so a shipping or tax override is always reflected in the total.
func (s *TemplateService) GenerateTemplate(ctx context.Context, poNumber string, overrides *TemplateOverrides) (*repository.Invoice, error) {
	po, err := s.poClient.GetPurchaseOrder(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(po.Status, repository.POStatusClosed) {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidState,
			"cannot generate an invoice for closed purchase order %s", poNumber)
	}

	now := time.Now()
	invoice := &repository.Invoice{
		PurchaseOrderNumber: po.PurchaseOrderNumber,
		SupplierName:        po.SupplierName,
		SupplierID:          po.SupplierID,
		InvoiceDate:         now.Format("2006-01-02"),
		DueDate:             now.AddDate(0, 0, 30).Format("2006-01-02"),
		AutoApprove:         po.AutoApprove,
		Tax:                 po.Tax,
		Shipping:            po.Shipping,
		Currency:            po.Currency,
		Status:              repository.InvoiceStatusDraft,
	}

	for _, item := range po.LineItems {
		invoice.LineItems = append(invoice.LineItems, repository.InvoiceLineItem{
			ItemID:      item.ItemID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  int64(item.Quantity) * item.UnitPrice,
		})
	}

	s.applyOverrides(invoice, overrides)
	recomputeTotals(invoice)
	invoice.Approver = s.resolveApprover(invoice.Approver, po.RequestorName, invoice.Total)

	// The draft number is scoped to the purchase order and replaced at
	// finalization. It is derived from the order's draft sequence, which
	// only ever advances, not from the live draft count; reusing a number
	// after a finalize would overwrite a still-live draft in place.
	updatedPO, err := s.poClient.IncrementDraftCount(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	invoice.InvoiceNumber = fmt.Sprintf("DRAFT-%s-%d", po.PurchaseOrderNumber, updatedPO.DraftSequence)

	created, err := s.invoiceClient.CreateInvoice(ctx, invoice)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishEvent("invoice_draft_created", "invoice", created.InvoiceNumber, created.Approver, map[string]any{
		"purchase_order_number": po.PurchaseOrderNumber,
		"total":                 created.Total,
	})

	s.log.Info().
		Str("invoice_number", created.InvoiceNumber).
		Str("purchase_order_number", po.PurchaseOrderNumber).
		Str("approver", created.Approver).
		Int64("total", created.Total).
		Msg("Invoice draft generated")

	return created, nil
}

// UpdateDraft applies overrides to an existing draft and recomputes totals.
// Drafts may be edited any number of times until finalized.
func (s *TemplateService) UpdateDraft(ctx context.Context, invoiceNumber string, overrides *TemplateOverrides) (*repository.Invoice, error) {
	invoice, err := s.invoiceClient.GetInvoice(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	if invoice.Status != repository.InvoiceStatusDraft {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidState,
			"invoice %s is not a draft (status: %s)", invoiceNumber, invoice.Status)
	}

	s.applyOverrides(invoice, overrides)
	recomputeTotals(invoice)

	return s.invoiceClient.CreateInvoice(ctx, invoice)
}

// Finalize promotes a draft to Pending Approval under a fresh, globally
// unique invoice number, re-resolves the approver, and releases the draft
// slot on the purchase order.
func (s *TemplateService) Finalize(ctx context.Context, draftNumber string) (*repository.Invoice, error) {
	draft, err := s.invoiceClient.GetInvoice(ctx, draftNumber)
	if err != nil {
		return nil, err
	}
	if draft.Status != repository.InvoiceStatusDraft {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidState,
			"invoice %s is not a draft (status: %s)", draftNumber, draft.Status)
	}

	po, err := s.poClient.GetPurchaseOrder(ctx, draft.PurchaseOrderNumber)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(po.Status, repository.POStatusClosed) {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidState,
			"cannot finalize an invoice for closed purchase order %s", draft.PurchaseOrderNumber)
	}

	final := *draft
	final.InvoiceNumber = newInvoiceNumber()
	final.Status = repository.InvoiceStatusPendingApproval
	final.Approver = s.resolveApprover(draft.Approver, po.RequestorName, final.Total)

	created, err := s.invoiceClient.CreateInvoice(ctx, &final)
	if err != nil {
		return nil, err
	}

	if err := s.invoiceClient.DeleteDraft(ctx, draftNumber); err != nil {
		// The finalized invoice exists; a stale draft row is recoverable.
		s.log.Warn().Err(err).
			Str("draft_number", draftNumber).
			Msg("Failed to remove draft after finalization")
	}
	if _, err := s.poClient.DecrementDraftCount(ctx, draft.PurchaseOrderNumber); err != nil {
		s.log.Warn().Err(err).
			Str("purchase_order_number", draft.PurchaseOrderNumber).
			Msg("Failed to decrement draft count after finalization")
	}

	s.publisher.PublishEvent("invoice_finalized", "invoice", created.InvoiceNumber, created.Approver, map[string]any{
		"purchase_order_number": created.PurchaseOrderNumber,
		"draft_number":          draftNumber,
		"total":                 created.Total,
	})

	s.log.Info().
		Str("invoice_number", created.InvoiceNumber).
		Str("draft_number", draftNumber).
		Str("approver", created.Approver).
		Msg("Invoice finalized")

	return created, nil
}

func (s *TemplateService) applyOverrides(invoice *repository.Invoice, overrides *TemplateOverrides) {
	if overrides == nil {
		return
	}
	if overrides.InvoiceDate != nil {
		invoice.InvoiceDate = *overrides.InvoiceDate
	}
	if overrides.DueDate != nil {
		invoice.DueDate = *overrides.DueDate
	}
	if overrides.Currency != nil {
		invoice.Currency = *overrides.Currency
	}
	if overrides.Shipping != nil {
		invoice.Shipping = *overrides.Shipping
	}
	if overrides.Tax != nil {
		invoice.Tax = *overrides.Tax
	}
	if overrides.Approver != nil {
		invoice.Approver = *overrides.Approver
	}
}

// resolveApprover picks the approver with a single deterministic precedence:
// an explicitly set approver wins, then the purchase order's requestor, then
// the amount-tier default. The tier only decides who is asked; authorization
// is always re-verified against the safe limit store at approval time.
func (s *TemplateService) resolveApprover(explicit, requestor string, total int64) string {
	if explicit != "" {
		return explicit
	}
	if requestor != "" {
		return requestor
	}
	switch {
	case total <= juniorTierLimit:
		return s.approvers.Junior
	case total <= seniorTierLimit:
		return s.approvers.Senior
	default:
		return s.approvers.Executive
	}
}

func recomputeTotals(invoice *repository.Invoice) {
	var subtotal int64
	for i := range invoice.LineItems {
		item := &invoice.LineItems[i]
		item.TotalPrice = int64(item.Quantity) * item.UnitPrice
		subtotal += item.TotalPrice
	}
	invoice.Subtotal = subtotal
	invoice.Total = subtotal + invoice.Tax + invoice.Shipping
}

func newInvoiceNumber() string {
	return "INV-" + strings.ToUpper(uuid.New().String()[:8])
}
