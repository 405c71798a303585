package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pesio-ai/be-ap-procurement/internal/apperrors"
	"github.com/pesio-ai/be-ap-procurement/internal/client"
	"github.com/pesio-ai/be-ap-procurement/internal/logger"
	"github.com/pesio-ai/be-ap-procurement/internal/repository"
)

// ApprovalHistoryStore is the append-only log the orchestrator records
// outcomes to.
type ApprovalHistoryStore interface {
	Append(ctx context.Context, entry *repository.ApprovalHistoryRecord) error
	List(ctx context.Context, invoiceNumber string) ([]*repository.ApprovalHistoryRecord, error)
}

// ApprovalResult is the structured verdict of an approval attempt. Every
// outcome, success or failure, is reported through this shape; the
// orchestrator never surfaces raw errors.
type ApprovalResult struct {
	InvoiceNumber string `json:"invoiceNumber"`
	Success       bool   `json:"success"`
	Status        string `json:"status,omitempty"`
	Message       string `json:"message"`
	Code          string `json:"code,omitempty"`
}

// ApprovalService orchestrates the cross-service approval validation chain.
// It reads from the purchase order, goods received and safe limit services,
// and writes only two things: the invoice status (through the owning store)
// and an approval history entry.
type ApprovalService struct {
	invoiceClient   client.InvoiceClientInterface
	poClient        client.PurchaseOrderClientInterface
	goodsClient     client.GoodsReceivedClientInterface
	safeLimitClient client.SafeLimitClientInterface
	historyStore    ApprovalHistoryStore
	publisher       *client.NotificationPublisher
	log             *logger.Logger
}

// NewApprovalService creates a new ApprovalService.
func NewApprovalService(
	invoiceClient client.InvoiceClientInterface,
	poClient client.PurchaseOrderClientInterface,
	goodsClient client.GoodsReceivedClientInterface,
	safeLimitClient client.SafeLimitClientInterface,
	historyStore ApprovalHistoryStore,
	publisher *client.NotificationPublisher,
	log *logger.Logger,
) *ApprovalService {
	return &ApprovalService{
		invoiceClient:   invoiceClient,
		poClient:        poClient,
		goodsClient:     goodsClient,
		safeLimitClient: safeLimitClient,
		historyStore:    historyStore,
		publisher:       publisher,
		log:             log,
	}
}

// ApproveInvoice runs the full validation chain for one invoice and, when
// every check passes, commits the status transition exactly once and records
// history. The checks run in a fixed order and short-circuit on the first
// failure; no write of any kind happens until all of them have passed.
//
// requestedBy is optional: when non-empty it must match the invoice's
// designated approver.
func (s *ApprovalService) ApproveInvoice(ctx context.Context, invoiceNumber, requestedBy string) (result *ApprovalResult) {
	// A crash mid-chain is indistinguishable from an infrastructure fault
	// from the caller's perspective, so report it as one.
	defer func() {
		if p := recover(); p != nil {
			s.log.Error().
				Interface("panic", p).
				Str("invoice_number", invoiceNumber).
				Msg("Approval orchestration panic recovered")
			result = s.reject(invoiceNumber, apperrors.ErrCodeDependencyUnavailable,
				"an internal error occurred while processing the approval")
		}
	}()

	s.log.Info().
		Str("invoice_number", invoiceNumber).
		Str("requested_by", requestedBy).
		Msg("Processing approval request")

	// 1. Invoice must exist.
	invoice, err := s.invoiceClient.GetInvoice(ctx, invoiceNumber)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
			return s.reject(invoiceNumber, apperrors.ErrCodeNotFound,
				fmt.Sprintf("invoice %s not found", invoiceNumber))
		}
		return s.dependencyFailure(invoiceNumber, "failed to retrieve invoice", err)
	}

	// 2. Invoice must have a designated approver.
	if invoice.Approver == "" {
		return s.reject(invoiceNumber, apperrors.ErrCodeInvalidInput,
			fmt.Sprintf("invoice %s has no approver designated", invoiceNumber))
	}

	// 3. Only the designated approver may approve.
	if requestedBy != "" && !strings.EqualFold(requestedBy, invoice.Approver) {
		return s.reject(invoiceNumber, apperrors.ErrCodePolicyDenied,
			fmt.Sprintf("only %s is authorized to approve invoice %s", invoice.Approver, invoiceNumber))
	}

	// 4. Re-approval is idempotent, not an error.
	if strings.EqualFold(invoice.Status, repository.InvoiceStatusApproved) {
		return &ApprovalResult{
			InvoiceNumber: invoiceNumber,
			Success:       true,
			Status:        repository.InvoiceStatusApproved,
			Message:       fmt.Sprintf("invoice %s is already approved", invoiceNumber),
		}
	}

	// 5. Any other non-pending status is an invalid transition.
	if !strings.EqualFold(invoice.Status, repository.InvoiceStatusPendingApproval) {
		return &ApprovalResult{
			InvoiceNumber: invoiceNumber,
			Success:       false,
			Status:        invoice.Status,
			Message:       fmt.Sprintf("invoice %s is not in 'Pending Approval' status (current: %s)", invoiceNumber, invoice.Status),
			Code:          apperrors.ErrCodeInvalidState,
		}
	}

	// 6. The approver's safe limit must cover the invoice total.
	canApprove, err := s.safeLimitClient.CheckApprovalLimit(ctx, invoice.Approver, invoice.Total)
	if err != nil {
		return s.dependencyFailure(invoiceNumber, "failed to verify approval limit", err)
	}
	if !canApprove {
		return s.reject(invoiceNumber, apperrors.ErrCodePolicyDenied,
			fmt.Sprintf("approval limit exceeded: %s is not authorized to approve invoices of %s",
				invoice.Approver, formatAmount(invoice.Total, invoice.Currency)))
	}

	// 7. The purchase order must exist and be open.
	po, err := s.poClient.GetPurchaseOrder(ctx, invoice.PurchaseOrderNumber)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
			return s.reject(invoiceNumber, apperrors.ErrCodeNotFound,
				fmt.Sprintf("purchase order %s not found", invoice.PurchaseOrderNumber))
		}
		return s.dependencyFailure(invoiceNumber,
			fmt.Sprintf("failed to validate purchase order %s", invoice.PurchaseOrderNumber), err)
	}
	if strings.EqualFold(po.Status, repository.POStatusClosed) {
		return s.reject(invoiceNumber, apperrors.ErrCodeInvalidState,
			fmt.Sprintf("cannot approve invoice %s because purchase order %s is closed",
				invoiceNumber, invoice.PurchaseOrderNumber))
	}

	// 8. Every line item must have received goods, unless the invoice carries
	// the auto-approve flag.
	if invoice.AutoApprove {
		s.log.Info().
			Str("invoice_number", invoiceNumber).
			Msg("Auto-approve flag set; skipping goods received validation")
	} else {
		if result := s.checkGoodsReceived(ctx, invoice); result != nil {
			return result
		}
	}

	// 9. Commit: single conditional write through the owning store.
	updated, err := s.invoiceClient.UpdateStatus(ctx,
		invoiceNumber, repository.InvoiceStatusApproved, repository.InvoiceStatusPendingApproval, invoice.Approver)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeInvalidState) {
			// Lost the conditional update race; report the state conflict.
			return s.reject(invoiceNumber, apperrors.ErrCodeInvalidState, apperrors.Message(err))
		}
		return s.dependencyFailure(invoiceNumber, "failed to update invoice status", err)
	}

	// 10. Record the approval. The status write above is already durable, so
	// a history failure is surfaced in the message but does not reverse the
	// verdict.
	message := fmt.Sprintf("invoice %s has been approved by %s", invoiceNumber, invoice.Approver)
	entry := &repository.ApprovalHistoryRecord{
		InvoiceNumber: invoiceNumber,
		ApproverName:  invoice.Approver,
		Action:        "Approved",
	}
	if err := s.historyStore.Append(ctx, entry); err != nil {
		s.log.Error().Err(err).
			Str("invoice_number", invoiceNumber).
			Msg("Failed to append approval history entry")
		message += " (warning: approval history record could not be written)"
	}

	s.publisher.PublishEvent("invoice_approved", "invoice", invoiceNumber, invoice.Approver, map[string]any{
		"purchase_order_number": invoice.PurchaseOrderNumber,
		"total":                 invoice.Total,
	})

	s.log.Info().
		Str("invoice_number", invoiceNumber).
		Str("approver", invoice.Approver).
		Int64("total", invoice.Total).
		Msg("Invoice approved")

	return &ApprovalResult{
		InvoiceNumber: invoiceNumber,
		Success:       true,
		Status:        updated.Status,
		Message:       message,
	}
}

// checkGoodsReceived verifies that every line item on the invoice has at
// least one goods received record and that none are outstanding. Returns a
// rejection result on failure, nil when the check passes.
func (s *ApprovalService) checkGoodsReceived(ctx context.Context, invoice *repository.Invoice) *ApprovalResult {
	for _, item := range invoice.LineItems {
		records, err := s.goodsClient.GetGoodsReceived(ctx, invoice.PurchaseOrderNumber, item.ItemID)
		if err != nil {
			return s.dependencyFailure(invoice.InvoiceNumber,
				fmt.Sprintf("failed to validate goods received for item %s", item.ItemID), err)
		}
		if len(records) == 0 {
			return s.reject(invoice.InvoiceNumber, apperrors.ErrCodePolicyDenied,
				fmt.Sprintf("cannot approve invoice %s: no goods received record for item %s",
					invoice.InvoiceNumber, item.ItemID))
		}
		for _, rec := range records {
			if !strings.EqualFold(rec.Status, repository.GoodsStatusReceived) {
				return s.reject(invoice.InvoiceNumber, apperrors.ErrCodePolicyDenied,
					fmt.Sprintf("cannot approve invoice %s: goods for item %s are not marked as received",
						invoice.InvoiceNumber, item.ItemID))
			}
		}
	}
	return nil
}

// GetApprovalHistory returns history entries, optionally for one invoice.
func (s *ApprovalService) GetApprovalHistory(ctx context.Context, invoiceNumber string) ([]*repository.ApprovalHistoryRecord, error) {
	return s.historyStore.List(ctx, invoiceNumber)
}

func (s *ApprovalService) reject(invoiceNumber, code, message string) *ApprovalResult {
	s.log.Info().
		Str("invoice_number", invoiceNumber).
		Str("code", code).
		Str("reason", message).
		Msg("Approval rejected")
	return &ApprovalResult{
		InvoiceNumber: invoiceNumber,
		Success:       false,
		Message:       message,
		Code:          code,
	}
}

func (s *ApprovalService) dependencyFailure(invoiceNumber, message string, err error) *ApprovalResult {
	s.log.Error().Err(err).
		Str("invoice_number", invoiceNumber).
		Msg(message)

	code := apperrors.Code(err)
	if code != apperrors.ErrCodeDependencyUnavailable && code != apperrors.ErrCodeDataIntegrity {
		code = apperrors.ErrCodeDependencyUnavailable
	}
	return &ApprovalResult{
		InvoiceNumber: invoiceNumber,
		Success:       false,
		Message:       fmt.Sprintf("%s: %s", message, apperrors.Message(err)),
		Code:          code,
	}
}

func formatAmount(cents int64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, currency)
}
