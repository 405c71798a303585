package client

import (
	"context"

	"github.com/pesio-ai/be-ap-procurement/internal/repository"
)

// InvoiceClientInterface defines the invoice store operations the
// orchestrator and draft generator depend on.
type InvoiceClientInterface interface {
	GetInvoice(ctx context.Context, invoiceNumber string) (*repository.Invoice, error)
	CreateInvoice(ctx context.Context, invoice *repository.Invoice) (*repository.Invoice, error)
	// UpdateStatus is the sole external mutation point for invoice status.
	// A non-empty expectedStatus makes the update conditional on the stored
	// status still matching it.
	UpdateStatus(ctx context.Context, invoiceNumber, status, expectedStatus, updatedBy string) (*repository.Invoice, error)
	// DeleteDraft removes a draft invoice. The store rejects deletion of
	// non-draft invoices.
	DeleteDraft(ctx context.Context, invoiceNumber string) error
}

// PurchaseOrderClientInterface defines the purchase order store operations
// consumed by this service.
type PurchaseOrderClientInterface interface {
	GetPurchaseOrder(ctx context.Context, poNumber string) (*repository.PurchaseOrder, error)
	IncrementDraftCount(ctx context.Context, poNumber string) (*repository.PurchaseOrder, error)
	DecrementDraftCount(ctx context.Context, poNumber string) (*repository.PurchaseOrder, error)
}

// GoodsReceivedClientInterface defines the read-only goods received lookup
// used by the approval chain.
type GoodsReceivedClientInterface interface {
	GetGoodsReceived(ctx context.Context, poNumber, itemID string) ([]*repository.GoodsReceivedRecord, error)
}

// SafeLimitClientInterface defines the policy check against the safe limit
// service.
type SafeLimitClientInterface interface {
	CheckApprovalLimit(ctx context.Context, userName string, invoiceAmount int64) (bool, error)
}
