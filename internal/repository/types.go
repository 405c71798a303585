package repository

import "time"

// ── Status vocabularies ───────────────────────────────────────────────────────
//
// Wire spellings are shared with the sibling procurement services, so they are
// stored and transmitted verbatim.

// Invoice statuses.
const (
	InvoiceStatusDraft           = "Draft"
	InvoiceStatusPendingApproval = "Pending Approval"
	InvoiceStatusApproved        = "Approved"
	InvoiceStatusPaid            = "Paid"
)

// Purchase order statuses.
const (
	POStatusOpen   = "Open"
	POStatusClosed = "Closed"
)

// Goods received statuses.
const (
	GoodsStatusReceived    = "Received"
	GoodsStatusNotReceived = "Not Received"
)

// ── Entities ──────────────────────────────────────────────────────────────────
//
// All monetary amounts are int64 minor units (cents).

// PurchaseOrderLineItem is one line on a purchase order.
type PurchaseOrderLineItem struct {
	ItemID      string `json:"itemId"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
	TotalPrice  int64  `json:"totalPrice"`
	Status      string `json:"status,omitempty"`
}

// PurchaseOrder is the originating procurement document. The orchestrator
// treats it as read-only apart from status and draft-count updates.
type PurchaseOrder struct {
	PurchaseOrderNumber  string                  `json:"purchaseOrderNumber"`
	SupplierName         string                  `json:"supplierName"`
	SupplierID           string                  `json:"supplierId,omitempty"`
	OrderDate            string                  `json:"orderDate,omitempty"`
	ExpectedDeliveryDate string                  `json:"expectedDeliveryDate,omitempty"`
	ShippingAddress      string                  `json:"shippingAddress,omitempty"`
	AutoApprove          bool                    `json:"autoApprove"`
	LineItems            []PurchaseOrderLineItem `json:"lineItems"`
	Subtotal             int64                   `json:"subtotal"`
	Tax                  int64                   `json:"tax"`
	Shipping             int64                   `json:"shipping"`
	Total                int64                   `json:"total"`
	Currency             string                  `json:"currency,omitempty"`
	Status               string                  `json:"status"`
	RequestorName        string                  `json:"requestorName,omitempty"`
	ApprovalDate         string                  `json:"approvalDate,omitempty"`
	DraftCount           int                     `json:"draftCount"`
	DraftSequence        int                     `json:"draftSequence"`
	CreatedAt            time.Time               `json:"createdAt,omitzero"`
	UpdatedAt            time.Time               `json:"updatedAt,omitzero"`
}

// InvoiceLineItem mirrors the purchase order line it was derived from.
type InvoiceLineItem struct {
	ItemID      string `json:"itemId"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
	TotalPrice  int64  `json:"totalPrice"`
}

// Invoice is the payable document. The approver is resolved at creation and
// immutable thereafter; only the owning store mutates status.
type Invoice struct {
	InvoiceNumber       string            `json:"invoiceNumber"`
	PurchaseOrderNumber string            `json:"purchaseOrderNumber"`
	SupplierName        string            `json:"supplierName"`
	SupplierID          string            `json:"supplierId,omitempty"`
	InvoiceDate         string            `json:"invoiceDate"`
	DueDate             string            `json:"dueDate"`
	Approver            string            `json:"approver"`
	AutoApprove         bool              `json:"autoApprove"`
	LineItems           []InvoiceLineItem `json:"lineItems"`
	Subtotal            int64             `json:"subtotal"`
	Tax                 int64             `json:"tax"`
	Shipping            int64             `json:"shipping"`
	Total               int64             `json:"total"`
	Currency            string            `json:"currency,omitempty"`
	Status              string            `json:"status"`
	CreatedAt           time.Time         `json:"createdAt,omitzero"`
	UpdatedAt           time.Time         `json:"updatedAt,omitzero"`
}

// GoodsReceivedRecord confirms physical arrival of one line item.
type GoodsReceivedRecord struct {
	ID                  string    `json:"id"`
	PurchaseOrderNumber string    `json:"purchaseOrderNumber"`
	ItemID              string    `json:"itemId"`
	SerialNumber        string    `json:"serialNumber,omitempty"`
	AssetTagNumber      string    `json:"assetTagNumber,omitempty"`
	Status              string    `json:"status"`
	ReceivedDate        *string   `json:"receivedDate,omitempty"`
	LastModified        time.Time `json:"lastModified,omitzero"`
}

// SafeLimit is the per-approver monetary ceiling. ApprovalLimit only ever
// increases; the repository enforces the monotonic bound.
type SafeLimit struct {
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	ApprovalLimit int64     `json:"approvalLimit"`
	Currency      string    `json:"currency,omitempty"`
	Role          string    `json:"role,omitempty"`
	LastModified  time.Time `json:"lastModified,omitzero"`
}

// ApprovalHistoryRecord is one immutable entry in the approval log.
type ApprovalHistoryRecord struct {
	ID            string    `json:"id"`
	InvoiceNumber string    `json:"invoiceNumber"`
	ApproverName  string    `json:"approverName"`
	Action        string    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
	Comments      string    `json:"comments,omitempty"`
}
