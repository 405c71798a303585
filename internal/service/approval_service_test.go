package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-ap-procurement/internal/apperrors"
	"github.com/pesio-ai/be-ap-procurement/internal/repository"
)

type approvalFixture struct {
	svc       *ApprovalService
	invoices  *fakeInvoiceClient
	orders    *fakePurchaseOrderClient
	goods     *fakeGoodsReceivedClient
	safeLimit *fakeSafeLimitClient
	history   *fakeHistoryStore
}

// newApprovalFixture wires a pending 12,000.00 invoice for Alice against an
// open two-item purchase order with all goods received and a 50,000.00 limit.
func newApprovalFixture() *approvalFixture {
	invoice := &repository.Invoice{
		InvoiceNumber:       "INV-1",
		PurchaseOrderNumber: "PO-100",
		SupplierName:        "Acme Supplies",
		Approver:            "Alice",
		Status:              repository.InvoiceStatusPendingApproval,
		LineItems: []repository.InvoiceLineItem{
			{ItemID: "ITEM-1", Quantity: 2, UnitPrice: 500_000, TotalPrice: 1_000_000},
			{ItemID: "ITEM-2", Quantity: 1, UnitPrice: 200_000, TotalPrice: 200_000},
		},
		Subtotal: 1_200_000,
		Total:    1_200_000,
	}
	po := &repository.PurchaseOrder{
		PurchaseOrderNumber: "PO-100",
		SupplierName:        "Acme Supplies",
		Status:              repository.POStatusOpen,
		LineItems: []repository.PurchaseOrderLineItem{
			{ItemID: "ITEM-1", Quantity: 2, UnitPrice: 500_000},
			{ItemID: "ITEM-2", Quantity: 1, UnitPrice: 200_000},
		},
	}

	f := &approvalFixture{
		invoices:  newFakeInvoiceClient(invoice),
		orders:    newFakePurchaseOrderClient(po),
		goods:     newFakeGoodsReceivedClient(),
		safeLimit: newFakeSafeLimitClient(),
		history:   &fakeHistoryStore{},
	}
	f.goods.add("PO-100", "ITEM-1", repository.GoodsStatusReceived)
	f.goods.add("PO-100", "ITEM-2", repository.GoodsStatusReceived)
	f.safeLimit.limits["alice"] = 5_000_000

	f.svc = NewApprovalService(
		f.invoices, f.orders, f.goods, f.safeLimit, f.history, testPublisher(), testLogger())
	return f
}

func (f *approvalFixture) invoice(t *testing.T, number string) *repository.Invoice {
	t.Helper()
	inv, err := f.invoices.GetInvoice(context.Background(), number)
	require.NoError(t, err)
	return inv
}

func TestApproveInvoice(t *testing.T) {
	f := newApprovalFixture()

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")

	require.True(t, result.Success, result.Message)
	assert.Equal(t, repository.InvoiceStatusApproved, result.Status)
	assert.Equal(t, repository.InvoiceStatusApproved, f.invoice(t, "INV-1").Status)

	require.Len(t, f.history.entries, 1)
	assert.Equal(t, "INV-1", f.history.entries[0].InvoiceNumber)
	assert.Equal(t, "Alice", f.history.entries[0].ApproverName)
	assert.Equal(t, "Approved", f.history.entries[0].Action)
}

func TestApproveInvoiceWithoutRequester(t *testing.T) {
	f := newApprovalFixture()

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "")

	assert.True(t, result.Success, result.Message)
}

func TestApproveInvoiceNotFound(t *testing.T) {
	f := newApprovalFixture()

	result := f.svc.ApproveInvoice(context.Background(), "INV-404", "Alice")

	assert.False(t, result.Success)
	assert.Equal(t, apperrors.ErrCodeNotFound, result.Code)
}

func TestApproveInvoiceWithoutApprover(t *testing.T) {
	f := newApprovalFixture()
	inv := f.invoice(t, "INV-1")
	inv.Approver = ""
	f.invoices.invoices["inv-1"] = inv

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "")

	assert.False(t, result.Success)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, result.Code)
}

func TestApproveInvoiceRequesterMismatch(t *testing.T) {
	f := newApprovalFixture()

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "Bob")

	assert.False(t, result.Success)
	assert.Equal(t, apperrors.ErrCodePolicyDenied, result.Code)
	assert.Contains(t, result.Message, "Alice")
	assert.Equal(t, repository.InvoiceStatusPendingApproval, f.invoice(t, "INV-1").Status)
}

func TestApproveInvoiceRequesterCaseInsensitive(t *testing.T) {
	f := newApprovalFixture()

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "alice")

	assert.True(t, result.Success, result.Message)
}

func TestApproveInvoiceAlreadyApprovedIsIdempotent(t *testing.T) {
	f := newApprovalFixture()
	first := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")
	require.True(t, first.Success)

	second := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")

	assert.True(t, second.Success)
	assert.Equal(t, repository.InvoiceStatusApproved, second.Status)
	// No second status write and no duplicate history entry.
	assert.Equal(t, 1, f.invoices.updateCalls)
	assert.Len(t, f.history.entries, 1)
}

func TestApproveInvoiceNotPending(t *testing.T) {
	f := newApprovalFixture()
	inv := f.invoice(t, "INV-1")
	inv.Status = repository.InvoiceStatusDraft
	f.invoices.invoices["inv-1"] = inv

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")

	assert.False(t, result.Success)
	assert.Equal(t, apperrors.ErrCodeInvalidState, result.Code)
	assert.Equal(t, repository.InvoiceStatusDraft, result.Status)
	assert.Contains(t, result.Message, repository.InvoiceStatusDraft)
}

func TestApproveInvoiceLimitExceeded(t *testing.T) {
	f := newApprovalFixture()
	f.safeLimit.limits["alice"] = 1_000_000 // 10,000.00 < 12,000.00 total

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")

	assert.False(t, result.Success)
	assert.Equal(t, apperrors.ErrCodePolicyDenied, result.Code)
	assert.Contains(t, result.Message, "approval limit exceeded")
	assert.Contains(t, result.Message, "Alice")
	assert.Equal(t, repository.InvoiceStatusPendingApproval, f.invoice(t, "INV-1").Status)
	assert.Empty(t, f.history.entries)
}

func TestApproveInvoiceUnknownApproverDenied(t *testing.T) {
	f := newApprovalFixture()
	delete(f.safeLimit.limits, "alice")

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")

	assert.False(t, result.Success)
	assert.Equal(t, apperrors.ErrCodePolicyDenied, result.Code)
}

func TestApproveInvoicePurchaseOrderNotFound(t *testing.T) {
	f := newApprovalFixture()
	delete(f.orders.orders, "po-100")

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")

	assert.False(t, result.Success)
	assert.Equal(t, apperrors.ErrCodeNotFound, result.Code)
	assert.Contains(t, result.Message, "PO-100")
}

func TestApproveInvoicePurchaseOrderClosed(t *testing.T) {
	f := newApprovalFixture()
	f.orders.orders["po-100"].Status = repository.POStatusClosed

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")

	assert.False(t, result.Success)
	assert.Equal(t, apperrors.ErrCodeInvalidState, result.Code)
	assert.Equal(t, repository.InvoiceStatusPendingApproval, f.invoice(t, "INV-1").Status)
}

func TestApproveInvoiceGoodsNotReceived(t *testing.T) {
	f := newApprovalFixture()
	f.goods.records["po-100/item-2"] = []*repository.GoodsReceivedRecord{
		{PurchaseOrderNumber: "PO-100", ItemID: "ITEM-2", Status: repository.GoodsStatusNotReceived},
	}

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")

	assert.False(t, result.Success)
	assert.Equal(t, apperrors.ErrCodePolicyDenied, result.Code)
	assert.Contains(t, result.Message, "ITEM-2")
	assert.Equal(t, repository.InvoiceStatusPendingApproval, f.invoice(t, "INV-1").Status)
	assert.Empty(t, f.history.entries)
}

func TestApproveInvoiceNoGoodsRecords(t *testing.T) {
	f := newApprovalFixture()
	delete(f.goods.records, "po-100/item-1")

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")

	assert.False(t, result.Success)
	assert.Equal(t, apperrors.ErrCodePolicyDenied, result.Code)
	assert.Contains(t, result.Message, "ITEM-1")
}

func TestApproveInvoiceAutoApproveSkipsGoodsCheck(t *testing.T) {
	f := newApprovalFixture()
	inv := f.invoice(t, "INV-1")
	inv.AutoApprove = true
	f.invoices.invoices["inv-1"] = inv
	f.goods.records = map[string][]*repository.GoodsReceivedRecord{}

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")

	assert.True(t, result.Success, result.Message)
	assert.Equal(t, repository.InvoiceStatusApproved, f.invoice(t, "INV-1").Status)
}

func TestApproveInvoiceSafeLimitServiceDown(t *testing.T) {
	f := newApprovalFixture()
	f.safeLimit.err = apperrors.New(apperrors.ErrCodeDependencyUnavailable, "connection refused")

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")

	assert.False(t, result.Success)
	assert.Equal(t, apperrors.ErrCodeDependencyUnavailable, result.Code)
	assert.Equal(t, repository.InvoiceStatusPendingApproval, f.invoice(t, "INV-1").Status)
}

func TestApproveInvoiceGoodsServiceDown(t *testing.T) {
	f := newApprovalFixture()
	f.goods.err = apperrors.New(apperrors.ErrCodeDependencyUnavailable, "timeout")

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")

	assert.False(t, result.Success)
	assert.Equal(t, apperrors.ErrCodeDependencyUnavailable, result.Code)
}

func TestApproveInvoiceLostUpdateRace(t *testing.T) {
	f := newApprovalFixture()
	f.invoices.updateErr = apperrors.Newf(apperrors.ErrCodeInvalidState,
		"invoice INV-1 is in status 'Approved', expected 'Pending Approval'")

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")

	assert.False(t, result.Success)
	assert.Equal(t, apperrors.ErrCodeInvalidState, result.Code)
}

func TestApproveInvoiceHistoryFailureKeepsVerdict(t *testing.T) {
	f := newApprovalFixture()
	f.history.appendErr = apperrors.New(apperrors.ErrCodeInternal, "insert failed")

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")

	assert.True(t, result.Success)
	assert.Equal(t, repository.InvoiceStatusApproved, f.invoice(t, "INV-1").Status)
	assert.Contains(t, result.Message, "approval history record could not be written")
}

func TestApproveInvoicePanicReportedAsDependencyFailure(t *testing.T) {
	f := newApprovalFixture()
	f.svc.safeLimitClient = nil // nil interface panics inside the chain

	result := f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice")

	assert.False(t, result.Success)
	assert.Equal(t, apperrors.ErrCodeDependencyUnavailable, result.Code)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		cents    int64
		currency string
		want     string
	}{
		{1_200_000, "USD", "12000.00 USD"},
		{5, "", "0.05 USD"},
		{-150, "EUR", "-1.50 EUR"},
		{-5, "USD", "-0.05 USD"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAmount(tt.cents, tt.currency))
	}
}

func TestGetApprovalHistoryFiltersByInvoice(t *testing.T) {
	f := newApprovalFixture()
	require.True(t, f.svc.ApproveInvoice(context.Background(), "INV-1", "Alice").Success)

	entries, err := f.svc.GetApprovalHistory(context.Background(), "inv-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	none, err := f.svc.GetApprovalHistory(context.Background(), "INV-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}
