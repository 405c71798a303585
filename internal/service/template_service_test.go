package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-ap-procurement/internal/apperrors"
	"github.com/pesio-ai/be-ap-procurement/internal/config"
	"github.com/pesio-ai/be-ap-procurement/internal/repository"
)

var testApprovers = config.ApproversConfig{
	Junior:    "ap.supervisor",
	Senior:    "finance.manager",
	Executive: "finance.director",
}

type templateFixture struct {
	svc      *TemplateService
	invoices *fakeInvoiceClient
	orders   *fakePurchaseOrderClient
}

func newTemplateFixture(po *repository.PurchaseOrder) *templateFixture {
	f := &templateFixture{
		invoices: newFakeInvoiceClient(),
		orders:   newFakePurchaseOrderClient(po),
	}
	f.svc = NewTemplateService(f.invoices, f.orders, testApprovers, testPublisher(), testLogger())
	return f
}

func openPO() *repository.PurchaseOrder {
	return &repository.PurchaseOrder{
		PurchaseOrderNumber: "PO-100",
		SupplierName:        "Acme Supplies",
		SupplierID:          "SUP-7",
		Status:              repository.POStatusOpen,
		RequestorName:       "Alice",
		Currency:            "USD",
		LineItems: []repository.PurchaseOrderLineItem{
			{ItemID: "ITEM-1", Description: "Widget", Quantity: 3, UnitPrice: 10_00},
			{ItemID: "ITEM-2", Description: "Gadget", Quantity: 1, UnitPrice: 5_00},
		},
	}
}

func TestGenerateTemplate(t *testing.T) {
	f := newTemplateFixture(openPO())

	draft, err := f.svc.GenerateTemplate(context.Background(), "PO-100", nil)
	require.NoError(t, err)

	assert.Equal(t, "DRAFT-PO-100-1", draft.InvoiceNumber)
	assert.Equal(t, repository.InvoiceStatusDraft, draft.Status)
	assert.Equal(t, "PO-100", draft.PurchaseOrderNumber)
	assert.Equal(t, "Acme Supplies", draft.SupplierName)
	assert.Equal(t, "Alice", draft.Approver)

	// Line totals and aggregates are recomputed, never copied.
	require.Len(t, draft.LineItems, 2)
	assert.Equal(t, int64(30_00), draft.LineItems[0].TotalPrice)
	assert.Equal(t, int64(5_00), draft.LineItems[1].TotalPrice)
	assert.Equal(t, int64(35_00), draft.Subtotal)
	assert.Equal(t, int64(35_00), draft.Total)

	assert.Equal(t, 1, f.orders.orders["po-100"].DraftCount)
}

func TestGenerateTemplateSequentialDraftNumbers(t *testing.T) {
	f := newTemplateFixture(openPO())

	first, err := f.svc.GenerateTemplate(context.Background(), "PO-100", nil)
	require.NoError(t, err)
	second, err := f.svc.GenerateTemplate(context.Background(), "PO-100", nil)
	require.NoError(t, err)

	assert.Equal(t, "DRAFT-PO-100-1", first.InvoiceNumber)
	assert.Equal(t, "DRAFT-PO-100-2", second.InvoiceNumber)
	assert.Equal(t, 2, f.orders.orders["po-100"].DraftCount)
}

func TestGenerateTemplateNeverReissuesDraftNumbers(t *testing.T) {
	f := newTemplateFixture(openPO())
	ctx := context.Background()

	first, err := f.svc.GenerateTemplate(ctx, "PO-100", nil)
	require.NoError(t, err)
	second, err := f.svc.GenerateTemplate(ctx, "PO-100", nil)
	require.NoError(t, err)

	shipping := int64(99_00)
	edited, err := f.svc.UpdateDraft(ctx, second.InvoiceNumber, &TemplateOverrides{Shipping: &shipping})
	require.NoError(t, err)

	// Finalizing the first draft lowers the live draft count, but the next
	// draft must still get a fresh number rather than the second draft's.
	_, err = f.svc.Finalize(ctx, first.InvoiceNumber)
	require.NoError(t, err)

	third, err := f.svc.GenerateTemplate(ctx, "PO-100", nil)
	require.NoError(t, err)

	assert.Equal(t, "DRAFT-PO-100-3", third.InvoiceNumber)
	assert.NotEqual(t, second.InvoiceNumber, third.InvoiceNumber)

	survivor, err := f.invoices.GetInvoice(ctx, second.InvoiceNumber)
	require.NoError(t, err)
	assert.Equal(t, edited.Total, survivor.Total)
}

func TestGenerateTemplateOverridesAffectTotal(t *testing.T) {
	f := newTemplateFixture(openPO())
	shipping := int64(15_00)
	tax := int64(2_00)
	currency := "EUR"

	draft, err := f.svc.GenerateTemplate(context.Background(), "PO-100", &TemplateOverrides{
		Shipping: &shipping,
		Tax:      &tax,
		Currency: &currency,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(35_00), draft.Subtotal)
	assert.Equal(t, int64(52_00), draft.Total)
	assert.Equal(t, "EUR", draft.Currency)
}

func TestGenerateTemplateClosedPO(t *testing.T) {
	po := openPO()
	po.Status = repository.POStatusClosed
	f := newTemplateFixture(po)

	_, err := f.svc.GenerateTemplate(context.Background(), "PO-100", nil)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidState, apperrors.Code(err))
}

func TestGenerateTemplateApproverOverrideWins(t *testing.T) {
	f := newTemplateFixture(openPO())
	approver := "Carol"

	draft, err := f.svc.GenerateTemplate(context.Background(), "PO-100", &TemplateOverrides{Approver: &approver})
	require.NoError(t, err)

	assert.Equal(t, "Carol", draft.Approver)
}

func TestGenerateTemplateTierFallback(t *testing.T) {
	tests := []struct {
		name      string
		unitPrice int64
		want      string
	}{
		{"junior tier", 20_00, "ap.supervisor"},           // total 80.00
		{"senior tier", 5_000_00, "finance.manager"},      // total 20,000.00
		{"executive tier", 15_000_00, "finance.director"}, // total 60,000.00
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			po := openPO()
			po.RequestorName = ""
			po.LineItems = []repository.PurchaseOrderLineItem{
				{ItemID: "ITEM-1", Quantity: 4, UnitPrice: tt.unitPrice},
			}
			f := newTemplateFixture(po)

			draft, err := f.svc.GenerateTemplate(context.Background(), "PO-100", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, draft.Approver)
		})
	}
}

func TestUpdateDraft(t *testing.T) {
	f := newTemplateFixture(openPO())
	draft, err := f.svc.GenerateTemplate(context.Background(), "PO-100", nil)
	require.NoError(t, err)

	shipping := int64(10_00)
	updated, err := f.svc.UpdateDraft(context.Background(), draft.InvoiceNumber, &TemplateOverrides{Shipping: &shipping})
	require.NoError(t, err)

	assert.Equal(t, draft.InvoiceNumber, updated.InvoiceNumber)
	assert.Equal(t, int64(45_00), updated.Total)
	assert.Equal(t, repository.InvoiceStatusDraft, updated.Status)
}

func TestUpdateDraftRejectsNonDraft(t *testing.T) {
	f := newTemplateFixture(openPO())
	f.invoices.invoices["inv-9"] = &repository.Invoice{
		InvoiceNumber: "INV-9",
		Status:        repository.InvoiceStatusPendingApproval,
	}

	_, err := f.svc.UpdateDraft(context.Background(), "INV-9", nil)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidState, apperrors.Code(err))
}

func TestFinalize(t *testing.T) {
	f := newTemplateFixture(openPO())
	draft, err := f.svc.GenerateTemplate(context.Background(), "PO-100", nil)
	require.NoError(t, err)

	final, err := f.svc.Finalize(context.Background(), draft.InvoiceNumber)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(final.InvoiceNumber, "INV-"))
	assert.NotEqual(t, draft.InvoiceNumber, final.InvoiceNumber)
	assert.Equal(t, repository.InvoiceStatusPendingApproval, final.Status)
	assert.Equal(t, "Alice", final.Approver)
	assert.Equal(t, draft.Total, final.Total)

	// The draft row is gone and its slot released.
	_, err = f.invoices.GetInvoice(context.Background(), draft.InvoiceNumber)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.Code(err))
	assert.Equal(t, 0, f.orders.orders["po-100"].DraftCount)
}

func TestFinalizeRejectsNonDraft(t *testing.T) {
	f := newTemplateFixture(openPO())
	draft, err := f.svc.GenerateTemplate(context.Background(), "PO-100", nil)
	require.NoError(t, err)
	final, err := f.svc.Finalize(context.Background(), draft.InvoiceNumber)
	require.NoError(t, err)

	_, err = f.svc.Finalize(context.Background(), final.InvoiceNumber)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidState, apperrors.Code(err))
}

func TestFinalizeClosedPO(t *testing.T) {
	f := newTemplateFixture(openPO())
	draft, err := f.svc.GenerateTemplate(context.Background(), "PO-100", nil)
	require.NoError(t, err)

	f.orders.orders["po-100"].Status = repository.POStatusClosed

	_, err = f.svc.Finalize(context.Background(), draft.InvoiceNumber)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidState, apperrors.Code(err))
}
