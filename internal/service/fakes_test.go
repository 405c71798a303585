package service

import (
	"context"
	"strings"

	"github.com/pesio-ai/be-ap-procurement/internal/apperrors"
	"github.com/pesio-ai/be-ap-procurement/internal/client"
	"github.com/pesio-ai/be-ap-procurement/internal/logger"
	"github.com/pesio-ai/be-ap-procurement/internal/repository"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "disabled", Environment: "test", ServiceName: "test"})
}

func testPublisher() *client.NotificationPublisher {
	return client.NewNotificationPublisher(nil, testLogger().Logger)
}

type fakeInvoiceClient struct {
	invoices    map[string]*repository.Invoice
	getErr      error
	createErr   error
	updateErr   error
	updateCalls int
	deleted     []string
}

func newFakeInvoiceClient(invoices ...*repository.Invoice) *fakeInvoiceClient {
	f := &fakeInvoiceClient{invoices: make(map[string]*repository.Invoice)}
	for _, inv := range invoices {
		f.invoices[strings.ToLower(inv.InvoiceNumber)] = inv
	}
	return f
}

func (f *fakeInvoiceClient) GetInvoice(_ context.Context, invoiceNumber string) (*repository.Invoice, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	inv, ok := f.invoices[strings.ToLower(invoiceNumber)]
	if !ok {
		return nil, apperrors.NotFound("invoice", invoiceNumber)
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoiceClient) CreateInvoice(_ context.Context, invoice *repository.Invoice) (*repository.Invoice, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	cp := *invoice
	f.invoices[strings.ToLower(invoice.InvoiceNumber)] = &cp
	out := cp
	return &out, nil
}

func (f *fakeInvoiceClient) UpdateStatus(_ context.Context, invoiceNumber, status, expectedStatus, _ string) (*repository.Invoice, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	inv, ok := f.invoices[strings.ToLower(invoiceNumber)]
	if !ok {
		return nil, apperrors.NotFound("invoice", invoiceNumber)
	}
	if expectedStatus != "" && inv.Status != expectedStatus {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidState,
			"invoice %s is in status '%s', expected '%s'", invoiceNumber, inv.Status, expectedStatus)
	}
	inv.Status = status
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoiceClient) DeleteDraft(_ context.Context, invoiceNumber string) error {
	key := strings.ToLower(invoiceNumber)
	if _, ok := f.invoices[key]; !ok {
		return apperrors.NotFound("invoice", invoiceNumber)
	}
	delete(f.invoices, key)
	f.deleted = append(f.deleted, invoiceNumber)
	return nil
}

type fakePurchaseOrderClient struct {
	orders map[string]*repository.PurchaseOrder
	getErr error
}

func newFakePurchaseOrderClient(orders ...*repository.PurchaseOrder) *fakePurchaseOrderClient {
	f := &fakePurchaseOrderClient{orders: make(map[string]*repository.PurchaseOrder)}
	for _, po := range orders {
		f.orders[strings.ToLower(po.PurchaseOrderNumber)] = po
	}
	return f
}

func (f *fakePurchaseOrderClient) GetPurchaseOrder(_ context.Context, poNumber string) (*repository.PurchaseOrder, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	po, ok := f.orders[strings.ToLower(poNumber)]
	if !ok {
		return nil, apperrors.NotFound("purchase order", poNumber)
	}
	cp := *po
	return &cp, nil
}

func (f *fakePurchaseOrderClient) IncrementDraftCount(ctx context.Context, poNumber string) (*repository.PurchaseOrder, error) {
	po, ok := f.orders[strings.ToLower(poNumber)]
	if !ok {
		return nil, apperrors.NotFound("purchase order", poNumber)
	}
	po.DraftCount++
	po.DraftSequence++
	cp := *po
	return &cp, nil
}

func (f *fakePurchaseOrderClient) DecrementDraftCount(ctx context.Context, poNumber string) (*repository.PurchaseOrder, error) {
	po, ok := f.orders[strings.ToLower(poNumber)]
	if !ok {
		return nil, apperrors.NotFound("purchase order", poNumber)
	}
	if po.DraftCount > 0 {
		po.DraftCount--
	}
	cp := *po
	return &cp, nil
}

type fakeGoodsReceivedClient struct {
	records map[string][]*repository.GoodsReceivedRecord
	err     error
}

func newFakeGoodsReceivedClient() *fakeGoodsReceivedClient {
	return &fakeGoodsReceivedClient{records: make(map[string][]*repository.GoodsReceivedRecord)}
}

func (f *fakeGoodsReceivedClient) add(poNumber, itemID, status string) {
	key := strings.ToLower(poNumber + "/" + itemID)
	f.records[key] = append(f.records[key], &repository.GoodsReceivedRecord{
		PurchaseOrderNumber: poNumber,
		ItemID:              itemID,
		Status:              status,
	})
}

func (f *fakeGoodsReceivedClient) GetGoodsReceived(_ context.Context, poNumber, itemID string) ([]*repository.GoodsReceivedRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[strings.ToLower(poNumber+"/"+itemID)], nil
}

type fakeSafeLimitClient struct {
	limits map[string]int64
	err    error
}

func newFakeSafeLimitClient() *fakeSafeLimitClient {
	return &fakeSafeLimitClient{limits: make(map[string]int64)}
}

func (f *fakeSafeLimitClient) CheckApprovalLimit(_ context.Context, userName string, invoiceAmount int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	limit, ok := f.limits[strings.ToLower(userName)]
	if !ok {
		return false, nil
	}
	return invoiceAmount <= limit, nil
}

type fakeHistoryStore struct {
	entries   []*repository.ApprovalHistoryRecord
	appendErr error
}

func (f *fakeHistoryStore) Append(_ context.Context, entry *repository.ApprovalHistoryRecord) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	cp := *entry
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeHistoryStore) List(_ context.Context, invoiceNumber string) ([]*repository.ApprovalHistoryRecord, error) {
	if invoiceNumber == "" {
		return f.entries, nil
	}
	out := make([]*repository.ApprovalHistoryRecord, 0)
	for _, e := range f.entries {
		if strings.EqualFold(e.InvoiceNumber, invoiceNumber) {
			out = append(out, e)
		}
	}
	return out, nil
}
