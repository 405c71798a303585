package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/pesio-ai/be-ap-procurement/internal/httpclient"
	"github.com/pesio-ai/be-ap-procurement/internal/repository"
)

// InvoiceClient is a client for the invoice service.
type InvoiceClient struct {
	client *httpclient.Client
}

// NewInvoiceClient creates a new invoice service client.
func NewInvoiceClient(baseURL string, timeout time.Duration) *InvoiceClient {
	return &InvoiceClient{
		client: httpclient.NewClientWithTimeout(baseURL, timeout),
	}
}

// GetInvoice retrieves an invoice by number.
func (c *InvoiceClient) GetInvoice(ctx context.Context, invoiceNumber string) (*repository.Invoice, error) {
	path := fmt.Sprintf("/api/v1/invoices/%s", url.PathEscape(invoiceNumber))

	var invoice repository.Invoice
	if err := c.client.Get(ctx, path, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// CreateInvoice creates an invoice (or replaces a draft in place).
func (c *InvoiceClient) CreateInvoice(ctx context.Context, invoice *repository.Invoice) (*repository.Invoice, error) {
	var created repository.Invoice
	if err := c.client.Post(ctx, "/api/v1/invoices", invoice, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateStatusRequest is the invoice status update payload.
type UpdateStatusRequest struct {
	Status         string `json:"status"`
	ExpectedStatus string `json:"expectedStatus,omitempty"`
	UpdatedBy      string `json:"updatedBy,omitempty"`
}

// UpdateStatus sets the invoice status through the owning store, optionally
// guarded by the expected prior status.
func (c *InvoiceClient) UpdateStatus(ctx context.Context, invoiceNumber, status, expectedStatus, updatedBy string) (*repository.Invoice, error) {
	path := fmt.Sprintf("/api/v1/invoices/%s/status", url.PathEscape(invoiceNumber))
	req := UpdateStatusRequest{
		Status:         status,
		ExpectedStatus: expectedStatus,
		UpdatedBy:      updatedBy,
	}

	var invoice repository.Invoice
	if err := c.client.Put(ctx, path, req, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// DeleteDraft removes a draft invoice. The owning store refuses to delete
// invoices in any other status.
func (c *InvoiceClient) DeleteDraft(ctx context.Context, invoiceNumber string) error {
	path := fmt.Sprintf("/api/v1/invoices/%s", url.PathEscape(invoiceNumber))
	return c.client.Delete(ctx, path)
}
