package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/pesio-ai/be-ap-procurement/internal/httpclient"
	"github.com/pesio-ai/be-ap-procurement/internal/repository"
)

// PurchaseOrderClient is a client for the purchase order service.
type PurchaseOrderClient struct {
	client *httpclient.Client
}

// NewPurchaseOrderClient creates a new purchase order service client.
func NewPurchaseOrderClient(baseURL string, timeout time.Duration) *PurchaseOrderClient {
	return &PurchaseOrderClient{
		client: httpclient.NewClientWithTimeout(baseURL, timeout),
	}
}

// GetPurchaseOrder retrieves a purchase order by number.
func (c *PurchaseOrderClient) GetPurchaseOrder(ctx context.Context, poNumber string) (*repository.PurchaseOrder, error) {
	path := fmt.Sprintf("/api/v1/purchaseorders/%s", url.PathEscape(poNumber))

	var po repository.PurchaseOrder
	if err := c.client.Get(ctx, path, &po); err != nil {
		return nil, err
	}
	return &po, nil
}

// IncrementDraftCount bumps the purchase order's draft counter.
func (c *PurchaseOrderClient) IncrementDraftCount(ctx context.Context, poNumber string) (*repository.PurchaseOrder, error) {
	return c.adjustDrafts(ctx, poNumber, "increment")
}

// DecrementDraftCount lowers the purchase order's draft counter (floored at
// zero by the owning store).
func (c *PurchaseOrderClient) DecrementDraftCount(ctx context.Context, poNumber string) (*repository.PurchaseOrder, error) {
	return c.adjustDrafts(ctx, poNumber, "decrement")
}

func (c *PurchaseOrderClient) adjustDrafts(ctx context.Context, poNumber, op string) (*repository.PurchaseOrder, error) {
	path := fmt.Sprintf("/api/v1/purchaseorders/%s/drafts/%s", url.PathEscape(poNumber), op)

	var po repository.PurchaseOrder
	if err := c.client.Post(ctx, path, nil, &po); err != nil {
		return nil, err
	}
	return &po, nil
}
