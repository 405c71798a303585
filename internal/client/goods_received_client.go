package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/pesio-ai/be-ap-procurement/internal/httpclient"
	"github.com/pesio-ai/be-ap-procurement/internal/repository"
)

// GoodsReceivedClient is a client for the goods received service.
type GoodsReceivedClient struct {
	client *httpclient.Client
}

// NewGoodsReceivedClient creates a new goods received service client.
func NewGoodsReceivedClient(baseURL string, timeout time.Duration) *GoodsReceivedClient {
	return &GoodsReceivedClient{
		client: httpclient.NewClientWithTimeout(baseURL, timeout),
	}
}

// GetGoodsReceived returns the goods received records for a purchase order,
// optionally narrowed to one item.
func (c *GoodsReceivedClient) GetGoodsReceived(ctx context.Context, poNumber, itemID string) ([]*repository.GoodsReceivedRecord, error) {
	path := fmt.Sprintf("/api/v1/goodsreceived/po/%s", url.PathEscape(poNumber))
	if itemID != "" {
		path += "?itemId=" + url.QueryEscape(itemID)
	}

	var records []*repository.GoodsReceivedRecord
	if err := c.client.Get(ctx, path, &records); err != nil {
		return nil, err
	}
	return records, nil
}
