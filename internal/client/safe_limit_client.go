package client

import (
	"context"
	"time"

	"github.com/pesio-ai/be-ap-procurement/internal/httpclient"
)

// SafeLimitClient is a client for the safe limit policy service.
type SafeLimitClient struct {
	client *httpclient.Client
}

// NewSafeLimitClient creates a new safe limit service client.
func NewSafeLimitClient(baseURL string, timeout time.Duration) *SafeLimitClient {
	return &SafeLimitClient{
		client: httpclient.NewClientWithTimeout(baseURL, timeout),
	}
}

// CheckRequest is the approval limit check payload. Amount is in cents.
type CheckRequest struct {
	UserName      string `json:"userName"`
	InvoiceAmount int64  `json:"invoiceAmount"`
}

// CheckResponse is the approval limit check result.
type CheckResponse struct {
	CanApprove bool `json:"canApprove"`
}

// CheckApprovalLimit asks the safe limit service whether userName may approve
// an invoice of the given amount.
func (c *SafeLimitClient) CheckApprovalLimit(ctx context.Context, userName string, invoiceAmount int64) (bool, error) {
	req := CheckRequest{UserName: userName, InvoiceAmount: invoiceAmount}

	var resp CheckResponse
	if err := c.client.Post(ctx, "/api/v1/safelimits/check", req, &resp); err != nil {
		return false, err
	}
	return resp.CanApprove, nil
}
