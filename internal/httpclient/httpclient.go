package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pesio-ai/be-ap-procurement/internal/apperrors"
)

const defaultTimeout = 10 * time.Second

// Client is a JSON HTTP client for service-to-service calls. Every request
// carries a bounded timeout; failures are mapped onto the shared error
// taxonomy so callers can tell infrastructure faults from business rejections.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL with the default timeout.
func NewClient(baseURL string) *Client {
	return NewClientWithTimeout(baseURL, defaultTimeout)
}

// NewClientWithTimeout creates a client with an explicit per-request timeout.
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Get issues a GET and decodes the response into out (when out is non-nil).
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDependencyUnavailable,
			fmt.Sprintf("%s %s failed", method, path))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDependencyUnavailable,
			fmt.Sprintf("%s %s: read response", method, path))
	}

	if resp.StatusCode >= 400 {
		return errorFromResponse(resp.StatusCode, data, method, path)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeDataIntegrity,
				fmt.Sprintf("%s %s: decode response", method, path))
		}
	}

	return nil
}

// errorBody is the JSON error envelope emitted by sibling services.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func errorFromResponse(status int, data []byte, method, path string) error {
	var body errorBody
	message := strings.TrimSpace(string(data))
	code := ""
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			message = body.Message
		} else if body.Error != "" {
			message = body.Error
		}
		code = body.Code
	}
	if message == "" {
		message = fmt.Sprintf("%s %s returned status %d", method, path, status)
	}

	if code == "" {
		switch {
		case status == http.StatusNotFound:
			code = apperrors.ErrCodeNotFound
		case status == http.StatusConflict:
			code = apperrors.ErrCodeInvalidState
		case status == http.StatusUnprocessableEntity:
			code = apperrors.ErrCodePolicyDenied
		case status == http.StatusBadRequest:
			code = apperrors.ErrCodeInvalidInput
		case status >= 500:
			code = apperrors.ErrCodeDependencyUnavailable
		default:
			code = apperrors.ErrCodeInternal
		}
	}

	return apperrors.New(code, message)
}

// IsTimeout reports whether err stems from a client-side timeout.
func IsTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
