// Package transfer talks to the payment provider's transfer API.
package transfer

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

	"github.com/genixhq/genix/internal/payout"
)

const maxResponseBytes = 1 << 20

// ProviderError is returned when the provider rejects a transfer.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return e.Message
}

type Client struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type transferRequest struct {
	Source    string `json:"source"`
	Reason    string `json:"reason"`
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
	Reference string `json:"reference"`
}

type transferResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Transfer initiates a single transfer and returns the provider's data payload.
func (c *Client) Transfer(ctx context.Context, req payout.TransferRequest) (json.RawMessage, error) {
	if c.secretKey == "" {
		return nil, errors.New("transfer provider secret key is not configured")
	}

	body, err := json.Marshal(transferRequest{
		Source:    req.Source,
		Reason:    req.Reason,
		Amount:    req.Amount,
		Recipient: req.Recipient,
		Reference: req.Reference,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding transfer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transfer", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	var out transferResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if ok {
			return nil, fmt.Errorf("decoding response: %w", err)
		}

		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("transfer rejected with status %d", resp.StatusCode),
		}
	}

	if !ok || !out.Status {
		msg := out.Message
		if msg == "" {
			msg = fmt.Sprintf("transfer rejected with status %d", resp.StatusCode)
		}

		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: msg}
	}

	return out.Data, nil
}
