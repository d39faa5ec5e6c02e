// Package interbank is the client adapter for the external interbank
// gateway. It has a single operation, Send, returning either an acceptance
// with a remote transaction id or a classified error. The adapter never
// retries: a duplicate Send would double-post value at the peer.
package interbank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/punchamoorthee/pixelmoney/internal/money"
)

// ErrNetwork classifies transport failures, timeouts included.
var ErrNetwork = errors.New("interbank: network error")

// RemoteError is returned for any non-2xx response from the gateway. Code
// is the gateway's HTTP status.
type RemoteError struct {
	Code int
	Body string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("interbank: remote rejected with status %d: %s", e.Code, e.Body)
}

// Intent is the transfer the gateway is asked to post.
type Intent struct {
	OriginBank             string      `json:"origin_bank"`
	OriginAccountID        string      `json:"origin_account_id"`
	DestinationBank        string      `json:"destination_bank"`
	DestinationPhoneNumber string      `json:"destination_phone_number"`
	Amount                 money.Money `json:"amount"`
	Currency               string      `json:"currency"`
	TransactionID          string      `json:"transaction_id"` // correlation id, the local transaction id
	Description            string      `json:"description"`
}

// Acceptance is the gateway's success response.
type Acceptance struct {
	RemoteTransactionID string `json:"remote_tx_id"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, apiKey: apiKey, http: &http.Client{Timeout: timeout}}
}

// Send issues POST /interbank/transfers with the API-key header.
// Network and timeout errors wrap ErrNetwork; 4xx/5xx responses become
// *RemoteError carrying the status code.
func (c *Client) Send(ctx context.Context, intent Intent) (*Acceptance, error) {
	body, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("interbank: marshal intent: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/interbank/transfers", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("interbank: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var out Acceptance
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("interbank: decode acceptance: %w", err)
		}
		return &out, nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return nil, &RemoteError{Code: resp.StatusCode, Body: string(respBody)}
}
