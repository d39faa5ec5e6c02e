// Package balanceclient is the ledger orchestrator's outbound adapter to
// the balance authority. It never shares a database connection with the
// balance service; every call crosses the wire.
package balanceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/punchamoorthee/pixelmoney/internal/domain"
	"github.com/punchamoorthee/pixelmoney/internal/money"
)

var (
	// ErrNotFound mirrors balance.ErrAccountNotFound across the wire (404).
	ErrNotFound = errors.New("balanceclient: account not found")
	// ErrInsufficientFunds mirrors balance.ErrInsufficientFunds (400).
	ErrInsufficientFunds = errors.New("balanceclient: insufficient funds")
	// ErrConflict mirrors balance.ErrAccountExists (409).
	ErrConflict = errors.New("balanceclient: account already exists")
	// ErrUnavailable classifies network errors and 5xx responses.
	ErrUnavailable = errors.New("balanceclient: balance authority unavailable")
)

// Client is a thin HTTP adapter. The http.Client it wraps is a shared,
// process-wide resource; Client itself holds no mutable state after
// construction.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type accountRequest struct {
	UserID string `json:"user_id"`
}

type amountRequest struct {
	UserID  string      `json:"user_id,omitempty"`
	GroupID string      `json:"group_id,omitempty"`
	Amount  money.Money `json:"amount"`
}

// CreateIndividual issues POST /accounts.
func (c *Client) CreateIndividual(ctx context.Context, userID string) (*domain.Account, error) {
	var acc domain.Account
	err := c.do(ctx, http.MethodPost, "/accounts", accountRequest{UserID: userID}, &acc)
	return &acc, err
}

// CreateGroup issues POST /groups.
func (c *Client) CreateGroup(ctx context.Context, groupID string) (*domain.GroupAccount, error) {
	var g domain.GroupAccount
	err := c.do(ctx, http.MethodPost, "/groups", map[string]string{"group_id": groupID}, &g)
	return &g, err
}

// Check is the advisory, non-locking funds check. The authoritative check
// happens inside the debit's locked region; this one exists to fail cheap.
func (c *Client) Check(ctx context.Context, userID string, amount money.Money) error {
	return c.do(ctx, http.MethodPost, "/balance/check", amountRequest{UserID: userID, Amount: amount}, nil)
}

// Credit issues POST /balance/credit.
func (c *Client) Credit(ctx context.Context, userID string, amount money.Money) (*domain.Account, error) {
	var acc domain.Account
	err := c.do(ctx, http.MethodPost, "/balance/credit", amountRequest{UserID: userID, Amount: amount}, &acc)
	return &acc, err
}

// Debit issues POST /balance/debit.
func (c *Client) Debit(ctx context.Context, userID string, amount money.Money) (*domain.Account, error) {
	var acc domain.Account
	err := c.do(ctx, http.MethodPost, "/balance/debit", amountRequest{UserID: userID, Amount: amount}, &acc)
	return &acc, err
}

// GroupCheck is the group-account analogue of Check.
func (c *Client) GroupCheck(ctx context.Context, groupID string, amount money.Money) error {
	return c.do(ctx, http.MethodPost, "/group_balance/check", amountRequest{GroupID: groupID, Amount: amount}, nil)
}

// GroupCredit issues POST /group_balance/credit.
func (c *Client) GroupCredit(ctx context.Context, groupID string, amount money.Money) (*domain.GroupAccount, error) {
	var g domain.GroupAccount
	err := c.do(ctx, http.MethodPost, "/group_balance/credit", amountRequest{GroupID: groupID, Amount: amount}, &g)
	return &g, err
}

// GroupDebit issues POST /group_balance/debit.
func (c *Client) GroupDebit(ctx context.Context, groupID string, amount money.Money) (*domain.GroupAccount, error) {
	var g domain.GroupAccount
	err := c.do(ctx, http.MethodPost, "/group_balance/debit", amountRequest{GroupID: groupID, Amount: amount}, &g)
	return &g, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("balanceclient: marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("balanceclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("balanceclient: decode response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return ErrInsufficientFunds
	case resp.StatusCode == http.StatusConflict:
		return ErrConflict
	default:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
}
