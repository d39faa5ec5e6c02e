package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/punchamoorthee/pixelmoney/internal/money"
)

// TxType is the kind of money movement a transaction record describes.
type TxType string

const (
	TxDeposit      TxType = "deposit"
	TxTransfer     TxType = "transfer"     // interbank
	TxContribution TxType = "contribution" // individual -> group
	TxP2PSent      TxType = "p2p_sent"
	TxP2PReceived  TxType = "p2p_received"
)

// Status is the lifecycle state of a transaction. PENDING is the only
// non-terminal state; every other status is absorbing and never rewritten.
type Status string

const (
	StatusPending Status = "PENDING"

	StatusCompleted Status = "COMPLETED"

	StatusFailedFunds                 Status = "FAILED_FUNDS"
	StatusFailedAccount               Status = "FAILED_ACCOUNT"
	StatusFailedBalanceSvc            Status = "FAILED_BALANCE_SVC"
	StatusFailedNetwork               Status = "FAILED_NETWORK"
	StatusFailedUnknown               Status = "FAILED_UNKNOWN"
	StatusFailedDebitPostConfirmation Status = "FAILED_DEBIT_POST_CONFIRMATION"
	StatusPendingConfirmation         Status = "PENDING_CONFIRMATION"
)

// FailedRemoteStatus builds the FAILED_REMOTE_<code> status for a rejection
// carrying the remote gateway's HTTP status code.
func FailedRemoteStatus(code int) Status {
	return Status("FAILED_REMOTE_" + strconv.Itoa(code))
}

// Reverted and RevertFailed record the outcome of a compensating action on
// top of the status that triggered it.
func Reverted(base Status) Status     { return base + "_REVERTED" }
func RevertFailed(base Status) Status { return base + "_REVERT_FAILED" }

// IsTerminal reports whether a status is absorbing.
func (s Status) IsTerminal() bool { return s != StatusPending }

// Transaction is the event record written once per attempt. Immutable once
// terminal; the status field is the single source of truth for what
// actually happened.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Source      WalletRef       `json:"source"`
	Destination WalletRef       `json:"destination"`
	Type        TxType          `json:"type"`
	Amount      money.Money     `json:"amount"`
	Currency    string          `json:"currency"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}
