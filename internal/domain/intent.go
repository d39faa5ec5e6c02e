package domain

import "github.com/punchamoorthee/pixelmoney/internal/money"

// IntentKind tags which of the four saga bodies an Intent carries. The
// four request shapes share a preamble and differ only in the saga body,
// so they are modeled as a tagged union with a common dispatcher rather
// than a polymorphic hierarchy.
type IntentKind string

const (
	IntentDeposit    IntentKind = "deposit"
	IntentP2P        IntentKind = "p2p"
	IntentContribute IntentKind = "contribute"
	IntentInterbank  IntentKind = "interbank"
)

// Intent is the common envelope for every ledger operation. The Kind field
// selects which of the payload pointers is populated; exactly one is
// non-nil.
type Intent struct {
	Kind           IntentKind
	IdempotencyKey string
	UserID         string // caller identity, injected by the auth gateway

	Deposit    *DepositPayload
	P2P        *P2PPayload
	Contribute *ContributePayload
	Interbank  *InterbankPayload
}

type DepositPayload struct {
	Amount money.Money
}

type P2PPayload struct {
	DestinationPhone string
	Amount           money.Money
}

type ContributePayload struct {
	GroupID string
	Amount  money.Money
}

type InterbankPayload struct {
	ToBank           string
	DestinationPhone string
	Amount           money.Money
}
