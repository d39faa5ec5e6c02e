package domain

// WalletType identifies the kind of party on one side of a transaction.
type WalletType string

const (
	WalletExternal     WalletType = "external"
	WalletIndividual   WalletType = "individual"
	WalletGroup        WalletType = "group"
	WalletExternalBank WalletType = "external_bank"
)

// WalletRef is an opaque reference to one side of a transaction. Accounts
// are referred to only by id string, never by pointer; history
// reconstruction is by query over the event store, not graph traversal.
type WalletRef struct {
	Type WalletType `json:"type"`
	ID   string     `json:"id"`
}
