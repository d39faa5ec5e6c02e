package domain

import "github.com/punchamoorthee/pixelmoney/internal/money"

// Account is an individual balance record (BDI).
type Account struct {
	UserID  string      `json:"user_id"`
	Balance money.Money `json:"balance"`
}

// GroupAccount is a pooled balance record (BDG). Version counts committed
// mutations; the row-level lock is what actually serializes them.
type GroupAccount struct {
	GroupID string      `json:"group_id"`
	Balance money.Money `json:"balance"`
	Version int64       `json:"version"`
}
