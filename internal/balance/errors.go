// Package balance implements the balance authority: the authoritative,
// pessimistically-locked store of individual and group balances.
package balance

import "errors"

var (
	ErrAccountExists     = errors.New("balance: account already exists")
	ErrAccountNotFound   = errors.New("balance: account not found")
	ErrInsufficientFunds = errors.New("balance: insufficient funds")
)
