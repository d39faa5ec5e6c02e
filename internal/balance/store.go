package balance

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchamoorthee/pixelmoney/internal/domain"
	"github.com/punchamoorthee/pixelmoney/internal/money"
)

const defaultCurrency = "USD"

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	user_id TEXT PRIMARY KEY,
	balance NUMERIC(20,2) NOT NULL,
	currency TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS group_accounts (
	group_id TEXT PRIMARY KEY,
	balance NUMERIC(20,2) NOT NULL,
	currency TEXT NOT NULL,
	version BIGINT NOT NULL DEFAULT 0
);
`

// Store is the Postgres-backed balance store. Every mutating operation is
// transactional: begin, select-for-update, compute the new balance with
// fixed-point arithmetic, update, commit. The store never moves money
// between two rows itself; the ledger orchestrator's saga does that one
// call at a time.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("balance: init schema: %w", err)
	}
	return nil
}

func (s *Store) CreateIndividual(ctx context.Context, userID string) (*domain.Account, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO accounts (user_id, balance, currency) VALUES ($1, 0, $2)`,
		userID, defaultCurrency)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("balance: create individual: %w", err)
	}
	return &domain.Account{UserID: userID, Balance: money.Zero(defaultCurrency)}, nil
}

func (s *Store) CreateGroup(ctx context.Context, groupID string) (*domain.GroupAccount, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO group_accounts (group_id, balance, currency, version) VALUES ($1, 0, $2, 0)`,
		groupID, defaultCurrency)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("balance: create group: %w", err)
	}
	return &domain.GroupAccount{GroupID: groupID, Balance: money.Zero(defaultCurrency)}, nil
}

func (s *Store) Read(ctx context.Context, userID string) (*domain.Account, error) {
	var balance string
	var currency string
	err := s.db.QueryRow(ctx, `SELECT balance::text, currency FROM accounts WHERE user_id = $1`, userID).
		Scan(&balance, &currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("balance: read: %w", err)
	}
	m, err := money.NewFromString(balance, currency)
	if err != nil {
		return nil, err
	}
	return &domain.Account{UserID: userID, Balance: m}, nil
}

func (s *Store) ReadGroup(ctx context.Context, groupID string) (*domain.GroupAccount, error) {
	var balance, currency string
	var version int64
	err := s.db.QueryRow(ctx, `SELECT balance::text, currency, version FROM group_accounts WHERE group_id = $1`, groupID).
		Scan(&balance, &currency, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("balance: read group: %w", err)
	}
	m, err := money.NewFromString(balance, currency)
	if err != nil {
		return nil, err
	}
	return &domain.GroupAccount{GroupID: groupID, Balance: m, Version: version}, nil
}

// Check is the advisory, non-locking funds check. The authoritative check
// is the one Debit re-runs inside the locked region.
func (s *Store) Check(ctx context.Context, userID string, amount money.Money) error {
	acc, err := s.Read(ctx, userID)
	if err != nil {
		return err
	}
	if acc.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

func (s *Store) GroupCheck(ctx context.Context, groupID string, amount money.Money) error {
	g, err := s.ReadGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if g.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// Credit adds amount to userID's balance under a row-level exclusive lock
// held for the whole transaction.
func (s *Store) Credit(ctx context.Context, userID string, amount money.Money) (*domain.Account, error) {
	return s.mutateAccount(ctx, userID, amount, false)
}

// Debit subtracts amount from userID's balance, re-checking sufficiency
// under the lock.
func (s *Store) Debit(ctx context.Context, userID string, amount money.Money) (*domain.Account, error) {
	return s.mutateAccount(ctx, userID, amount, true)
}

func (s *Store) mutateAccount(ctx context.Context, userID string, amount money.Money, debit bool) (*domain.Account, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("balance: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var balanceStr, currency string
	err = tx.QueryRow(ctx, `SELECT balance::text, currency FROM accounts WHERE user_id = $1 FOR UPDATE`, userID).
		Scan(&balanceStr, &currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("balance: lock account: %w", err)
	}

	current, err := money.NewFromString(balanceStr, currency)
	if err != nil {
		return nil, err
	}

	var next money.Money
	if debit {
		if current.LessThan(amount) {
			return nil, ErrInsufficientFunds
		}
		next = current.Sub(amount)
	} else {
		next = current.Add(amount)
	}

	_, err = tx.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE user_id = $2`, next.Value.String(), userID)
	if err != nil {
		return nil, fmt.Errorf("balance: update account: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("balance: commit: %w", err)
	}
	return &domain.Account{UserID: userID, Balance: next}, nil
}

func (s *Store) GroupCredit(ctx context.Context, groupID string, amount money.Money) (*domain.GroupAccount, error) {
	return s.mutateGroup(ctx, groupID, amount, false)
}

func (s *Store) GroupDebit(ctx context.Context, groupID string, amount money.Money) (*domain.GroupAccount, error) {
	return s.mutateGroup(ctx, groupID, amount, true)
}

func (s *Store) mutateGroup(ctx context.Context, groupID string, amount money.Money, debit bool) (*domain.GroupAccount, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("balance: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var balanceStr, currency string
	var version int64
	err = tx.QueryRow(ctx, `SELECT balance::text, currency, version FROM group_accounts WHERE group_id = $1 FOR UPDATE`, groupID).
		Scan(&balanceStr, &currency, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("balance: lock group: %w", err)
	}

	current, err := money.NewFromString(balanceStr, currency)
	if err != nil {
		return nil, err
	}

	var next money.Money
	if debit {
		if current.LessThan(amount) {
			return nil, ErrInsufficientFunds
		}
		next = current.Sub(amount)
	} else {
		next = current.Add(amount)
	}

	_, err = tx.Exec(ctx,
		`UPDATE group_accounts SET balance = $1, version = version + 1 WHERE group_id = $2`,
		next.Value.String(), groupID)
	if err != nil {
		return nil, fmt.Errorf("balance: update group: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("balance: commit: %w", err)
	}
	return &domain.GroupAccount{GroupID: groupID, Balance: next, Version: version + 1}, nil
}
