package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchamoorthee/pixelmoney/internal/domain"
	"github.com/punchamoorthee/pixelmoney/internal/money"
)

// Postgres backs the Store on PostgreSQL. The by-id / by-user /
// idempotency-keys split is three real tables; the atomic dual-write is a
// single multi-statement transaction.
//
// keyTTL bounds how long an idempotency binding is honored. Zero means
// bindings never expire.
type Postgres struct {
	db     *pgxpool.Pool
	keyTTL time.Duration
}

func NewPostgres(db *pgxpool.Pool, keyTTL time.Duration) *Postgres {
	return &Postgres{db: db, keyTTL: keyTTL}
}

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	source_type TEXT NOT NULL,
	source_id TEXT NOT NULL,
	destination_type TEXT NOT NULL,
	destination_id TEXT NOT NULL,
	type TEXT NOT NULL,
	amount NUMERIC(20,2) NOT NULL,
	currency TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	metadata JSONB
);

CREATE TABLE IF NOT EXISTS transactions_by_user (
	user_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	id TEXT NOT NULL,
	source_type TEXT NOT NULL,
	source_id TEXT NOT NULL,
	destination_type TEXT NOT NULL,
	destination_id TEXT NOT NULL,
	type TEXT NOT NULL,
	amount NUMERIC(20,2) NOT NULL,
	currency TEXT NOT NULL,
	status TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	metadata JSONB,
	PRIMARY KEY (user_id, created_at, id)
);

CREATE INDEX IF NOT EXISTS transactions_by_user_created_at_desc
	ON transactions_by_user (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS idempotency_keys (
	key TEXT PRIMARY KEY,
	transaction_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

func (p *Postgres) InitSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("eventstore: init schema: %w", err)
	}
	return nil
}

func (p *Postgres) PutPending(ctx context.Context, tx *domain.Transaction) error {
	return p.putBatch(ctx, tx)
}

func (p *Postgres) PutPendingPair(ctx context.Context, primary, secondary *domain.Transaction) error {
	return p.putBatch(ctx, primary, secondary)
}

// putBatch writes each record into both tables within one transaction, so
// the by-id and by-user views never disagree about a record's existence.
func (p *Postgres) putBatch(ctx context.Context, txs ...*domain.Transaction) error {
	dbtx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("eventstore: begin batch: %w", err)
	}
	defer dbtx.Rollback(ctx)

	for _, tx := range txs {
		if err := p.putPending(ctx, dbtx, tx); err != nil {
			return err
		}
	}
	if err := dbtx.Commit(ctx); err != nil {
		return fmt.Errorf("eventstore: commit batch: %w", err)
	}
	return nil
}

func (p *Postgres) putPending(ctx context.Context, e pgx.Tx, tx *domain.Transaction) error {
	meta := tx.Metadata
	if meta == nil {
		meta = json.RawMessage("{}")
	}

	_, err := e.Exec(ctx,
		`INSERT INTO transactions
			(id, user_id, source_type, source_id, destination_type, destination_id,
			 type, amount, currency, status, created_at, updated_at, metadata)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		tx.ID, tx.UserID, tx.Source.Type, tx.Source.ID, tx.Destination.Type, tx.Destination.ID,
		tx.Type, tx.Amount.Value.String(), tx.Currency, tx.Status, tx.CreatedAt, tx.UpdatedAt, meta,
	)
	if err != nil {
		return fmt.Errorf("eventstore: insert transactions: %w", err)
	}

	_, err = e.Exec(ctx,
		`INSERT INTO transactions_by_user
			(user_id, created_at, id, source_type, source_id, destination_type, destination_id,
			 type, amount, currency, status, updated_at, metadata)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		tx.UserID, tx.CreatedAt, tx.ID, tx.Source.Type, tx.Source.ID, tx.Destination.Type, tx.Destination.ID,
		tx.Type, tx.Amount.Value.String(), tx.Currency, tx.Status, tx.UpdatedAt, meta,
	)
	if err != nil {
		return fmt.Errorf("eventstore: insert transactions_by_user: %w", err)
	}
	return nil
}

func (p *Postgres) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := p.db.QueryRow(ctx,
		`SELECT id, user_id, source_type, source_id, destination_type, destination_id,
		        type, amount::text, currency, status, created_at, updated_at, metadata
		 FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("eventstore: get by id: %w", err)
	}
	return tx, nil
}

func (p *Postgres) GetByUser(ctx context.Context, userID string, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	rows, err := p.db.Query(ctx,
		`SELECT id, user_id, source_type, source_id, destination_type, destination_id,
		        type, amount::text, currency, status, created_at, updated_at, metadata
		 FROM transactions_by_user WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("eventstore: get by user: %w", err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("eventstore: scan by user: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateStatus(ctx context.Context, id string, status domain.Status, metadata json.RawMessage) error {
	now := time.Now().UTC()

	var err error
	if metadata != nil {
		_, err = p.db.Exec(ctx,
			`UPDATE transactions SET status = $1, updated_at = $2,
			        metadata = COALESCE(metadata, '{}'::jsonb) || $3::jsonb
			 WHERE id = $4`, status, now, metadata, id)
		if err == nil {
			_, err = p.db.Exec(ctx,
				`UPDATE transactions_by_user SET status = $1, updated_at = $2,
				        metadata = COALESCE(metadata, '{}'::jsonb) || $3::jsonb
				 WHERE id = $4`, status, now, metadata, id)
		}
	} else {
		_, err = p.db.Exec(ctx,
			`UPDATE transactions SET status = $1, updated_at = $2 WHERE id = $3`, status, now, id)
		if err == nil {
			_, err = p.db.Exec(ctx,
				`UPDATE transactions_by_user SET status = $1, updated_at = $2 WHERE id = $3`, status, now, id)
		}
	}
	if err != nil {
		return fmt.Errorf("eventstore: update status: %w", err)
	}
	return nil
}

func (p *Postgres) LookupIdempotency(ctx context.Context, key string) (string, bool, error) {
	var txID string
	var createdAt time.Time
	err := p.db.QueryRow(ctx,
		`SELECT transaction_id, created_at FROM idempotency_keys WHERE key = $1`, key).
		Scan(&txID, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("eventstore: lookup idempotency: %w", err)
	}
	if p.keyTTL > 0 && time.Since(createdAt) > p.keyTTL {
		return "", false, nil
	}
	return txID, true, nil
}

func (p *Postgres) BindIdempotency(ctx context.Context, key, txID string) error {
	now := time.Now().UTC()

	if p.keyTTL > 0 {
		// An expired binding is dead weight; a fresh attempt may reclaim it.
		tag, err := p.db.Exec(ctx,
			`INSERT INTO idempotency_keys (key, transaction_id, created_at) VALUES ($1, $2, $3)
			 ON CONFLICT (key) DO UPDATE
			 SET transaction_id = EXCLUDED.transaction_id, created_at = EXCLUDED.created_at
			 WHERE idempotency_keys.created_at < $4`,
			key, txID, now, now.Add(-p.keyTTL))
		if err != nil {
			return fmt.Errorf("eventstore: bind idempotency: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrIdempotencyKeyTaken
		}
		return nil
	}

	_, err := p.db.Exec(ctx,
		`INSERT INTO idempotency_keys (key, transaction_id, created_at) VALUES ($1, $2, $3)`,
		key, txID, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrIdempotencyKeyTaken
		}
		return fmt.Errorf("eventstore: bind idempotency: %w", err)
	}
	return nil
}

func (p *Postgres) ListStuck(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	rows, err := p.db.Query(ctx,
		`SELECT id, user_id, source_type, source_id, destination_type, destination_id,
		        type, amount::text, currency, status, created_at, updated_at, metadata
		 FROM transactions
		 WHERE status IN ($1, $2) AND updated_at < $3
		 ORDER BY updated_at ASC LIMIT $4`,
		domain.StatusPending, domain.StatusPendingConfirmation, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("eventstore: list stuck: %w", err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("eventstore: scan stuck: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var amount string
	var meta []byte
	err := row.Scan(
		&tx.ID, &tx.UserID, &tx.Source.Type, &tx.Source.ID, &tx.Destination.Type, &tx.Destination.ID,
		&tx.Type, &amount, &tx.Currency, &tx.Status, &tx.CreatedAt, &tx.UpdatedAt, &meta,
	)
	if err != nil {
		return nil, err
	}
	m, parseErr := money.NewFromString(amount, tx.Currency)
	if parseErr != nil {
		return nil, parseErr
	}
	tx.Amount = m
	tx.Metadata = meta
	return &tx, nil
}
