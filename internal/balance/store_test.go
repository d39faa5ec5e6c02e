package balance

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchamoorthee/pixelmoney/internal/money"
)

func mustTestDSN(t *testing.T) string {
	t.Helper()
	v := strings.TrimSpace(os.Getenv("BALANCE_TEST_DSN"))
	if v == "" {
		t.Skip("missing BALANCE_TEST_DSN env var")
	}
	return v
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := mustTestDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	s := NewStore(pool)
	if err := s.InitSchema(ctx); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return s
}

// N concurrent credits of a fixed amount against one fresh account must
// all be applied, and the final balance must equal the signed sum. A lost
// update under the row lock would show up as a short balance.
func TestConcurrentCreditsSerialize(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := "concurrency-" + uuid.NewString()
	if _, err := s.CreateIndividual(ctx, userID); err != nil {
		t.Fatalf("CreateIndividual: %v", err)
	}

	const n = 50
	amount := money.New(1, "USD")

	var wg sync.WaitGroup
	errs := make([]error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			_, errs[i] = s.Credit(ctx, userID, amount)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("credit %d failed: %v", i, err)
		}
	}

	acc, err := s.Read(ctx, userID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if want := money.New(float64(n), "USD"); !acc.Balance.Equal(want) {
		t.Fatalf("balance = %s, want %s (lost update under concurrent credits)", acc.Balance, want)
	}
}

// TestDebitBoundaries pins the exact-balance edge: a debit of the full
// balance succeeds, a debit one cent over fails and changes nothing.
func TestDebitBoundaries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := "boundary-" + uuid.NewString()
	if _, err := s.CreateIndividual(ctx, userID); err != nil {
		t.Fatalf("CreateIndividual: %v", err)
	}
	if _, err := s.Credit(ctx, userID, money.New(10, "USD")); err != nil {
		t.Fatalf("seed credit: %v", err)
	}

	if _, err := s.Debit(ctx, userID, money.New(10.01, "USD")); err != ErrInsufficientFunds {
		t.Fatalf("over-debit err = %v, want ErrInsufficientFunds", err)
	}
	acc, err := s.Read(ctx, userID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if acc.Balance.String() != "10.00" {
		t.Fatalf("balance after rejected debit = %s, want 10.00", acc.Balance)
	}

	if _, err := s.Debit(ctx, userID, money.New(10, "USD")); err != nil {
		t.Fatalf("exact-balance debit: %v", err)
	}
	acc, err = s.Read(ctx, userID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !acc.Balance.IsZero() {
		t.Fatalf("balance after exact debit = %s, want 0.00", acc.Balance)
	}
}

// TestDebitNeverUndershootsZero verifies the locked debit path rejects an
// over-debit even under concurrent attempts, rather than racing two
// check-then-act reads into a negative balance.
func TestDebitNeverUndershootsZero(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := "concurrency-debit-" + uuid.NewString()
	if _, err := s.CreateIndividual(ctx, userID); err != nil {
		t.Fatalf("CreateIndividual: %v", err)
	}
	if _, err := s.Credit(ctx, userID, money.New(10, "USD")); err != nil {
		t.Fatalf("seed credit: %v", err)
	}

	const n = 20
	amount := money.New(1, "USD")

	var wg sync.WaitGroup
	results := make([]error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			_, results[i] = s.Debit(ctx, userID, amount)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else if err != ErrInsufficientFunds {
			t.Fatalf("unexpected debit error: %v", err)
		}
	}
	if succeeded != 10 {
		t.Fatalf("succeeded debits = %d, want exactly 10 (balance was 10.00 at 1.00 each)", succeeded)
	}

	acc, err := s.Read(ctx, userID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !acc.Balance.IsZero() {
		t.Fatalf("final balance = %s, want 0.00", acc.Balance)
	}
}
