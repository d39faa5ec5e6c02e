package ledgerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/punchamoorthee/pixelmoney/internal/balanceclient"
	"github.com/punchamoorthee/pixelmoney/internal/domain"
	"github.com/punchamoorthee/pixelmoney/internal/eventstore"
	"github.com/punchamoorthee/pixelmoney/internal/ledgersvc"
	"github.com/punchamoorthee/pixelmoney/internal/money"
	"github.com/punchamoorthee/pixelmoney/internal/recipient"
)

// apiTestStore is a minimal in-memory eventstore.Store, just enough to drive
// the HTTP-level tests below without a Postgres fixture.
type apiTestStore struct {
	mu       sync.Mutex
	byID     map[string]*domain.Transaction
	idemKeys map[string]string
}

func newAPITestStore() *apiTestStore {
	return &apiTestStore{byID: map[string]*domain.Transaction{}, idemKeys: map[string]string{}}
}

func (s *apiTestStore) InitSchema(ctx context.Context) error { return nil }

func (s *apiTestStore) PutPending(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *tx
	s.byID[tx.ID] = &cp
	return nil
}

func (s *apiTestStore) PutPendingPair(ctx context.Context, primary, secondary *domain.Transaction) error {
	if err := s.PutPending(ctx, primary); err != nil {
		return err
	}
	return s.PutPending(ctx, secondary)
}

func (s *apiTestStore) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.byID[id]
	if !ok {
		return nil, eventstore.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (s *apiTestStore) GetByUser(ctx context.Context, userID string, limit int) ([]*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Transaction
	for _, tx := range s.byID {
		if tx.UserID == userID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *apiTestStore) UpdateStatus(ctx context.Context, id string, status domain.Status, metadata json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.byID[id]
	if !ok {
		return eventstore.ErrNotFound
	}
	tx.Status = status
	if metadata != nil {
		tx.Metadata = metadata
	}
	return nil
}

func (s *apiTestStore) LookupIdempotency(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.idemKeys[key]
	return id, ok, nil
}

func (s *apiTestStore) BindIdempotency(ctx context.Context, key, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.idemKeys[key]; exists {
		return eventstore.ErrIdempotencyKeyTaken
	}
	s.idemKeys[key] = txID
	return nil
}

func (s *apiTestStore) ListStuck(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Transaction, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) *httptest.Server {
	t.Helper()

	balMux := http.NewServeMux()
	var balMu sync.Mutex
	balances := map[string]money.Money{"louise": money.New(100, "USD")}
	balMux.HandleFunc("/balance/check", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string      `json:"user_id"`
			Amount money.Money `json:"amount"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		balMu.Lock()
		bal, ok := balances[req.UserID]
		balMu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if bal.LessThan(req.Amount) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	balMux.HandleFunc("/balance/credit", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string      `json:"user_id"`
			Amount money.Money `json:"amount"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		balMu.Lock()
		bal := balances[req.UserID]
		bal = bal.Add(req.Amount)
		balances[req.UserID] = bal
		balMu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.Account{UserID: req.UserID, Balance: bal})
	})
	balSrv := httptest.NewServer(balMux)
	t.Cleanup(balSrv.Close)

	svc := ledgersvc.New(ledgersvc.Deps{
		EventStore:     newAPITestStore(),
		Balance:        balanceclient.New(balSrv.URL, 2*time.Second),
		Recipient:      recipient.New("http://unused.invalid", 2*time.Second),
		Interbank:      nil,
		Log:            zap.NewNop(),
		OriginBank:     "PIXELMONEY",
		SupportedBanks: []string{"PIXELMONEY"},
	})

	r := mux.NewRouter()
	NewHandler(svc, zap.NewNop()).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestDepositEndpointReturnsCreatedOnSuccess(t *testing.T) {
	srv := newTestRouter(t)

	body, _ := json.Marshal(map[string]interface{}{
		"user_id": "louise",
		"amount":  "25.00",
	})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/deposit", bytes.NewReader(body))
	req.Header.Set("Idempotency-Key", "b0000000-0000-0000-0000-000000000001")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var tx domain.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tx.Status != domain.StatusCompleted {
		t.Fatalf("tx.Status = %s, want COMPLETED", tx.Status)
	}
}

func TestDepositEndpointRejectsMalformedBody(t *testing.T) {
	srv := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/deposit", bytes.NewReader([]byte("not json")))
	req.Header.Set("Idempotency-Key", "b0000000-0000-0000-0000-000000000002")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHistoryEndpointRequiresUserHeader(t *testing.T) {
	srv := newTestRouter(t)

	resp, err := http.Get(srv.URL + "/transactions/me")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHistoryEndpointReturnsDepositedTransaction(t *testing.T) {
	srv := newTestRouter(t)

	body, _ := json.Marshal(map[string]interface{}{
		"user_id": "louise",
		"amount":  "5.00",
	})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/deposit", bytes.NewReader(body))
	req.Header.Set("Idempotency-Key", "b0000000-0000-0000-0000-000000000003")
	if _, err := http.DefaultClient.Do(req); err != nil {
		t.Fatalf("seed deposit: %v", err)
	}

	histReq, _ := http.NewRequest(http.MethodGet, srv.URL+"/transactions/me", nil)
	histReq.Header.Set("X-User-Id", "louise")
	resp, err := http.DefaultClient.Do(histReq)
	if err != nil {
		t.Fatalf("history request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var txs []*domain.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(txs) == 0 {
		t.Fatal("expected at least one transaction in history")
	}
}
