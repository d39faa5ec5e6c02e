package balanceclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/punchamoorthee/pixelmoney/internal/money"
)

func newFixture(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != "" {
			_, _ = w.Write([]byte(body))
		}
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second)
}

func TestCreditSuccess(t *testing.T) {
	c := newFixture(t, http.StatusOK, `{"user_id":"alice","balance":"10.00"}`)
	acc, err := c.Credit(context.Background(), "alice", money.New(10, "USD"))
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if acc.UserID != "alice" {
		t.Fatalf("UserID = %s, want alice", acc.UserID)
	}
}

func TestDebitClassifiesNotFound(t *testing.T) {
	c := newFixture(t, http.StatusNotFound, "")
	_, err := c.Debit(context.Background(), "ghost", money.New(1, "USD"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDebitClassifiesInsufficientFunds(t *testing.T) {
	c := newFixture(t, http.StatusBadRequest, "")
	_, err := c.Debit(context.Background(), "alice", money.New(1000, "USD"))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestCheckClassifiesServerErrorAsUnavailable(t *testing.T) {
	c := newFixture(t, http.StatusInternalServerError, "")
	err := c.Check(context.Background(), "alice", money.New(1, "USD"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestCreditClassifiesConflict(t *testing.T) {
	c := newFixture(t, http.StatusConflict, "")
	_, err := c.Credit(context.Background(), "alice", money.New(1, "USD"))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestUnreachableServerClassifiesAsUnavailable(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := c.Credit(context.Background(), "alice", money.New(1, "USD"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
