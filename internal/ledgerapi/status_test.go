package ledgerapi

import (
	"net/http"
	"testing"

	"github.com/punchamoorthee/pixelmoney/internal/domain"
)

func TestStatusHTTPCode(t *testing.T) {
	cases := []struct {
		status domain.Status
		want   int
	}{
		{domain.StatusCompleted, http.StatusCreated},
		{domain.StatusFailedFunds, http.StatusBadRequest},
		{domain.StatusFailedAccount, http.StatusNotFound},
		{domain.StatusFailedBalanceSvc, http.StatusServiceUnavailable},
		{domain.StatusFailedNetwork, http.StatusServiceUnavailable},
		{domain.StatusFailedDebitPostConfirmation, http.StatusInternalServerError},
		{domain.StatusPendingConfirmation, http.StatusInternalServerError},
		{domain.StatusFailedUnknown, http.StatusInternalServerError},
		{domain.FailedRemoteStatus(404), http.StatusBadRequest},
		{domain.FailedRemoteStatus(500), http.StatusServiceUnavailable},
		{domain.Reverted(domain.StatusFailedBalanceSvc), http.StatusServiceUnavailable},
		{domain.RevertFailed(domain.StatusFailedFunds), http.StatusBadRequest},
	}
	for _, c := range cases {
		if got := statusHTTPCode(c.status); got != c.want {
			t.Errorf("statusHTTPCode(%s) = %d, want %d", c.status, got, c.want)
		}
	}
}
