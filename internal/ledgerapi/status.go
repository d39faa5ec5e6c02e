package ledgerapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/punchamoorthee/pixelmoney/internal/domain"
)

// statusHTTPCode maps a terminal transaction status to a response code.
// The compensation suffixes describe what happened to the compensating
// action, not what the original failure was, so the base status drives
// the code.
func statusHTTPCode(status domain.Status) int {
	base := strings.TrimSuffix(strings.TrimSuffix(string(status), "_REVERT_FAILED"), "_REVERTED")

	switch domain.Status(base) {
	case domain.StatusCompleted:
		return http.StatusCreated
	case domain.StatusFailedFunds:
		return http.StatusBadRequest
	case domain.StatusFailedAccount:
		return http.StatusNotFound
	case domain.StatusFailedBalanceSvc, domain.StatusFailedNetwork:
		return http.StatusServiceUnavailable
	case domain.StatusFailedDebitPostConfirmation, domain.StatusPendingConfirmation, domain.StatusFailedUnknown:
		return http.StatusInternalServerError
	}

	if code, ok := remoteStatusCode(base); ok {
		if code >= 400 && code < 500 {
			return http.StatusBadRequest
		}
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func remoteStatusCode(base string) (int, bool) {
	const prefix = "FAILED_REMOTE_"
	if !strings.HasPrefix(base, prefix) {
		return 0, false
	}
	code, err := strconv.Atoi(strings.TrimPrefix(base, prefix))
	if err != nil {
		return 0, false
	}
	return code, true
}
