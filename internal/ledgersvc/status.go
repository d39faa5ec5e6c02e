package ledgersvc

import (
	"errors"

	"github.com/punchamoorthee/pixelmoney/internal/balanceclient"
	"github.com/punchamoorthee/pixelmoney/internal/domain"
)

// classifyBalanceErr maps a balanceclient error to a terminal status.
// Every saga funnels through it so the taxonomy can't drift between
// operations.
func classifyBalanceErr(err error) domain.Status {
	switch {
	case errors.Is(err, balanceclient.ErrNotFound):
		return domain.StatusFailedAccount
	case errors.Is(err, balanceclient.ErrInsufficientFunds):
		return domain.StatusFailedFunds
	case errors.Is(err, balanceclient.ErrUnavailable):
		return domain.StatusFailedBalanceSvc
	default:
		return domain.StatusFailedUnknown
	}
}
