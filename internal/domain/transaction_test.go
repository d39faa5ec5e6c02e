package domain

import "testing"

func TestIsTerminal(t *testing.T) {
	if StatusPending.IsTerminal() {
		t.Fatal("PENDING must not be terminal")
	}
	terminal := []Status{
		StatusCompleted, StatusFailedFunds, StatusFailedAccount,
		StatusFailedBalanceSvc, StatusFailedNetwork, StatusFailedUnknown,
		StatusFailedDebitPostConfirmation, StatusPendingConfirmation,
	}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
}

func TestFailedRemoteStatus(t *testing.T) {
	cases := map[int]Status{
		404: "FAILED_REMOTE_404",
		500: "FAILED_REMOTE_500",
		0:   "FAILED_REMOTE_0",
	}
	for code, want := range cases {
		if got := FailedRemoteStatus(code); got != want {
			t.Fatalf("FailedRemoteStatus(%d) = %s, want %s", code, got, want)
		}
	}
}

func TestRevertedRevertFailed(t *testing.T) {
	if got, want := Reverted(StatusFailedBalanceSvc), Status("FAILED_BALANCE_SVC_REVERTED"); got != want {
		t.Fatalf("Reverted() = %s, want %s", got, want)
	}
	if got, want := RevertFailed(StatusFailedBalanceSvc), Status("FAILED_BALANCE_SVC_REVERT_FAILED"); got != want {
		t.Fatalf("RevertFailed() = %s, want %s", got, want)
	}
}
