package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHappyPathTransitions(t *testing.T) {
	chain := []Status{StatusPending, StatusAccepted, StatusPreparing, StatusReadyForPickup, StatusPickedUp}
	for i := 0; i < len(chain)-1; i++ {
		assert.True(t, CanTransition(chain[i], chain[i+1]), "%s -> %s", chain[i], chain[i+1])
	}
	// tidak boleh loncat maju
	assert.False(t, CanTransition(StatusPending, StatusPreparing))
	assert.False(t, CanTransition(StatusPending, StatusReadyForPickup))
	assert.False(t, CanTransition(StatusAccepted, StatusPickedUp))
	// tidak boleh mundur
	assert.False(t, CanTransition(StatusPreparing, StatusAccepted))
}

func TestCancellationReachableFromAnyNonTerminal(t *testing.T) {
	nonTerminal := []Status{StatusPending, StatusAccepted, StatusPreparing, StatusReadyForPickup}
	terminals := []Status{StatusCancelledByUser, StatusCancelledByBusiness, StatusFailedPayment}
	for _, from := range nonTerminal {
		for _, to := range terminals {
			assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatesHaveNoExit(t *testing.T) {
	terminals := []Status{StatusPickedUp, StatusCancelledByUser, StatusCancelledByBusiness, StatusFailedPayment}
	all := []Status{StatusPending, StatusAccepted, StatusPreparing, StatusReadyForPickup, StatusPickedUp,
		StatusCancelledByUser, StatusCancelledByBusiness, StatusFailedPayment}
	for _, from := range terminals {
		assert.True(t, from.IsTerminal(), "%s", from)
		for _, to := range all {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, StatusCancelledByUser.IsCancelled())
	assert.True(t, StatusCancelledByBusiness.IsCancelled())
	assert.True(t, StatusFailedPayment.IsCancelled())
	assert.False(t, StatusPickedUp.IsCancelled())
	assert.False(t, StatusPending.IsCancelled())
}

func TestMilestoneColumns(t *testing.T) {
	cases := map[Status]string{
		StatusAccepted:            "confirmed_at",
		StatusPreparing:           "preparation_started_at",
		StatusReadyForPickup:      "ready_at",
		StatusPickedUp:            "picked_up_at",
		StatusCancelledByUser:     "cancelled_at",
		StatusCancelledByBusiness: "cancelled_at",
		StatusFailedPayment:       "cancelled_at",
		StatusPending:             "",
	}
	for st, col := range cases {
		assert.Equal(t, col, milestoneColumn(st), "%s", st)
	}
}

func TestCancellerTerminalStatus(t *testing.T) {
	assert.Equal(t, StatusCancelledByUser, CancelledByUser.TerminalStatus())
	assert.Equal(t, StatusCancelledByBusiness, CancelledByBusiness.TerminalStatus())
	assert.Equal(t, StatusFailedPayment, CancelledBySystem.TerminalStatus())
}

func TestActiveStatuses(t *testing.T) {
	assert.False(t, StatusPending.IsActive())
	assert.True(t, StatusAccepted.IsActive())
	assert.True(t, StatusPreparing.IsActive())
	assert.True(t, StatusReadyForPickup.IsActive())
	assert.False(t, StatusPickedUp.IsActive())
	assert.False(t, StatusCancelledByUser.IsActive())
}
