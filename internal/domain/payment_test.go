package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusDPPaid,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

var allEvents = []PaymentEvent{
	EventGatewayConfirmed,
	EventGatewayPending,
	EventGatewayDenied,
	EventGatewayExpired,
	EventSweeperTimeout,
	EventManualRefund,
}

func TestTransition_FromPending(t *testing.T) {
	testCases := []struct {
		name     string
		event    PaymentEvent
		received int64
		total    int64
		want     PaymentStatus
		applied  bool
	}{
		{"full payment confirms", EventGatewayConfirmed, 250000, 250000, PaymentStatusPaid, true},
		{"overpayment confirms", EventGatewayConfirmed, 300000, 250000, PaymentStatusPaid, true},
		{"partial payment is down payment", EventGatewayConfirmed, 100000, 250000, PaymentStatusDPPaid, true},
		{"pending stays pending", EventGatewayPending, 0, 250000, PaymentStatusPending, false},
		{"deny fails", EventGatewayDenied, 0, 250000, PaymentStatusFailed, true},
		{"expire fails", EventGatewayExpired, 0, 250000, PaymentStatusFailed, true},
		{"sweeper timeout fails", EventSweeperTimeout, 0, 250000, PaymentStatusFailed, true},
		{"refund not applicable yet", EventManualRefund, 0, 250000, PaymentStatusPending, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			next, applied := Transition(PaymentStatusPending, tc.event, tc.received, tc.total)
			assert.Equal(t, tc.want, next)
			assert.Equal(t, tc.applied, applied)
		})
	}
}

func TestTransition_RefundFromSettled(t *testing.T) {
	for _, status := range []PaymentStatus{PaymentStatusPaid, PaymentStatusDPPaid} {
		next, applied := Transition(status, EventManualRefund, 0, 100)
		assert.Equal(t, PaymentStatusRefunded, next)
		assert.True(t, applied)
	}
}

func TestTransition_SettledRejectsGatewayEvents(t *testing.T) {
	for _, status := range []PaymentStatus{PaymentStatusPaid, PaymentStatusDPPaid} {
		for _, event := range []PaymentEvent{EventGatewayConfirmed, EventGatewayPending, EventGatewayDenied, EventGatewayExpired, EventSweeperTimeout} {
			next, applied := Transition(status, event, 500000, 100)
			assert.Equal(t, status, next, "status %s event %s", status, event)
			assert.False(t, applied)
		}
	}
}

func TestTransition_TerminalStatesAbsorbEverything(t *testing.T) {
	for _, status := range []PaymentStatus{PaymentStatusFailed, PaymentStatusRefunded} {
		for _, event := range allEvents {
			next, applied := Transition(status, event, 500000, 100)
			assert.Equal(t, status, next, "status %s event %s", status, event)
			assert.False(t, applied, "status %s event %s", status, event)
		}
	}
}

// Every (status, event) pair must resolve without surprises: the returned
// status is always a known one, and an unapplied event never changes it.
func TestTransition_Total(t *testing.T) {
	known := map[PaymentStatus]bool{}
	for _, s := range allStatuses {
		known[s] = true
	}

	for _, status := range allStatuses {
		for _, event := range allEvents {
			next, applied := Transition(status, event, 100, 100)
			assert.True(t, known[next], "unknown result status %q", next)
			if !applied {
				assert.Equal(t, status, next)
			}
		}
	}
}

func TestPaymentStatusPredicates(t *testing.T) {
	assert.True(t, PaymentStatusPaid.Settled())
	assert.True(t, PaymentStatusDPPaid.Settled())
	assert.False(t, PaymentStatusPending.Settled())
	assert.False(t, PaymentStatusFailed.Settled())

	assert.True(t, PaymentStatusFailed.IsTerminal())
	assert.True(t, PaymentStatusRefunded.IsTerminal())
	assert.True(t, PaymentStatusPaid.IsTerminal())
	assert.False(t, PaymentStatusPending.IsTerminal())
	assert.False(t, PaymentStatusDPPaid.IsTerminal())
}
