package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []ReturnStatus{
	ReturnStatusPending,
	ReturnStatusApproved,
	ReturnStatusRejected,
	ReturnStatusEscalated,
	ReturnStatusShipping,
	ReturnStatusReceived,
	ReturnStatusRefunding,
	ReturnStatusRefunded,
	ReturnStatusCompleted,
	ReturnStatusCancelled,
}

var allActors = []ActorType{ActorCustomer, ActorShop, ActorAdmin, ActorSystem}

func TestCanTransition_HappyPath(t *testing.T) {
	path := []struct {
		from  ReturnStatus
		to    ReturnStatus
		actor ActorType
	}{
		{ReturnStatusPending, ReturnStatusApproved, ActorShop},
		{ReturnStatusApproved, ReturnStatusShipping, ActorCustomer},
		{ReturnStatusShipping, ReturnStatusReceived, ActorShop},
		{ReturnStatusReceived, ReturnStatusRefunding, ActorShop},
		{ReturnStatusRefunding, ReturnStatusRefunded, ActorShop},
		{ReturnStatusRefunded, ReturnStatusCompleted, ActorShop},
	}

	for _, step := range path {
		assert.True(t, CanTransition(step.from, step.to, step.actor),
			"expected %s -> %s by %s to be legal", step.from, step.to, step.actor)
	}
}

func TestCanTransition_EscalationPath(t *testing.T) {
	assert.True(t, CanTransition(ReturnStatusPending, ReturnStatusRejected, ActorShop))
	assert.True(t, CanTransition(ReturnStatusRejected, ReturnStatusEscalated, ActorCustomer))
	assert.True(t, CanTransition(ReturnStatusEscalated, ReturnStatusApproved, ActorAdmin))
	assert.True(t, CanTransition(ReturnStatusEscalated, ReturnStatusRejected, ActorAdmin))
}

func TestCanTransition_ActorScoping(t *testing.T) {
	// A legal edge for the wrong actor is still illegal
	assert.False(t, CanTransition(ReturnStatusPending, ReturnStatusApproved, ActorCustomer))
	assert.False(t, CanTransition(ReturnStatusPending, ReturnStatusApproved, ActorAdmin))
	assert.False(t, CanTransition(ReturnStatusApproved, ReturnStatusShipping, ActorShop))
	assert.False(t, CanTransition(ReturnStatusRejected, ReturnStatusEscalated, ActorShop))
	assert.False(t, CanTransition(ReturnStatusEscalated, ReturnStatusApproved, ActorShop))
	assert.False(t, CanTransition(ReturnStatusEscalated, ReturnStatusApproved, ActorCustomer))

	// System may auto-approve and auto-complete, nothing else
	assert.True(t, CanTransition(ReturnStatusPending, ReturnStatusApproved, ActorSystem))
	assert.True(t, CanTransition(ReturnStatusRefunded, ReturnStatusCompleted, ActorSystem))
	assert.False(t, CanTransition(ReturnStatusPending, ReturnStatusRejected, ActorSystem))
	assert.False(t, CanTransition(ReturnStatusPending, ReturnStatusCancelled, ActorSystem))
}

func TestCanTransition_CustomerCancellation(t *testing.T) {
	assert.True(t, CanTransition(ReturnStatusPending, ReturnStatusCancelled, ActorCustomer))
	assert.True(t, CanTransition(ReturnStatusApproved, ReturnStatusCancelled, ActorCustomer))
	assert.True(t, CanTransition(ReturnStatusRejected, ReturnStatusCancelled, ActorCustomer))

	// Once goods are in motion the claim can no longer be cancelled
	assert.False(t, CanTransition(ReturnStatusShipping, ReturnStatusCancelled, ActorCustomer))
	assert.False(t, CanTransition(ReturnStatusReceived, ReturnStatusCancelled, ActorCustomer))
	assert.False(t, CanTransition(ReturnStatusRefunding, ReturnStatusCancelled, ActorCustomer))
	assert.False(t, CanTransition(ReturnStatusEscalated, ReturnStatusCancelled, ActorCustomer))
}

func TestCanTransition_TerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []ReturnStatus{ReturnStatusCompleted, ReturnStatusCancelled} {
		for _, to := range allStatuses {
			for _, actor := range allActors {
				assert.False(t, CanTransition(terminal, to, actor),
					"terminal %s must not allow %s -> %s by %s", terminal, terminal, to, actor)
			}
		}
	}
}

func TestCanTransition_NoSelfLoops(t *testing.T) {
	for _, status := range allStatuses {
		for _, actor := range allActors {
			assert.False(t, CanTransition(status, status, actor))
		}
	}
}

func TestCanTransition_NoSkippingAhead(t *testing.T) {
	for _, actor := range allActors {
		assert.False(t, CanTransition(ReturnStatusPending, ReturnStatusRefunded, actor))
		assert.False(t, CanTransition(ReturnStatusApproved, ReturnStatusReceived, actor))
		assert.False(t, CanTransition(ReturnStatusShipping, ReturnStatusRefunded, actor))
		assert.False(t, CanTransition(ReturnStatusReceived, ReturnStatusCompleted, actor))
	}
}

func TestValidateTransition_ErrorCarriesContext(t *testing.T) {
	err := ValidateTransition(ReturnStatusPending, ReturnStatusRefunded, ActorShop)
	assert.Error(t, err)

	var transitionErr *InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, ReturnStatusPending, transitionErr.From)
	assert.Equal(t, ReturnStatusRefunded, transitionErr.To)
	assert.Equal(t, ActorShop, transitionErr.Actor)
	assert.Contains(t, err.Error(), "PENDING")
	assert.Contains(t, err.Error(), "REFUNDED")
}

func TestValidateTransition_LegalEdge(t *testing.T) {
	assert.NoError(t, ValidateTransition(ReturnStatusPending, ReturnStatusApproved, ActorShop))
}

func TestNextStatuses(t *testing.T) {
	next := NextStatuses(ReturnStatusPending, ActorCustomer)
	assert.ElementsMatch(t, []ReturnStatus{ReturnStatusCancelled}, next)

	next = NextStatuses(ReturnStatusReceived, ActorShop)
	assert.ElementsMatch(t, []ReturnStatus{ReturnStatusRefunding, ReturnStatusRejected}, next)

	assert.Empty(t, NextStatuses(ReturnStatusCompleted, ActorAdmin))
}

func TestIsTerminalReturnStatus(t *testing.T) {
	assert.True(t, IsTerminalReturnStatus(ReturnStatusCompleted))
	assert.True(t, IsTerminalReturnStatus(ReturnStatusCancelled))
	assert.False(t, IsTerminalReturnStatus(ReturnStatusPending))
	assert.False(t, IsTerminalReturnStatus(ReturnStatusRefunded))
	assert.False(t, IsTerminalReturnStatus(ReturnStatusRejected))
}

func TestEveryTransitionTargetIsAKnownStatus(t *testing.T) {
	known := make(map[ReturnStatus]bool, len(allStatuses))
	for _, s := range allStatuses {
		known[s] = true
	}

	for from, transitions := range ValidReturnTransitions {
		assert.True(t, known[from], "unknown source status %s", from)
		for _, tr := range transitions {
			assert.True(t, known[tr.To], "unknown target status %s", tr.To)
			assert.NotEmpty(t, tr.Actors, "edge %s -> %s has no actors", from, tr.To)
		}
	}
}
