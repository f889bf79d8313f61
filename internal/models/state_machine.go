package models

import "fmt"

// ReturnTransition is one legal edge out of a status, together with the
// actor classes allowed to trigger it. Actor legality is enforced here,
// centrally, instead of trusting each entry point to only request the
// edges its caller may take.
type ReturnTransition struct {
	To     ReturnStatus
	Actors []ActorType
}

// ValidReturnTransitions defines the complete return request state machine.
// Flow: PENDING → APPROVED → SHIPPING → RECEIVED → REFUNDING → REFUNDED → COMPLETED,
// with the rejection branch PENDING → REJECTED → ESCALATED → APPROVED|REJECTED.
// COMPLETED and CANCELLED are terminal.
var ValidReturnTransitions = map[ReturnStatus][]ReturnTransition{
	ReturnStatusPending: {
		{To: ReturnStatusApproved, Actors: []ActorType{ActorShop, ActorSystem}}, // system = expiry auto-approval
		{To: ReturnStatusRejected, Actors: []ActorType{ActorShop}},
		{To: ReturnStatusCancelled, Actors: []ActorType{ActorCustomer}},
	},
	ReturnStatusApproved: {
		{To: ReturnStatusShipping, Actors: []ActorType{ActorCustomer}},
		{To: ReturnStatusCancelled, Actors: []ActorType{ActorCustomer}},
	},
	ReturnStatusRejected: {
		{To: ReturnStatusEscalated, Actors: []ActorType{ActorCustomer}},
		{To: ReturnStatusCancelled, Actors: []ActorType{ActorCustomer}},
	},
	ReturnStatusEscalated: {
		{To: ReturnStatusApproved, Actors: []ActorType{ActorAdmin}},
		{To: ReturnStatusRejected, Actors: []ActorType{ActorAdmin}},
	},
	ReturnStatusShipping: {
		{To: ReturnStatusReceived, Actors: []ActorType{ActorShop}},
	},
	ReturnStatusReceived: {
		{To: ReturnStatusRefunding, Actors: []ActorType{ActorShop}},
		{To: ReturnStatusRejected, Actors: []ActorType{ActorShop}}, // items came back in bad condition
	},
	ReturnStatusRefunding: {
		{To: ReturnStatusRefunded, Actors: []ActorType{ActorShop}},
	},
	ReturnStatusRefunded: {
		{To: ReturnStatusCompleted, Actors: []ActorType{ActorShop, ActorSystem}},
	},
	ReturnStatusCompleted: {}, // Terminal state
	ReturnStatusCancelled: {}, // Terminal state
}

// InvalidTransitionError reports an illegal edge or an actor class that
// is not permitted to take an otherwise legal edge.
type InvalidTransitionError struct {
	From  ReturnStatus
	To    ReturnStatus
	Actor ActorType
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid return status transition from %s to %s by %s", e.From, e.To, e.Actor)
}

// CanTransition checks whether actor may move a request from one status
// to another. Both edge existence and actor class are checked.
func CanTransition(from, to ReturnStatus, actor ActorType) bool {
	transitions, exists := ValidReturnTransitions[from]
	if !exists {
		return false
	}
	for _, t := range transitions {
		if t.To != to {
			continue
		}
		for _, a := range t.Actors {
			if a == actor {
				return true
			}
		}
	}
	return false
}

// ValidateTransition returns an error if the transition is invalid
func ValidateTransition(from, to ReturnStatus, actor ActorType) error {
	if !CanTransition(from, to, actor) {
		return &InvalidTransitionError{From: from, To: to, Actor: actor}
	}
	return nil
}

// NextStatuses returns the statuses actor may move a request in the
// given status to.
func NextStatuses(from ReturnStatus, actor ActorType) []ReturnStatus {
	var next []ReturnStatus
	for _, t := range ValidReturnTransitions[from] {
		for _, a := range t.Actors {
			if a == actor {
				next = append(next, t.To)
				break
			}
		}
	}
	return next
}

// IsTerminalReturnStatus checks if the status has no outbound edges
func IsTerminalReturnStatus(status ReturnStatus) bool {
	return len(ValidReturnTransitions[status]) == 0
}

// DisplayName returns a human-readable name for the return status
func (s ReturnStatus) DisplayName() string {
	switch s {
	case ReturnStatusPending:
		return "Awaiting Shop Review"
	case ReturnStatusApproved:
		return "Approved"
	case ReturnStatusRejected:
		return "Rejected"
	case ReturnStatusEscalated:
		return "Under Admin Review"
	case ReturnStatusShipping:
		return "Return In Transit"
	case ReturnStatusReceived:
		return "Items Received"
	case ReturnStatusRefunding:
		return "Refund In Progress"
	case ReturnStatusRefunded:
		return "Refunded"
	case ReturnStatusCompleted:
		return "Completed"
	case ReturnStatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}
