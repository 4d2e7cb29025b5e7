package model

import "time"

// Step is the state-machine position of a session.  The set of values is
// closed: any other value found in storage indicates data corruption and
// is surfaced as repository.ErrInvalidStep rather than guessed at.
type Step string

const (
	StepChoosePizza        Step = "waiting_for_choice_of_pizza"
	StepChooseCola         Step = "waiting_for_choice_of_cola"
	StepWaitingForPayment  Step = "waiting_for_payment"
	StepUnconfirmedPayment Step = "unconfirmed_payment"
	StepDone               Step = "done"
	StepDoublespend        Step = "doublespend"
)

// Valid reports whether s is one of the known step values.
func (s Step) Valid() bool {
	switch s {
	case StepChoosePizza, StepChooseCola, StepWaitingForPayment,
		StepUnconfirmedPayment, StepDone, StepDoublespend:
		return true
	}
	return false
}

// Terminal reports whether the session can no longer change.  A customer
// messaging a terminal session starts a brand-new session instead.
func (s Step) Terminal() bool {
	return s == StepDone || s == StepDoublespend
}

// Order is the structured order payload stored as JSON in the states
// table.  Fields are absent until the corresponding choice was made.
type Order struct {
	Pizza string `json:"pizza,omitempty"` // topping code, e.g. "hawaiian"
	Cola  string `json:"cola,omitempty"`  // "yes" or "no"
}

// Session records one customer's in-progress or completed order.
// A customer (identified by device address) accumulates many sessions
// over time but has at most one active session; older rows are kept
// as order history and never mutated again.
//
// Fields:
//
//	ID             – states.state_id, monotonically assigned.
//	DeviceAddress  – states.device_address, the remote conversational party.
//	Step           – states.step.
//	Order          – states.order (JSON payload).
//	Amount         – states.amount in bytes; set once the cola choice is known.
//	PaymentAddress – states.address; assigned once, never reused.
//	PaymentUnit    – states.unit; ledger transaction that paid this session.
//	PaidAt, ConfirmedAt, CancelledAt – each set at most once.
type Session struct {
	ID             uint64
	DeviceAddress  string
	Step           Step
	Order          Order
	Amount         *int64
	PaymentAddress *string
	PaymentUnit    *string
	PaidAt         *time.Time
	ConfirmedAt    *time.Time
	CancelledAt    *time.Time
	CreatedAt      time.Time
}

// Active reports whether the session still accepts transitions, i.e. it
// has neither reached a terminal step nor been cancelled.
func (s *Session) Active() bool {
	return !s.Step.Terminal() && s.CancelledAt == nil
}
