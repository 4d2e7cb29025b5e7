package model

// Unit finality outcomes as reported by the ledger monitor's units
// projection.  Anything other than "good" means the transaction was
// superseded by a conflicting one and is rejected as payment.
const SequenceGood = "good"

// ObservedPayment pairs a freshly seen ledger output with the unpaid
// session whose receiving address it pays.  Produced by joining the
// outputs projection against the states table.
type ObservedPayment struct {
	SessionID      uint64
	DeviceAddress  string
	Unit           string
	ExpectedAmount int64
	PaidAmount     int64
}

// PaymentFinality reports the final sequence of a unit that previously
// paid a session and has not been confirmed yet.
type PaymentFinality struct {
	SessionID     uint64
	DeviceAddress string
	Unit          string
	Sequence      string
}

// Accepted reports whether the unit was canonically accepted by the
// ledger ("good") as opposed to rejected as a double-spend.
func (f PaymentFinality) Accepted() bool { return f.Sequence == SequenceGood }
