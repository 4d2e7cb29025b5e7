// Package queue defines the wire payloads exchanged with the message
// broker and the consumer that feeds them to the bot core.
package queue

// Envelope types on the merchant.events queue.
const (
	TypePaired           = "paired"
	TypeText             = "text"
	TypePaymentObserved  = "payment_observed"
	TypePaymentFinalized = "payment_finalized"
)

// Envelope is the wire form of every inbound event.  The pairing
// transport publishes paired/text envelopes; the ledger monitor
// publishes the two payment batch envelopes.  Putting them on one queue
// gives the core a single, auditable inbound stream.
type Envelope struct {
	ID            string   `json:"id"`
	Type          string   `json:"type" validate:"required,oneof=paired text payment_observed payment_finalized"`
	DeviceAddress string   `json:"device_address,omitempty" validate:"required_if=Type paired,required_if=Type text"`
	Text          string   `json:"text,omitempty"`
	Units         []string `json:"units,omitempty" validate:"required_if=Type payment_observed,required_if=Type payment_finalized"`
}

// OutboundText is published to the device.outbound queue for the pairing
// transport to deliver to the remote device.
type OutboundText struct {
	ID            string `json:"id"`
	DeviceAddress string `json:"device_address"`
	Text          string `json:"text"`
}
