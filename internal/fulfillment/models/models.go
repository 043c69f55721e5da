package models

import (
	"time"

	paymodels "phasegarden/internal/payment/models"
)

// DeliveryStatus is the delivery state of a claimed fulfillment. Values are
// persisted; do not rename.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryPending, DeliverySent, DeliveryFailed:
		return true
	}
	return false
}

// ClaimResult reports the outcome of an idempotency claim.
type ClaimResult int

const (
	// Claimed means this caller inserted the record and owns fulfillment.
	Claimed ClaimResult = iota + 1

	// AlreadyClaimed means a record already existed for the key.
	AlreadyClaimed
)

func (r ClaimResult) String() string {
	switch r {
	case Claimed:
		return "claimed"
	case AlreadyClaimed:
		return "already_claimed"
	default:
		return "unknown"
	}
}

// Record is one fulfillment, keyed by payment identity. Once Serial is set it
// never changes.
type Record struct {
	Key        paymodels.Key
	Serial     string
	PayerEmail string
	Status     DeliveryStatus
	Attempts   int
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// FulfilledAt is set when the email is accepted by the mail provider.
	FulfilledAt *time.Time

	// LeaseUntil marks an in-flight delivery. Another worker may take over
	// only after it passes.
	LeaseUntil *time.Time
}

func (r *Record) HasSerial() bool {
	return r != nil && r.Serial != ""
}

// Leased reports whether a delivery attempt is in flight at now.
func (r *Record) Leased(now time.Time) bool {
	return r.LeaseUntil != nil && now.Before(*r.LeaseUntil)
}

// Clone returns a deep copy so callers cannot mutate store state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.FulfilledAt != nil {
		t := *r.FulfilledAt
		c.FulfilledAt = &t
	}
	if r.LeaseUntil != nil {
		t := *r.LeaseUntil
		c.LeaseUntil = &t
	}
	return &c
}

// Email is a composed license delivery message.
type Email struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// EventType names a fulfillment lifecycle event on the stream.
type EventType string

const (
	EventSerialIssued     EventType = "fulfillment.serial_issued"
	EventDeliverySent     EventType = "fulfillment.delivery_sent"
	EventDeliveryFailed   EventType = "fulfillment.delivery_failed"
	EventDuplicateIgnored EventType = "fulfillment.duplicate_ignored"
)

// Event is published after each state transition. It never carries the
// serial itself.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Provider   string         `json:"provider"`
	PaymentID  string         `json:"payment_id"`
	Status     DeliveryStatus `json:"delivery_status"`
	Attempts   int            `json:"attempts"`
	Reason     string         `json:"reason,omitempty"`
	Operator   string         `json:"operator,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
