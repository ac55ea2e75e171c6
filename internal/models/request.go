package models

import (
	"time"
)

const (
	RequestKindDirect = "DIRECT"
	RequestKindGlobal = "GLOBAL"
)

const (
	RequestStatusPending  = "PENDING"
	RequestStatusApproved = "APPROVED"
	RequestStatusRejected = "REJECTED"
	RequestStatusCanceled = "CANCELED"
)

// MoneyRequest asks another user (or, for GLOBAL kind, anyone holding the
// share link) to pay the requester.
type MoneyRequest struct {
	ID        string
	Requester Account
	// Payer is zero-valued for GLOBAL requests: anyone may fulfill them.
	Payer     *Account
	Amount    Amount
	Message   string
	Kind      string
	Status    string
	CreatedAt time.Time
}

// CanTransitionRequestStatus tells whether a status change is legal.
// PENDING is the only non-terminal state; APPROVED, REJECTED and CANCELED
// are final with no back-transitions.
func CanTransitionRequestStatus(from, to string) bool {
	if from != RequestStatusPending {
		return false
	}
	switch to {
	case RequestStatusApproved, RequestStatusRejected, RequestStatusCanceled:
		return true
	}
	return false
}

// IsOpen reports whether the request can still be fulfilled.
func (r MoneyRequest) IsOpen() bool {
	return r.Status == RequestStatusPending
}

// BoundTo reports whether the request names a specific payer.
func (r MoneyRequest) BoundTo() (string, bool) {
	if r.Payer == nil || r.Payer.ID == "" {
		return "", false
	}
	return r.Payer.ID, true
}
