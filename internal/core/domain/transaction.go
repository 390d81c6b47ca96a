package domain

import (
	"time"
)

// TransactionKind represents the kind of money movement.
type TransactionKind string

const (
	TransactionKindDeposit  TransactionKind = "deposit"
	TransactionKindWithdraw TransactionKind = "withdraw"
	TransactionKindBuy      TransactionKind = "buy"
	TransactionKindSell     TransactionKind = "sell"
)

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusReserved   TransactionStatus = "reserved"
	TransactionStatusConfirmed  TransactionStatus = "confirmed"
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusRolledBack TransactionStatus = "rolled_back"
)

// legalTransitions is the protocol state machine. pending -> confirmed is the
// direct path for operations without a reservation phase (deposit, sell).
var legalTransitions = map[TransactionStatus]map[TransactionStatus]bool{
	TransactionStatusPending: {
		TransactionStatusReserved:  true,
		TransactionStatusConfirmed: true,
		TransactionStatusFailed:    true,
	},
	TransactionStatusReserved: {
		TransactionStatusConfirmed:  true,
		TransactionStatusRolledBack: true,
	},
}

// TransactionRecord is an append-only ledger entry, keyed by the
// client-generated idempotency key. A retried operation finds its existing
// record here instead of re-issuing a financial action.
type TransactionRecord struct {
	IdempotencyKey  string            `json:"idempotency_key"`
	Kind            TransactionKind   `json:"kind"`
	Amount          int64             `json:"amount"`
	CounterpartyRef string            `json:"counterparty_reference"`
	Status          TransactionStatus `json:"status"`
	// FundsMoved records whether the local balance change for this
	// transaction has committed. Crash replay uses it to decide which
	// protocol step to resume.
	FundsMoved  bool       `json:"funds_moved"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsTerminal returns true if the transaction is in a final state.
// Terminal records are immutable.
func (r *TransactionRecord) IsTerminal() bool {
	return r.Status == TransactionStatusConfirmed ||
		r.Status == TransactionStatusFailed ||
		r.Status == TransactionStatusRolledBack
}

// CanTransition reports whether moving to the given status is legal.
func (r *TransactionRecord) CanTransition(to TransactionStatus) bool {
	return legalTransitions[r.Status][to]
}

// ValidKind reports whether k is a known transaction kind.
func ValidKind(k TransactionKind) bool {
	switch k {
	case TransactionKindDeposit, TransactionKindWithdraw, TransactionKindBuy, TransactionKindSell:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known transaction status.
func ValidStatus(s TransactionStatus) bool {
	switch s {
	case TransactionStatusPending, TransactionStatusReserved, TransactionStatusConfirmed,
		TransactionStatusFailed, TransactionStatusRolledBack:
		return true
	}
	return false
}
