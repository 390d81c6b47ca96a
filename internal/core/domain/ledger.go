package domain

import (
	"fmt"
	"time"

	"aipseo/pkg/apperror"
)

// Find returns the record for the given idempotency key, or nil. The pointer
// aliases the slice entry, so callers inside a store mutation can update it
// in place.
func (b *LedgerBody) Find(idempotencyKey string) *TransactionRecord {
	for i := range b.Transactions {
		if b.Transactions[i].IdempotencyKey == idempotencyKey {
			return &b.Transactions[i]
		}
	}
	return nil
}

// Record appends a new pending transaction. It must be called before any
// remote side effect is issued for the key.
func (b *LedgerBody) Record(rec TransactionRecord) error {
	if rec.IdempotencyKey == "" {
		return apperror.ErrValidation("idempotency key must not be empty")
	}
	if !ValidKind(rec.Kind) {
		return apperror.ErrValidation(fmt.Sprintf("unknown transaction kind %q", rec.Kind))
	}
	if rec.Amount < 0 {
		return apperror.ErrValidation("transaction amount must not be negative")
	}
	if b.Find(rec.IdempotencyKey) != nil {
		return apperror.ErrDuplicateTransaction(rec.IdempotencyKey)
	}
	rec.Status = TransactionStatusPending
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	b.Transactions = append(b.Transactions, rec)
	return nil
}

// Advance moves the record for the given key to a new status, enforcing the
// legal protocol transitions. Terminal statuses also stamp CompletedAt.
func (b *LedgerBody) Advance(idempotencyKey string, to TransactionStatus) error {
	rec := b.Find(idempotencyKey)
	if rec == nil {
		return apperror.ErrTransactionNotFound(idempotencyKey)
	}
	if !rec.CanTransition(to) {
		return apperror.ErrInvalidTransition(string(rec.Status), string(to))
	}
	rec.Status = to
	if rec.IsTerminal() {
		now := time.Now().UTC()
		rec.CompletedAt = &now
	}
	return nil
}

// Credit increases the balance.
func (b *LedgerBody) Credit(amount int64) error {
	if amount < 0 {
		return apperror.ErrValidation("credit amount must not be negative")
	}
	b.Balance += amount
	return nil
}

// Debit decreases the balance, guarded so it can never go negative.
func (b *LedgerBody) Debit(amount int64) error {
	if amount < 0 {
		return apperror.ErrValidation("debit amount must not be negative")
	}
	if b.Balance < amount {
		return apperror.ErrInsufficientFunds()
	}
	b.Balance -= amount
	return nil
}

// Reserved returns the records currently stuck in the non-terminal reserved
// state. These are the reconciliation work list.
func (b *LedgerBody) Reserved() []TransactionRecord {
	var out []TransactionRecord
	for _, rec := range b.Transactions {
		if rec.Status == TransactionStatusReserved {
			out = append(out, rec)
		}
	}
	return out
}

// Validate checks the structural invariants of a decrypted ledger. A body
// that fails here is treated as file corruption by the store.
func (b *LedgerBody) Validate() error {
	if b.Balance < 0 {
		return fmt.Errorf("negative balance %d", b.Balance)
	}
	seen := make(map[string]bool, len(b.Transactions))
	for i, rec := range b.Transactions {
		if rec.IdempotencyKey == "" {
			return fmt.Errorf("transaction %d has empty idempotency key", i)
		}
		if seen[rec.IdempotencyKey] {
			return fmt.Errorf("duplicate idempotency key %q", rec.IdempotencyKey)
		}
		seen[rec.IdempotencyKey] = true
		if !ValidKind(rec.Kind) {
			return fmt.Errorf("transaction %q has unknown kind %q", rec.IdempotencyKey, rec.Kind)
		}
		if !ValidStatus(rec.Status) {
			return fmt.Errorf("transaction %q has unknown status %q", rec.IdempotencyKey, rec.Status)
		}
		if rec.Amount < 0 {
			return fmt.Errorf("transaction %q has negative amount", rec.IdempotencyKey)
		}
	}
	return nil
}
