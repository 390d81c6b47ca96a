package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"aipseo/internal/core/domain"
	"aipseo/internal/core/ports"
	"aipseo/pkg/apperror"
)

// maxConflictRetries bounds how many times an operation restarts from a fresh
// load after losing a race to a concurrent writer.
const maxConflictRetries = 3

// CoordinatorService drives deposit/withdraw/buy/sell as multi-step protocols
// against the remote marketplace, using the wallet store and the in-file
// idempotency ledger to guarantee at-most-once effect. Remote calls never run
// while the wallet file lock is held.
type CoordinatorService struct {
	store  ports.WalletStore
	market ports.MarketplaceClient
	log    zerolog.Logger
}

// NewCoordinatorService creates a new CoordinatorService.
func NewCoordinatorService(store ports.WalletStore, market ports.MarketplaceClient, log zerolog.Logger) *CoordinatorService {
	return &CoordinatorService{
		store:  store,
		market: market,
		log:    log,
	}
}

// TransactionResult is the outcome surfaced for a coordinated operation.
type TransactionResult struct {
	WalletID string                   `json:"wallet_id"`
	Balance  int64                    `json:"balance"`
	Version  int64                    `json:"version"`
	Record   domain.TransactionRecord `json:"record"`
	// Operation extras, set when the remote side returned them.
	CheckoutURL string          `json:"checkout_url,omitempty"`
	EscrowID    string          `json:"escrow_id,omitempty"`
	Listing     *domain.Listing `json:"listing,omitempty"`
	Replayed    bool            `json:"replayed,omitempty"`
}

func resultFor(w *domain.Wallet, rec *domain.TransactionRecord) *TransactionResult {
	return &TransactionResult{
		WalletID: w.WalletID,
		Balance:  w.Balance(),
		Version:  w.Version,
		Record:   *rec,
	}
}

// Balance loads the wallet and returns its decrypted view.
func (s *CoordinatorService) Balance(path, passphrase string) (*domain.Wallet, error) {
	return s.store.Load(path, passphrase)
}

// Deposit records the result of a completed external deposit flow: record
// pending, invoke the deposit-initiation call (the payment processor is the
// source of truth for funds arriving), then credit the balance and confirm.
// No reservation phase: no local funds are pledged before remote
// confirmation.
func (s *CoordinatorService) Deposit(ctx context.Context, path, passphrase, idempotencyKey string, amount int64) (*TransactionResult, error) {
	if amount <= 0 {
		return nil, apperror.ErrValidation("deposit amount must be positive")
	}

	wallet, rec, replayed, err := s.begin(path, passphrase, domain.TransactionRecord{
		IdempotencyKey: idempotencyKey,
		Kind:           domain.TransactionKindDeposit,
		Amount:         amount,
	})
	if err != nil {
		return nil, err
	}
	if replayed && rec.IsTerminal() {
		res := resultFor(wallet, rec)
		res.Replayed = true
		return res, nil
	}

	// Remote call outside the lock.
	receipt, err := s.market.ProcessDeposit(ctx, idempotencyKey, wallet.WalletID, rec.Amount)
	if err != nil {
		if isDefinitiveRejection(err) {
			// No external commitment was made; no balance change.
			if _, ferr := s.advance(path, passphrase, idempotencyKey, domain.TransactionStatusFailed, nil); ferr != nil {
				return nil, ferr
			}
			return nil, err
		}
		// Transient: the pending record stays; re-running the same key
		// resumes here.
		return nil, err
	}

	wallet, err = s.applyRetry(path, passphrase, func(body *domain.LedgerBody) error {
		r := body.Find(idempotencyKey)
		if r == nil {
			return apperror.ErrTransactionNotFound(idempotencyKey)
		}
		if err := body.Credit(r.Amount); err != nil {
			return err
		}
		r.FundsMoved = true
		return body.Advance(idempotencyKey, domain.TransactionStatusConfirmed)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("idempotency_key", idempotencyKey).
		Int64("amount", amount).
		Int64("balance", wallet.Balance()).
		Msg("deposit confirmed")

	res := resultFor(wallet, wallet.Ledger.Find(idempotencyKey))
	res.CheckoutURL = receipt.CheckoutURL
	return res, nil
}

// Withdraw debits the balance locally first, then issues the remote payout.
// The local decrement commits first because the wallet must never report
// spendable balance it cannot honor; the payout itself is retryable under the
// same idempotency key. A payout that fails transiently leaves the record
// reserved for reconciliation.
func (s *CoordinatorService) Withdraw(ctx context.Context, path, passphrase, idempotencyKey string, amount int64, destination string) (*TransactionResult, error) {
	if amount <= 0 {
		return nil, apperror.ErrValidation("withdraw amount must be positive")
	}
	if destination == "" {
		return nil, apperror.ErrValidation("withdraw destination must not be empty")
	}

	var wallet *domain.Wallet
	var rec *domain.TransactionRecord
	for attempt := 0; ; attempt++ {
		loaded, err := s.store.Load(path, passphrase)
		if err != nil {
			return nil, err
		}

		if existing := loaded.Ledger.Find(idempotencyKey); existing != nil {
			if existing.IsTerminal() {
				res := resultFor(loaded, existing)
				res.Replayed = true
				return res, nil
			}
			// Non-terminal replay: the debit already committed if the
			// record reached reserved; resume the payout step.
			return s.resumePayout(ctx, path, passphrase, loaded, existing)
		}

		// Record pending, guard and debit, and pledge the funds in one
		// atomic mutation. An overdraw aborts the whole write: no
		// record, no version bump.
		wallet, err = s.store.Apply(path, passphrase, loaded.Version, func(body *domain.LedgerBody) error {
			if err := body.Record(domain.TransactionRecord{
				IdempotencyKey:  idempotencyKey,
				Kind:            domain.TransactionKindWithdraw,
				Amount:          amount,
				CounterpartyRef: destination,
			}); err != nil {
				return err
			}
			if err := body.Debit(amount); err != nil {
				return err
			}
			r := body.Find(idempotencyKey)
			r.FundsMoved = true
			return body.Advance(idempotencyKey, domain.TransactionStatusReserved)
		})
		if err != nil {
			if errors.Is(err, apperror.ErrConflict()) && attempt < maxConflictRetries-1 {
				continue
			}
			return nil, err
		}
		rec = wallet.Ledger.Find(idempotencyKey)
		break
	}

	return s.finishPayout(ctx, path, passphrase, wallet, rec)
}

// resumePayout handles a withdraw replay: a pending record never debited is
// restarted, a reserved record retries the payout.
func (s *CoordinatorService) resumePayout(ctx context.Context, path, passphrase string, wallet *domain.Wallet, rec *domain.TransactionRecord) (*TransactionResult, error) {
	if rec.Status == domain.TransactionStatusPending && !rec.FundsMoved {
		// Interrupted before the debit committed. Debit and pledge now.
		updated, err := s.applyRetry(path, passphrase, func(body *domain.LedgerBody) error {
			r := body.Find(rec.IdempotencyKey)
			if r == nil {
				return apperror.ErrTransactionNotFound(rec.IdempotencyKey)
			}
			if err := body.Debit(r.Amount); err != nil {
				return err
			}
			r.FundsMoved = true
			return body.Advance(rec.IdempotencyKey, domain.TransactionStatusReserved)
		})
		if err != nil {
			return nil, err
		}
		wallet = updated
		rec = wallet.Ledger.Find(rec.IdempotencyKey)
	}
	return s.finishPayout(ctx, path, passphrase, wallet, rec)
}

// finishPayout issues the remote payout for a reserved withdraw and settles
// the record.
func (s *CoordinatorService) finishPayout(ctx context.Context, path, passphrase string, wallet *domain.Wallet, rec *domain.TransactionRecord) (*TransactionResult, error) {
	key := rec.IdempotencyKey

	_, err := s.market.ProcessPayout(ctx, key, wallet.WalletID, rec.Amount, rec.CounterpartyRef)
	if err != nil {
		if isDefinitiveRejection(err) {
			// Definitive refusal: credit the funds back and close the
			// record.
			if _, rerr := s.applyRetry(path, passphrase, func(body *domain.LedgerBody) error {
				r := body.Find(key)
				if r == nil {
					return apperror.ErrTransactionNotFound(key)
				}
				if err := body.Credit(r.Amount); err != nil {
					return err
				}
				r.FundsMoved = false
				return body.Advance(key, domain.TransactionStatusRolledBack)
			}); rerr != nil {
				return nil, rerr
			}
			s.log.Warn().Str("idempotency_key", key).Msg("payout rejected, funds credited back")
			return nil, err
		}
		// Transient: funds stay debited, record stays reserved. The
		// reconciliation path retries the payout under the same key.
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("payout unconfirmed, transaction left reserved")
		return nil, err
	}

	wallet, err = s.advance(path, passphrase, key, domain.TransactionStatusConfirmed, nil)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("idempotency_key", key).
		Int64("amount", rec.Amount).
		Int64("balance", wallet.Balance()).
		Msg("withdrawal confirmed")

	return resultFor(wallet, wallet.Ledger.Find(key)), nil
}

// Buy purchases a listing: record pending, reserve the listing remotely,
// debit locally, confirm remotely. A failure between the local debit and the
// remote confirmation leaves the record reserved with FundsMoved set;
// replaying the same key (or running Reconcile) resumes the confirmation
// instead of re-debiting.
func (s *CoordinatorService) Buy(ctx context.Context, path, passphrase, idempotencyKey, listingID string) (*TransactionResult, error) {
	if listingID == "" {
		return nil, apperror.ErrValidation("listing id must not be empty")
	}

	loaded, err := s.store.Load(path, passphrase)
	if err != nil {
		return nil, err
	}
	if existing := loaded.Ledger.Find(idempotencyKey); existing != nil {
		if existing.IsTerminal() {
			res := resultFor(loaded, existing)
			res.Replayed = true
			return res, nil
		}
		switch existing.Status {
		case domain.TransactionStatusPending:
			return s.reserveAndSettle(ctx, path, passphrase, loaded, existing)
		case domain.TransactionStatusReserved:
			return s.settleBuy(ctx, path, passphrase, loaded, existing)
		}
	}

	// Price discovery is a read-only call; it carries no side effect and
	// so may precede the pending record.
	listing, err := s.market.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	wallet, rec, _, err := s.begin(path, passphrase, domain.TransactionRecord{
		IdempotencyKey:  idempotencyKey,
		Kind:            domain.TransactionKindBuy,
		Amount:          listing.Price,
		CounterpartyRef: listingID,
	})
	if err != nil {
		return nil, err
	}

	return s.reserveAndSettle(ctx, path, passphrase, wallet, rec)
}

// reserveAndSettle runs the reserve step for a pending buy, then settles.
func (s *CoordinatorService) reserveAndSettle(ctx context.Context, path, passphrase string, wallet *domain.Wallet, rec *domain.TransactionRecord) (*TransactionResult, error) {
	key := rec.IdempotencyKey
	listingID := rec.CounterpartyRef

	if _, err := s.market.ReserveListing(ctx, key, listingID); err != nil {
		if isDefinitiveRejection(err) {
			if _, ferr := s.advance(path, passphrase, key, domain.TransactionStatusFailed, nil); ferr != nil {
				return nil, ferr
			}
			return nil, err
		}
		// Transient: record stays pending, replay restarts here.
		return nil, err
	}

	wallet, err := s.advance(path, passphrase, key, domain.TransactionStatusReserved, nil)
	if err != nil {
		return nil, err
	}

	return s.settleBuy(ctx, path, passphrase, wallet, wallet.Ledger.Find(key))
}

// settleBuy completes a reserved buy: debit locally if not yet done, then
// confirm the purchase remotely.
func (s *CoordinatorService) settleBuy(ctx context.Context, path, passphrase string, wallet *domain.Wallet, rec *domain.TransactionRecord) (*TransactionResult, error) {
	key := rec.IdempotencyKey
	listingID := rec.CounterpartyRef

	if !rec.FundsMoved {
		updated, err := s.applyRetry(path, passphrase, func(body *domain.LedgerBody) error {
			r := body.Find(key)
			if r == nil {
				return apperror.ErrTransactionNotFound(key)
			}
			if err := body.Debit(r.Amount); err != nil {
				return err
			}
			r.FundsMoved = true
			return nil
		})
		if err != nil {
			if !errors.Is(err, apperror.ErrInsufficientFunds()) {
				return nil, err
			}
			// Local debit failed: release the remote hold and close
			// the record.
			if cerr := s.market.CancelReservation(ctx, key, listingID); cerr != nil && !isDefinitiveRejection(cerr) {
				s.log.Warn().Err(cerr).Str("idempotency_key", key).Msg("cancel-reservation unconfirmed")
			}
			if _, rerr := s.advance(path, passphrase, key, domain.TransactionStatusRolledBack, nil); rerr != nil {
				return nil, rerr
			}
			return nil, err
		}
		wallet = updated
		rec = wallet.Ledger.Find(key)
	}

	receipt, err := s.market.ConfirmPurchase(ctx, key, listingID)
	if err != nil {
		if isDefinitiveRejection(err) {
			// The remote side will never confirm this reservation.
			// Reverse the committed debit and close the record.
			if _, rerr := s.applyRetry(path, passphrase, func(body *domain.LedgerBody) error {
				r := body.Find(key)
				if r == nil {
					return apperror.ErrTransactionNotFound(key)
				}
				if err := body.Credit(r.Amount); err != nil {
					return err
				}
				r.FundsMoved = false
				return body.Advance(key, domain.TransactionStatusRolledBack)
			}); rerr != nil {
				return nil, rerr
			}
			s.log.Warn().Str("idempotency_key", key).Str("listing_id", listingID).Msg("purchase not confirmable, debit reversed")
			return nil, err
		}
		// Transient: funds stay debited, record stays reserved. The only
		// way out of reserved is the explicit resolution path, never an
		// abrupt abort.
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("confirm-purchase unconfirmed, transaction left reserved")
		return nil, err
	}

	wallet, err = s.advance(path, passphrase, key, domain.TransactionStatusConfirmed, nil)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("idempotency_key", key).
		Str("listing_id", listingID).
		Int64("balance", wallet.Balance()).
		Msg("purchase confirmed")

	res := resultFor(wallet, wallet.Ledger.Find(key))
	res.EscrowID = receipt.EscrowID
	return res, nil
}

// Sell publishes a listing. No funds move locally, so there is no
// reservation phase: pending -> confirmed or pending -> failed.
func (s *CoordinatorService) Sell(ctx context.Context, path, passphrase, idempotencyKey string, draft domain.ListingDraft) (*TransactionResult, error) {
	if draft.SourceURL == "" || draft.TargetURL == "" {
		return nil, apperror.ErrValidation("source and target urls must not be empty")
	}
	if draft.Price <= 0 {
		return nil, apperror.ErrValidation("listing price must be positive")
	}

	wallet, rec, replayed, err := s.begin(path, passphrase, domain.TransactionRecord{
		IdempotencyKey:  idempotencyKey,
		Kind:            domain.TransactionKindSell,
		Amount:          draft.Price,
		CounterpartyRef: draft.SourceURL,
	})
	if err != nil {
		return nil, err
	}
	if replayed && rec.IsTerminal() {
		res := resultFor(wallet, rec)
		res.Replayed = true
		return res, nil
	}

	listing, err := s.market.CreateListing(ctx, idempotencyKey, draft)
	if err != nil {
		if isDefinitiveRejection(err) {
			if _, ferr := s.advance(path, passphrase, idempotencyKey, domain.TransactionStatusFailed, nil); ferr != nil {
				return nil, ferr
			}
			return nil, err
		}
		return nil, err
	}

	wallet, err = s.advance(path, passphrase, idempotencyKey, domain.TransactionStatusConfirmed, func(r *domain.TransactionRecord) {
		r.CounterpartyRef = listing.ListingID
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("idempotency_key", idempotencyKey).
		Str("listing_id", listing.ListingID).
		Msg("listing created")

	res := resultFor(wallet, wallet.Ledger.Find(idempotencyKey))
	res.Listing = listing
	return res, nil
}

// ReconcileReport summarises a reconciliation pass.
type ReconcileReport struct {
	Resolved  []domain.TransactionRecord `json:"resolved"`
	Remaining []domain.TransactionRecord `json:"remaining"`
}

// Reconcile resolves every transaction left in the non-terminal reserved
// state by a crash or network failure: buys retry confirm-purchase,
// withdrawals retry the payout. A definitive remote verdict rolls the
// transaction back and reverses any committed debit; a transient failure
// leaves it reserved for the next pass.
func (s *CoordinatorService) Reconcile(ctx context.Context, path, passphrase string) (*ReconcileReport, error) {
	wallet, err := s.store.Load(path, passphrase)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{}
	for _, stuck := range wallet.Ledger.Reserved() {
		fresh, err := s.store.Load(path, passphrase)
		if err != nil {
			return nil, err
		}
		rec := fresh.Ledger.Find(stuck.IdempotencyKey)
		if rec == nil || rec.Status != domain.TransactionStatusReserved {
			continue
		}

		var resErr error
		switch rec.Kind {
		case domain.TransactionKindBuy:
			_, resErr = s.settleBuy(ctx, path, passphrase, fresh, rec)
		case domain.TransactionKindWithdraw:
			_, resErr = s.finishPayout(ctx, path, passphrase, fresh, rec)
		default:
			return nil, apperror.InternalError(fmt.Errorf("reserved record %q has kind %q", rec.IdempotencyKey, rec.Kind))
		}

		after, err := s.store.Load(path, passphrase)
		if err != nil {
			return nil, err
		}
		settled := after.Ledger.Find(stuck.IdempotencyKey)
		if settled != nil && settled.IsTerminal() {
			report.Resolved = append(report.Resolved, *settled)
			continue
		}
		if settled != nil {
			report.Remaining = append(report.Remaining, *settled)
		}
		if resErr != nil {
			s.log.Warn().Err(resErr).Str("idempotency_key", stuck.IdempotencyKey).Msg("reconciliation left transaction reserved")
		}
	}

	return report, nil
}

// begin looks up an existing record for the key or appends a fresh pending
// one, restarting from a fresh load on write conflicts. Returns the wallet,
// the record, and whether the record pre-existed.
func (s *CoordinatorService) begin(path, passphrase string, rec domain.TransactionRecord) (*domain.Wallet, *domain.TransactionRecord, bool, error) {
	for attempt := 0; ; attempt++ {
		loaded, err := s.store.Load(path, passphrase)
		if err != nil {
			return nil, nil, false, err
		}

		if existing := loaded.Ledger.Find(rec.IdempotencyKey); existing != nil {
			return loaded, existing, true, nil
		}

		wallet, err := s.store.Apply(path, passphrase, loaded.Version, func(body *domain.LedgerBody) error {
			return body.Record(rec)
		})
		if err != nil {
			if errors.Is(err, apperror.ErrConflict()) && attempt < maxConflictRetries-1 {
				continue
			}
			return nil, nil, false, err
		}
		return wallet, wallet.Ledger.Find(rec.IdempotencyKey), false, nil
	}
}

// applyRetry runs a mutation with bounded restart on write conflicts.
func (s *CoordinatorService) applyRetry(path, passphrase string, fn ports.MutationFunc) (*domain.Wallet, error) {
	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		wallet, err := s.store.Apply(path, passphrase, 0, fn)
		if err == nil {
			return wallet, nil
		}
		if !errors.Is(err, apperror.ErrConflict()) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// advance moves a record to a new status, with an optional extra edit applied
// in the same atomic mutation.
func (s *CoordinatorService) advance(path, passphrase, key string, to domain.TransactionStatus, edit func(*domain.TransactionRecord)) (*domain.Wallet, error) {
	return s.applyRetry(path, passphrase, func(body *domain.LedgerBody) error {
		rec := body.Find(key)
		if rec == nil {
			return apperror.ErrTransactionNotFound(key)
		}
		if edit != nil {
			edit(rec)
		}
		return body.Advance(key, to)
	})
}

// isDefinitiveRejection reports whether the remote verdict is final: the
// operation will never succeed by retrying.
func isDefinitiveRejection(err error) bool {
	return errors.Is(err, apperror.ErrRemoteRejection("")) ||
		errors.Is(err, apperror.ErrListingGone("")) ||
		errors.Is(err, apperror.ErrReservationExpired(""))
}
