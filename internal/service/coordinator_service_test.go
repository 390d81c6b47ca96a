package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"aipseo/internal/adapter/walletfile"
	"aipseo/internal/core/domain"
	"aipseo/internal/core/ports"
	"aipseo/internal/core/ports/mocks"
	"aipseo/pkg/apperror"
)

const coordinatorTestPassphrase = "correct horse battery staple"

func newCoordinatorFixture(t *testing.T) (*CoordinatorService, *mocks.MockMarketplaceClient, *walletfile.Store, string) {
	t.Helper()

	ctrl := gomock.NewController(t)
	market := mocks.NewMockMarketplaceClient(ctrl)

	store := walletfile.New(NewArgonEnvelopeService(), zerolog.Nop())
	path := filepath.Join(t.TempDir(), "wallet.json")
	_, err := store.Create(path, "test-wallet", coordinatorTestPassphrase, false)
	require.NoError(t, err)

	svc := NewCoordinatorService(store, market, zerolog.Nop())
	return svc, market, store, path
}

func fund(t *testing.T, svc *CoordinatorService, market *mocks.MockMarketplaceClient, path, key string, amount int64) *TransactionResult {
	t.Helper()

	market.EXPECT().
		ProcessDeposit(gomock.Any(), key, gomock.Any(), amount).
		Return(&ports.DepositReceipt{Amount: amount, Reference: "dep_" + key}, nil)

	res, err := svc.Deposit(context.Background(), path, coordinatorTestPassphrase, key, amount)
	require.NoError(t, err)
	return res
}

func transientErr() error {
	return apperror.ErrNetwork(errors.New("connection reset by peer"))
}

func TestDepositCreditsAndConfirms(t *testing.T) {
	svc, market, _, path := newCoordinatorFixture(t)

	res := fund(t, svc, market, path, "dep-1", 10000)

	assert.Equal(t, int64(10000), res.Balance)
	assert.Equal(t, domain.TransactionStatusConfirmed, res.Record.Status)
	assert.True(t, res.Record.FundsMoved)
	assert.False(t, res.Replayed)
	assert.NotNil(t, res.Record.CompletedAt)
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _, path := newCoordinatorFixture(t)

	_, err := svc.Deposit(context.Background(), path, coordinatorTestPassphrase, "dep-bad", 0)
	assert.ErrorIs(t, err, apperror.ErrValidation(""))

	_, err = svc.Deposit(context.Background(), path, coordinatorTestPassphrase, "dep-bad", -5)
	assert.ErrorIs(t, err, apperror.ErrValidation(""))
}

func TestDepositReplaySkipsRemoteCall(t *testing.T) {
	svc, market, _, path := newCoordinatorFixture(t)

	market.EXPECT().
		ProcessDeposit(gomock.Any(), "dep-1", gomock.Any(), int64(2500)).
		Return(&ports.DepositReceipt{Amount: 2500}, nil).
		Times(1)

	first, err := svc.Deposit(context.Background(), path, coordinatorTestPassphrase, "dep-1", 2500)
	require.NoError(t, err)

	second, err := svc.Deposit(context.Background(), path, coordinatorTestPassphrase, "dep-1", 2500)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Balance, second.Balance)
	assert.Equal(t, domain.TransactionStatusConfirmed, second.Record.Status)
}

func TestDepositRejectedMarksFailed(t *testing.T) {
	svc, market, store, path := newCoordinatorFixture(t)

	market.EXPECT().
		ProcessDeposit(gomock.Any(), "dep-rej", gomock.Any(), int64(1000)).
		Return(nil, apperror.ErrRemoteRejection("account suspended"))

	_, err := svc.Deposit(context.Background(), path, coordinatorTestPassphrase, "dep-rej", 1000)
	assert.ErrorIs(t, err, apperror.ErrRemoteRejection(""))

	wallet, err := store.Load(path, coordinatorTestPassphrase)
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.Balance())
	rec := wallet.Ledger.Find("dep-rej")
	require.NotNil(t, rec)
	assert.Equal(t, domain.TransactionStatusFailed, rec.Status)
	assert.False(t, rec.FundsMoved)
}

func TestDepositTransientFailureLeavesPending(t *testing.T) {
	svc, market, store, path := newCoordinatorFixture(t)

	market.EXPECT().
		ProcessDeposit(gomock.Any(), "dep-net", gomock.Any(), int64(1000)).
		Return(nil, transientErr())

	_, err := svc.Deposit(context.Background(), path, coordinatorTestPassphrase, "dep-net", 1000)
	assert.ErrorIs(t, err, apperror.ErrNetwork(nil))

	wallet, err := store.Load(path, coordinatorTestPassphrase)
	require.NoError(t, err)
	rec := wallet.Ledger.Find("dep-net")
	require.NotNil(t, rec)
	assert.Equal(t, domain.TransactionStatusPending, rec.Status)

	// Replaying the same key resumes from the remote call.
	market.EXPECT().
		ProcessDeposit(gomock.Any(), "dep-net", gomock.Any(), int64(1000)).
		Return(&ports.DepositReceipt{Amount: 1000}, nil)

	res, err := svc.Deposit(context.Background(), path, coordinatorTestPassphrase, "dep-net", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.Balance)
	assert.Equal(t, domain.TransactionStatusConfirmed, res.Record.Status)
}

func TestWithdrawDebitsThenPaysOut(t *testing.T) {
	svc, market, _, path := newCoordinatorFixture(t)
	fund(t, svc, market, path, "dep-1", 10000)

	market.EXPECT().
		ProcessPayout(gomock.Any(), "wd-1", gomock.Any(), int64(4000), "acct_123").
		Return(&ports.PayoutReceipt{Amount: 4000, Status: "accepted"}, nil)

	res, err := svc.Withdraw(context.Background(), path, coordinatorTestPassphrase, "wd-1", 4000, "acct_123")
	require.NoError(t, err)

	assert.Equal(t, int64(6000), res.Balance)
	assert.Equal(t, domain.TransactionStatusConfirmed, res.Record.Status)
	assert.True(t, res.Record.FundsMoved)
}

func TestWithdrawInsufficientFundsLeavesNoTrace(t *testing.T) {
	svc, market, store, path := newCoordinatorFixture(t)
	fund(t, svc, market, path, "dep-1", 6000)

	before, err := store.Load(path, coordinatorTestPassphrase)
	require.NoError(t, err)

	_, err = svc.Withdraw(context.Background(), path, coordinatorTestPassphrase, "wd-over", 9000, "acct_123")
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds())

	after, err := store.Load(path, coordinatorTestPassphrase)
	require.NoError(t, err)
	assert.Equal(t, before.Balance(), after.Balance())
	assert.Equal(t, before.Version, after.Version)
	assert.Nil(t, after.Ledger.Find("wd-over"))
}

func TestWithdrawPayoutRejectedCreditsBack(t *testing.T) {
	svc, market, store, path := newCoordinatorFixture(t)
	fund(t, svc, market, path, "dep-1", 5000)

	market.EXPECT().
		ProcessPayout(gomock.Any(), "wd-rej", gomock.Any(), int64(3000), "acct_bad").
		Return(nil, apperror.ErrRemoteRejection("destination not verified"))

	_, err := svc.Withdraw(context.Background(), path, coordinatorTestPassphrase, "wd-rej", 3000, "acct_bad")
	assert.ErrorIs(t, err, apperror.ErrRemoteRejection(""))

	wallet, err := store.Load(path, coordinatorTestPassphrase)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), wallet.Balance())
	rec := wallet.Ledger.Find("wd-rej")
	require.NotNil(t, rec)
	assert.Equal(t, domain.TransactionStatusRolledBack, rec.Status)
	assert.False(t, rec.FundsMoved)
}

func TestWithdrawTransientFailureLeavesReserved(t *testing.T) {
	svc, market, store, path := newCoordinatorFixture(t)
	fund(t, svc, market, path, "dep-1", 5000)

	market.EXPECT().
		ProcessPayout(gomock.Any(), "wd-net", gomock.Any(), int64(3000), "acct_123").
		Return(nil, transientErr())

	_, err := svc.Withdraw(context.Background(), path, coordinatorTestPassphrase, "wd-net", 3000, "acct_123")
	assert.ErrorIs(t, err, apperror.ErrNetwork(nil))

	// Funds stay debited, the record stays reserved.
	wallet, err := store.Load(path, coordinatorTestPassphrase)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), wallet.Balance())
	rec := wallet.Ledger.Find("wd-net")
	require.NotNil(t, rec)
	assert.Equal(t, domain.TransactionStatusReserved, rec.Status)
	assert.True(t, rec.FundsMoved)

	// Reconciliation retries the payout and confirms.
	market.EXPECT().
		ProcessPayout(gomock.Any(), "wd-net", gomock.Any(), int64(3000), "acct_123").
		Return(&ports.PayoutReceipt{Amount: 3000, Status: "accepted"}, nil)

	report, err := svc.Reconcile(context.Background(), path, coordinatorTestPassphrase)
	require.NoError(t, err)
	require.Len(t, report.Resolved, 1)
	assert.Equal(t, "wd-net", report.Resolved[0].IdempotencyKey)
	assert.Equal(t, domain.TransactionStatusConfirmed, report.Resolved[0].Status)
	assert.Empty(t, report.Remaining)

	wallet, err = store.Load(path, coordinatorTestPassphrase)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), wallet.Balance())
}

func TestBuyHappyPath(t *testing.T) {
	svc, market, _, path := newCoordinatorFixture(t)
	fund(t, svc, market, path, "dep-1", 10000)

	listing := &domain.Listing{ListingID: "lst_1", SourceURL: "https://blog.example.com", Price: 6000, DomainRating: 72}
	market.EXPECT().GetListing(gomock.Any(), "lst_1").Return(listing, nil)
	market.EXPECT().
		ReserveListing(gomock.Any(), "buy-1", "lst_1").
		Return(&ports.Reservation{ReservationID: "rsv_1", ListingID: "lst_1", Price: 6000}, nil)
	market.EXPECT().
		ConfirmPurchase(gomock.Any(), "buy-1", "lst_1").
		Return(&ports.PurchaseReceipt{ListingID: "lst_1", EscrowID: "esc_1"}, nil)

	res, err := svc.Buy(context.Background(), path, coordinatorTestPassphrase, "buy-1", "lst_1")
	require.NoError(t, err)

	assert.Equal(t, int64(4000), res.Balance)
	assert.Equal(t, domain.TransactionStatusConfirmed, res.Record.Status)
	assert.Equal(t, int64(6000), res.Record.Amount)
	assert.Equal(t, "esc_1", res.EscrowID)
}

func TestBuyInsufficientFundsCancelsReservation(t *testing.T) {
	svc, market, store, path := newCoordinatorFixture(t)
	fund(t, svc, market, path, "dep-1", 1000)

	listing := &domain.Listing{ListingID: "lst_big", SourceURL: "https://news.example.com", Price: 5000}
	market.EXPECT().GetListing(gomock.Any(), "lst_big").Return(listing, nil)
	market.EXPECT().
		ReserveListing(gomock.Any(), "buy-over", "lst_big").
		Return(&ports.Reservation{ReservationID: "rsv_2", ListingID: "lst_big", Price: 5000}, nil)
	market.EXPECT().CancelReservation(gomock.Any(), "buy-over", "lst_big").Return(nil)

	_, err := svc.Buy(context.Background(), path, coordinatorTestPassphrase, "buy-over", "lst_big")
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds())

	wallet, err := store.Load(path, coordinatorTestPassphrase)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), wallet.Balance())
	rec := wallet.Ledger.Find("buy-over")
	require.NotNil(t, rec)
	assert.Equal(t, domain.TransactionStatusRolledBack, rec.Status)
	assert.False(t, rec.FundsMoved)
}

func TestBuyReserveRejectedMarksFailed(t *testing.T) {
	svc, market, store, path := newCoordinatorFixture(t)
	fund(t, svc, market, path, "dep-1", 10000)

	listing := &domain.Listing{ListingID: "lst_gone", Price: 2000}
	market.EXPECT().GetListing(gomock.Any(), "lst_gone").Return(listing, nil)
	market.EXPECT().
		ReserveListing(gomock.Any(), "buy-gone", "lst_gone").
		Return(nil, apperror.ErrListingGone("lst_gone"))

	_, err := svc.Buy(context.Background(), path, coordinatorTestPassphrase, "buy-gone", "lst_gone")
	assert.ErrorIs(t, err, apperror.ErrListingGone(""))

	wallet, err := store.Load(path, coordinatorTestPassphrase)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), wallet.Balance())
	rec := wallet.Ledger.Find("buy-gone")
	require.NotNil(t, rec)
	assert.Equal(t, domain.TransactionStatusFailed, rec.Status)
}

func TestBuyReplayAfterConfirmFailureDoesNotDoubleDebit(t *testing.T) {
	svc, market, store, path := newCoordinatorFixture(t)
	fund(t, svc, market, path, "dep-1", 10000)

	listing := &domain.Listing{ListingID: "lst_1", Price: 6000}
	market.EXPECT().GetListing(gomock.Any(), "lst_1").Return(listing, nil).Times(1)
	market.EXPECT().
		ReserveListing(gomock.Any(), "buy-crash", "lst_1").
		Return(&ports.Reservation{ReservationID: "rsv_1", ListingID: "lst_1", Price: 6000}, nil).
		Times(1)
	market.EXPECT().
		ConfirmPurchase(gomock.Any(), "buy-crash", "lst_1").
		Return(nil, transientErr())

	_, err := svc.Buy(context.Background(), path, coordinatorTestPassphrase, "buy-crash", "lst_1")
	assert.ErrorIs(t, err, apperror.ErrNetwork(nil))

	// The debit committed, the record is reserved.
	wallet, err := store.Load(path, coordinatorTestPassphrase)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), wallet.Balance())
	rec := wallet.Ledger.Find("buy-crash")
	require.NotNil(t, rec)
	assert.Equal(t, domain.TransactionStatusReserved, rec.Status)
	assert.True(t, rec.FundsMoved)

	// Replaying the key resumes at the confirm step: no second lookup,
	// no second reservation, no second debit.
	market.EXPECT().
		ConfirmPurchase(gomock.Any(), "buy-crash", "lst_1").
		Return(&ports.PurchaseReceipt{ListingID: "lst_1", EscrowID: "esc_9"}, nil)

	res, err := svc.Buy(context.Background(), path, coordinatorTestPassphrase, "buy-crash", "lst_1")
	require.NoError(t, err)
	assert.Equal(t, int64(4000), res.Balance)
	assert.Equal(t, domain.TransactionStatusConfirmed, res.Record.Status)
	assert.Equal(t, "esc_9", res.EscrowID)
}

func TestBuyReservationExpiredReversesDebit(t *testing.T) {
	svc, market, store, path := newCoordinatorFixture(t)
	fund(t, svc, market, path, "dep-1", 10000)

	listing := &domain.Listing{ListingID: "lst_1", Price: 6000}
	market.EXPECT().GetListing(gomock.Any(), "lst_1").Return(listing, nil)
	market.EXPECT().
		ReserveListing(gomock.Any(), "buy-exp", "lst_1").
		Return(&ports.Reservation{ReservationID: "rsv_1", ListingID: "lst_1", Price: 6000}, nil)
	market.EXPECT().
		ConfirmPurchase(gomock.Any(), "buy-exp", "lst_1").
		Return(nil, apperror.ErrReservationExpired("lst_1"))

	_, err := svc.Buy(context.Background(), path, coordinatorTestPassphrase, "buy-exp", "lst_1")
	assert.ErrorIs(t, err, apperror.ErrReservationExpired(""))

	wallet, err := store.Load(path, coordinatorTestPassphrase)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), wallet.Balance())
	rec := wallet.Ledger.Find("buy-exp")
	require.NotNil(t, rec)
	assert.Equal(t, domain.TransactionStatusRolledBack, rec.Status)
	assert.False(t, rec.FundsMoved)
}

func TestSellCreatesListing(t *testing.T) {
	svc, market, _, path := newCoordinatorFixture(t)

	draft := domain.ListingDraft{
		SourceURL: "https://myblog.example.com",
		TargetURL: "https://client.example.com",
		Price:     7500,
		Anchor:    "best widgets",
	}
	market.EXPECT().
		CreateListing(gomock.Any(), "sell-1", draft).
		Return(&domain.Listing{ListingID: "lst_new", SourceURL: draft.SourceURL, Price: draft.Price}, nil)

	res, err := svc.Sell(context.Background(), path, coordinatorTestPassphrase, "sell-1", draft)
	require.NoError(t, err)

	// Publishing moves no local funds.
	assert.Equal(t, int64(0), res.Balance)
	assert.Equal(t, domain.TransactionStatusConfirmed, res.Record.Status)
	assert.False(t, res.Record.FundsMoved)
	assert.Equal(t, "lst_new", res.Record.CounterpartyRef)
	require.NotNil(t, res.Listing)
	assert.Equal(t, "lst_new", res.Listing.ListingID)
}

func TestSellRejectedMarksFailed(t *testing.T) {
	svc, market, store, path := newCoordinatorFixture(t)

	draft := domain.ListingDraft{SourceURL: "https://spam.example.com", TargetURL: "https://x.example.com", Price: 100}
	market.EXPECT().
		CreateListing(gomock.Any(), "sell-rej", draft).
		Return(nil, apperror.ErrRemoteRejection("source domain flagged"))

	_, err := svc.Sell(context.Background(), path, coordinatorTestPassphrase, "sell-rej", draft)
	assert.ErrorIs(t, err, apperror.ErrRemoteRejection(""))

	wallet, err := store.Load(path, coordinatorTestPassphrase)
	require.NoError(t, err)
	rec := wallet.Ledger.Find("sell-rej")
	require.NotNil(t, rec)
	assert.Equal(t, domain.TransactionStatusFailed, rec.Status)
}

func TestSellValidation(t *testing.T) {
	svc, _, _, path := newCoordinatorFixture(t)

	_, err := svc.Sell(context.Background(), path, coordinatorTestPassphrase, "sell-bad", domain.ListingDraft{SourceURL: "https://a.example.com", TargetURL: "https://b.example.com", Price: 0})
	assert.ErrorIs(t, err, apperror.ErrValidation(""))

	_, err = svc.Sell(context.Background(), path, coordinatorTestPassphrase, "sell-bad", domain.ListingDraft{TargetURL: "https://b.example.com", Price: 100})
	assert.ErrorIs(t, err, apperror.ErrValidation(""))
}

func TestReconcileTransientLeavesRemaining(t *testing.T) {
	svc, market, _, path := newCoordinatorFixture(t)
	fund(t, svc, market, path, "dep-1", 5000)

	market.EXPECT().
		ProcessPayout(gomock.Any(), "wd-stuck", gomock.Any(), int64(2000), "acct_1").
		Return(nil, transientErr()).
		Times(2)

	_, err := svc.Withdraw(context.Background(), path, coordinatorTestPassphrase, "wd-stuck", 2000, "acct_1")
	assert.ErrorIs(t, err, apperror.ErrNetwork(nil))

	report, err := svc.Reconcile(context.Background(), path, coordinatorTestPassphrase)
	require.NoError(t, err)
	assert.Empty(t, report.Resolved)
	require.Len(t, report.Remaining, 1)
	assert.Equal(t, "wd-stuck", report.Remaining[0].IdempotencyKey)
	assert.Equal(t, domain.TransactionStatusReserved, report.Remaining[0].Status)
}

func TestReconcileRollsBackExpiredBuyReservation(t *testing.T) {
	svc, market, store, path := newCoordinatorFixture(t)
	fund(t, svc, market, path, "dep-1", 10000)

	listing := &domain.Listing{ListingID: "lst_1", Price: 3000}
	market.EXPECT().GetListing(gomock.Any(), "lst_1").Return(listing, nil)
	market.EXPECT().
		ReserveListing(gomock.Any(), "buy-stuck", "lst_1").
		Return(&ports.Reservation{ReservationID: "rsv_1", ListingID: "lst_1", Price: 3000}, nil)
	market.EXPECT().
		ConfirmPurchase(gomock.Any(), "buy-stuck", "lst_1").
		Return(nil, transientErr())

	_, err := svc.Buy(context.Background(), path, coordinatorTestPassphrase, "buy-stuck", "lst_1")
	assert.ErrorIs(t, err, apperror.ErrNetwork(nil))

	// The reservation lapsed while the coordinator was offline.
	market.EXPECT().
		ConfirmPurchase(gomock.Any(), "buy-stuck", "lst_1").
		Return(nil, apperror.ErrReservationExpired("lst_1"))

	report, err := svc.Reconcile(context.Background(), path, coordinatorTestPassphrase)
	require.NoError(t, err)
	require.Len(t, report.Resolved, 1)
	assert.Equal(t, domain.TransactionStatusRolledBack, report.Resolved[0].Status)

	wallet, err := store.Load(path, coordinatorTestPassphrase)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), wallet.Balance())
}

// The end-to-end balance chain: fund, withdraw, overdraw, spend to zero.
func TestLedgerScenario(t *testing.T) {
	svc, market, store, path := newCoordinatorFixture(t)
	ctx := context.Background()

	fund(t, svc, market, path, "dep-1", 10000)

	market.EXPECT().
		ProcessPayout(gomock.Any(), "wd-1", gomock.Any(), int64(4000), "acct_1").
		Return(&ports.PayoutReceipt{Amount: 4000, Status: "accepted"}, nil)
	res, err := svc.Withdraw(ctx, path, coordinatorTestPassphrase, "wd-1", 4000, "acct_1")
	require.NoError(t, err)
	assert.Equal(t, int64(6000), res.Balance)

	_, err = svc.Withdraw(ctx, path, coordinatorTestPassphrase, "wd-2", 9000, "acct_1")
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds())

	listing := &domain.Listing{ListingID: "lst_1", Price: 6000}
	market.EXPECT().GetListing(gomock.Any(), "lst_1").Return(listing, nil)
	market.EXPECT().
		ReserveListing(gomock.Any(), "buy-1", "lst_1").
		Return(&ports.Reservation{ReservationID: "rsv_1", ListingID: "lst_1", Price: 6000}, nil)
	market.EXPECT().
		ConfirmPurchase(gomock.Any(), "buy-1", "lst_1").
		Return(&ports.PurchaseReceipt{ListingID: "lst_1", EscrowID: "esc_1"}, nil)

	res, err = svc.Buy(ctx, path, coordinatorTestPassphrase, "buy-1", "lst_1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Balance)

	wallet, err := store.Load(path, coordinatorTestPassphrase)
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.Balance())
	// The failed overdraw left no record; three settled transactions remain.
	assert.Len(t, wallet.Ledger.Transactions, 3)
}
