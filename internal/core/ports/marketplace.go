package ports

import (
	"context"
	"time"

	"aipseo/internal/core/domain"
)

//go:generate mockgen -source=marketplace.go -destination=mocks/marketplace_mock.go -package=mocks

// Reservation is the remote side's temporary hold on a listing pending
// confirmation.
type Reservation struct {
	ReservationID string    `json:"reservation_id"`
	ListingID     string    `json:"listing_id"`
	Price         int64     `json:"price"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// PurchaseReceipt is the remote acknowledgement of a confirmed purchase.
type PurchaseReceipt struct {
	ListingID string `json:"listing_id"`
	EscrowID  string `json:"escrow_id"`
}

// DepositReceipt is the remote acknowledgement of a completed deposit. The
// external payment processor is the source of truth for the funds arriving;
// the coordinator only records the result.
type DepositReceipt struct {
	Amount      int64  `json:"amount"`
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

// PayoutReceipt is the remote acknowledgement of an accepted payout.
type PayoutReceipt struct {
	Amount      int64  `json:"amount"`
	Destination string `json:"destination"`
	Reference   string `json:"reference"`
	Status      string `json:"status"`
}

// MarketplaceClient is the boundary to the remote marketplace backend. It is
// an unreliable, retryable RPC peer: implementations retry transient failures
// with bounded backoff and surface definitive rejections immediately. Every
// call with a financial effect carries the transaction's idempotency key, so a
// retried call is safe against at-least-once delivery.
type MarketplaceClient interface {
	SearchListings(ctx context.Context, filter domain.SearchFilter) ([]domain.Listing, error)
	GetListing(ctx context.Context, listingID string) (*domain.Listing, error)

	ReserveListing(ctx context.Context, idempotencyKey, listingID string) (*Reservation, error)
	ConfirmPurchase(ctx context.Context, idempotencyKey, listingID string) (*PurchaseReceipt, error)
	CancelReservation(ctx context.Context, idempotencyKey, listingID string) error

	CreateListing(ctx context.Context, idempotencyKey string, draft domain.ListingDraft) (*domain.Listing, error)

	ProcessDeposit(ctx context.Context, idempotencyKey, walletID string, amount int64) (*DepositReceipt, error)
	ProcessPayout(ctx context.Context, idempotencyKey, walletID string, amount int64, destination string) (*PayoutReceipt, error)

	Lookup(ctx context.Context, url string) (*domain.URLMetrics, error)
	SpamScore(ctx context.Context, url string) (*domain.SpamScore, error)
}
