package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"aipseo/config"
	"aipseo/internal/core/domain"
	"aipseo/internal/core/ports"
	"aipseo/pkg/apperror"
)

const (
	headerAPIKey         = "X-API-Key"
	headerIdempotencyKey = "Idempotency-Key"
)

// Client implements ports.MarketplaceClient over the aipseo HTTP API.
// Transient failures (connection errors, 429, 5xx) are retried with bounded
// exponential backoff; definitive 4xx rejections are surfaced immediately and
// never retried.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	maxAttempts int
	backoffBase time.Duration
	log         zerolog.Logger
}

// NewClient creates a marketplace client from configuration.
func NewClient(apiCfg config.APIConfig, retryCfg config.RetryConfig, log zerolog.Logger) *Client {
	maxAttempts := retryCfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoffBase := retryCfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = 500 * time.Millisecond
	}
	return &Client{
		baseURL:     apiCfg.BaseURL,
		apiKey:      apiCfg.Key,
		httpClient:  &http.Client{Timeout: apiCfg.Timeout},
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		log:         log,
	}
}

// remoteError is the backend's error envelope.
type remoteError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Error     string `json:"error"`
}

func (e *remoteError) text(status int) string {
	if e.Message != "" {
		return e.Message
	}
	if e.Error != "" {
		return e.Error
	}
	return fmt.Sprintf("marketplace returned HTTP %d", status)
}

// httpError carries the status so call sites can map specific rejections.
type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.status, e.message)
}

// SearchListings fetches marketplace listings matching the filter.
func (c *Client) SearchListings(ctx context.Context, filter domain.SearchFilter) ([]domain.Listing, error) {
	q := url.Values{}
	if filter.DRMin != nil {
		q.Set("dr_min", strconv.Itoa(*filter.DRMin))
	}
	if filter.PriceMax != nil {
		q.Set("price_max", strconv.FormatInt(*filter.PriceMax, 10))
	}
	if filter.Topic != "" {
		q.Set("topic", filter.Topic)
	}

	var listings []domain.Listing
	if err := c.do(ctx, http.MethodGet, "marketplace/search", q, "", nil, &listings); err != nil {
		return nil, c.mapError(err, "")
	}
	return listings, nil
}

// GetListing fetches a single listing by id.
func (c *Client) GetListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	var listing domain.Listing
	path := "marketplace/listings/" + url.PathEscape(listingID)
	if err := c.do(ctx, http.MethodGet, path, nil, "", nil, &listing); err != nil {
		return nil, c.mapError(err, listingID)
	}
	return &listing, nil
}

// ReserveListing asks the marketplace to hold a listing exclusively for a
// short window.
func (c *Client) ReserveListing(ctx context.Context, idempotencyKey, listingID string) (*ports.Reservation, error) {
	req := map[string]string{"listing_id": listingID}
	var res ports.Reservation
	if err := c.do(ctx, http.MethodPost, "marketplace/reserve", nil, idempotencyKey, req, &res); err != nil {
		return nil, c.mapError(err, listingID)
	}
	return &res, nil
}

// ConfirmPurchase finalises a reserved purchase. Idempotent on the remote
// side via the same key.
func (c *Client) ConfirmPurchase(ctx context.Context, idempotencyKey, listingID string) (*ports.PurchaseReceipt, error) {
	req := map[string]string{"listing_id": listingID}
	var receipt ports.PurchaseReceipt
	if err := c.do(ctx, http.MethodPost, "marketplace/confirm", nil, idempotencyKey, req, &receipt); err != nil {
		return nil, c.mapError(err, listingID)
	}
	return &receipt, nil
}

// CancelReservation releases a held listing.
func (c *Client) CancelReservation(ctx context.Context, idempotencyKey, listingID string) error {
	req := map[string]string{"listing_id": listingID}
	if err := c.do(ctx, http.MethodPost, "marketplace/cancel", nil, idempotencyKey, req, nil); err != nil {
		return c.mapError(err, listingID)
	}
	return nil
}

// CreateListing publishes a new listing for sale.
func (c *Client) CreateListing(ctx context.Context, idempotencyKey string, draft domain.ListingDraft) (*domain.Listing, error) {
	var listing domain.Listing
	if err := c.do(ctx, http.MethodPost, "marketplace/list", nil, idempotencyKey, draft, &listing); err != nil {
		return nil, c.mapError(err, "")
	}
	return &listing, nil
}

// ProcessDeposit runs the deposit-initiation call. The external payment
// processor behind this endpoint is the source of truth for funds arriving.
func (c *Client) ProcessDeposit(ctx context.Context, idempotencyKey, walletID string, amount int64) (*ports.DepositReceipt, error) {
	req := map[string]any{"wallet_id": walletID, "amount": amount}
	var receipt ports.DepositReceipt
	if err := c.do(ctx, http.MethodPost, "wallet/deposit", nil, idempotencyKey, req, &receipt); err != nil {
		return nil, c.mapError(err, "")
	}
	return &receipt, nil
}

// ProcessPayout runs the remote payout call for a withdrawal.
func (c *Client) ProcessPayout(ctx context.Context, idempotencyKey, walletID string, amount int64, destination string) (*ports.PayoutReceipt, error) {
	req := map[string]any{"wallet_id": walletID, "amount": amount, "dest": destination}
	var receipt ports.PayoutReceipt
	if err := c.do(ctx, http.MethodPost, "wallet/withdraw", nil, idempotencyKey, req, &receipt); err != nil {
		return nil, c.mapError(err, "")
	}
	return &receipt, nil
}

// Lookup runs the stateless URL metadata call.
func (c *Client) Lookup(ctx context.Context, target string) (*domain.URLMetrics, error) {
	q := url.Values{"url": []string{target}}
	var metrics domain.URLMetrics
	if err := c.do(ctx, http.MethodGet, "lookup", q, "", nil, &metrics); err != nil {
		return nil, c.mapError(err, "")
	}
	return &metrics, nil
}

// SpamScore runs the stateless spam-score call.
func (c *Client) SpamScore(ctx context.Context, target string) (*domain.SpamScore, error) {
	q := url.Values{"url": []string{target}}
	var score domain.SpamScore
	if err := c.do(ctx, http.MethodGet, "spam-score", q, "", nil, &score); err != nil {
		return nil, c.mapError(err, "")
	}
	return &score, nil
}

// do performs a request with bounded retry on transient failures. The
// idempotency key, when set, rides every attempt, so at-least-once delivery
// cannot double a financial effect.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, idempotencyKey string, reqBody, respBody any) error {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.backoffBase * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := c.once(ctx, method, path, query, idempotencyKey, reqBody, respBody)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransient(err) {
			return err
		}

		c.log.Warn().
			Str("method", method).
			Str("path", path).
			Int("attempt", attempt+1).
			Err(err).
			Msg("transient marketplace failure, retrying")
	}
	return lastErr
}

// once performs a single HTTP round trip.
func (c *Client) once(ctx context.Context, method, path string, query url.Values, idempotencyKey string, reqBody, respBody any) error {
	endpoint := c.baseURL + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}
	if idempotencyKey != "" {
		req.Header.Set(headerIdempotencyKey, idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("marketplace request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var remote remoteError
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		_ = json.Unmarshal(data, &remote)
		return &httpError{status: resp.StatusCode, message: remote.text(resp.StatusCode)}
	}

	if respBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// isTransient reports whether an error is worth retrying: connection-level
// failures, rate limiting, and server errors. Definitive 4xx rejections are
// not.
func isTransient(err error) bool {
	var he *httpError
	if !errors.As(err, &he) {
		// Transport-level failure (connection refused, timeout, ...).
		return true
	}
	return he.status == http.StatusTooManyRequests || he.status >= 500
}

// mapError converts a raw request error into the apperror taxonomy.
func (c *Client) mapError(err error, listingID string) error {
	if err == nil {
		return nil
	}
	var he *httpError
	if !errors.As(err, &he) {
		return apperror.ErrNetwork(err)
	}
	switch {
	case he.status == http.StatusTooManyRequests || he.status >= 500:
		return apperror.ErrNetwork(err)
	case he.status == http.StatusGone && listingID != "":
		return apperror.ErrReservationExpired(listingID)
	case (he.status == http.StatusNotFound || he.status == http.StatusConflict) && listingID != "":
		return apperror.ErrListingGone(listingID)
	default:
		return apperror.ErrRemoteRejection(he.message)
	}
}
