package apperror

import (
	"errors"
	"fmt"
)

// Exit codes surfaced to scripting callers. Each failure class gets a
// distinct code so shell callers can branch without parsing output.
const (
	ExitOK                = 0
	ExitInternal          = 1
	ExitValidation        = 2
	ExitInsufficientFunds = 3
	ExitDecryption        = 4
	ExitNetwork           = 5
	ExitRemoteRejection   = 6
	ExitConflict          = 7
)

// AppError is a structured error that maps to a CLI exit code.
type AppError struct {
	Code     string `json:"error_code"`
	Message  string `json:"message"`
	ExitCode int    `json:"-"`
	Err      error  `json:"-"` // Wrapped internal error (not exposed in output)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target carries the same error code, so callers can use
// errors.Is against the constructor sentinels.
func (e *AppError) Is(target error) bool {
	other, ok := target.(*AppError)
	if !ok {
		return false
	}
	return other.Code == e.Code
}

// New creates a new AppError.
func New(code string, message string, exitCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		ExitCode: exitCode,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, exitCode int, err error) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		ExitCode: exitCode,
		Err:      err,
	}
}

// ---- Input validation (VAL) ----

// ErrValidation reports malformed local input. Never retried.
func ErrValidation(message string) *AppError {
	return New("VAL_001", message, ExitValidation)
}

func ErrFractionalAmount() *AppError {
	return New("VAL_002", "Amount must be a whole number of cents", ExitValidation)
}

// ---- Wallet file (WAL) ----

// ErrDecryption reports a failed authenticated decryption: wrong passphrase
// or corrupted ciphertext. The two are indistinguishable on purpose.
func ErrDecryption(err error) *AppError {
	return Wrap("WAL_001", "Wallet decryption failed: wrong passphrase or corrupted file", ExitDecryption, err)
}

// ErrSchema reports a wallet file that decrypted cleanly but does not hold a
// structurally valid ledger. Treated as file corruption.
func ErrSchema(err error) *AppError {
	return Wrap("WAL_002", "Wallet file structure is invalid", ExitDecryption, err)
}

func ErrAlreadyExists(path string) *AppError {
	return New("WAL_003", fmt.Sprintf("Wallet file already exists at %s (use --force to overwrite)", path), ExitValidation)
}

func ErrWalletNotFound(path string) *AppError {
	return New("WAL_004", fmt.Sprintf("Wallet file not found at %s", path), ExitValidation)
}

// ErrConflict reports that a competing writer committed first. The caller
// retries the whole operation from a fresh load.
func ErrConflict() *AppError {
	return New("WAL_005", "Wallet was modified by a concurrent writer", ExitConflict)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("WAL_006", "Could not acquire wallet file lock", ExitConflict, err)
}

// ---- Ledger business logic (LED) ----

func ErrInsufficientFunds() *AppError {
	return New("LED_001", "Insufficient balance in wallet", ExitInsufficientFunds)
}

// ErrInvalidTransition reports an illegal transaction status transition.
// This indicates ledger corruption and is never swallowed.
func ErrInvalidTransition(from, to string) *AppError {
	return New("LED_002", fmt.Sprintf("Illegal transaction transition %s -> %s", from, to), ExitInternal)
}

func ErrDuplicateTransaction(key string) *AppError {
	return New("LED_003", fmt.Sprintf("Transaction %s already recorded", key), ExitValidation)
}

func ErrTransactionNotFound(key string) *AppError {
	return New("LED_004", fmt.Sprintf("Transaction %s not found", key), ExitValidation)
}

// ---- Remote marketplace (MKT) ----

// ErrNetwork reports a transient remote failure that survived bounded retry.
func ErrNetwork(err error) *AppError {
	return Wrap("MKT_001", "Marketplace request failed after retries", ExitNetwork, err)
}

// ErrRemoteRejection reports a definitive remote refusal. Never retried.
func ErrRemoteRejection(message string) *AppError {
	return New("MKT_002", message, ExitRemoteRejection)
}

func ErrListingGone(listingID string) *AppError {
	return New("MKT_003", fmt.Sprintf("Listing %s is no longer available", listingID), ExitRemoteRejection)
}

// ErrReservationExpired reports that the remote side let a held reservation
// lapse before confirmation.
func ErrReservationExpired(listingID string) *AppError {
	return New("MKT_004", fmt.Sprintf("Reservation for listing %s expired before confirmation", listingID), ExitRemoteRejection)
}

// ---- System (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal error", ExitInternal, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_002", "Encryption failure", ExitInternal, err)
}

// ExitCodeFor extracts the exit code for an error, defaulting to ExitInternal
// for anything that is not an AppError.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}
	return ExitInternal
}
