package ports

import (
	"aipseo/internal/core/domain"
)

// MutationFunc mutates a decrypted ledger body in memory. It runs with the
// wallet file lock held; it must not perform network calls.
type MutationFunc func(body *domain.LedgerBody) error

// WalletStore owns the on-disk encrypted wallet file. Apply is the sole path
// by which the balance or the transaction ledger is ever mutated.
type WalletStore interface {
	// Create initialises a new wallet file with balance 0 and version 1.
	// Fails with an AlreadyExists error when the path exists and overwrite
	// is false.
	Create(path, name, passphrase string, overwrite bool) (*domain.Wallet, error)

	// Load reads and decrypts the wallet file. Decryption failures and
	// structural failures surface as distinct error classes.
	Load(path, passphrase string) (*domain.Wallet, error)

	// Apply performs a locked load -> mutate -> seal -> atomic-replace
	// cycle. expectedVersion, when nonzero, makes the apply conditional on
	// the on-disk version still matching; a mismatch is a Conflict error
	// and the caller must retry from a fresh load.
	Apply(path, passphrase string, expectedVersion int64, fn MutationFunc) (*domain.Wallet, error)
}

// Envelope seals and opens the ledger payload at rest. Passphrase
// verification is implicit in the authenticated decryption: there is no
// separate password-check path to serve as an offline oracle.
type Envelope interface {
	// Seal encrypts plaintext under a freshly derived key, returning the
	// ciphertext and the derivation params that must be persisted with it.
	Seal(plaintext []byte, passphrase string, aad []byte) ([]byte, domain.KeyDerivationParams, error)

	// SealWith encrypts plaintext reusing previously persisted derivation
	// params (same salt, same cost).
	SealWith(plaintext []byte, passphrase string, params domain.KeyDerivationParams, aad []byte) ([]byte, error)

	// Open decrypts and authenticates a ciphertext. Any failure (wrong
	// passphrase, tampered ciphertext, tampered aad) is a Decryption
	// error.
	Open(ciphertext []byte, params domain.KeyDerivationParams, passphrase string, aad []byte) ([]byte, error)
}
