package walletfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aipseo/internal/core/domain"
	"aipseo/internal/core/ports"
	"aipseo/pkg/apperror"
)

const (
	lockSuffix        = ".lock"
	lockTimeout       = 5 * time.Second
	lockRetryInterval = 50 * time.Millisecond
	filePerm          = 0o600
)

// Store owns the on-disk encrypted wallet file: load, decrypt, validate,
// mutate in memory, re-encrypt, atomically persist. Safe against concurrent
// processes via an advisory file lock held only for the in-memory mutation
// and rename window, never across a network call.
type Store struct {
	env ports.Envelope
	log zerolog.Logger
}

// New creates a wallet file store.
func New(env ports.Envelope, log zerolog.Logger) *Store {
	return &Store{env: env, log: log}
}

// Create initialises a new wallet file with balance 0 and version 1.
func (s *Store) Create(path, name, passphrase string, overwrite bool) (*domain.Wallet, error) {
	if name == "" {
		return nil, apperror.ErrValidation("wallet name must not be empty")
	}
	if passphrase == "" {
		return nil, apperror.ErrValidation("passphrase must not be empty")
	}

	unlock, err := s.acquireLock(path)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return nil, apperror.ErrAlreadyExists(path)
		}
	}

	wallet := &domain.Wallet{
		WalletID: "w_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Name:     name,
		Version:  1,
		Ledger:   domain.LedgerBody{Balance: 0},
	}

	body, err := json.Marshal(wallet.Ledger)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal ledger body: %w", err))
	}

	blob, params, err := s.env.Seal(body, passphrase, aadFor(wallet.WalletID, wallet.Version))
	if err != nil {
		return nil, err
	}

	file := domain.WalletFile{
		WalletID:      wallet.WalletID,
		Name:          wallet.Name,
		Version:       wallet.Version,
		KeyParams:     params,
		EncryptedBlob: blob,
	}
	if err := s.writeAtomic(path, &file); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("wallet_id", wallet.WalletID).
		Str("path", path).
		Msg("wallet created")

	return wallet, nil
}

// Load reads, decrypts and validates the wallet file.
func (s *Store) Load(path, passphrase string) (*domain.Wallet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperror.ErrWalletNotFound(path)
		}
		return nil, apperror.InternalError(fmt.Errorf("read wallet file: %w", err))
	}

	var file domain.WalletFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, apperror.ErrSchema(fmt.Errorf("parse wallet document: %w", err))
	}
	if file.WalletID == "" || file.Version < 1 {
		return nil, apperror.ErrSchema(fmt.Errorf("wallet header missing id or version"))
	}

	body, err := s.env.Open(file.EncryptedBlob, file.KeyParams, passphrase, aadFor(file.WalletID, file.Version))
	if err != nil {
		return nil, err
	}

	var ledger domain.LedgerBody
	if err := json.Unmarshal(body, &ledger); err != nil {
		return nil, apperror.ErrSchema(fmt.Errorf("parse ledger body: %w", err))
	}
	if err := ledger.Validate(); err != nil {
		return nil, apperror.ErrSchema(err)
	}

	return &domain.Wallet{
		WalletID: file.WalletID,
		Name:     file.Name,
		Version:  file.Version,
		Ledger:   ledger,
	}, nil
}

// Apply performs a locked load -> mutate -> seal -> atomic-replace cycle.
// This is the sole path by which the balance or ledger is ever mutated. The
// lock is released on every exit path, including a failure inside fn.
func (s *Store) Apply(path, passphrase string, expectedVersion int64, fn ports.MutationFunc) (*domain.Wallet, error) {
	unlock, err := s.acquireLock(path)
	if err != nil {
		return nil, err
	}
	defer unlock()

	wallet, err := s.Load(path, passphrase)
	if err != nil {
		return nil, err
	}

	if expectedVersion != 0 && wallet.Version != expectedVersion {
		s.log.Debug().
			Int64("expected", expectedVersion).
			Int64("actual", wallet.Version).
			Msg("wallet version moved under us")
		return nil, apperror.ErrConflict()
	}

	if err := fn(&wallet.Ledger); err != nil {
		return nil, err
	}
	if err := wallet.Ledger.Validate(); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mutation produced invalid ledger: %w", err))
	}

	wallet.Version++

	body, err := json.Marshal(wallet.Ledger)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal ledger body: %w", err))
	}

	// Reuse the persisted derivation params so the passphrase keeps
	// working; the AAD changes with the version, so the blob must be
	// resealed on every write anyway.
	params, err := s.readParams(path)
	if err != nil {
		return nil, err
	}
	blob, err := s.env.SealWith(body, passphrase, params, aadFor(wallet.WalletID, wallet.Version))
	if err != nil {
		return nil, err
	}

	file := domain.WalletFile{
		WalletID:      wallet.WalletID,
		Name:          wallet.Name,
		Version:       wallet.Version,
		KeyParams:     params,
		EncryptedBlob: blob,
	}
	if err := s.writeAtomic(path, &file); err != nil {
		return nil, err
	}

	return wallet, nil
}

// acquireLock takes the advisory lock guarding the wallet file, bounded by
// lockTimeout so a stuck holder surfaces as an error instead of a hang.
func (s *Store) acquireLock(path string) (func(), error) {
	lock := flock.New(path + lockSuffix)

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	ok, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, apperror.ErrLockTimeout(err)
	}
	if !ok {
		return nil, apperror.ErrLockTimeout(fmt.Errorf("lock held by another process"))
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("failed to release wallet lock")
		}
	}, nil
}

// readParams re-reads only the clear key derivation params from disk.
func (s *Store) readParams(path string) (domain.KeyDerivationParams, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.KeyDerivationParams{}, apperror.InternalError(fmt.Errorf("read wallet file: %w", err))
	}
	var file domain.WalletFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return domain.KeyDerivationParams{}, apperror.ErrSchema(fmt.Errorf("parse wallet document: %w", err))
	}
	return file.KeyParams, nil
}

// writeAtomic persists the wallet document with write-to-temp-then-rename, so
// a crash mid-write never leaves a truncated or partially-written file.
func (s *Store) writeAtomic(path string, file *domain.WalletFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return apperror.InternalError(fmt.Errorf("marshal wallet document: %w", err))
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return apperror.InternalError(fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apperror.InternalError(fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apperror.InternalError(fmt.Errorf("sync temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return apperror.InternalError(fmt.Errorf("close temp file: %w", err))
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		os.Remove(tmpPath)
		return apperror.InternalError(fmt.Errorf("chmod temp file: %w", err))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return apperror.InternalError(fmt.Errorf("replace wallet file: %w", err))
	}
	return nil
}

// aadFor binds the clear header fields into the GCM authentication tag, so a
// spliced header/blob pair or a rolled-back version fails to open.
func aadFor(walletID string, version int64) []byte {
	return []byte(fmt.Sprintf("%s|%d", walletID, version))
}
