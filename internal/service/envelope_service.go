package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"aipseo/internal/core/domain"
	"aipseo/pkg/apperror"
)

// Argon2id cost parameters for the wallet key derivation.
const (
	envelopeAlgorithm = "argon2id"
	argon2Time        = 1
	argon2Memory      = 64 * 1024 // 64MB
	argon2Threads     = 4
	argon2KeyLen      = 32
	argon2SaltLen     = 16
)

// ArgonEnvelopeService implements ports.Envelope using Argon2id key
// derivation and AES-256-GCM. Opening with the wrong passphrase fails the
// authentication tag check; there is no separate passphrase verification
// path.
type ArgonEnvelopeService struct{}

// NewArgonEnvelopeService creates a new Argon2id/AES-GCM envelope service.
func NewArgonEnvelopeService() *ArgonEnvelopeService {
	return &ArgonEnvelopeService{}
}

// Seal encrypts plaintext under a key derived from the passphrase and a fresh
// random salt. The returned ciphertext is nonce || sealed data; aad is bound
// into the authentication tag.
func (s *ArgonEnvelopeService) Seal(plaintext []byte, passphrase string, aad []byte) ([]byte, domain.KeyDerivationParams, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, domain.KeyDerivationParams{}, apperror.ErrEncryptionFailure(fmt.Errorf("generating salt: %w", err))
	}

	params := domain.KeyDerivationParams{
		Algorithm: envelopeAlgorithm,
		Salt:      salt,
		Time:      argon2Time,
		Memory:    argon2Memory,
		Threads:   argon2Threads,
	}

	ciphertext, err := s.SealWith(plaintext, passphrase, params, aad)
	if err != nil {
		return nil, domain.KeyDerivationParams{}, err
	}
	return ciphertext, params, nil
}

// SealWith encrypts plaintext reusing previously persisted derivation params.
func (s *ArgonEnvelopeService) SealWith(plaintext []byte, passphrase string, params domain.KeyDerivationParams, aad []byte) ([]byte, error) {
	aesGCM, err := s.newGCM(passphrase, params)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("generating nonce: %w", err))
	}

	return aesGCM.Seal(nonce, nonce, plaintext, aad), nil
}

// Open decrypts a ciphertext produced by Seal or SealWith. Every failure mode
// surfaces as the same Decryption error: wrong passphrase, flipped ciphertext
// bits, and tampered aad are indistinguishable to the caller.
func (s *ArgonEnvelopeService) Open(ciphertext []byte, params domain.KeyDerivationParams, passphrase string, aad []byte) ([]byte, error) {
	aesGCM, err := s.newGCM(passphrase, params)
	if err != nil {
		return nil, err
	}

	nonceSize := aesGCM.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, apperror.ErrDecryption(fmt.Errorf("ciphertext too short"))
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := aesGCM.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, apperror.ErrDecryption(err)
	}

	return plaintext, nil
}

// newGCM derives the key from the passphrase and params and builds the AEAD.
func (s *ArgonEnvelopeService) newGCM(passphrase string, params domain.KeyDerivationParams) (cipher.AEAD, error) {
	if params.Algorithm != envelopeAlgorithm {
		return nil, apperror.ErrDecryption(fmt.Errorf("unsupported key derivation algorithm %q", params.Algorithm))
	}
	if len(params.Salt) == 0 {
		return nil, apperror.ErrDecryption(fmt.Errorf("missing key derivation salt"))
	}

	key := argon2.IDKey([]byte(passphrase), params.Salt, params.Time, params.Memory, params.Threads, argon2KeyLen)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("creating cipher: %w", err))
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("creating GCM: %w", err))
	}
	return aesGCM, nil
}
