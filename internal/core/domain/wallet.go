package domain

// KeyDerivationParams records how the wallet encryption key is derived from
// the passphrase. Persisted in the clear alongside the ciphertext so the same
// key can be re-derived on load.
type KeyDerivationParams struct {
	Algorithm string `json:"algorithm"` // currently always "argon2id"
	Salt      []byte `json:"salt"`
	Time      uint32 `json:"time"`
	Memory    uint32 `json:"memory"` // KiB
	Threads   uint8  `json:"threads"`
}

// WalletFile is the on-disk wallet document. Everything sensitive lives in
// EncryptedBlob; the clear fields are bound to the ciphertext as additional
// authenticated data, so editing them invalidates the blob.
type WalletFile struct {
	WalletID      string              `json:"wallet_id"`
	Name          string              `json:"name"`
	Version       int64               `json:"version"`
	KeyParams     KeyDerivationParams `json:"key_derivation_params"`
	EncryptedBlob []byte              `json:"encrypted_blob"`
}

// LedgerBody is the decrypted wallet payload: the balance and the full
// transaction history. Records are append-only; terminal records are never
// mutated or deleted.
type LedgerBody struct {
	Balance      int64               `json:"balance"`
	Transactions []TransactionRecord `json:"transactions"`
}

// Wallet is the in-memory decrypted view of a wallet file.
type Wallet struct {
	WalletID string     `json:"wallet_id"`
	Name     string     `json:"name"`
	Version  int64      `json:"version"`
	Ledger   LedgerBody `json:"ledger"`
}

// Balance returns the current spendable balance in minor currency units.
func (w *Wallet) Balance() int64 {
	return w.Ledger.Balance
}
