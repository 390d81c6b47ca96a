package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aipseo/pkg/apperror"
)

func TestTransactionRecord_IsTerminal(t *testing.T) {
	tests := []struct {
		status   TransactionStatus
		terminal bool
	}{
		{TransactionStatusPending, false},
		{TransactionStatusReserved, false},
		{TransactionStatusConfirmed, true},
		{TransactionStatusFailed, true},
		{TransactionStatusRolledBack, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			rec := TransactionRecord{Status: tt.status}
			assert.Equal(t, tt.terminal, rec.IsTerminal())
		})
	}
}

func TestTransactionRecord_TransitionMatrix(t *testing.T) {
	allStatuses := []TransactionStatus{
		TransactionStatusPending, TransactionStatusReserved, TransactionStatusConfirmed,
		TransactionStatusFailed, TransactionStatusRolledBack,
	}
	legal := map[TransactionStatus][]TransactionStatus{
		TransactionStatusPending:  {TransactionStatusReserved, TransactionStatusConfirmed, TransactionStatusFailed},
		TransactionStatusReserved: {TransactionStatusConfirmed, TransactionStatusRolledBack},
	}

	for _, from := range allStatuses {
		allowed := map[TransactionStatus]bool{}
		for _, to := range legal[from] {
			allowed[to] = true
		}
		for _, to := range allStatuses {
			rec := TransactionRecord{Status: from}
			assert.Equalf(t, allowed[to], rec.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestLedgerBody_RecordAndFind(t *testing.T) {
	body := &LedgerBody{}

	err := body.Record(TransactionRecord{
		IdempotencyKey:  "tx_001",
		Kind:            TransactionKindDeposit,
		Amount:          10000,
		CounterpartyRef: "checkout_abc",
	})
	require.NoError(t, err)

	rec := body.Find("tx_001")
	require.NotNil(t, rec)
	assert.Equal(t, TransactionStatusPending, rec.Status)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Nil(t, rec.CompletedAt)

	assert.Nil(t, body.Find("tx_999"))
}

func TestLedgerBody_RecordRejectsDuplicateKey(t *testing.T) {
	body := &LedgerBody{}
	require.NoError(t, body.Record(TransactionRecord{IdempotencyKey: "tx_001", Kind: TransactionKindBuy, Amount: 500}))

	err := body.Record(TransactionRecord{IdempotencyKey: "tx_001", Kind: TransactionKindBuy, Amount: 500})
	assert.True(t, errors.Is(err, apperror.ErrDuplicateTransaction("tx_001")))
}

func TestLedgerBody_RecordValidation(t *testing.T) {
	body := &LedgerBody{}

	err := body.Record(TransactionRecord{IdempotencyKey: "", Kind: TransactionKindBuy})
	assert.Error(t, err)

	err = body.Record(TransactionRecord{IdempotencyKey: "tx_002", Kind: "bogus"})
	assert.Error(t, err)

	err = body.Record(TransactionRecord{IdempotencyKey: "tx_003", Kind: TransactionKindBuy, Amount: -5})
	assert.Error(t, err)
}

func TestLedgerBody_AdvanceHappyPath(t *testing.T) {
	body := &LedgerBody{}
	require.NoError(t, body.Record(TransactionRecord{IdempotencyKey: "tx_001", Kind: TransactionKindBuy, Amount: 500}))

	require.NoError(t, body.Advance("tx_001", TransactionStatusReserved))
	assert.Equal(t, TransactionStatusReserved, body.Find("tx_001").Status)

	require.NoError(t, body.Advance("tx_001", TransactionStatusConfirmed))
	rec := body.Find("tx_001")
	assert.Equal(t, TransactionStatusConfirmed, rec.Status)
	require.NotNil(t, rec.CompletedAt)
	assert.WithinDuration(t, time.Now().UTC(), *rec.CompletedAt, time.Minute)
}

func TestLedgerBody_AdvanceIllegalTransition(t *testing.T) {
	body := &LedgerBody{}
	require.NoError(t, body.Record(TransactionRecord{IdempotencyKey: "tx_001", Kind: TransactionKindSell, Amount: 0}))
	require.NoError(t, body.Advance("tx_001", TransactionStatusConfirmed))

	// Terminal record must stay immutable.
	err := body.Advance("tx_001", TransactionStatusFailed)
	assert.True(t, errors.Is(err, apperror.ErrInvalidTransition("confirmed", "failed")))

	// pending -> rolled_back is not a legal edge.
	require.NoError(t, body.Record(TransactionRecord{IdempotencyKey: "tx_002", Kind: TransactionKindBuy, Amount: 100}))
	err = body.Advance("tx_002", TransactionStatusRolledBack)
	assert.Error(t, err)
}

func TestLedgerBody_AdvanceUnknownKey(t *testing.T) {
	body := &LedgerBody{}
	err := body.Advance("nope", TransactionStatusConfirmed)
	assert.True(t, errors.Is(err, apperror.ErrTransactionNotFound("nope")))
}

func TestLedgerBody_CreditDebit(t *testing.T) {
	body := &LedgerBody{}

	require.NoError(t, body.Credit(10000))
	assert.Equal(t, int64(10000), body.Balance)

	require.NoError(t, body.Debit(4000))
	assert.Equal(t, int64(6000), body.Balance)

	err := body.Debit(9000)
	assert.True(t, errors.Is(err, apperror.ErrInsufficientFunds()))
	assert.Equal(t, int64(6000), body.Balance, "failed debit must not change balance")

	assert.Error(t, body.Debit(-1))
	assert.Error(t, body.Credit(-1))
}

func TestLedgerBody_Reserved(t *testing.T) {
	body := &LedgerBody{}
	require.NoError(t, body.Record(TransactionRecord{IdempotencyKey: "tx_001", Kind: TransactionKindBuy, Amount: 100}))
	require.NoError(t, body.Record(TransactionRecord{IdempotencyKey: "tx_002", Kind: TransactionKindWithdraw, Amount: 200}))
	require.NoError(t, body.Record(TransactionRecord{IdempotencyKey: "tx_003", Kind: TransactionKindSell, Amount: 0}))

	require.NoError(t, body.Advance("tx_001", TransactionStatusReserved))
	require.NoError(t, body.Advance("tx_002", TransactionStatusReserved))
	require.NoError(t, body.Advance("tx_003", TransactionStatusConfirmed))

	reserved := body.Reserved()
	require.Len(t, reserved, 2)
	assert.Equal(t, "tx_001", reserved[0].IdempotencyKey)
	assert.Equal(t, "tx_002", reserved[1].IdempotencyKey)
}

func TestLedgerBody_Validate(t *testing.T) {
	valid := &LedgerBody{
		Balance: 100,
		Transactions: []TransactionRecord{
			{IdempotencyKey: "tx_001", Kind: TransactionKindDeposit, Amount: 100, Status: TransactionStatusConfirmed},
		},
	}
	assert.NoError(t, valid.Validate())

	negBalance := &LedgerBody{Balance: -1}
	assert.Error(t, negBalance.Validate())

	dupKeys := &LedgerBody{Transactions: []TransactionRecord{
		{IdempotencyKey: "tx_001", Kind: TransactionKindBuy, Status: TransactionStatusPending},
		{IdempotencyKey: "tx_001", Kind: TransactionKindBuy, Status: TransactionStatusPending},
	}}
	assert.Error(t, dupKeys.Validate())

	badStatus := &LedgerBody{Transactions: []TransactionRecord{
		{IdempotencyKey: "tx_001", Kind: TransactionKindBuy, Status: "exploded"},
	}}
	assert.Error(t, badStatus.Validate())
}
