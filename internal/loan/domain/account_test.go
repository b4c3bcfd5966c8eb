package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/creditline/internal/loan/domain"
)

func openedAccount() *domain.Account {
	acc := domain.OpenAccount("c1", d("50000"))
	acc.Version = 3
	return acc
}

func TestOpenAccount_HoldsInvariant(t *testing.T) {
	acc := openedAccount()
	require.NoError(t, acc.CheckInvariant())
	assert.True(t, acc.AvailableLimit.IsZero())
	assert.True(t, acc.PrincipalOutstanding.Equal(d("50000")))
}

func TestAccount_FullPayoffRestoresLimit(t *testing.T) {
	acc := openedAccount()
	acc.PrincipalOutstanding = d("45000")
	acc.AvailableLimit = d("5000")
	acc.InterestOutstanding = d("500")

	alloc, err := domain.WaterfallAllocator{}.Allocate(d("45500"), acc.Snapshot())
	require.NoError(t, err)
	next, err := acc.AfterRepayment(alloc)
	require.NoError(t, err)

	assert.True(t, next.AvailableLimit.Equal(next.CreditLimit))
	assert.True(t, next.PrincipalOutstanding.IsZero())
	assert.True(t, next.InterestOutstanding.IsZero())
	assert.Equal(t, int64(3), next.Version, "version is only bumped by the repository")
	assert.True(t, acc.AvailableLimit.Equal(d("5000")), "receiver must stay untouched")
}

func TestAccount_Redraw(t *testing.T) {
	acc := openedAccount()
	acc.AvailableLimit = d("800")
	acc.PrincipalOutstanding = d("49200")

	next, err := acc.AfterRedraw(d("300"))
	require.NoError(t, err)
	assert.True(t, next.AvailableLimit.Equal(d("500")))
	assert.True(t, next.PrincipalOutstanding.Equal(d("49500")))

	_, err = acc.AfterRedraw(d("800.01"))
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailableLimit)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = acc.AfterRedraw(d("0"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestAccount_RepaymentReversal(t *testing.T) {
	acc := openedAccount()
	acc.AvailableLimit = d("800")
	acc.PrincipalOutstanding = d("49200")

	next, err := acc.AfterRepaymentReversal(d("800"), d("200"))
	require.NoError(t, err)
	assert.True(t, next.AvailableLimit.IsZero())
	assert.True(t, next.PrincipalOutstanding.Equal(d("50000")))
	assert.True(t, next.InterestOutstanding.Equal(d("200")))

	_, err = acc.AfterRepaymentReversal(d("800.01"), d("0"))
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailableLimit)
}

func TestAccount_RedrawReversal(t *testing.T) {
	acc := openedAccount()
	acc.AvailableLimit = d("0")
	acc.PrincipalOutstanding = d("50000")

	next, err := acc.AfterRedrawReversal(d("1000"))
	require.NoError(t, err)
	assert.True(t, next.AvailableLimit.Equal(d("1000")))
	assert.True(t, next.PrincipalOutstanding.Equal(d("49000")))

	_, err = acc.AfterRedrawReversal(d("50000.01"))
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func TestAccount_CheckInvariant(t *testing.T) {
	acc := openedAccount()
	acc.AvailableLimit = d("1")
	err := acc.CheckInvariant()
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	acc = openedAccount()
	acc.AvailableLimit = d("-1")
	acc.PrincipalOutstanding = d("50001")
	assert.ErrorIs(t, acc.CheckInvariant(), domain.ErrInvariantViolation)
}

func TestLedgerTransaction_ReversalNegatesAmounts(t *testing.T) {
	original := &domain.LedgerTransaction{
		ID:                 7,
		TxnNo:              "TXN1",
		CustomerID:         "c1",
		ContractNo:         "CON1",
		Type:               domain.TxnRepayment,
		Amount:             d("1000"),
		PrincipalComponent: d("800"),
		InterestComponent:  d("200"),
	}
	rev := domain.NewReversal(original)

	assert.Equal(t, domain.TxnReversal, rev.Type)
	assert.True(t, rev.Amount.Equal(d("-1000")))
	assert.True(t, rev.PrincipalComponent.Equal(d("-800")))
	assert.True(t, rev.InterestComponent.Equal(d("-200")))
	assert.Equal(t, "reversal-TXN1", rev.IdempotencyKey)
	require.NotNil(t, rev.ReversalOfID)
	assert.Equal(t, uint(7), *rev.ReversalOfID)

	assert.False(t, domain.TxnInitialDisbursement.Reversible())
	assert.False(t, domain.TxnReversal.Reversible())
	assert.True(t, domain.TxnRepayment.Reversible())
	assert.True(t, domain.TxnRedrawDisbursement.Reversible())
}
