package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType 流水类型
type TransactionType string

const (
	TxnInitialDisbursement TransactionType = "INITIAL_DISBURSEMENT"
	TxnRedrawDisbursement  TransactionType = "REDRAW_DISBURSEMENT"
	TxnRepayment           TransactionType = "REPAYMENT"
	TxnReversal            TransactionType = "REVERSAL"
)

// Reversible 首笔放款与冲正流水不可冲正
func (t TransactionType) Reversible() bool {
	return t == TxnRepayment || t == TxnRedrawDisbursement
}

// TransactionStatus 流水状态
type TransactionStatus string

const (
	TxnPosted   TransactionStatus = "POSTED"
	TxnReversed TransactionStatus = "REVERSED"
)

// TransactionSource 流水来源
type TransactionSource string

const (
	// SourceApp 客户自助
	SourceApp TransactionSource = "APP"
	// SourceAdmin 后台人工
	SourceAdmin TransactionSource = "ADMIN"
)

// ReversalKeyPrefix 冲正流水的幂等键前缀
const ReversalKeyPrefix = "reversal-"

// MaxIdempotencyKeyLen 幂等键最大字节数，与 idempotency_key 列宽一致
const MaxIdempotencyKeyLen = 64

// LedgerTransaction 只追加的账务流水；入账后金额字段不再变化，只允许修改 Note 与 Status
type LedgerTransaction struct {
	ID                        uint
	TxnNo                     string
	CustomerID                string
	ContractNo                string
	Type                      TransactionType
	Status                    TransactionStatus
	Source                    TransactionSource
	Amount                    decimal.Decimal
	PrincipalComponent        decimal.Decimal
	InterestComponent         decimal.Decimal
	AvailableLimitAfter       decimal.Decimal
	PrincipalOutstandingAfter decimal.Decimal
	InterestOutstandingAfter  decimal.Decimal
	IdempotencyKey            string
	Note                      string
	CreatedBy                 string
	ReversalOfID              *uint
	ReversalOfTxnNo           string
	CreatedAt                 time.Time
}

// CaptureBalances 记录入账后的余额
func (t *LedgerTransaction) CaptureBalances(a *Account) {
	t.AvailableLimitAfter = a.AvailableLimit
	t.PrincipalOutstandingAfter = a.PrincipalOutstanding
	t.InterestOutstandingAfter = a.InterestOutstanding
}

// BalancesAfter 还原入账后的账户余额，额度由恒等式推出
func (t *LedgerTransaction) BalancesAfter() BalanceSnapshot {
	return BalanceSnapshot{
		CreditLimit:          t.AvailableLimitAfter.Add(t.PrincipalOutstandingAfter),
		AvailableLimit:       t.AvailableLimitAfter,
		PrincipalOutstanding: t.PrincipalOutstandingAfter,
		InterestOutstanding:  t.InterestOutstandingAfter,
	}
}

// Unallocated 还款中未能分配到欠款的部分
func (t *LedgerTransaction) Unallocated() decimal.Decimal {
	if t.Type != TxnRepayment {
		return decimal.Zero
	}
	return t.Amount.Sub(t.PrincipalComponent).Sub(t.InterestComponent)
}

// NewReversal 生成与原流水金额相反的冲正流水
func NewReversal(original *LedgerTransaction) *LedgerTransaction {
	id := original.ID
	return &LedgerTransaction{
		CustomerID:         original.CustomerID,
		ContractNo:         original.ContractNo,
		Type:               TxnReversal,
		Status:             TxnPosted,
		Amount:             original.Amount.Neg(),
		PrincipalComponent: original.PrincipalComponent.Neg(),
		InterestComponent:  original.InterestComponent.Neg(),
		IdempotencyKey:     ReversalKeyPrefix + original.TxnNo,
		ReversalOfID:       &id,
		ReversalOfTxnNo:    original.TxnNo,
	}
}
