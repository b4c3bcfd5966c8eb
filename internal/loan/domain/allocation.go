package domain

import "github.com/shopspring/decimal"

// BalanceSnapshot 分配计算所需的账户余额快照
type BalanceSnapshot struct {
	CreditLimit          decimal.Decimal
	AvailableLimit       decimal.Decimal
	PrincipalOutstanding decimal.Decimal
	InterestOutstanding  decimal.Decimal
}

// Allocation 还款分配结果
type Allocation struct {
	InterestPaid  decimal.Decimal
	PrincipalPaid decimal.Decimal
	// Unallocated 超出全部欠款的部分
	Unallocated decimal.Decimal
}

// AllocationEngine 还款分配策略
type AllocationEngine interface {
	Allocate(amount decimal.Decimal, snapshot BalanceSnapshot) (Allocation, error)
}

// WaterfallAllocator 先息后本
type WaterfallAllocator struct{}

// Allocate 先冲利息，再冲本金，剩余部分记为未分配
func (WaterfallAllocator) Allocate(amount decimal.Decimal, snapshot BalanceSnapshot) (Allocation, error) {
	if !amount.IsPositive() {
		return Allocation{}, ErrInvalidAmount
	}
	interestPaid := decimal.Min(amount, decimal.Max(snapshot.InterestOutstanding, decimal.Zero))
	remaining := amount.Sub(interestPaid)
	principalPaid := decimal.Min(remaining, decimal.Max(snapshot.PrincipalOutstanding, decimal.Zero))
	return Allocation{
		InterestPaid:  interestPaid,
		PrincipalPaid: principalPaid,
		Unallocated:   remaining.Sub(principalPaid),
	}, nil
}
