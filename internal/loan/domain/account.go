package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account 循环额度账户，每个客户至多一个
// 恒等式：AvailableLimit + PrincipalOutstanding == CreditLimit，且两者非负
type Account struct {
	ID                   uint
	CustomerID           string
	CreditLimit          decimal.Decimal
	AvailableLimit       decimal.Decimal
	PrincipalOutstanding decimal.Decimal
	InterestOutstanding  decimal.Decimal
	// Version 乐观锁版本，仅由仓储的条件更新递增
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OpenAccount 首次放款时开户，额度全部占用
func OpenAccount(customerID string, amount decimal.Decimal) *Account {
	return &Account{
		CustomerID:           customerID,
		CreditLimit:          amount,
		AvailableLimit:       decimal.Zero,
		PrincipalOutstanding: amount,
		InterestOutstanding:  decimal.Zero,
	}
}

// Snapshot 返回余额快照
func (a *Account) Snapshot() BalanceSnapshot {
	return BalanceSnapshot{
		CreditLimit:          a.CreditLimit,
		AvailableLimit:       a.AvailableLimit,
		PrincipalOutstanding: a.PrincipalOutstanding,
		InterestOutstanding:  a.InterestOutstanding,
	}
}

// CheckInvariant 校验账户恒等式
func (a *Account) CheckInvariant() error {
	if a.AvailableLimit.IsNegative() || a.PrincipalOutstanding.IsNegative() || a.InterestOutstanding.IsNegative() {
		return ErrInvariantViolation.Withf("negative balance on account of customer %s", a.CustomerID)
	}
	if !a.AvailableLimit.Add(a.PrincipalOutstanding).Equal(a.CreditLimit) {
		return ErrInvariantViolation.Withf("available %s + principal %s != credit limit %s",
			a.AvailableLimit, a.PrincipalOutstanding, a.CreditLimit)
	}
	return nil
}

// AfterRepayment 计算还款后的账户，不修改接收者
func (a Account) AfterRepayment(alloc Allocation) (*Account, error) {
	next := a
	next.InterestOutstanding = decimal.Max(decimal.Zero, a.InterestOutstanding.Sub(alloc.InterestPaid))
	next.PrincipalOutstanding = decimal.Max(decimal.Zero, a.PrincipalOutstanding.Sub(alloc.PrincipalPaid))
	next.AvailableLimit = a.AvailableLimit.Add(alloc.PrincipalPaid)
	if err := next.CheckInvariant(); err != nil {
		return nil, err
	}
	return &next, nil
}

// AfterRedraw 计算再支用后的账户
func (a Account) AfterRedraw(amount decimal.Decimal) (*Account, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if amount.GreaterThan(a.AvailableLimit) {
		return nil, ErrInsufficientAvailableLimit.Withf("redraw %s exceeds available limit %s", amount, a.AvailableLimit)
	}
	next := a
	next.AvailableLimit = a.AvailableLimit.Sub(amount)
	next.PrincipalOutstanding = a.PrincipalOutstanding.Add(amount)
	if err := next.CheckInvariant(); err != nil {
		return nil, err
	}
	return &next, nil
}

// AfterRepaymentReversal 冲正一笔还款：退回本金与利息
func (a Account) AfterRepaymentReversal(principal, interest decimal.Decimal) (*Account, error) {
	next := a
	next.AvailableLimit = a.AvailableLimit.Sub(principal)
	if next.AvailableLimit.IsNegative() {
		return nil, ErrInsufficientAvailableLimit.Withf("insufficient available limit to reverse")
	}
	next.PrincipalOutstanding = a.PrincipalOutstanding.Add(principal)
	next.InterestOutstanding = a.InterestOutstanding.Add(interest)
	if err := next.CheckInvariant(); err != nil {
		return nil, err
	}
	return &next, nil
}

// AfterRedrawReversal 冲正一笔再支用：恢复可用额度
func (a Account) AfterRedrawReversal(amount decimal.Decimal) (*Account, error) {
	next := a
	next.PrincipalOutstanding = a.PrincipalOutstanding.Sub(amount)
	if next.PrincipalOutstanding.IsNegative() {
		return nil, ErrInvariantViolation.Withf("insufficient principal outstanding to reverse")
	}
	next.AvailableLimit = a.AvailableLimit.Add(amount)
	if err := next.CheckInvariant(); err != nil {
		return nil, err
	}
	return &next, nil
}
