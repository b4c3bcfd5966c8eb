package domain

import (
	"context"
	"time"
)

// CustomerStatus 客户状态
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "ACTIVE"
	CustomerDisabled CustomerStatus = "DISABLED"
)

// Customer 客户主档，由用户中心维护，本服务只读
type Customer struct {
	ID        string
	Email     string
	FullName  string
	Status    CustomerStatus
	CreatedAt time.Time
}

// EligibilityPolicy 申请资格判定，未通过时返回 ErrCustomerNotEligible
type EligibilityPolicy interface {
	Check(ctx context.Context, customer *Customer) error
}

// ActiveCustomerPolicy 以账户状态为准的默认资格判定，KYC 尚未独立建模
type ActiveCustomerPolicy struct{}

func (ActiveCustomerPolicy) Check(_ context.Context, customer *Customer) error {
	if customer == nil {
		return ErrCustomerNotFound
	}
	if customer.Status != CustomerActive {
		return ErrCustomerNotEligible.Withf("customer %s is %s", customer.ID, customer.Status)
	}
	return nil
}
