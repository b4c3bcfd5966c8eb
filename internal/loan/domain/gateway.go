package domain

//go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks -source=gateway.go

import (
	"context"

	"github.com/shopspring/decimal"
)

// RiskDecision 风控决策结果
type RiskDecision struct {
	Approved       bool
	Decision       string
	ReferenceID    string
	Reason         string
	ApprovedAmount decimal.Decimal
}

// RiskGateway 风控决策网关，同步调用，对核心无副作用
type RiskGateway interface {
	Evaluate(ctx context.Context, customerID string, applicant ApplicantProfile) (*RiskDecision, error)
}

// OtpSender 验证码下发网关，投递失败与重试由网关自行处理
type OtpSender interface {
	SendOtp(ctx context.Context, customerID, code string) error
}

// EventPublisher 账务事件发布，提交后尽力投递
type EventPublisher interface {
	Publish(ctx context.Context, event *LedgerEvent) error
}
