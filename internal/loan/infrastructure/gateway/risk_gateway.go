package gateway

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/creditline/internal/loan/domain"
)

const (
	DecisionApproved = "APPROVED"
	DecisionRejected = "REJECTED"
)

// RuleBasedRiskGateway 本地规则风控：按负债收入比决策，通过时批复固定额度
type RuleBasedRiskGateway struct {
	maxApprovedAmount decimal.Decimal
	maxDebtRatio      decimal.Decimal
	logger            *slog.Logger
}

// NewRuleBasedRiskGateway 创建规则风控网关
func NewRuleBasedRiskGateway(maxApprovedAmount, maxDebtRatio decimal.Decimal, logger *slog.Logger) *RuleBasedRiskGateway {
	return &RuleBasedRiskGateway{
		maxApprovedAmount: maxApprovedAmount,
		maxDebtRatio:      maxDebtRatio,
		logger:            logger.With("module", "risk_gateway"),
	}
}

// Evaluate 负债收入比保留 4 位小数（四舍五入），超过上限即拒绝
func (g *RuleBasedRiskGateway) Evaluate(ctx context.Context, customerID string, applicant domain.ApplicantProfile) (*domain.RiskDecision, error) {
	if !applicant.MonthlyIncome.IsPositive() {
		return nil, domain.Validationf("monthly income must be positive")
	}
	ratio := applicant.MonthlyDebtPayment.DivRound(applicant.MonthlyIncome, 4)
	ref := "RISK-" + strings.ReplaceAll(uuid.NewString(), "-", "")

	if ratio.GreaterThan(g.maxDebtRatio) {
		g.logger.InfoContext(ctx, "risk rejected", "customer_id", customerID, "debt_ratio", ratio.String(), "reference_id", ref)
		return &domain.RiskDecision{
			Approved:       false,
			Decision:       DecisionRejected,
			ReferenceID:    ref,
			Reason:         "debt-to-income ratio too high",
			ApprovedAmount: decimal.Zero,
		}, nil
	}

	g.logger.InfoContext(ctx, "risk approved", "customer_id", customerID, "debt_ratio", ratio.String(), "reference_id", ref)
	return &domain.RiskDecision{
		Approved:       true,
		Decision:       DecisionApproved,
		ReferenceID:    ref,
		ApprovedAmount: g.maxApprovedAmount,
	}, nil
}
