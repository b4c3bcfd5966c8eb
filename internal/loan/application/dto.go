package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/creditline/internal/loan/domain"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// AccountSummary 账户摘要，无账户时各金额为 0.00
type AccountSummary struct {
	CustomerID           string `json:"customer_id"`
	HasAccount           bool   `json:"has_account"`
	CreditLimit          string `json:"credit_limit"`
	AvailableLimit       string `json:"available_limit"`
	PrincipalOutstanding string `json:"principal_outstanding"`
	InterestOutstanding  string `json:"interest_outstanding"`
}

func summaryOf(customerID string, hasAccount bool, s domain.BalanceSnapshot) *AccountSummary {
	return &AccountSummary{
		CustomerID:           customerID,
		HasAccount:           hasAccount,
		CreditLimit:          money(s.CreditLimit),
		AvailableLimit:       money(s.AvailableLimit),
		PrincipalOutstanding: money(s.PrincipalOutstanding),
		InterestOutstanding:  money(s.InterestOutstanding),
	}
}

// PostingView 入账结果中不可变的流水字段
type PostingView struct {
	TxnNo              string `json:"txn_no"`
	ContractNo         string `json:"contract_no"`
	Type               string `json:"type"`
	Source             string `json:"source"`
	Amount             string `json:"amount"`
	PrincipalComponent string `json:"principal_component"`
	InterestComponent  string `json:"interest_component"`
	ReversalOf         string `json:"reversal_of,omitempty"`
	CreatedBy          string `json:"created_by,omitempty"`
	CreatedAt          string `json:"created_at"`
}

// PostingResult 入账结果，完全由已落库的流水构造，重放时逐字节一致
type PostingResult struct {
	Transaction *PostingView    `json:"transaction"`
	Account     *AccountSummary `json:"account"`
	Unallocated string          `json:"unallocated"`
}

func postingResultOf(txn *domain.LedgerTransaction) *PostingResult {
	return &PostingResult{
		Transaction: &PostingView{
			TxnNo:              txn.TxnNo,
			ContractNo:         txn.ContractNo,
			Type:               string(txn.Type),
			Source:             string(txn.Source),
			Amount:             money(txn.Amount),
			PrincipalComponent: money(txn.PrincipalComponent),
			InterestComponent:  money(txn.InterestComponent),
			ReversalOf:         txn.ReversalOfTxnNo,
			CreatedBy:          txn.CreatedBy,
			CreatedAt:          formatTime(txn.CreatedAt),
		},
		Account:     summaryOf(txn.CustomerID, true, txn.BalancesAfter()),
		Unallocated: money(txn.Unallocated()),
	}
}

// TransactionView 流水明细
type TransactionView struct {
	TxnNo                     string `json:"txn_no"`
	CustomerID                string `json:"customer_id"`
	ContractNo                string `json:"contract_no"`
	Type                      string `json:"type"`
	Status                    string `json:"status"`
	Source                    string `json:"source"`
	Amount                    string `json:"amount"`
	PrincipalComponent        string `json:"principal_component"`
	InterestComponent         string `json:"interest_component"`
	AvailableLimitAfter       string `json:"available_limit_after"`
	PrincipalOutstandingAfter string `json:"principal_outstanding_after"`
	InterestOutstandingAfter  string `json:"interest_outstanding_after"`
	Note                      string `json:"note"`
	CreatedBy                 string `json:"created_by"`
	ReversalOf                string `json:"reversal_of,omitempty"`
	CreatedAt                 string `json:"created_at"`
}

func transactionViewOf(t *domain.LedgerTransaction) *TransactionView {
	return &TransactionView{
		TxnNo:                     t.TxnNo,
		CustomerID:                t.CustomerID,
		ContractNo:                t.ContractNo,
		Type:                      string(t.Type),
		Status:                    string(t.Status),
		Source:                    string(t.Source),
		Amount:                    money(t.Amount),
		PrincipalComponent:        money(t.PrincipalComponent),
		InterestComponent:         money(t.InterestComponent),
		AvailableLimitAfter:       money(t.AvailableLimitAfter),
		PrincipalOutstandingAfter: money(t.PrincipalOutstandingAfter),
		InterestOutstandingAfter:  money(t.InterestOutstandingAfter),
		Note:                      t.Note,
		CreatedBy:                 t.CreatedBy,
		ReversalOf:                t.ReversalOfTxnNo,
		CreatedAt:                 formatTime(t.CreatedAt),
	}
}

func transactionViewsOf(txns []*domain.LedgerTransaction) []*TransactionView {
	views := make([]*TransactionView, len(txns))
	for i, t := range txns {
		views[i] = transactionViewOf(t)
	}
	return views
}

// ContractView 待签合同
type ContractView struct {
	ContractNo      string `json:"contract_no"`
	TemplateVersion string `json:"template_version"`
	Content         string `json:"content,omitempty"`
	Digest          string `json:"digest"`
	Status          string `json:"status"`
	SignedAt        string `json:"signed_at,omitempty"`
}

func contractViewOf(d *domain.ContractDraft, withContent bool) *ContractView {
	if d == nil {
		return nil
	}
	v := &ContractView{
		ContractNo:      d.ContractNo,
		TemplateVersion: d.TemplateVersion,
		Digest:          d.Digest,
		Status:          string(d.Status),
		SignedAt:        formatTimePtr(d.SignedAt),
	}
	if withContent {
		v.Content = d.Content
	}
	return v
}

// ApplicationView 申请当前状态
type ApplicationView struct {
	ApplicationID   uint          `json:"application_id,omitempty"`
	ApplicationNo   string        `json:"application_no,omitempty"`
	CustomerID      string        `json:"customer_id"`
	Status          string        `json:"status"`
	ProductCode     string        `json:"product_code,omitempty"`
	ApprovedAmount  string        `json:"approved_amount,omitempty"`
	RiskDecision    string        `json:"risk_decision,omitempty"`
	RiskReferenceID string        `json:"risk_reference_id,omitempty"`
	RejectReason    string        `json:"reject_reason,omitempty"`
	CooldownUntil   string        `json:"cooldown_until,omitempty"`
	ApprovedAt      string        `json:"approved_at,omitempty"`
	ExpiresAt       string        `json:"expires_at,omitempty"`
	SignedAt        string        `json:"signed_at,omitempty"`
	DisbursedAt     string        `json:"disbursed_at,omitempty"`
	CreatedAt       string        `json:"created_at,omitempty"`
	Contract        *ContractView `json:"contract,omitempty"`
}

func applicationViewOf(customerID string, app *domain.Application, draft *domain.ContractDraft) *ApplicationView {
	if app == nil {
		return &ApplicationView{CustomerID: customerID, Status: string(domain.StatusNone)}
	}
	return &ApplicationView{
		ApplicationID:   app.ID,
		ApplicationNo:   app.ApplicationNo,
		CustomerID:      app.CustomerID,
		Status:          string(app.Status),
		ProductCode:     app.ProductCode,
		ApprovedAmount:  money(app.ApprovedAmount),
		RiskDecision:    app.RiskDecision,
		RiskReferenceID: app.RiskReferenceID,
		RejectReason:    app.RejectReason,
		CooldownUntil:   formatTimePtr(app.CooldownUntil),
		ApprovedAt:      formatTimePtr(app.ApprovedAt),
		ExpiresAt:       formatTimePtr(app.ExpiresAt),
		SignedAt:        formatTimePtr(app.SignedAt),
		DisbursedAt:     formatTimePtr(app.DisbursedAt),
		CreatedAt:       formatTime(app.CreatedAt),
		Contract:        contractViewOf(draft, false),
	}
}

// SubmitResult 提交结果，只包含提交时即已确定的字段
type SubmitResult struct {
	ApplicationID   uint   `json:"application_id"`
	ApplicationNo   string `json:"application_no"`
	Status          string `json:"status"`
	ApprovedAmount  string `json:"approved_amount"`
	RiskDecision    string `json:"risk_decision"`
	RiskReferenceID string `json:"risk_reference_id"`
	RejectReason    string `json:"reject_reason,omitempty"`
	CooldownUntil   string `json:"cooldown_until,omitempty"`
	ExpiresAt       string `json:"expires_at,omitempty"`
	ContractNo      string `json:"contract_no,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func submitResultOf(app *domain.Application, draft *domain.ContractDraft) *SubmitResult {
	// 状态取风控落定时的结果，后续签署、过期不影响重放
	status := domain.StatusRejected
	if app.ApprovedAt != nil {
		status = domain.StatusApprovedPendingSign
	}
	res := &SubmitResult{
		ApplicationID:   app.ID,
		ApplicationNo:   app.ApplicationNo,
		Status:          string(status),
		ApprovedAmount:  money(app.ApprovedAmount),
		RiskDecision:    app.RiskDecision,
		RiskReferenceID: app.RiskReferenceID,
		RejectReason:    app.RejectReason,
		CooldownUntil:   formatTimePtr(app.CooldownUntil),
		ExpiresAt:       formatTimePtr(app.ExpiresAt),
		CreatedAt:       formatTime(app.CreatedAt),
	}
	if draft != nil {
		res.ContractNo = draft.ContractNo
	}
	return res
}

// OtpResult 验证码下发结果
type OtpResult struct {
	OtpToken           string `json:"otp_token"`
	ExpiresAt          string `json:"expires_at"`
	ResendAfterSeconds int    `json:"resend_after_seconds"`
}

// SignResult 签署并放款结果
type SignResult struct {
	ApplicationID uint           `json:"application_id"`
	ApplicationNo string         `json:"application_no"`
	Status        string         `json:"status"`
	ContractNo    string         `json:"contract_no"`
	Disbursement  *PostingResult `json:"disbursement"`
}

// Page 分页结果
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}
