package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/creditline/pkg/utils"
)

// ContractTemplateVersion 合同模板版本
const ContractTemplateVersion = "loan_contract_v1"

// ContractStatus 合同状态
type ContractStatus string

const (
	ContractStatusDraft  ContractStatus = "DRAFT"
	ContractStatusSigned ContractStatus = "SIGNED"
)

// ContractDraft 审批通过后生成的待签合同
type ContractDraft struct {
	ID              uint
	ApplicationID   uint
	CustomerID      string
	ContractNo      string
	TemplateVersion string
	Content         string
	Digest          string
	Status          ContractStatus
	SignedAt        *time.Time
	CreatedAt       time.Time
}

// NewContractDraft 渲染合同正文并计算摘要
func NewContractDraft(app *Application, contractNo string) *ContractDraft {
	content := fmt.Sprintf("Loan Contract\nContract No: %s\nCustomer: %s\nProduct: %s\nApproved Amount: %s\n",
		contractNo, app.Applicant.FullName, app.ProductCode, app.ApprovedAmount.StringFixed(2))
	return &ContractDraft{
		ApplicationID:   app.ID,
		CustomerID:      app.CustomerID,
		ContractNo:      contractNo,
		TemplateVersion: ContractTemplateVersion,
		Content:         content,
		Digest:          utils.SHA256Hash(content),
		Status:          ContractStatusDraft,
	}
}

// LoanContract 已签署并放款的合同
type LoanContract struct {
	ID            uint
	ContractNo    string
	CustomerID    string
	ApplicationID uint
	Amount        decimal.Decimal
	Status        ContractStatus
	SignedAt      time.Time
	InitialTxnNo  string
	CreatedAt     time.Time
}
