package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CustomerPO 客户主档
type CustomerPO struct {
	gorm.Model
	CustomerID string `gorm:"column:customer_id;type:varchar(32);uniqueIndex;not null"`
	Email      string `gorm:"column:email;type:varchar(128);uniqueIndex;not null"`
	FullName   string `gorm:"column:full_name;type:varchar(128)"`
	Status     string `gorm:"column:status;type:varchar(20);not null"`
}

func (CustomerPO) TableName() string { return "loan_customers" }

// ApplicationPO 贷款申请
type ApplicationPO struct {
	gorm.Model
	ApplicationNo      string          `gorm:"column:application_no;type:varchar(32);uniqueIndex;not null"`
	CustomerID         string          `gorm:"column:customer_id;type:varchar(32);not null;uniqueIndex:uk_application_idem,priority:1"`
	IdempotencyKey     string          `gorm:"column:idempotency_key;type:varchar(64);not null;uniqueIndex:uk_application_idem,priority:2"`
	Status             string          `gorm:"column:status;type:varchar(32);index;not null"`
	ProductCode        string          `gorm:"column:product_code;type:varchar(32);not null"`
	ApprovedAmount     decimal.Decimal `gorm:"column:approved_amount;type:decimal(20,2);not null;default:0"`
	FullName           string          `gorm:"column:full_name;type:varchar(128);not null"`
	NationalID         string          `gorm:"column:national_id;type:varchar(16);not null"`
	HomeAddress        string          `gorm:"column:home_address;type:varchar(255);not null"`
	Age                int             `gorm:"column:age;not null"`
	Occupation         string          `gorm:"column:occupation;type:varchar(32);not null"`
	MonthlyIncome      decimal.Decimal `gorm:"column:monthly_income;type:decimal(20,2);not null"`
	MonthlyDebtPayment decimal.Decimal `gorm:"column:monthly_debt_payment;type:decimal(20,2);not null"`
	RiskDecision       string          `gorm:"column:risk_decision;type:varchar(32)"`
	RiskReferenceID    string          `gorm:"column:risk_reference_id;type:varchar(64)"`
	RejectReason       string          `gorm:"column:reject_reason;type:varchar(255)"`
	CooldownUntil      *time.Time      `gorm:"column:cooldown_until"`
	ApprovedAt         *time.Time      `gorm:"column:approved_at"`
	ExpiresAt          *time.Time      `gorm:"column:expires_at"`
	SignedAt           *time.Time      `gorm:"column:signed_at"`
	DisbursedAt        *time.Time      `gorm:"column:disbursed_at"`
}

func (ApplicationPO) TableName() string { return "loan_applications" }

// ContractDraftPO 待签合同
type ContractDraftPO struct {
	gorm.Model
	ApplicationID   uint       `gorm:"column:application_id;uniqueIndex;not null"`
	CustomerID      string     `gorm:"column:customer_id;type:varchar(32);index;not null"`
	ContractNo      string     `gorm:"column:contract_no;type:varchar(32);uniqueIndex;not null"`
	TemplateVersion string     `gorm:"column:template_version;type:varchar(32);not null"`
	Content         string     `gorm:"column:content;type:text;not null"`
	Digest          string     `gorm:"column:digest;type:char(64);not null"`
	Status          string     `gorm:"column:status;type:varchar(20);not null"`
	SignedAt        *time.Time `gorm:"column:signed_at"`
}

func (ContractDraftPO) TableName() string { return "loan_contract_drafts" }

// LoanContractPO 已签合同
type LoanContractPO struct {
	gorm.Model
	ContractNo    string          `gorm:"column:contract_no;type:varchar(32);uniqueIndex;not null"`
	CustomerID    string          `gorm:"column:customer_id;type:varchar(32);index;not null"`
	ApplicationID uint            `gorm:"column:application_id;not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null"`
	Status        string          `gorm:"column:status;type:varchar(20);not null"`
	SignedAt      time.Time       `gorm:"column:signed_at;not null"`
	InitialTxnNo  string          `gorm:"column:initial_txn_no;type:varchar(32);not null"`
}

func (LoanContractPO) TableName() string { return "loan_contracts" }

// SigningOtpPO 签署验证码
type SigningOtpPO struct {
	gorm.Model
	ApplicationID uint       `gorm:"column:application_id;index;not null"`
	CustomerID    string     `gorm:"column:customer_id;type:varchar(32);not null"`
	Token         string     `gorm:"column:token;type:varchar(64);uniqueIndex;not null"`
	CodeHash      string     `gorm:"column:code_hash;type:varchar(255);not null"`
	ExpiresAt     time.Time  `gorm:"column:expires_at;not null"`
	Attempts      int        `gorm:"column:attempts;not null;default:0"`
	Verified      bool       `gorm:"column:verified;not null;default:false"`
	VerifiedAt    *time.Time `gorm:"column:verified_at"`
}

func (SigningOtpPO) TableName() string { return "loan_signing_otps" }

// AccountPO 额度账户
type AccountPO struct {
	gorm.Model
	CustomerID           string          `gorm:"column:customer_id;type:varchar(32);uniqueIndex;not null"`
	CreditLimit          decimal.Decimal `gorm:"column:credit_limit;type:decimal(20,2);not null"`
	AvailableLimit       decimal.Decimal `gorm:"column:available_limit;type:decimal(20,2);not null"`
	PrincipalOutstanding decimal.Decimal `gorm:"column:principal_outstanding;type:decimal(20,2);not null"`
	InterestOutstanding  decimal.Decimal `gorm:"column:interest_outstanding;type:decimal(20,2);not null"`
	Version              int64           `gorm:"column:version;not null;default:0"`
}

func (AccountPO) TableName() string { return "loan_accounts" }

// TransactionPO 账务流水
type TransactionPO struct {
	gorm.Model
	TxnNo                     string          `gorm:"column:txn_no;type:varchar(32);uniqueIndex;not null"`
	CustomerID                string          `gorm:"column:customer_id;type:varchar(32);not null;uniqueIndex:uk_txn_idem,priority:1"`
	IdempotencyKey            string          `gorm:"column:idempotency_key;type:varchar(64);not null;uniqueIndex:uk_txn_idem,priority:2"`
	ContractNo                string          `gorm:"column:contract_no;type:varchar(32);index;not null"`
	Type                      string          `gorm:"column:type;type:varchar(32);not null"`
	Status                    string          `gorm:"column:status;type:varchar(20);not null"`
	Source                    string          `gorm:"column:source;type:varchar(20);not null"`
	Amount                    decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null"`
	PrincipalComponent        decimal.Decimal `gorm:"column:principal_component;type:decimal(20,2);not null"`
	InterestComponent         decimal.Decimal `gorm:"column:interest_component;type:decimal(20,2);not null"`
	AvailableLimitAfter       decimal.Decimal `gorm:"column:available_limit_after;type:decimal(20,2);not null"`
	PrincipalOutstandingAfter decimal.Decimal `gorm:"column:principal_outstanding_after;type:decimal(20,2);not null"`
	InterestOutstandingAfter  decimal.Decimal `gorm:"column:interest_outstanding_after;type:decimal(20,2);not null"`
	Note                      string          `gorm:"column:note;type:varchar(255)"`
	CreatedBy                 string          `gorm:"column:created_by;type:varchar(64)"`
	ReversalOfID              *uint           `gorm:"column:reversal_of_id"`
	ReversalOfTxnNo           string          `gorm:"column:reversal_of_txn_no;type:varchar(32)"`
}

func (TransactionPO) TableName() string { return "loan_transactions" }

// Models 返回需要迁移的全部表
func Models() []any {
	return []any{
		&CustomerPO{}, &ApplicationPO{}, &ContractDraftPO{}, &LoanContractPO{},
		&SigningOtpPO{}, &AccountPO{}, &TransactionPO{},
	}
}
