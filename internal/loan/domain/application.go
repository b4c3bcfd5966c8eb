package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ApplicationStatus 贷款申请状态
type ApplicationStatus string

const (
	// StatusNone 客户尚无申请，仅用于查询结果
	StatusNone                ApplicationStatus = "NONE"
	StatusSubmitted           ApplicationStatus = "SUBMITTED"
	StatusRejected            ApplicationStatus = "REJECTED"
	StatusApprovedPendingSign ApplicationStatus = "APPROVED_PENDING_SIGN"
	StatusSigned              ApplicationStatus = "SIGNED"
	StatusDisbursed           ApplicationStatus = "DISBURSED"
	StatusExpired             ApplicationStatus = "EXPIRED"
)

// ProductCode 当前唯一的产品
const ProductCode = "STANDARD_V1"

var transitions = map[ApplicationStatus][]ApplicationStatus{
	StatusNone:                {StatusSubmitted},
	StatusSubmitted:           {StatusRejected, StatusApprovedPendingSign},
	StatusApprovedPendingSign: {StatusSigned, StatusExpired},
	StatusSigned:              {StatusDisbursed},
}

// IsTerminal 是否为终态
func (s ApplicationStatus) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusDisbursed, StatusExpired:
		return true
	}
	return false
}

// CanTransitionTo 判断状态迁移是否合法
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Occupations 可选职业
var Occupations = []string{
	"ENGINEER", "TEACHER", "NURSE", "OFFICE_STAFF", "DRIVER",
	"SALES", "FREELANCER", "SELF_EMPLOYED", "PUBLIC_SERVANT", "OTHER",
}

var nationalIDPattern = regexp.MustCompile(`^[A-Z]{1,2}[0-9]{6}[0-9A]$`)

// NormalizeNationalID 去除括号与空白并转大写，格式不合法时返回 ErrInvalidNationalID
func NormalizeNationalID(raw string) (string, error) {
	id := strings.NewReplacer("(", "", ")", "", " ", "").Replace(strings.TrimSpace(raw))
	id = strings.ToUpper(id)
	if !nationalIDPattern.MatchString(id) {
		return "", ErrInvalidNationalID
	}
	return id, nil
}

// ApplicantProfile 申请人快照
type ApplicantProfile struct {
	FullName           string
	NationalID         string
	HomeAddress        string
	Age                int
	Occupation         string
	MonthlyIncome      decimal.Decimal
	MonthlyDebtPayment decimal.Decimal
}

// Normalize 校验并规范化申请人信息
func (p ApplicantProfile) Normalize() (ApplicantProfile, error) {
	p.FullName = strings.TrimSpace(p.FullName)
	p.HomeAddress = strings.TrimSpace(p.HomeAddress)
	p.Occupation = strings.ToUpper(strings.TrimSpace(p.Occupation))

	if p.FullName == "" {
		return p, Validationf("full name is required")
	}
	if p.HomeAddress == "" {
		return p, Validationf("home address is required")
	}
	if p.Age < 18 || p.Age > 70 {
		return p, Validationf("age must be between 18 and 70")
	}
	if !isOccupation(p.Occupation) {
		return p, Validationf("unknown occupation %q", p.Occupation)
	}
	if p.MonthlyIncome.LessThan(decimal.RequireFromString("0.01")) {
		return p, Validationf("monthly income must be positive")
	}
	if p.MonthlyDebtPayment.IsNegative() {
		return p, Validationf("monthly debt payment must not be negative")
	}

	id, err := NormalizeNationalID(p.NationalID)
	if err != nil {
		return p, err
	}
	p.NationalID = id
	return p, nil
}

func isOccupation(code string) bool {
	for _, o := range Occupations {
		if o == code {
			return true
		}
	}
	return false
}

// Application 贷款申请聚合
type Application struct {
	ID              uint
	ApplicationNo   string
	CustomerID      string
	Status          ApplicationStatus
	ProductCode     string
	ApprovedAmount  decimal.Decimal
	Applicant       ApplicantProfile
	RiskDecision    string
	RiskReferenceID string
	RejectReason    string
	CooldownUntil   *time.Time
	ApprovedAt      *time.Time
	ExpiresAt       *time.Time
	SignedAt        *time.Time
	DisbursedAt     *time.Time
	IdempotencyKey  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsExpiredAt 待签申请超过有效期
func (a *Application) IsExpiredAt(now time.Time) bool {
	return a.Status == StatusApprovedPendingSign && a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}

// InCooldownAt 被拒申请仍在冷静期内
func (a *Application) InCooldownAt(now time.Time) bool {
	return a.Status == StatusRejected && a.CooldownUntil != nil && now.Before(*a.CooldownUntil)
}

// CheckResubmission 判断该申请是否阻止客户再次提交
func (a *Application) CheckResubmission(now time.Time) error {
	if a == nil {
		return nil
	}
	if a.InCooldownAt(now) {
		return ErrCooldownActive.Withf("application cooldown active until %s", a.CooldownUntil.Format(time.RFC3339))
	}
	if !a.Status.IsTerminal() {
		return ErrApplicationInProgress.Withf("application %s is %s", a.ApplicationNo, a.Status)
	}
	return nil
}

// Decide 根据风控结果落定申请状态
func (a *Application) Decide(decision *RiskDecision, now time.Time, expiry, cooldown time.Duration) {
	a.RiskDecision = decision.Decision
	a.RiskReferenceID = decision.ReferenceID
	if decision.Approved {
		a.Status = StatusApprovedPendingSign
		a.ApprovedAmount = decision.ApprovedAmount
		approvedAt := now
		expiresAt := now.Add(expiry)
		a.ApprovedAt = &approvedAt
		a.ExpiresAt = &expiresAt
		return
	}
	a.Status = StatusRejected
	a.ApprovedAmount = decimal.Zero
	a.RejectReason = decision.Reason
	until := now.Add(cooldown)
	a.CooldownUntil = &until
}
