package domain_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/creditline/internal/loan/domain"
)

func TestApplicationStatus_Transitions(t *testing.T) {
	allowed := []struct{ from, to domain.ApplicationStatus }{
		{domain.StatusNone, domain.StatusSubmitted},
		{domain.StatusSubmitted, domain.StatusRejected},
		{domain.StatusSubmitted, domain.StatusApprovedPendingSign},
		{domain.StatusApprovedPendingSign, domain.StatusSigned},
		{domain.StatusApprovedPendingSign, domain.StatusExpired},
		{domain.StatusSigned, domain.StatusDisbursed},
	}
	for _, tr := range allowed {
		assert.True(t, tr.from.CanTransitionTo(tr.to), "%s -> %s", tr.from, tr.to)
	}

	assert.False(t, domain.StatusRejected.CanTransitionTo(domain.StatusSubmitted))
	assert.False(t, domain.StatusExpired.CanTransitionTo(domain.StatusSigned))
	assert.False(t, domain.StatusDisbursed.CanTransitionTo(domain.StatusSigned))
	assert.False(t, domain.StatusApprovedPendingSign.CanTransitionTo(domain.StatusDisbursed))

	for _, s := range []domain.ApplicationStatus{domain.StatusRejected, domain.StatusDisbursed, domain.StatusExpired} {
		assert.True(t, s.IsTerminal(), string(s))
	}
	for _, s := range []domain.ApplicationStatus{domain.StatusSubmitted, domain.StatusApprovedPendingSign, domain.StatusSigned} {
		assert.False(t, s.IsTerminal(), string(s))
	}
}

func TestApplication_DecideAndResubmission(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	approved := &domain.Application{ApplicationNo: "APP1"}
	approved.Decide(&domain.RiskDecision{Approved: true, Decision: "APPROVED", ApprovedAmount: d("50000")}, now, 14*24*time.Hour, 24*time.Hour)
	assert.Equal(t, domain.StatusApprovedPendingSign, approved.Status)
	require.NotNil(t, approved.ExpiresAt)
	assert.Equal(t, now.Add(14*24*time.Hour), *approved.ExpiresAt)
	assert.ErrorIs(t, approved.CheckResubmission(now), domain.ErrApplicationInProgress)

	assert.False(t, approved.IsExpiredAt(now.Add(14*24*time.Hour)))
	assert.True(t, approved.IsExpiredAt(now.Add(14*24*time.Hour+time.Millisecond)))

	rejected := &domain.Application{}
	rejected.Decide(&domain.RiskDecision{Approved: false, Decision: "REJECTED", Reason: "debt ratio"}, now, 14*24*time.Hour, 24*time.Hour)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	assert.True(t, rejected.ApprovedAmount.IsZero())
	assert.ErrorIs(t, rejected.CheckResubmission(now.Add(23*time.Hour)), domain.ErrCooldownActive)
	assert.NoError(t, rejected.CheckResubmission(now.Add(24*time.Hour)))

	var none *domain.Application
	assert.NoError(t, none.CheckResubmission(now))
}

func TestNormalizeNationalID(t *testing.T) {
	valid := map[string]string{
		"A123456(7)":   "A1234567",
		" ab 123456 a": "AB123456A",
		"Z6543210":     "Z6543210",
	}
	for raw, want := range valid {
		got, err := domain.NormalizeNationalID(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	for _, raw := range []string{"", "123456", "ABC1234567", "A12345B"} {
		_, err := domain.NormalizeNationalID(raw)
		assert.ErrorIs(t, err, domain.ErrInvalidNationalID, raw)
	}
}

func TestApplicantProfile_Normalize(t *testing.T) {
	base := domain.ApplicantProfile{
		FullName:           " Chan Tai Man ",
		NationalID:         "a123456(7)",
		HomeAddress:        "1 Queen's Road",
		Age:                30,
		Occupation:         "engineer",
		MonthlyIncome:      d("30000"),
		MonthlyDebtPayment: d("5000"),
	}
	got, err := base.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "Chan Tai Man", got.FullName)
	assert.Equal(t, "A1234567", got.NationalID)
	assert.Equal(t, "ENGINEER", got.Occupation)

	bad := base
	bad.Age = 71
	_, err = bad.Normalize()
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	bad = base
	bad.Occupation = "ASTRONAUT"
	_, err = bad.Normalize()
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	bad = base
	bad.MonthlyIncome = d("0")
	_, err = bad.Normalize()
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestContractDraft_Digest(t *testing.T) {
	app := &domain.Application{
		ID:             9,
		CustomerID:     "c1",
		ProductCode:    domain.ProductCode,
		ApprovedAmount: d("50000"),
		Applicant:      domain.ApplicantProfile{FullName: "Chan Tai Man"},
	}
	draft := domain.NewContractDraft(app, "CON1")
	assert.Equal(t, domain.ContractStatusDraft, draft.Status)
	assert.Equal(t, domain.ContractTemplateVersion, draft.TemplateVersion)
	assert.Contains(t, draft.Content, "Approved Amount: 50000.00")
	assert.Len(t, draft.Digest, 64)
	assert.Equal(t, draft.Digest, domain.NewContractDraft(app, "CON1").Digest)
}

func TestActiveCustomerPolicy(t *testing.T) {
	policy := domain.ActiveCustomerPolicy{}
	assert.NoError(t, policy.Check(context.Background(), &domain.Customer{ID: "c1", Status: domain.CustomerActive}))
	assert.ErrorIs(t, policy.Check(context.Background(), &domain.Customer{ID: "c1", Status: domain.CustomerDisabled}), domain.ErrCustomerNotEligible)
}
