package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/creditline/internal/loan/application"
	"github.com/wyfcoding/creditline/internal/loan/domain"
)

func TestSubmit_ApprovedCreatesDraft(t *testing.T) {
	h := newHarness(t)
	h.seedCustomer("C1", domain.CustomerActive)

	res := h.submitApproved("C1", "k1")
	assert.Equal(t, string(domain.StatusApprovedPendingSign), res.Status)
	assert.Equal(t, "50000.00", res.ApprovedAmount)
	assert.NotEmpty(t, res.ContractNo)
	assert.Equal(t, h.now.Add(14*24*time.Hour).Format("2006-01-02T15:04:05.000Z07:00"), res.ExpiresAt)

	preview, err := h.svc.ContractPreview(context.Background(), "C1", res.ApplicationID)
	require.NoError(t, err)
	assert.Contains(t, preview.Content, "Approved Amount: 50000.00")
	assert.Contains(t, preview.Content, "Product: STANDARD_V1")
	assert.Len(t, preview.Digest, 64)
	assert.Equal(t, domain.ContractTemplateVersion, preview.TemplateVersion)

	_, err = h.svc.ContractPreview(context.Background(), "C2", res.ApplicationID)
	assert.ErrorIs(t, err, domain.ErrApplicationNotFound)
}

func TestSubmit_IdempotentReplay(t *testing.T) {
	h := newHarness(t)
	h.seedCustomer("C1", domain.CustomerActive)

	first := h.submitApproved("C1", "k1")
	// 风控只被调用一次，重放不再评估
	second, err := h.svc.Submit(context.Background(), application.SubmitCommand{
		CustomerID: "C1", Applicant: applicant(), IdempotencyKey: "k1",
	})
	require.NoError(t, err)
	assert.Equal(t, mustJSON(t, first), mustJSON(t, second))

	_, total, err := h.apps.List(context.Background(), domain.ApplicationFilter{CustomerID: "C1"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestSubmit_ConcurrentDuplicateReplays(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedCustomer("C1", domain.CustomerActive)
	cmd := application.SubmitCommand{CustomerID: "C1", Applicant: applicant(), IdempotencyKey: "k1"}

	// 风控评估期间同键请求抢先落库，随后本请求在唯一索引上落败
	var winner *application.SubmitResult
	h.risk.EXPECT().Evaluate(gomock.Any(), "C1", gomock.Any()).DoAndReturn(
		func(context.Context, string, domain.ApplicantProfile) (*domain.RiskDecision, error) {
			res, err := h.svc.Submit(ctx, cmd)
			require.NoError(t, err)
			winner = res
			return approve("50000"), nil
		}).Times(1)
	h.expectRisk("C1", approve("50000"))

	loser, err := h.svc.Submit(ctx, cmd)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, mustJSON(t, winner), mustJSON(t, loser))

	_, total, err := h.apps.List(ctx, domain.ApplicationFilter{CustomerID: "C1"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestSubmit_KeyRules(t *testing.T) {
	h := newHarness(t)
	h.seedCustomer("C1", domain.CustomerActive)

	for _, key := range []string{strings.Repeat("k", 65), domain.ReversalKeyPrefix + "TXN1"} {
		_, err := h.svc.Submit(context.Background(), application.SubmitCommand{
			CustomerID: "C1", Applicant: applicant(), IdempotencyKey: key,
		})
		require.Error(t, err, key)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err), key)
	}
}

func TestSubmit_RejectionStartsCooldown(t *testing.T) {
	h := newHarness(t)
	h.seedCustomer("C1", domain.CustomerActive)
	ctx := context.Background()

	h.expectRisk("C1", reject())
	res, err := h.svc.Submit(ctx, application.SubmitCommand{CustomerID: "C1", Applicant: applicant(), IdempotencyKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRejected), res.Status)
	assert.Equal(t, "0.00", res.ApprovedAmount)
	assert.Equal(t, "debt-to-income ratio too high", res.RejectReason)
	assert.Empty(t, res.ContractNo)

	_, err = h.svc.Submit(ctx, application.SubmitCommand{CustomerID: "C1", Applicant: applicant(), IdempotencyKey: "k2"})
	assert.ErrorIs(t, err, domain.ErrCooldownActive)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	h.now = h.now.Add(24*time.Hour + time.Second)
	h.expectRisk("C1", approve("50000"))
	res, err = h.svc.Submit(ctx, application.SubmitCommand{CustomerID: "C1", Applicant: applicant(), IdempotencyKey: "k2"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusApprovedPendingSign), res.Status)
}

func TestSubmit_Guards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedCustomer("C1", domain.CustomerActive)
	h.seedCustomer("C2", domain.CustomerDisabled)

	_, err := h.svc.Submit(ctx, application.SubmitCommand{CustomerID: "C1", Applicant: applicant()})
	assert.ErrorIs(t, err, domain.ErrIdempotencyKeyRequired)

	_, err = h.svc.Submit(ctx, application.SubmitCommand{CustomerID: "C2", Applicant: applicant(), IdempotencyKey: "k"})
	assert.ErrorIs(t, err, domain.ErrCustomerNotEligible)

	_, err = h.svc.Submit(ctx, application.SubmitCommand{CustomerID: "nobody", Applicant: applicant(), IdempotencyKey: "k"})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	bad := applicant()
	bad.NationalID = "12345"
	_, err = h.svc.Submit(ctx, application.SubmitCommand{CustomerID: "C1", Applicant: bad, IdempotencyKey: "k"})
	assert.ErrorIs(t, err, domain.ErrInvalidNationalID)

	h.submitApproved("C1", "k1")
	_, err = h.svc.Submit(ctx, application.SubmitCommand{CustomerID: "C1", Applicant: applicant(), IdempotencyKey: "k2"})
	assert.ErrorIs(t, err, domain.ErrApplicationInProgress)
}

func TestSubmit_RiskFailureIsFatalForRequest(t *testing.T) {
	h := newHarness(t)
	h.seedCustomer("C1", domain.CustomerActive)

	boom := errors.New("risk engine down")
	h.risk.EXPECT().Evaluate(gomock.Any(), "C1", gomock.Any()).Return(nil, boom)
	_, err := h.svc.Submit(context.Background(), application.SubmitCommand{CustomerID: "C1", Applicant: applicant(), IdempotencyKey: "k1"})
	assert.ErrorIs(t, err, boom)

	view, err := h.svc.GetCurrent(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusNone), view.Status)
}

func TestSubmit_RejectsWhenAccountExists(t *testing.T) {
	h := newHarness(t)
	h.onboard("C1")

	_, err := h.svc.Submit(context.Background(), application.SubmitCommand{CustomerID: "C1", Applicant: applicant(), IdempotencyKey: "again"})
	assert.ErrorIs(t, err, domain.ErrAccountExists)
}

func TestGetCurrent_LazyExpiryPersistsOnce(t *testing.T) {
	h := newHarness(t)
	counting := &countingApps{ApplicationRepository: h.apps}
	h.apps = counting
	h.build()
	h.seedCustomer("C1", domain.CustomerActive)
	ctx := context.Background()

	sub := h.submitApproved("C1", "k1")
	h.now = h.now.Add(15 * 24 * time.Hour)

	for i := 0; i < 2; i++ {
		view, err := h.svc.GetCurrent(ctx, "C1")
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusExpired), view.Status)
	}
	assert.Equal(t, 1, counting.transitions[domain.StatusExpired])

	_, err := h.svc.SendOtp(ctx, "C1", sub.ApplicationID)
	assert.ErrorIs(t, err, domain.ErrApplicationExpired)

	// 过期是终态，可以重新申请
	h.submitApproved("C1", "k2")
}

func TestSign_DisbursesAndReplays(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedCustomer("C1", domain.CustomerActive)

	sub := h.submitApproved("C1", "k1")
	otp := h.sendOtp("C1", sub.ApplicationID)
	assert.Equal(t, 60, otp.ResendAfterSeconds)
	assert.NotEmpty(t, otp.OtpToken)

	cmd := application.SignCommand{
		CustomerID: "C1", ApplicationID: sub.ApplicationID,
		OtpToken: otp.OtpToken, OtpCode: testOtpCode, AgreeTerms: true, IdempotencyKey: "sign-1",
	}
	first, err := h.svc.Sign(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusDisbursed), first.Status)
	assert.Equal(t, sub.ContractNo, first.ContractNo)
	assert.Equal(t, "50000.00", first.Disbursement.Transaction.Amount)
	assert.Equal(t, string(domain.TxnInitialDisbursement), first.Disbursement.Transaction.Type)
	assert.Equal(t, "50000.00", first.Disbursement.Account.CreditLimit)
	assert.Equal(t, "0.00", first.Disbursement.Account.AvailableLimit)
	assert.Equal(t, "50000.00", first.Disbursement.Account.PrincipalOutstanding)

	second, err := h.svc.Sign(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, mustJSON(t, first), mustJSON(t, second))
	assert.EqualValues(t, 1, h.txnCount("C1"))
	assert.Equal(t, []string{"LedgerTransactionPosted:INITIAL_DISBURSEMENT"}, h.events.types())

	view, err := h.svc.GetCurrent(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusDisbursed), view.Status)
	require.NotNil(t, view.Contract)
	assert.Equal(t, string(domain.ContractStatusSigned), view.Contract.Status)

	contract, err := h.contracts.GetByContractNo(ctx, sub.ContractNo)
	require.NoError(t, err)
	require.NotNil(t, contract)
	assert.Equal(t, first.Disbursement.Transaction.TxnNo, contract.InitialTxnNo)

	_, err = h.svc.SendOtp(ctx, "C1", sub.ApplicationID)
	assert.ErrorIs(t, err, domain.ErrApplicationNotSignable)
}

func TestSign_ConcurrentLoserReplays(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedCustomer("C1", domain.CustomerActive)
	sub := h.submitApproved("C1", "k1")
	otp := h.sendOtp("C1", sub.ApplicationID)

	drafts := &racingDrafts{ContractDraftRepository: h.drafts}
	h.drafts = drafts
	h.build()

	cmd := application.SignCommand{
		CustomerID: "C1", ApplicationID: sub.ApplicationID,
		OtpToken: otp.OtpToken, OtpCode: testOtpCode, AgreeTerms: true, IdempotencyKey: "sign-1",
	}
	// 本请求通过验证码校验后，同键请求抢先完成签署与放款
	var winner *application.SignResult
	drafts.race = func() {
		res, err := h.svc.Sign(ctx, cmd)
		require.NoError(t, err)
		winner = res
	}

	loser, err := h.svc.Sign(ctx, cmd)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, mustJSON(t, winner), mustJSON(t, loser))

	assert.EqualValues(t, 1, h.txnCount("C1"))
	acc := h.account("C1")
	assert.Equal(t, "0.00", acc.AvailableLimit.StringFixed(2))
	assert.Equal(t, "50000.00", acc.PrincipalOutstanding.StringFixed(2))
	assert.Equal(t, []string{"LedgerTransactionPosted:INITIAL_DISBURSEMENT"}, h.events.types())
}

func TestSign_OtpLockout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedCustomer("C1", domain.CustomerActive)

	sub := h.submitApproved("C1", "k1")
	otp := h.sendOtp("C1", sub.ApplicationID)
	cmd := application.SignCommand{
		CustomerID: "C1", ApplicationID: sub.ApplicationID,
		OtpToken: otp.OtpToken, OtpCode: "000000", AgreeTerms: true, IdempotencyKey: "sign-1",
	}

	for i := 0; i < 5; i++ {
		_, err := h.svc.Sign(ctx, cmd)
		require.ErrorIs(t, err, domain.ErrOtpCodeMismatch)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	}

	cmd.OtpCode = testOtpCode
	_, err := h.svc.Sign(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrOtpAttemptsExceeded)

	view, err := h.svc.GetCurrent(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusApprovedPendingSign), view.Status)
	assert.Zero(t, h.txnCount("C1"))

	// 新验证码可以继续签署
	fresh := h.sendOtp("C1", sub.ApplicationID)
	cmd.OtpToken = fresh.OtpToken
	res, err := h.svc.Sign(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusDisbursed), res.Status)
}

func TestSign_Guards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedCustomer("C1", domain.CustomerActive)
	sub := h.submitApproved("C1", "k1")
	otp := h.sendOtp("C1", sub.ApplicationID)

	base := application.SignCommand{
		CustomerID: "C1", ApplicationID: sub.ApplicationID,
		OtpToken: otp.OtpToken, OtpCode: testOtpCode, AgreeTerms: true, IdempotencyKey: "sign-1",
	}

	cmd := base
	cmd.AgreeTerms = false
	_, err := h.svc.Sign(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrTermsNotAccepted)

	cmd = base
	cmd.IdempotencyKey = ""
	_, err = h.svc.Sign(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrIdempotencyKeyRequired)

	cmd = base
	cmd.OtpToken = "unknown"
	_, err = h.svc.Sign(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrOtpNotFound)

	h.now = h.now.Add(6 * time.Minute)
	_, err = h.svc.Sign(ctx, base)
	assert.ErrorIs(t, err, domain.ErrOtpExpired)

	h.now = h.now.Add(14 * 24 * time.Hour)
	_, err = h.svc.Sign(ctx, base)
	assert.ErrorIs(t, err, domain.ErrApplicationExpired)
}

func TestSign_KeyReusedForOtherOperation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.disburse("C9", "1000")
	_, err := h.ledger.Repay(ctx, application.RepayCommand{CustomerID: "C9", Amount: d("10"), IdempotencyKey: "shared"})
	require.NoError(t, err)

	_, err = h.svc.Sign(ctx, application.SignCommand{
		CustomerID: "C9", ApplicationID: 1, OtpToken: "x", OtpCode: "x", AgreeTerms: true, IdempotencyKey: "shared",
	})
	assert.ErrorIs(t, err, domain.ErrIdempotencyKeyReused)
}

func TestListApplications(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedCustomer("C1", domain.CustomerActive)
	h.seedCustomer("C2", domain.CustomerActive)

	h.submitApproved("C1", "k1")
	h.expectRisk("C2", reject())
	_, err := h.svc.Submit(ctx, application.SubmitCommand{CustomerID: "C2", Applicant: applicant(), IdempotencyKey: "k1"})
	require.NoError(t, err)

	page, err := h.svc.ListApplications(ctx, domain.ApplicationFilter{}, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PageSize)

	page, err = h.svc.ListApplications(ctx, domain.ApplicationFilter{Status: domain.StatusRejected}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "C2", page.Items[0].CustomerID)

	detail, err := h.svc.GetApplication(ctx, page.Items[0].ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRejected), detail.Status)

	_, err = h.svc.GetApplication(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrApplicationNotFound)

	assert.Equal(t, domain.Occupations, h.svc.Occupations())
}
