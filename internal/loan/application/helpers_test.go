package application_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wyfcoding/creditline/internal/loan/application"
	"github.com/wyfcoding/creditline/internal/loan/domain"
	"github.com/wyfcoding/creditline/internal/loan/domain/mocks"
	"github.com/wyfcoding/creditline/internal/loan/infrastructure/persistence/mysql"
	"github.com/wyfcoding/creditline/pkg/config"
	"github.com/wyfcoding/creditline/pkg/db"
	"github.com/wyfcoding/creditline/pkg/idgen"
)

const testOtpCode = "123456"

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type harness struct {
	t    *testing.T
	db   *db.DB
	ctrl *gomock.Controller
	now  time.Time

	customers domain.CustomerRepository
	apps      domain.ApplicationRepository
	drafts    domain.ContractDraftRepository
	contracts domain.LoanContractRepository
	otps      domain.OtpRepository
	accounts  domain.AccountRepository
	txns      domain.TransactionRepository
	cache     *memoryCache
	events    *recordingPublisher
	risk      *mocks.MockRiskGateway
	sender    *mocks.MockOtpSender

	ids    *idgen.Generator
	ledger *application.LedgerService
	svc    *application.ApplicationService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gdb, err := db.Open(db.Config{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "loan.db"),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = gdb.Close() })
	require.NoError(t, gdb.AutoMigrate(mysql.Models()...))

	ctrl := gomock.NewController(t)
	h := &harness{
		t:         t,
		db:        gdb,
		ctrl:      ctrl,
		now:       time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		customers: mysql.NewCustomerRepository(gdb.DB),
		apps:      mysql.NewApplicationRepository(gdb.DB),
		drafts:    mysql.NewContractDraftRepository(gdb.DB),
		contracts: mysql.NewLoanContractRepository(gdb.DB),
		otps:      mysql.NewOtpRepository(gdb.DB),
		accounts:  mysql.NewAccountRepository(gdb.DB),
		txns:      mysql.NewTransactionRepository(gdb.DB),
		cache:     newMemoryCache(),
		events:    &recordingPublisher{},
		risk:      mocks.NewMockRiskGateway(ctrl),
		sender:    mocks.NewMockOtpSender(ctrl),
	}
	ids, err := idgen.New(1)
	require.NoError(t, err)
	h.ids = ids
	h.build()
	return h
}

// build 按当前仓储重建服务，测试替换仓储装饰器后调用
func (h *harness) build() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return h.now }

	h.ledger = application.NewLedgerService(application.LedgerDeps{
		Tx:        h.db,
		Accounts:  h.accounts,
		Txns:      h.txns,
		Contracts: h.contracts,
		Customers: h.customers,
		Cache:     h.cache,
		Publisher: h.events,
		IDs:       h.ids,
		Logger:    logger,
		Clock:     clock,
	})
	h.svc = application.NewApplicationService(application.ApplicationDeps{
		Tx:        h.db,
		Customers: h.customers,
		Apps:      h.apps,
		Drafts:    h.drafts,
		Contracts: h.contracts,
		Otps:      h.otps,
		Accounts:  h.accounts,
		Txns:      h.txns,
		Risk:      h.risk,
		OtpSender: h.sender,
		Ledger:    h.ledger,
		IDs:       h.ids,
		Config: config.LoanConfig{
			ContractExpiry: 14 * 24 * time.Hour,
			RejectCooldown: 24 * time.Hour,
			OtpTTL:         5 * time.Minute,
			OtpMaxAttempts: 5,
			OtpResendAfter: 60 * time.Second,
			OtpHashCost:    bcrypt.MinCost,
			FixedOtpCode:   testOtpCode,
		},
		Logger: logger,
		Clock:  clock,
	})
}

func (h *harness) seedCustomer(id string, status domain.CustomerStatus) {
	h.t.Helper()
	require.NoError(h.t, h.customers.Save(context.Background(), &domain.Customer{
		ID:       id,
		Email:    id + "@example.com",
		FullName: "Customer " + id,
		Status:   status,
	}))
}

func applicant() domain.ApplicantProfile {
	return domain.ApplicantProfile{
		FullName:           "Chan Tai Man",
		NationalID:         "a123456(7)",
		HomeAddress:        "1 Queen's Road, Hong Kong",
		Age:                32,
		Occupation:         "engineer",
		MonthlyIncome:      d("30000"),
		MonthlyDebtPayment: d("3000"),
	}
}

func approve(amount string) *domain.RiskDecision {
	return &domain.RiskDecision{Approved: true, Decision: "APPROVED", ReferenceID: "RISK-OK", ApprovedAmount: d(amount)}
}

func reject() *domain.RiskDecision {
	return &domain.RiskDecision{Decision: "REJECTED", ReferenceID: "RISK-NO", Reason: "debt-to-income ratio too high"}
}

func (h *harness) expectRisk(customerID string, decision *domain.RiskDecision) {
	h.risk.EXPECT().Evaluate(gomock.Any(), customerID, gomock.Any()).Return(decision, nil).Times(1)
}

func (h *harness) submitApproved(customerID, key string) *application.SubmitResult {
	h.t.Helper()
	h.expectRisk(customerID, approve("50000"))
	res, err := h.svc.Submit(context.Background(), application.SubmitCommand{
		CustomerID: customerID, Applicant: applicant(), IdempotencyKey: key,
	})
	require.NoError(h.t, err)
	return res
}

func (h *harness) sendOtp(customerID string, appID uint) *application.OtpResult {
	h.t.Helper()
	h.sender.EXPECT().SendOtp(gomock.Any(), customerID, testOtpCode).Return(nil).Times(1)
	res, err := h.svc.SendOtp(context.Background(), customerID, appID)
	require.NoError(h.t, err)
	return res
}

// onboard 完成提交、签署与首笔放款，返回签署结果
func (h *harness) onboard(customerID string) *application.SignResult {
	h.t.Helper()
	h.seedCustomer(customerID, domain.CustomerActive)
	sub := h.submitApproved(customerID, "submit-"+customerID)
	otp := h.sendOtp(customerID, sub.ApplicationID)
	res, err := h.svc.Sign(context.Background(), application.SignCommand{
		CustomerID:     customerID,
		ApplicationID:  sub.ApplicationID,
		OtpToken:       otp.OtpToken,
		OtpCode:        testOtpCode,
		AgreeTerms:     true,
		IdempotencyKey: "sign-" + customerID,
	})
	require.NoError(h.t, err)
	return res
}

// disburse 直接开户放款，跳过申请流程
func (h *harness) disburse(customerID, amount string) *application.PostingResult {
	h.t.Helper()
	h.seedCustomer(customerID, domain.CustomerActive)
	res, err := h.ledger.DisburseInitial(context.Background(), application.DisburseCommand{
		CustomerID:     customerID,
		ContractNo:     "CT-" + customerID,
		Amount:         d(amount),
		IdempotencyKey: "disburse-" + customerID,
	})
	require.NoError(h.t, err)
	return res
}

// seedInterest 直接写入应收利息，模拟计息
func (h *harness) seedInterest(customerID, interest string) {
	h.t.Helper()
	ctx := context.Background()
	acc, err := h.accounts.GetByCustomer(ctx, customerID)
	require.NoError(h.t, err)
	acc.InterestOutstanding = d(interest)
	rows, err := h.accounts.UpdateWithVersion(ctx, acc)
	require.NoError(h.t, err)
	require.EqualValues(h.t, 1, rows)
	require.NoError(h.t, h.cache.Delete(ctx, customerID))
}

func (h *harness) account(customerID string) *domain.Account {
	h.t.Helper()
	acc, err := h.accounts.GetByCustomer(context.Background(), customerID)
	require.NoError(h.t, err)
	require.NotNil(h.t, acc)
	require.NoError(h.t, acc.CheckInvariant())
	return acc
}

func (h *harness) txnCount(customerID string) int64 {
	h.t.Helper()
	_, total, err := h.txns.List(context.Background(), domain.TransactionFilter{CustomerID: customerID}, 0, 1)
	require.NoError(h.t, err)
	return total
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.LedgerEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event *domain.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType + ":" + string(e.TxnType)
	}
	return out
}

type memoryCache struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	deletes  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{accounts: make(map[string]domain.Account)}
}

func (c *memoryCache) Save(_ context.Context, account *domain.Account) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[account.CustomerID] = *account
	return nil
}

func (c *memoryCache) Get(_ context.Context, customerID string) (*domain.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	acc, ok := c.accounts[customerID]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

func (c *memoryCache) Delete(_ context.Context, customerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.accounts, customerID)
	c.deletes++
	return nil
}

func (c *memoryCache) has(customerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.accounts[customerID]
	return ok
}

// countingApps 统计实际生效的状态迁移次数
type countingApps struct {
	domain.ApplicationRepository
	mu          sync.Mutex
	transitions map[domain.ApplicationStatus]int
}

func (r *countingApps) Transition(ctx context.Context, app *domain.Application, from domain.ApplicationStatus) (int64, error) {
	rows, err := r.ApplicationRepository.Transition(ctx, app, from)
	if err == nil && rows > 0 {
		r.mu.Lock()
		if r.transitions == nil {
			r.transitions = make(map[domain.ApplicationStatus]int)
		}
		r.transitions[app.Status]++
		r.mu.Unlock()
	}
	return rows, err
}

// staleAccounts 下一次读取返回预先捕获的旧快照，模拟两个请求读到同一版本
type staleAccounts struct {
	domain.AccountRepository
	mu    sync.Mutex
	stale *domain.Account
}

func (r *staleAccounts) GetByCustomer(ctx context.Context, customerID string) (*domain.Account, error) {
	r.mu.Lock()
	stale := r.stale
	r.stale = nil
	r.mu.Unlock()
	if stale != nil && stale.CustomerID == customerID {
		cp := *stale
		return &cp, nil
	}
	return r.AccountRepository.GetByCustomer(ctx, customerID)
}

// missingOnceTxns 对指定幂等键的下一次查询返回未命中，使请求越过前置重放直达唯一索引
type missingOnceTxns struct {
	domain.TransactionRepository
	mu   sync.Mutex
	miss string
}

func (r *missingOnceTxns) arm(key string) {
	r.mu.Lock()
	r.miss = key
	r.mu.Unlock()
}

func (r *missingOnceTxns) GetByIdempotencyKey(ctx context.Context, customerID, key string) (*domain.LedgerTransaction, error) {
	r.mu.Lock()
	hit := r.miss != "" && r.miss == key
	if hit {
		r.miss = ""
	}
	r.mu.Unlock()
	if hit {
		return nil, nil
	}
	return r.TransactionRepository.GetByIdempotencyKey(ctx, customerID, key)
}

// racingDrafts 在下一次读取合同草稿前插入一次竞争请求
type racingDrafts struct {
	domain.ContractDraftRepository
	mu   sync.Mutex
	race func()
}

func (r *racingDrafts) GetByApplicationID(ctx context.Context, applicationID uint) (*domain.ContractDraft, error) {
	r.mu.Lock()
	race := r.race
	r.race = nil
	r.mu.Unlock()
	if race != nil {
		race()
	}
	return r.ContractDraftRepository.GetByApplicationID(ctx, applicationID)
}

// racingAccounts 下一次读取先取得当前行，再插入一次竞争请求，最后返回读到的旧行
type racingAccounts struct {
	domain.AccountRepository
	mu   sync.Mutex
	race func()
}

func (r *racingAccounts) GetByCustomer(ctx context.Context, customerID string) (*domain.Account, error) {
	r.mu.Lock()
	race := r.race
	r.race = nil
	r.mu.Unlock()
	acc, err := r.AccountRepository.GetByCustomer(ctx, customerID)
	if err == nil && race != nil {
		race()
	}
	return acc, err
}
