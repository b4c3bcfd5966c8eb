package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wyfcoding/creditline/internal/loan/domain"
	"github.com/wyfcoding/creditline/pkg/config"
	"github.com/wyfcoding/creditline/pkg/logger"
	"github.com/wyfcoding/creditline/pkg/metrics"
	"github.com/wyfcoding/creditline/pkg/utils"
)

// SubmitCommand 提交贷款申请
type SubmitCommand struct {
	CustomerID     string
	Applicant      domain.ApplicantProfile
	IdempotencyKey string
}

// SignCommand 验证码签署合同
type SignCommand struct {
	CustomerID     string
	ApplicationID  uint
	OtpToken       string
	OtpCode        string
	AgreeTerms     bool
	IdempotencyKey string
}

// ApplicationDeps 申请编排依赖；Eligibility 为空时按客户状态判定
type ApplicationDeps struct {
	Tx          domain.TxManager
	Customers   domain.CustomerRepository
	Apps        domain.ApplicationRepository
	Drafts      domain.ContractDraftRepository
	Contracts   domain.LoanContractRepository
	Otps        domain.OtpRepository
	Accounts    domain.AccountRepository
	Txns        domain.TransactionRepository
	Risk        domain.RiskGateway
	OtpSender   domain.OtpSender
	Eligibility domain.EligibilityPolicy
	Ledger      *LedgerService
	IDs         IDGenerator
	Config      config.LoanConfig
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	Clock       Clock
}

// ApplicationService 贷款申请状态机编排：提交、风控、验证码、签署、放款
type ApplicationService struct {
	tx          domain.TxManager
	customers   domain.CustomerRepository
	apps        domain.ApplicationRepository
	drafts      domain.ContractDraftRepository
	contracts   domain.LoanContractRepository
	otps        domain.OtpRepository
	accounts    domain.AccountRepository
	txns        domain.TransactionRepository
	risk        domain.RiskGateway
	otpSender   domain.OtpSender
	eligibility domain.EligibilityPolicy
	ledger      *LedgerService
	ids         IDGenerator
	cfg         config.LoanConfig
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         Clock
}

// NewApplicationService 创建申请编排服务
func NewApplicationService(deps ApplicationDeps) *ApplicationService {
	s := &ApplicationService{
		tx:          deps.Tx,
		customers:   deps.Customers,
		apps:        deps.Apps,
		drafts:      deps.Drafts,
		contracts:   deps.Contracts,
		otps:        deps.Otps,
		accounts:    deps.Accounts,
		txns:        deps.Txns,
		risk:        deps.Risk,
		otpSender:   deps.OtpSender,
		eligibility: deps.Eligibility,
		ledger:      deps.Ledger,
		ids:         deps.IDs,
		cfg:         deps.Config,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		now:         deps.Clock,
	}
	if s.eligibility == nil {
		s.eligibility = domain.ActiveCustomerPolicy{}
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.With("module", "loan_application")
	if s.now == nil {
		s.now = SystemClock
	}
	return s
}

func (s *ApplicationService) log(ctx context.Context) *slog.Logger {
	return logger.Attach(ctx, s.logger)
}

// Submit 提交申请并同步获取风控结果；同一幂等键重复提交返回首次结果
func (s *ApplicationService) Submit(ctx context.Context, cmd SubmitCommand) (*SubmitResult, error) {
	if err := requireKey(cmd.IdempotencyKey); err != nil {
		return nil, err
	}
	customer, err := s.customers.Get(ctx, cmd.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if err := s.eligibility.Check(ctx, customer); err != nil {
		return nil, err
	}

	if res, err := s.replaySubmit(ctx, cmd.CustomerID, cmd.IdempotencyKey); err != nil || res != nil {
		return res, err
	}

	applicant, err := cmd.Applicant.Normalize()
	if err != nil {
		return nil, err
	}

	acc, err := s.accounts.GetByCustomer(ctx, cmd.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if acc != nil {
		return nil, domain.ErrAccountExists
	}

	now := s.now()
	latest, err := s.apps.GetLatestByCustomer(ctx, cmd.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest application: %w", err)
	}
	if latest, err = s.normalizeExpiry(ctx, latest, now); err != nil {
		return nil, err
	}
	if err := latest.CheckResubmission(now); err != nil {
		return nil, err
	}

	decision, err := s.risk.Evaluate(ctx, cmd.CustomerID, applicant)
	if err != nil {
		s.log(ctx).Error("risk evaluation failed", "customer_id", cmd.CustomerID, "error", err)
		return nil, fmt.Errorf("risk evaluation failed: %w", err)
	}

	app := &domain.Application{
		ApplicationNo:  s.ids.Next(prefixApplication),
		CustomerID:     cmd.CustomerID,
		Status:         domain.StatusSubmitted,
		ProductCode:    domain.ProductCode,
		Applicant:      applicant,
		IdempotencyKey: cmd.IdempotencyKey,
	}
	app.Decide(decision, now, s.cfg.ContractExpiry, s.cfg.RejectCooldown)

	err = s.tx.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.apps.Create(txCtx, app); err != nil {
			return err
		}
		if app.ID == 0 {
			stored, err := s.apps.GetByIdempotencyKey(txCtx, app.CustomerID, app.IdempotencyKey)
			if err != nil {
				return err
			}
			if stored == nil {
				return domain.FatalStatef("application %s has no identity after insert", app.ApplicationNo)
			}
			app.ID = stored.ID
		}
		if app.Status != domain.StatusApprovedPendingSign {
			return nil
		}
		return s.drafts.Create(txCtx, domain.NewContractDraft(app, s.ids.Next(prefixContract)))
	})
	if err != nil {
		if isDuplicate(err) {
			if res, rerr := s.replaySubmit(ctx, cmd.CustomerID, cmd.IdempotencyKey); rerr != nil || res != nil {
				return res, rerr
			}
			return nil, domain.ErrConcurrentModification
		}
		s.log(ctx).Error("failed to persist application", "customer_id", cmd.CustomerID, "error", err)
		return nil, err
	}

	s.metrics.RecordDecision(decision.Decision)
	s.log(ctx).Info("application decided", "customer_id", cmd.CustomerID, "application_no", app.ApplicationNo,
		"status", app.Status, "approved_amount", app.ApprovedAmount.StringFixed(2))

	res, err := s.replaySubmit(ctx, cmd.CustomerID, cmd.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.FatalStatef("application %s vanished after commit", app.ApplicationNo)
	}
	return res, nil
}

// replaySubmit 按幂等键读取已落库的申请构造结果，未找到返回 (nil, nil)
func (s *ApplicationService) replaySubmit(ctx context.Context, customerID, key string) (*SubmitResult, error) {
	app, err := s.apps.GetByIdempotencyKey(ctx, customerID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if app == nil {
		return nil, nil
	}
	draft, err := s.drafts.GetByApplicationID(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract draft: %w", err)
	}
	return submitResultOf(app, draft), nil
}

// GetCurrent 返回客户最新申请；待签申请已过期时在读取中落定为 EXPIRED
func (s *ApplicationService) GetCurrent(ctx context.Context, customerID string) (*ApplicationView, error) {
	app, err := s.apps.GetLatestByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest application: %w", err)
	}
	if app, err = s.normalizeExpiry(ctx, app, s.now()); err != nil {
		return nil, err
	}
	return s.viewOf(ctx, customerID, app)
}

// SendOtp 为待签申请签发验证码
func (s *ApplicationService) SendOtp(ctx context.Context, customerID string, applicationID uint) (*OtpResult, error) {
	now := s.now()
	app, err := s.loadSignable(ctx, customerID, applicationID, now)
	if err != nil {
		return nil, err
	}

	code := s.cfg.FixedOtpCode
	if code == "" {
		if code, err = domain.RandomOtpCode(); err != nil {
			return nil, fmt.Errorf("failed to generate otp: %w", err)
		}
	}
	otp, err := domain.IssueOtp(app, code, now, s.cfg.OtpTTL, s.cfg.OtpHashCost)
	if err != nil {
		return nil, err
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return nil, fmt.Errorf("failed to save otp: %w", err)
	}
	if err := s.otpSender.SendOtp(ctx, customerID, code); err != nil {
		s.log(ctx).Error("otp delivery failed", "customer_id", customerID, "application_id", app.ID, "error", err)
		return nil, fmt.Errorf("otp delivery failed: %w", err)
	}

	s.metrics.RecordOtp("issued")
	s.log(ctx).Info("otp issued", "customer_id", customerID, "application_id", app.ID)
	return &OtpResult{
		OtpToken:           otp.Token,
		ExpiresAt:          formatTime(otp.ExpiresAt),
		ResendAfterSeconds: int(s.cfg.OtpResendAfter.Seconds()),
	}, nil
}

// Sign 校验验证码后在同一事务内签署合同并完成首笔放款
func (s *ApplicationService) Sign(ctx context.Context, cmd SignCommand) (*SignResult, error) {
	if err := requireKey(cmd.IdempotencyKey); err != nil {
		return nil, err
	}
	if !cmd.AgreeTerms {
		return nil, domain.ErrTermsNotAccepted
	}
	if res, err := s.replaySign(ctx, cmd.CustomerID, cmd.IdempotencyKey); err != nil || res != nil {
		return res, err
	}

	now := s.now()
	app, err := s.loadSignable(ctx, cmd.CustomerID, cmd.ApplicationID, now)
	if err != nil {
		return nil, err
	}

	otp, err := s.otps.GetByToken(ctx, cmd.OtpToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load otp: %w", err)
	}
	if err := otp.CheckUsable(app.ID, now, s.cfg.OtpMaxAttempts); err != nil {
		s.metrics.RecordOtp("rejected")
		return nil, err
	}
	if !otp.Matches(cmd.OtpCode) {
		if _, err := s.otps.IncrementAttempts(ctx, otp.ID); err != nil {
			return nil, fmt.Errorf("failed to record otp attempt: %w", err)
		}
		s.metrics.RecordOtp("mismatch")
		s.log(ctx).Warn("otp mismatch", "customer_id", cmd.CustomerID, "application_id", app.ID, "attempts", otp.Attempts+1)
		return nil, domain.ErrOtpCodeMismatch
	}

	draft, err := s.drafts.GetByApplicationID(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract draft: %w", err)
	}
	if draft == nil {
		return nil, domain.ErrContractNotFound.Withf("application %s has no contract draft", app.ApplicationNo)
	}

	err = s.tx.Transaction(ctx, func(txCtx context.Context) error {
		rows, err := s.otps.MarkVerified(txCtx, otp.ID, s.cfg.OtpMaxAttempts, now)
		if err != nil {
			return err
		}
		if rows != 1 {
			return domain.ErrOtpAlreadyVerified
		}

		if rows, err = s.drafts.MarkSigned(txCtx, draft.ID, now); err != nil {
			return err
		}
		if rows != 1 {
			return domain.FatalStatef("contract %s is no longer a draft", draft.ContractNo)
		}

		app.Status = domain.StatusSigned
		app.SignedAt = &now
		if rows, err = s.apps.Transition(txCtx, app, domain.StatusApprovedPendingSign); err != nil {
			return err
		}
		if rows != 1 {
			return domain.ErrApplicationNotSignable.Withf("application %s changed state during signing", app.ApplicationNo)
		}

		if _, err := s.ledger.DisburseInitial(txCtx, DisburseCommand{
			CustomerID:     app.CustomerID,
			ApplicationID:  app.ID,
			ContractNo:     draft.ContractNo,
			Amount:         app.ApprovedAmount,
			IdempotencyKey: cmd.IdempotencyKey,
		}); err != nil {
			return err
		}

		app.Status = domain.StatusDisbursed
		app.DisbursedAt = &now
		if rows, err = s.apps.Transition(txCtx, app, domain.StatusSigned); err != nil {
			return err
		}
		if rows != 1 {
			return domain.FatalStatef("application %s left SIGNED before disbursement completed", app.ApplicationNo)
		}
		return nil
	})
	if err != nil {
		// 同键签署并发时，落败方在验证码、合同或唯一键条件上失败，以已提交的结果为准
		if res, rerr := s.replaySign(ctx, cmd.CustomerID, cmd.IdempotencyKey); rerr == nil && res != nil {
			return res, nil
		}
		if isDuplicate(err) {
			return nil, domain.ErrConcurrentModification
		}
		s.log(ctx).Error("signing failed", "customer_id", cmd.CustomerID, "application_id", app.ID, "error", err)
		return nil, err
	}

	s.metrics.RecordOtp("verified")
	s.log(ctx).Info("contract signed and disbursed", "customer_id", cmd.CustomerID,
		"application_no", app.ApplicationNo, "contract_no", draft.ContractNo)

	res, err := s.replaySign(ctx, cmd.CustomerID, cmd.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.FatalStatef("disbursement for application %s vanished after commit", app.ApplicationNo)
	}
	return res, nil
}

// replaySign 以首笔放款流水为幂等记录重建签署结果
func (s *ApplicationService) replaySign(ctx context.Context, customerID, key string) (*SignResult, error) {
	txn, err := s.txns.GetByIdempotencyKey(ctx, customerID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if txn == nil {
		return nil, nil
	}
	if txn.Type != domain.TxnInitialDisbursement {
		return nil, domain.ErrIdempotencyKeyReused.Withf("idempotency key %s was used for %s", key, txn.Type)
	}
	contract, err := s.contracts.GetByContractNo(ctx, txn.ContractNo)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if contract == nil {
		return nil, domain.FatalStatef("disbursement %s has no contract record", txn.TxnNo)
	}
	app, err := s.apps.Get(ctx, contract.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	if app == nil {
		return nil, domain.FatalStatef("contract %s has no application", contract.ContractNo)
	}
	return &SignResult{
		ApplicationID: app.ID,
		ApplicationNo: app.ApplicationNo,
		Status:        string(app.Status),
		ContractNo:    contract.ContractNo,
		Disbursement:  postingResultOf(txn),
	}, nil
}

// Occupations 可选职业列表
func (s *ApplicationService) Occupations() []string {
	out := make([]string, len(domain.Occupations))
	copy(out, domain.Occupations)
	return out
}

// ContractPreview 返回申请的合同正文与摘要
func (s *ApplicationService) ContractPreview(ctx context.Context, customerID string, applicationID uint) (*ContractView, error) {
	app, err := s.loadOwned(ctx, customerID, applicationID)
	if err != nil {
		return nil, err
	}
	draft, err := s.drafts.GetByApplicationID(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract draft: %w", err)
	}
	if draft == nil {
		return nil, domain.ErrContractNotFound.Withf("application %s has no contract draft", app.ApplicationNo)
	}
	return contractViewOf(draft, true), nil
}

// ListApplications 后台申请分页查询
func (s *ApplicationService) ListApplications(ctx context.Context, filter domain.ApplicationFilter, page, pageSize int) (*Page[*ApplicationView], error) {
	p := utils.NewPagination(page, pageSize, 0)
	apps, total, err := s.apps.List(ctx, filter, p.Offset(), p.Limit())
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	items := make([]*ApplicationView, len(apps))
	for i, app := range apps {
		items[i] = applicationViewOf(app.CustomerID, app, nil)
	}
	return &Page[*ApplicationView]{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

// GetApplication 后台申请详情
func (s *ApplicationService) GetApplication(ctx context.Context, applicationID uint) (*ApplicationView, error) {
	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	if app == nil {
		return nil, domain.ErrApplicationNotFound
	}
	return s.viewOf(ctx, app.CustomerID, app)
}

func (s *ApplicationService) viewOf(ctx context.Context, customerID string, app *domain.Application) (*ApplicationView, error) {
	if app == nil {
		return applicationViewOf(customerID, nil, nil), nil
	}
	draft, err := s.drafts.GetByApplicationID(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract draft: %w", err)
	}
	return applicationViewOf(customerID, app, draft), nil
}

func (s *ApplicationService) loadOwned(ctx context.Context, customerID string, applicationID uint) (*domain.Application, error) {
	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	if app == nil || app.CustomerID != customerID {
		return nil, domain.ErrApplicationNotFound
	}
	return app, nil
}

// loadSignable 读取申请并落定过期，要求处于待签状态
func (s *ApplicationService) loadSignable(ctx context.Context, customerID string, applicationID uint, now time.Time) (*domain.Application, error) {
	app, err := s.loadOwned(ctx, customerID, applicationID)
	if err != nil {
		return nil, err
	}
	if app, err = s.normalizeExpiry(ctx, app, now); err != nil {
		return nil, err
	}
	switch app.Status {
	case domain.StatusApprovedPendingSign:
		return app, nil
	case domain.StatusExpired:
		return nil, domain.ErrApplicationExpired
	default:
		return nil, domain.ErrApplicationNotSignable.Withf("application %s is %s", app.ApplicationNo, app.Status)
	}
}

// normalizeExpiry 惰性过期：待签申请超过有效期时落定为 EXPIRED，条件更新保证只写一次
func (s *ApplicationService) normalizeExpiry(ctx context.Context, app *domain.Application, now time.Time) (*domain.Application, error) {
	if app == nil || !app.IsExpiredAt(now) {
		return app, nil
	}
	expired := *app
	expired.Status = domain.StatusExpired
	rows, err := s.apps.Transition(ctx, &expired, domain.StatusApprovedPendingSign)
	if err != nil {
		return nil, fmt.Errorf("failed to expire application: %w", err)
	}
	if rows == 0 {
		// 并发请求已完成迁移，以库中状态为准
		current, err := s.apps.Get(ctx, app.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload application: %w", err)
		}
		if current == nil {
			return nil, domain.ErrApplicationNotFound
		}
		return current, nil
	}
	s.log(ctx).Info("application expired", "customer_id", app.CustomerID, "application_no", app.ApplicationNo)
	return &expired, nil
}
