package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/creditline/internal/loan/domain"
	"github.com/wyfcoding/creditline/pkg/logger"
	"github.com/wyfcoding/creditline/pkg/metrics"
	"github.com/wyfcoding/creditline/pkg/utils"
)

// DisburseCommand 首笔放款
type DisburseCommand struct {
	CustomerID     string
	ApplicationID  uint
	ContractNo     string
	Amount         decimal.Decimal
	IdempotencyKey string
}

// RepayCommand 还款；ContractNo 为空时取客户最新合同
type RepayCommand struct {
	CustomerID     string
	Amount         decimal.Decimal
	IdempotencyKey string
	ContractNo     string
	Source         domain.TransactionSource
	Note           string
	Operator       string
}

// RedrawCommand 再支用
type RedrawCommand struct {
	CustomerID     string
	Amount         decimal.Decimal
	IdempotencyKey string
	ContractNo     string
	Source         domain.TransactionSource
	Note           string
	Operator       string
}

// ReverseCommand 冲正
type ReverseCommand struct {
	TxnNo    string
	Note     string
	Operator string
}

// ManualPostingCommand 后台人工入账
type ManualPostingCommand struct {
	CustomerEmail  string
	Type           domain.TransactionType
	Amount         decimal.Decimal
	ContractNo     string
	IdempotencyKey string
	Note           string
	Operator       string
}

// LedgerDeps 账务服务依赖；Cache、Publisher、Metrics 可为空
type LedgerDeps struct {
	Tx        domain.TxManager
	Accounts  domain.AccountRepository
	Txns      domain.TransactionRepository
	Contracts domain.LoanContractRepository
	Customers domain.CustomerRepository
	Cache     domain.AccountReadRepository
	Publisher domain.EventPublisher
	Allocator domain.AllocationEngine
	IDs       IDGenerator
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Clock     Clock
}

// LedgerService 额度账户与流水的唯一写入口
type LedgerService struct {
	tx        domain.TxManager
	accounts  domain.AccountRepository
	txns      domain.TransactionRepository
	contracts domain.LoanContractRepository
	customers domain.CustomerRepository
	cache     domain.AccountReadRepository
	publisher domain.EventPublisher
	allocator domain.AllocationEngine
	ids       IDGenerator
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       Clock
}

// NewLedgerService 创建账务服务
func NewLedgerService(deps LedgerDeps) *LedgerService {
	s := &LedgerService{
		tx:        deps.Tx,
		accounts:  deps.Accounts,
		txns:      deps.Txns,
		contracts: deps.Contracts,
		customers: deps.Customers,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		allocator: deps.Allocator,
		ids:       deps.IDs,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       deps.Clock,
	}
	if s.allocator == nil {
		s.allocator = domain.WaterfallAllocator{}
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.With("module", "ledger")
	if s.now == nil {
		s.now = SystemClock
	}
	return s
}

func (s *LedgerService) log(ctx context.Context) *slog.Logger {
	return logger.Attach(ctx, s.logger)
}

// DisburseInitial 首笔放款：开户并写入放款流水与合同记录；在外层事务中调用时加入该事务
func (s *LedgerService) DisburseInitial(ctx context.Context, cmd DisburseCommand) (*PostingResult, error) {
	if err := requireKey(cmd.IdempotencyKey); err != nil {
		return nil, err
	}
	if err := validateAmount(cmd.Amount); err != nil {
		return nil, err
	}
	if cmd.ContractNo == "" {
		return nil, domain.Validationf("contract number is required")
	}

	return s.post(ctx, "disburse", cmd.CustomerID, cmd.IdempotencyKey, domain.TxnInitialDisbursement,
		func(txCtx context.Context) (*domain.LedgerTransaction, error) {
			existing, err := s.contracts.GetByContractNo(txCtx, cmd.ContractNo)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, domain.ErrContractExists.Withf("contract %s already exists", cmd.ContractNo)
			}
			acc, err := s.accounts.GetByCustomer(txCtx, cmd.CustomerID)
			if err != nil {
				return nil, err
			}
			if acc != nil {
				return nil, domain.ErrAccountExists
			}

			acc = domain.OpenAccount(cmd.CustomerID, cmd.Amount)
			if err := acc.CheckInvariant(); err != nil {
				return nil, err
			}
			if err := s.accounts.Create(txCtx, acc); err != nil {
				return nil, err
			}

			txn := &domain.LedgerTransaction{
				TxnNo:              s.ids.Next(prefixTransaction),
				CustomerID:         cmd.CustomerID,
				ContractNo:         cmd.ContractNo,
				Type:               domain.TxnInitialDisbursement,
				Status:             domain.TxnPosted,
				Source:             domain.SourceApp,
				Amount:             cmd.Amount,
				PrincipalComponent: cmd.Amount,
				InterestComponent:  decimal.Zero,
				IdempotencyKey:     cmd.IdempotencyKey,
			}
			txn.CaptureBalances(acc)
			if err := s.txns.Create(txCtx, txn); err != nil {
				return nil, err
			}

			contract := &domain.LoanContract{
				ContractNo:    cmd.ContractNo,
				CustomerID:    cmd.CustomerID,
				ApplicationID: cmd.ApplicationID,
				Amount:        cmd.Amount,
				Status:        domain.ContractStatusSigned,
				SignedAt:      s.now(),
				InitialTxnNo:  txn.TxnNo,
			}
			if err := s.contracts.Create(txCtx, contract); err != nil {
				return nil, err
			}
			return txn, nil
		})
}

// Repay 还款，先息后本；超出欠款的部分记为未分配
func (s *LedgerService) Repay(ctx context.Context, cmd RepayCommand) (*PostingResult, error) {
	if err := requireKey(cmd.IdempotencyKey); err != nil {
		return nil, err
	}
	if err := validateAmount(cmd.Amount); err != nil {
		return nil, err
	}
	source := sourceOrDefault(cmd.Source)

	return s.post(ctx, "repay", cmd.CustomerID, cmd.IdempotencyKey, domain.TxnRepayment,
		func(txCtx context.Context) (*domain.LedgerTransaction, error) {
			acc, err := s.loadAccount(txCtx, cmd.CustomerID)
			if err != nil {
				return nil, err
			}
			contract, err := s.resolveContract(txCtx, cmd.CustomerID, cmd.ContractNo)
			if err != nil {
				return nil, err
			}

			alloc, err := s.allocator.Allocate(cmd.Amount, acc.Snapshot())
			if err != nil {
				return nil, err
			}
			next, err := acc.AfterRepayment(alloc)
			if err != nil {
				return nil, err
			}
			if err := s.saveAccount(txCtx, next); err != nil {
				return nil, err
			}

			txn := &domain.LedgerTransaction{
				TxnNo:              s.ids.Next(prefixTransaction),
				CustomerID:         cmd.CustomerID,
				ContractNo:         contract.ContractNo,
				Type:               domain.TxnRepayment,
				Status:             domain.TxnPosted,
				Source:             source,
				Amount:             cmd.Amount,
				PrincipalComponent: alloc.PrincipalPaid,
				InterestComponent:  alloc.InterestPaid,
				IdempotencyKey:     cmd.IdempotencyKey,
				Note:               cmd.Note,
				CreatedBy:          cmd.Operator,
			}
			txn.CaptureBalances(next)
			if err := s.txns.Create(txCtx, txn); err != nil {
				return nil, err
			}

			if alloc.Unallocated.IsPositive() {
				s.log(txCtx).Warn("repayment exceeds outstanding balance",
					"customer_id", cmd.CustomerID, "txn_no", txn.TxnNo, "unallocated", alloc.Unallocated.StringFixed(2))
			}
			return txn, nil
		})
}

// Redraw 在可用额度内再支用
func (s *LedgerService) Redraw(ctx context.Context, cmd RedrawCommand) (*PostingResult, error) {
	if err := requireKey(cmd.IdempotencyKey); err != nil {
		return nil, err
	}
	if err := validateAmount(cmd.Amount); err != nil {
		return nil, err
	}
	source := sourceOrDefault(cmd.Source)

	return s.post(ctx, "redraw", cmd.CustomerID, cmd.IdempotencyKey, domain.TxnRedrawDisbursement,
		func(txCtx context.Context) (*domain.LedgerTransaction, error) {
			acc, err := s.loadAccount(txCtx, cmd.CustomerID)
			if err != nil {
				return nil, err
			}
			contract, err := s.resolveContract(txCtx, cmd.CustomerID, cmd.ContractNo)
			if err != nil {
				return nil, err
			}

			next, err := acc.AfterRedraw(cmd.Amount)
			if err != nil {
				return nil, err
			}
			if err := s.saveAccount(txCtx, next); err != nil {
				return nil, err
			}

			txn := &domain.LedgerTransaction{
				TxnNo:              s.ids.Next(prefixTransaction),
				CustomerID:         cmd.CustomerID,
				ContractNo:         contract.ContractNo,
				Type:               domain.TxnRedrawDisbursement,
				Status:             domain.TxnPosted,
				Source:             source,
				Amount:             cmd.Amount,
				PrincipalComponent: cmd.Amount,
				InterestComponent:  decimal.Zero,
				IdempotencyKey:     cmd.IdempotencyKey,
				Note:               cmd.Note,
				CreatedBy:          cmd.Operator,
			}
			txn.CaptureBalances(next)
			if err := s.txns.Create(txCtx, txn); err != nil {
				return nil, err
			}
			return txn, nil
		})
}

// Reverse 冲正还款或再支用；重复冲正返回冲突而非重放
func (s *LedgerService) Reverse(ctx context.Context, cmd ReverseCommand) (*PostingResult, error) {
	if cmd.TxnNo == "" {
		return nil, domain.Validationf("transaction number is required")
	}
	original, err := s.txns.GetByTxnNo(ctx, cmd.TxnNo)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if original == nil {
		return nil, domain.ErrTransactionNotFound.Withf("transaction %s not found", cmd.TxnNo)
	}
	if !original.Type.Reversible() {
		return nil, domain.ErrNotReversible.Withf("%s transactions cannot be reversed", original.Type)
	}
	if original.Status == domain.TxnReversed {
		return nil, domain.ErrAlreadyReversed.Withf("transaction %s has already been reversed", cmd.TxnNo)
	}

	note := cmd.Note
	if note == "" {
		note = "reversal of " + original.TxnNo
	}

	var reversalNo string
	err = s.tx.Transaction(ctx, func(txCtx context.Context) error {
		acc, err := s.loadAccount(txCtx, original.CustomerID)
		if err != nil {
			return err
		}

		var next *domain.Account
		switch original.Type {
		case domain.TxnRepayment:
			next, err = acc.AfterRepaymentReversal(original.PrincipalComponent, original.InterestComponent)
		case domain.TxnRedrawDisbursement:
			next, err = acc.AfterRedrawReversal(original.Amount)
		}
		if err != nil {
			return err
		}
		if err := s.saveAccount(txCtx, next); err != nil {
			return err
		}

		rev := domain.NewReversal(original)
		rev.TxnNo = s.ids.Next(prefixTransaction)
		rev.Source = domain.SourceAdmin
		rev.Note = note
		rev.CreatedBy = cmd.Operator
		rev.CaptureBalances(next)
		if err := s.txns.Create(txCtx, rev); err != nil {
			return err
		}

		rows, err := s.txns.MarkReversed(txCtx, original.ID)
		if err != nil {
			return err
		}
		if rows != 1 {
			return domain.FatalStatef("marking %s reversed affected %d rows", original.TxnNo, rows)
		}

		reversalNo = rev.TxnNo
		s.afterPosting(txCtx, rev)
		return nil
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, s.reversalConflict(ctx, original)
		}
		s.recordFailure(ctx, "reverse", original.CustomerID, err)
		return nil, err
	}

	stored, err := s.txns.GetByTxnNo(ctx, reversalNo)
	if err != nil {
		return nil, fmt.Errorf("failed to reload reversal: %w", err)
	}
	s.log(ctx).Info("transaction reversed", "txn_no", original.TxnNo, "reversal_txn_no", reversalNo,
		"customer_id", original.CustomerID, "operator", cmd.Operator)
	return postingResultOf(stored), nil
}

// reversalConflict 冲正写入撞唯一键时，只有占用键的确是本笔的冲正流水才视为已冲正
func (s *LedgerService) reversalConflict(ctx context.Context, original *domain.LedgerTransaction) error {
	key := domain.ReversalKeyPrefix + original.TxnNo
	holder, err := s.txns.GetByIdempotencyKey(ctx, original.CustomerID, key)
	if err != nil {
		return fmt.Errorf("failed to load reversal key holder: %w", err)
	}
	if holder != nil && holder.Type == domain.TxnReversal && holder.ReversalOfTxnNo == original.TxnNo {
		return domain.ErrAlreadyReversed.Withf("transaction %s has already been reversed", original.TxnNo)
	}
	if holder == nil {
		s.metrics.RecordConflict()
		return domain.ErrConcurrentModification
	}
	s.log(ctx).Error("reversal key held by another transaction",
		"txn_no", original.TxnNo, "holder_txn_no", holder.TxnNo, "holder_type", holder.Type)
	return domain.FatalStatef("reversal key of %s is held by %s transaction %s", original.TxnNo, holder.Type, holder.TxnNo)
}

// PostManual 后台人工入账，按邮箱定位客户，合同号必须为客户最新合同
func (s *LedgerService) PostManual(ctx context.Context, cmd ManualPostingCommand) (*PostingResult, error) {
	if cmd.Type != domain.TxnRepayment && cmd.Type != domain.TxnRedrawDisbursement {
		return nil, domain.ErrManualTypeUnsupported
	}
	customer, err := s.customers.GetByEmail(ctx, cmd.CustomerEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return nil, domain.ErrCustomerNotFound.Withf("no customer with email %s", cmd.CustomerEmail)
	}
	if customer.Status != domain.CustomerActive {
		return nil, domain.ErrCustomerNotEligible.Withf("customer %s is %s", customer.ID, customer.Status)
	}

	latest, err := s.contracts.GetLatestByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if latest == nil {
		return nil, domain.ErrContractNotFound
	}
	if latest.ContractNo != cmd.ContractNo {
		return nil, domain.ErrContractMismatch.Withf("contract %s is not the current contract of customer %s", cmd.ContractNo, customer.ID)
	}

	if cmd.Type == domain.TxnRepayment {
		return s.Repay(ctx, RepayCommand{
			CustomerID:     customer.ID,
			Amount:         cmd.Amount,
			IdempotencyKey: cmd.IdempotencyKey,
			ContractNo:     cmd.ContractNo,
			Source:         domain.SourceAdmin,
			Note:           cmd.Note,
			Operator:       cmd.Operator,
		})
	}
	return s.Redraw(ctx, RedrawCommand{
		CustomerID:     customer.ID,
		Amount:         cmd.Amount,
		IdempotencyKey: cmd.IdempotencyKey,
		ContractNo:     cmd.ContractNo,
		Source:         domain.SourceAdmin,
		Note:           cmd.Note,
		Operator:       cmd.Operator,
	})
}

// UpdateNote 仅修改流水备注
func (s *LedgerService) UpdateNote(ctx context.Context, txnNo, note string) (*TransactionView, error) {
	txn, err := s.txns.GetByTxnNo(ctx, txnNo)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if txn == nil {
		return nil, domain.ErrTransactionNotFound.Withf("transaction %s not found", txnNo)
	}
	rows, err := s.txns.UpdateNote(ctx, txnNo, note)
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	if rows != 1 {
		return nil, domain.FatalStatef("updating note of %s affected %d rows", txnNo, rows)
	}
	txn.Note = note
	return transactionViewOf(txn), nil
}

// GetAccountSummary 读穿透缓存；无账户时返回零值摘要
func (s *LedgerService) GetAccountSummary(ctx context.Context, customerID string) (*AccountSummary, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, customerID)
		if err != nil {
			s.log(ctx).Warn("account cache read failed", "customer_id", customerID, "error", err)
		} else if cached != nil {
			return summaryOf(customerID, true, cached.Snapshot()), nil
		}
	}

	acc, err := s.accounts.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if acc == nil {
		return summaryOf(customerID, false, domain.BalanceSnapshot{}), nil
	}
	s.refillCache(ctx, acc)
	return summaryOf(customerID, true, acc.Snapshot()), nil
}

// refillCache 回填后复核版本：读取与回填之间若有入账提交，撤销这次回填，
// 防止旧快照覆盖入账后的失效
func (s *LedgerService) refillCache(ctx context.Context, acc *domain.Account) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Save(ctx, acc); err != nil {
		s.log(ctx).Warn("account cache write failed", "customer_id", acc.CustomerID, "error", err)
		return
	}
	current, err := s.accounts.GetByCustomer(ctx, acc.CustomerID)
	if err == nil && current != nil && current.Version == acc.Version {
		return
	}
	if err := s.cache.Delete(ctx, acc.CustomerID); err != nil {
		s.log(ctx).Warn("account cache invalidation failed", "customer_id", acc.CustomerID, "error", err)
	}
}

// RecentTransactions 客户最近流水，按时间倒序
func (s *LedgerService) RecentTransactions(ctx context.Context, customerID string, limit int) ([]*TransactionView, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	txns, err := s.txns.ListRecent(ctx, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactionViewsOf(txns), nil
}

// ListTransactions 后台流水分页查询
func (s *LedgerService) ListTransactions(ctx context.Context, filter domain.TransactionFilter, page, pageSize int) (*Page[*TransactionView], error) {
	p := utils.NewPagination(page, pageSize, 0)
	txns, total, err := s.txns.List(ctx, filter, p.Offset(), p.Limit())
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return &Page[*TransactionView]{Items: transactionViewsOf(txns), Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

// GetTransaction 按流水号查询
func (s *LedgerService) GetTransaction(ctx context.Context, txnNo string) (*TransactionView, error) {
	txn, err := s.txns.GetByTxnNo(ctx, txnNo)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if txn == nil {
		return nil, domain.ErrTransactionNotFound.Withf("transaction %s not found", txnNo)
	}
	return transactionViewOf(txn), nil
}

// post 幂等入账骨架：先查重放，再在事务内执行 apply；唯一键冲突视为并发重放
func (s *LedgerService) post(ctx context.Context, op, customerID, key string, txnType domain.TransactionType,
	apply func(txCtx context.Context) (*domain.LedgerTransaction, error)) (*PostingResult, error) {
	if res, err := s.replay(ctx, op, customerID, key, txnType); err != nil || res != nil {
		return res, err
	}

	ownsTx := !s.tx.InTx(ctx)
	var txnNo string
	err := s.tx.Transaction(ctx, func(txCtx context.Context) error {
		txn, err := apply(txCtx)
		if err != nil {
			return err
		}
		txnNo = txn.TxnNo
		s.afterPosting(txCtx, txn)
		return nil
	})
	if err != nil {
		if !ownsTx {
			return nil, err
		}
		// 同键请求并发时，落败方撞唯一键或版本条件，以已提交的结果为准
		res, rerr := s.replay(ctx, op, customerID, key, txnType)
		if rerr != nil {
			return nil, rerr
		}
		if res != nil {
			return res, nil
		}
		if isDuplicate(err) {
			s.metrics.RecordConflict()
			return nil, domain.ErrConcurrentModification
		}
		s.recordFailure(ctx, op, customerID, err)
		return nil, err
	}

	stored, err := s.txns.GetByTxnNo(ctx, txnNo)
	if err != nil {
		return nil, fmt.Errorf("failed to reload transaction: %w", err)
	}
	s.log(ctx).Info("ledger posted", "op", op, "customer_id", customerID, "txn_no", txnNo,
		"amount", stored.Amount.StringFixed(2))
	return postingResultOf(stored), nil
}

func (s *LedgerService) replay(ctx context.Context, op, customerID, key string, txnType domain.TransactionType) (*PostingResult, error) {
	prior, err := s.txns.GetByIdempotencyKey(ctx, customerID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if prior == nil {
		return nil, nil
	}
	if prior.Type != txnType {
		return nil, domain.ErrIdempotencyKeyReused.Withf("idempotency key %s was used for %s", key, prior.Type)
	}
	s.metrics.RecordReplay(op)
	s.log(ctx).Info("idempotent replay", "op", op, "customer_id", customerID, "txn_no", prior.TxnNo)
	return postingResultOf(prior), nil
}

// afterPosting 提交后失效缓存并发布事件，均为尽力而为
func (s *LedgerService) afterPosting(txCtx context.Context, txn *domain.LedgerTransaction) {
	s.metrics.RecordPosting(string(txn.Type), string(txn.Source))
	event := domain.NewLedgerEvent(txn)
	s.tx.AfterCommit(txCtx, func(ctx context.Context) {
		if s.cache != nil {
			if err := s.cache.Delete(ctx, txn.CustomerID); err != nil {
				s.log(ctx).Warn("account cache invalidation failed", "customer_id", txn.CustomerID, "error", err)
			}
		}
		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, event); err != nil {
				s.metrics.RecordPublishFailure("ledger_events")
				s.log(ctx).Error("ledger event publish failed", "txn_no", txn.TxnNo, "error", err)
			}
		}
	})
}

func (s *LedgerService) loadAccount(ctx context.Context, customerID string) (*domain.Account, error) {
	acc, err := s.accounts.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if acc == nil {
		return nil, domain.ErrAccountNotFound.Withf("customer %s has no loan account", customerID)
	}
	return acc, nil
}

// saveAccount 版本条件更新，影响行数为 0 即并发冲突
func (s *LedgerService) saveAccount(ctx context.Context, acc *domain.Account) error {
	rows, err := s.accounts.UpdateWithVersion(ctx, acc)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if rows == 0 {
		s.metrics.RecordConflict()
		return domain.ErrConcurrentModification
	}
	return nil
}

func (s *LedgerService) resolveContract(ctx context.Context, customerID, contractNo string) (*domain.LoanContract, error) {
	var (
		contract *domain.LoanContract
		err      error
	)
	if contractNo != "" {
		contract, err = s.contracts.GetByContractNo(ctx, contractNo)
	} else {
		contract, err = s.contracts.GetLatestByCustomer(ctx, customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if contract == nil || contract.CustomerID != customerID {
		return nil, domain.ErrContractNotFound
	}
	return contract, nil
}

func (s *LedgerService) recordFailure(ctx context.Context, op, customerID string, err error) {
	l := s.log(ctx)
	if domain.KindOf(err) == domain.KindUnknown || domain.KindOf(err) == domain.KindFatalState {
		l.Error("ledger operation failed", "op", op, "customer_id", customerID, "error", err)
		return
	}
	l.Warn("ledger operation rejected", "op", op, "customer_id", customerID, "error", err)
}

func sourceOrDefault(src domain.TransactionSource) domain.TransactionSource {
	if src == "" {
		return domain.SourceApp
	}
	return src
}
