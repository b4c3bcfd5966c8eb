package domain

import (
	"context"
	"time"
)

// TxManager 事务边界，嵌套调用加入外层事务
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
	// InTx 判断 ctx 是否已在事务中
	InTx(ctx context.Context) bool
	// AfterCommit 注册最外层事务提交后执行的回调，不在事务中时立即执行
	AfterCommit(ctx context.Context, fn func(ctx context.Context))
}

// 查询方法在记录不存在时返回 (nil, nil)，写方法遇到唯一约束冲突时返回包装了 ErrDuplicateKey 的错误

// CustomerRepository 客户仓储
type CustomerRepository interface {
	Get(ctx context.Context, customerID string) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
}

// ApplicationFilter 后台申请查询条件
type ApplicationFilter struct {
	CustomerID    string
	Status        ApplicationStatus
	ApplicationNo string
}

// ApplicationRepository 贷款申请仓储
type ApplicationRepository interface {
	Create(ctx context.Context, app *Application) error
	Get(ctx context.Context, id uint) (*Application, error)
	GetByIdempotencyKey(ctx context.Context, customerID, key string) (*Application, error)
	GetLatestByCustomer(ctx context.Context, customerID string) (*Application, error)
	// Transition 仅当当前状态为 from 时写入 app 的新状态与时间戳，返回影响行数
	Transition(ctx context.Context, app *Application, from ApplicationStatus) (int64, error)
	List(ctx context.Context, filter ApplicationFilter, offset, limit int) ([]*Application, int64, error)
}

// ContractDraftRepository 待签合同仓储
type ContractDraftRepository interface {
	Create(ctx context.Context, draft *ContractDraft) error
	GetByApplicationID(ctx context.Context, applicationID uint) (*ContractDraft, error)
	// MarkSigned 仅当合同仍为草稿时置为已签，返回影响行数
	MarkSigned(ctx context.Context, id uint, signedAt time.Time) (int64, error)
}

// LoanContractRepository 已签合同仓储
type LoanContractRepository interface {
	Create(ctx context.Context, contract *LoanContract) error
	GetByContractNo(ctx context.Context, contractNo string) (*LoanContract, error)
	GetLatestByCustomer(ctx context.Context, customerID string) (*LoanContract, error)
}

// OtpRepository 签署验证码仓储
type OtpRepository interface {
	Create(ctx context.Context, otp *SigningOtp) error
	GetByToken(ctx context.Context, token string) (*SigningOtp, error)
	// IncrementAttempts 未验证的验证码失败次数加一，返回影响行数
	IncrementAttempts(ctx context.Context, id uint) (int64, error)
	// MarkVerified 仅当未验证且失败次数未达上限时标记已验证，返回影响行数
	MarkVerified(ctx context.Context, id uint, maxAttempts int, at time.Time) (int64, error)
}

// AccountRepository 额度账户仓储
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByCustomer(ctx context.Context, customerID string) (*Account, error)
	// UpdateWithVersion 以 account.Version 为期望版本做条件更新并将版本加一，返回影响行数（0 或 1）
	UpdateWithVersion(ctx context.Context, account *Account) (int64, error)
}

// TransactionFilter 后台流水查询条件
type TransactionFilter struct {
	CustomerID string
	ContractNo string
	Type       TransactionType
	Status     TransactionStatus
}

// TransactionRepository 账务流水仓储，只暴露状态与备注两类修改
type TransactionRepository interface {
	Create(ctx context.Context, txn *LedgerTransaction) error
	GetByTxnNo(ctx context.Context, txnNo string) (*LedgerTransaction, error)
	GetByIdempotencyKey(ctx context.Context, customerID, key string) (*LedgerTransaction, error)
	ListRecent(ctx context.Context, customerID string, limit int) ([]*LedgerTransaction, error)
	List(ctx context.Context, filter TransactionFilter, offset, limit int) ([]*LedgerTransaction, int64, error)
	// MarkReversed 仅当流水为 POSTED 时置为 REVERSED，返回影响行数
	MarkReversed(ctx context.Context, id uint) (int64, error)
	// UpdateNote 仅修改备注，返回影响行数
	UpdateNote(ctx context.Context, txnNo, note string) (int64, error)
}

// AccountReadRepository 账户读缓存，未命中返回 (nil, nil)
type AccountReadRepository interface {
	Save(ctx context.Context, account *Account) error
	Get(ctx context.Context, customerID string) (*Account, error)
	Delete(ctx context.Context, customerID string) error
}
