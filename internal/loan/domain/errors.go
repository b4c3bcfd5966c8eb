package domain

import (
	"errors"
	"fmt"
)

// ErrorKind 领域错误分类，接口层据此映射状态码
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindValidation 入参缺失或非法
	KindValidation
	// KindConflict 业务规则冲突，含乐观锁版本冲突
	KindConflict
	// KindNotFound 引用的资源不存在
	KindNotFound
	// KindFatalState 内部一致性被破坏
	KindFatalState
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindConflict:
		return "CONFLICT"
	case KindNotFound:
		return "NOT_FOUND"
	case KindFatalState:
		return "FATAL_STATE"
	default:
		return "UNKNOWN"
	}
}

// Error 领域错误，errors.Is 按 Code 比较
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is 同 Code 视为同一错误，便于携带不同描述的副本匹配哨兵
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Withf 返回携带具体描述的副本
func (e *Error) Withf(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

func newError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// KindOf 返回错误链中首个领域错误的分类
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// Validationf 构造一次性的校验错误
func Validationf(format string, args ...any) *Error {
	return newError(KindValidation, "INVALID_ARGUMENT", fmt.Sprintf(format, args...))
}

// FatalStatef 构造一致性错误
func FatalStatef(format string, args ...any) *Error {
	return newError(KindFatalState, "STATE_CORRUPTED", fmt.Sprintf(format, args...))
}

// 校验类
var (
	ErrInvalidArgument        = newError(KindValidation, "INVALID_ARGUMENT", "invalid argument")
	ErrIdempotencyKeyRequired = newError(KindValidation, "IDEMPOTENCY_KEY_REQUIRED", "idempotency key is required")
	ErrInvalidAmount          = newError(KindValidation, "INVALID_AMOUNT", "amount must be positive with at most 2 decimal places")
	ErrTermsNotAccepted       = newError(KindValidation, "TERMS_NOT_ACCEPTED", "contract terms must be accepted")
	ErrInvalidNationalID      = newError(KindValidation, "INVALID_NATIONAL_ID", "national id format is invalid")
	ErrOtpCodeMismatch        = newError(KindValidation, "OTP_CODE_MISMATCH", "otp code does not match")
	ErrManualTypeUnsupported  = newError(KindValidation, "UNSUPPORTED_TRANSACTION_TYPE", "only REPAYMENT and REDRAW_DISBURSEMENT can be posted manually")
)

// 冲突类
var (
	ErrCustomerNotEligible        = newError(KindConflict, "CUSTOMER_NOT_ELIGIBLE", "customer is not eligible to apply")
	ErrCooldownActive             = newError(KindConflict, "COOLDOWN_ACTIVE", "application cooldown is still active")
	ErrApplicationInProgress      = newError(KindConflict, "APPLICATION_IN_PROGRESS", "an application is already in progress")
	ErrApplicationNotSignable     = newError(KindConflict, "APPLICATION_NOT_SIGNABLE", "application is not awaiting signature")
	ErrApplicationExpired         = newError(KindConflict, "APPLICATION_EXPIRED", "application has expired")
	ErrAccountExists              = newError(KindConflict, "ACCOUNT_EXISTS", "customer already holds a loan account")
	ErrContractExists             = newError(KindConflict, "CONTRACT_EXISTS", "contract number already used")
	ErrContractMismatch           = newError(KindConflict, "CONTRACT_MISMATCH", "contract does not match the customer's current contract")
	ErrOtpExpired                 = newError(KindConflict, "OTP_EXPIRED", "otp has expired")
	ErrOtpAlreadyVerified         = newError(KindConflict, "OTP_ALREADY_VERIFIED", "otp has already been used")
	ErrOtpAttemptsExceeded        = newError(KindConflict, "OTP_TOO_MANY_ATTEMPTS", "too many otp attempts")
	ErrInsufficientAvailableLimit = newError(KindConflict, "INSUFFICIENT_AVAILABLE_LIMIT", "insufficient available limit")
	ErrInvariantViolation         = newError(KindConflict, "LEDGER_INVARIANT_VIOLATION", "ledger invariant violated")
	ErrConcurrentModification     = newError(KindConflict, "CONCURRENT_MODIFICATION", "account was modified concurrently, reload and retry")
	ErrAlreadyReversed            = newError(KindConflict, "ALREADY_REVERSED", "transaction has already been reversed")
	ErrNotReversible              = newError(KindConflict, "NOT_REVERSIBLE", "transaction type cannot be reversed")
	ErrIdempotencyKeyReused       = newError(KindConflict, "IDEMPOTENCY_KEY_REUSED", "idempotency key was used for a different operation")
)

// 不存在类
var (
	ErrCustomerNotFound    = newError(KindNotFound, "CUSTOMER_NOT_FOUND", "customer not found")
	ErrApplicationNotFound = newError(KindNotFound, "APPLICATION_NOT_FOUND", "application not found")
	ErrContractNotFound    = newError(KindNotFound, "CONTRACT_NOT_FOUND", "contract not found")
	ErrOtpNotFound         = newError(KindNotFound, "OTP_NOT_FOUND", "otp not found")
	ErrAccountNotFound     = newError(KindNotFound, "ACCOUNT_NOT_FOUND", "loan account not found")
	ErrTransactionNotFound = newError(KindNotFound, "TRANSACTION_NOT_FOUND", "transaction not found")
)

// ErrStateCorrupted 一致性错误哨兵
var ErrStateCorrupted = newError(KindFatalState, "STATE_CORRUPTED", "ledger state is inconsistent")

// ErrDuplicateKey 仓储层唯一约束冲突，由应用层转换为幂等命中或业务冲突
var ErrDuplicateKey = errors.New("duplicate key")
