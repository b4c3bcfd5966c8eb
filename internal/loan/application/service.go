// Package application 贷款申请与额度账务的用例编排
package application

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/creditline/internal/loan/domain"
)

// IDGenerator 业务单号生成
type IDGenerator interface {
	Next(prefix string) string
}

// 单号前缀
const (
	prefixApplication = "AP"
	prefixContract    = "CT"
	prefixTransaction = "TX"
)

// Clock 返回当前时间，测试可替换
type Clock func() time.Time

// SystemClock 取 UTC 毫秒精度时间，与库中存储精度一致
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

var twoPlaces = int32(2)

// validateAmount 金额必须为正且最多两位小数
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(twoPlaces)) {
		return domain.ErrInvalidAmount
	}
	return nil
}

// requireKey 幂等键必填，长度受列宽限制，冲正前缀保留给系统
func requireKey(key string) error {
	if key == "" {
		return domain.ErrIdempotencyKeyRequired
	}
	if len(key) > domain.MaxIdempotencyKeyLen {
		return domain.Validationf("idempotency key must be at most %d bytes", domain.MaxIdempotencyKeyLen)
	}
	if strings.HasPrefix(key, domain.ReversalKeyPrefix) {
		return domain.Validationf("idempotency key prefix %q is reserved", domain.ReversalKeyPrefix)
	}
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, domain.ErrDuplicateKey)
}
