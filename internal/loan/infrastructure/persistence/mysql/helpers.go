package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/creditline/internal/loan/domain"
	"github.com/wyfcoding/creditline/pkg/db"
)

func getDB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	return db.Conn(ctx, fallback)
}

// translateWrite 将唯一约束冲突包装为 domain.ErrDuplicateKey
func translateWrite(op string, err error) error {
	if err == nil {
		return nil
	}
	if db.IsDuplicateKey(err) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrDuplicateKey, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// firstOrNil 查询单条记录，不存在时返回 false
func firstOrNil(query *gorm.DB, dest any) (bool, error) {
	err := query.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
