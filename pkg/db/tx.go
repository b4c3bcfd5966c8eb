package db

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

type txKey struct{}

type txState struct {
	tx    *gorm.DB
	mu    sync.Mutex
	hooks []func(ctx context.Context)
}

// WithTx 将事务句柄放入 context
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, &txState{tx: tx})
}

func stateOf(ctx context.Context) *txState {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		return st
	}
	return nil
}

// GetTx 取出 context 中的事务句柄，没有时返回 nil
func GetTx(ctx context.Context) *gorm.DB {
	if st := stateOf(ctx); st != nil {
		return st.tx
	}
	return nil
}

// InTx 判断 context 是否处于事务中
func InTx(ctx context.Context) bool {
	return GetTx(ctx) != nil
}

// Conn 返回当前应使用的连接：事务内返回事务句柄，否则返回 fallback
func Conn(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx := GetTx(ctx); tx != nil {
		return tx
	}
	return fallback.WithContext(ctx)
}

// AfterCommit 注册最外层事务提交后的回调；事务回滚时丢弃，不在事务中时立即执行
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	st := stateOf(ctx)
	if st == nil {
		fn(ctx)
		return
	}
	st.mu.Lock()
	st.hooks = append(st.hooks, fn)
	st.mu.Unlock()
}

// Transaction 开启事务执行 fn；ctx 已在事务中时复用外层事务，由外层负责提交或回滚
func Transaction(ctx context.Context, gdb *gorm.DB, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}

	var st *txState
	err := gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st = &txState{tx: tx}
		return fn(context.WithValue(ctx, txKey{}, st))
	})
	if err != nil {
		return err
	}

	for _, hook := range st.hooks {
		hook(ctx)
	}
	return nil
}

// InTx 判断 ctx 是否已在事务中
func (d *DB) InTx(ctx context.Context) bool {
	return InTx(ctx)
}

// AfterCommit 见包级 AfterCommit
func (d *DB) AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	AfterCommit(ctx, fn)
}
