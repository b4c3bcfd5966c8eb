package redis

import (
	"context"
	"time"

	"github.com/wyfcoding/creditline/internal/loan/domain"
	"github.com/wyfcoding/creditline/pkg/cache"
)

type accountRedisRepository struct {
	cache  *cache.RedisCache
	prefix string
	ttl    time.Duration
}

// NewAccountRedisRepository 创建账户摘要缓存
func NewAccountRedisRepository(c *cache.RedisCache, ttl time.Duration) domain.AccountReadRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &accountRedisRepository{
		cache:  c,
		prefix: "loan:summary:",
		ttl:    ttl,
	}
}

func (r *accountRedisRepository) Save(ctx context.Context, account *domain.Account) error {
	if account == nil {
		return nil
	}
	return r.cache.SetJSON(ctx, r.key(account.CustomerID), account, r.ttl)
}

func (r *accountRedisRepository) Get(ctx context.Context, customerID string) (*domain.Account, error) {
	var account domain.Account
	found, err := r.cache.GetJSON(ctx, r.key(customerID), &account)
	if err != nil || !found {
		return nil, err
	}
	return &account, nil
}

func (r *accountRedisRepository) Delete(ctx context.Context, customerID string) error {
	return r.cache.Delete(ctx, r.key(customerID))
}

func (r *accountRedisRepository) key(id string) string {
	return r.prefix + id
}
