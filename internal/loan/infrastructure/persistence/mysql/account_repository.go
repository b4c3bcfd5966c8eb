package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/wyfcoding/creditline/internal/loan/domain"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository 创建额度账户仓储
func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a *domain.Account) error {
	po := &AccountPO{
		CustomerID:           a.CustomerID,
		CreditLimit:          a.CreditLimit,
		AvailableLimit:       a.AvailableLimit,
		PrincipalOutstanding: a.PrincipalOutstanding,
		InterestOutstanding:  a.InterestOutstanding,
		Version:              a.Version,
	}
	if err := getDB(ctx, r.db).Create(po).Error; err != nil {
		return translateWrite("create account", err)
	}
	a.ID = po.ID
	a.CreatedAt = po.CreatedAt
	a.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *accountRepository) GetByCustomer(ctx context.Context, customerID string) (*domain.Account, error) {
	var po AccountPO
	found, err := firstOrNil(getDB(ctx, r.db).Where("customer_id = ?", customerID), &po)
	if err != nil || !found {
		return nil, err
	}
	return &domain.Account{
		ID:                   po.ID,
		CustomerID:           po.CustomerID,
		CreditLimit:          po.CreditLimit,
		AvailableLimit:       po.AvailableLimit,
		PrincipalOutstanding: po.PrincipalOutstanding,
		InterestOutstanding:  po.InterestOutstanding,
		Version:              po.Version,
		CreatedAt:            po.CreatedAt.UTC(),
		UpdatedAt:            po.UpdatedAt.UTC(),
	}, nil
}

// UpdateWithVersion 乐观锁更新：版本不符时影响行数为 0，不做重试
func (r *accountRepository) UpdateWithVersion(ctx context.Context, a *domain.Account) (int64, error) {
	res := getDB(ctx, r.db).Model(&AccountPO{}).
		Where("customer_id = ? AND version = ?", a.CustomerID, a.Version).
		Updates(map[string]any{
			"credit_limit":          a.CreditLimit,
			"available_limit":       a.AvailableLimit,
			"principal_outstanding": a.PrincipalOutstanding,
			"interest_outstanding":  a.InterestOutstanding,
			"version":               a.Version + 1,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 1 {
		a.Version++
	}
	return res.RowsAffected, nil
}
