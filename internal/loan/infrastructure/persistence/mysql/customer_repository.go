package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/creditline/internal/loan/domain"
)

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建客户仓储
func NewCustomerRepository(db *gorm.DB) domain.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Get(ctx context.Context, customerID string) (*domain.Customer, error) {
	var po CustomerPO
	found, err := firstOrNil(getDB(ctx, r.db).Where("customer_id = ?", customerID), &po)
	if err != nil || !found {
		return nil, err
	}
	return toCustomer(&po), nil
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var po CustomerPO
	found, err := firstOrNil(getDB(ctx, r.db).Where("email = ?", email), &po)
	if err != nil || !found {
		return nil, err
	}
	return toCustomer(&po), nil
}

// Save 按 customer_id 插入或更新
func (r *customerRepository) Save(ctx context.Context, c *domain.Customer) error {
	po := &CustomerPO{CustomerID: c.ID, Email: c.Email, FullName: c.FullName, Status: string(c.Status)}
	err := getDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "full_name", "status", "updated_at"}),
	}).Create(po).Error
	return translateWrite("save customer", err)
}

func toCustomer(po *CustomerPO) *domain.Customer {
	return &domain.Customer{
		ID:        po.CustomerID,
		Email:     po.Email,
		FullName:  po.FullName,
		Status:    domain.CustomerStatus(po.Status),
		CreatedAt: po.CreatedAt,
	}
}
