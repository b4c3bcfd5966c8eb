package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/wyfcoding/creditline/internal/loan/domain"
)

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository 创建贷款申请仓储
func NewApplicationRepository(db *gorm.DB) domain.ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	po := toApplicationPO(app)
	if err := getDB(ctx, r.db).Create(po).Error; err != nil {
		return translateWrite("create application", err)
	}
	app.ID = po.ID
	app.CreatedAt = po.CreatedAt
	app.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *applicationRepository) Get(ctx context.Context, id uint) (*domain.Application, error) {
	var po ApplicationPO
	found, err := firstOrNil(getDB(ctx, r.db).Where("id = ?", id), &po)
	if err != nil || !found {
		return nil, err
	}
	return toApplication(&po), nil
}

func (r *applicationRepository) GetByIdempotencyKey(ctx context.Context, customerID, key string) (*domain.Application, error) {
	var po ApplicationPO
	found, err := firstOrNil(getDB(ctx, r.db).Where("customer_id = ? AND idempotency_key = ?", customerID, key), &po)
	if err != nil || !found {
		return nil, err
	}
	return toApplication(&po), nil
}

func (r *applicationRepository) GetLatestByCustomer(ctx context.Context, customerID string) (*domain.Application, error) {
	var po ApplicationPO
	found, err := firstOrNil(getDB(ctx, r.db).Where("customer_id = ?", customerID).Order("id DESC"), &po)
	if err != nil || !found {
		return nil, err
	}
	return toApplication(&po), nil
}

// Transition 条件更新状态，以当前状态作为并发保护
func (r *applicationRepository) Transition(ctx context.Context, app *domain.Application, from domain.ApplicationStatus) (int64, error) {
	res := getDB(ctx, r.db).Model(&ApplicationPO{}).
		Where("id = ? AND status = ?", app.ID, string(from)).
		Updates(map[string]any{
			"status":       string(app.Status),
			"signed_at":    app.SignedAt,
			"disbursed_at": app.DisbursedAt,
		})
	if res.Error != nil {
		return 0, translateWrite("transition application", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *applicationRepository) List(ctx context.Context, filter domain.ApplicationFilter, offset, limit int) ([]*domain.Application, int64, error) {
	query := getDB(ctx, r.db).Model(&ApplicationPO{})
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.ApplicationNo != "" {
		query = query.Where("application_no = ?", filter.ApplicationNo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pos []*ApplicationPO
	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&pos).Error; err != nil {
		return nil, 0, err
	}
	apps := make([]*domain.Application, len(pos))
	for i, po := range pos {
		apps[i] = toApplication(po)
	}
	return apps, total, nil
}

func toApplicationPO(a *domain.Application) *ApplicationPO {
	return &ApplicationPO{
		ApplicationNo:      a.ApplicationNo,
		CustomerID:         a.CustomerID,
		IdempotencyKey:     a.IdempotencyKey,
		Status:             string(a.Status),
		ProductCode:        a.ProductCode,
		ApprovedAmount:     a.ApprovedAmount,
		FullName:           a.Applicant.FullName,
		NationalID:         a.Applicant.NationalID,
		HomeAddress:        a.Applicant.HomeAddress,
		Age:                a.Applicant.Age,
		Occupation:         a.Applicant.Occupation,
		MonthlyIncome:      a.Applicant.MonthlyIncome,
		MonthlyDebtPayment: a.Applicant.MonthlyDebtPayment,
		RiskDecision:       a.RiskDecision,
		RiskReferenceID:    a.RiskReferenceID,
		RejectReason:       a.RejectReason,
		CooldownUntil:      a.CooldownUntil,
		ApprovedAt:         a.ApprovedAt,
		ExpiresAt:          a.ExpiresAt,
		SignedAt:           a.SignedAt,
		DisbursedAt:        a.DisbursedAt,
	}
}

func toApplication(po *ApplicationPO) *domain.Application {
	return &domain.Application{
		ID:             po.ID,
		ApplicationNo:  po.ApplicationNo,
		CustomerID:     po.CustomerID,
		Status:         domain.ApplicationStatus(po.Status),
		ProductCode:    po.ProductCode,
		ApprovedAmount: po.ApprovedAmount,
		Applicant: domain.ApplicantProfile{
			FullName:           po.FullName,
			NationalID:         po.NationalID,
			HomeAddress:        po.HomeAddress,
			Age:                po.Age,
			Occupation:         po.Occupation,
			MonthlyIncome:      po.MonthlyIncome,
			MonthlyDebtPayment: po.MonthlyDebtPayment,
		},
		RiskDecision:    po.RiskDecision,
		RiskReferenceID: po.RiskReferenceID,
		RejectReason:    po.RejectReason,
		CooldownUntil:   utcPtr(po.CooldownUntil),
		ApprovedAt:      utcPtr(po.ApprovedAt),
		ExpiresAt:       utcPtr(po.ExpiresAt),
		SignedAt:        utcPtr(po.SignedAt),
		DisbursedAt:     utcPtr(po.DisbursedAt),
		IdempotencyKey:  po.IdempotencyKey,
		CreatedAt:       po.CreatedAt.UTC(),
		UpdatedAt:       po.UpdatedAt.UTC(),
	}
}
