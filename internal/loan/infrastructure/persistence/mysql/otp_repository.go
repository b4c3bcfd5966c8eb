package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/creditline/internal/loan/domain"
)

type otpRepository struct {
	db *gorm.DB
}

// NewOtpRepository 创建签署验证码仓储
func NewOtpRepository(db *gorm.DB) domain.OtpRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Create(ctx context.Context, otp *domain.SigningOtp) error {
	po := &SigningOtpPO{
		ApplicationID: otp.ApplicationID,
		CustomerID:    otp.CustomerID,
		Token:         otp.Token,
		CodeHash:      otp.CodeHash,
		ExpiresAt:     otp.ExpiresAt,
		Attempts:      otp.Attempts,
		Verified:      otp.Verified,
		VerifiedAt:    otp.VerifiedAt,
	}
	if err := getDB(ctx, r.db).Create(po).Error; err != nil {
		return translateWrite("create otp", err)
	}
	otp.ID = po.ID
	otp.CreatedAt = po.CreatedAt
	return nil
}

func (r *otpRepository) GetByToken(ctx context.Context, token string) (*domain.SigningOtp, error) {
	var po SigningOtpPO
	found, err := firstOrNil(getDB(ctx, r.db).Where("token = ?", token), &po)
	if err != nil || !found {
		return nil, err
	}
	return &domain.SigningOtp{
		ID:            po.ID,
		ApplicationID: po.ApplicationID,
		CustomerID:    po.CustomerID,
		Token:         po.Token,
		CodeHash:      po.CodeHash,
		ExpiresAt:     po.ExpiresAt.UTC(),
		Attempts:      po.Attempts,
		Verified:      po.Verified,
		VerifiedAt:    utcPtr(po.VerifiedAt),
		CreatedAt:     po.CreatedAt.UTC(),
	}, nil
}

// IncrementAttempts 原子自增，避免并发校验丢失计数
func (r *otpRepository) IncrementAttempts(ctx context.Context, id uint) (int64, error) {
	res := getDB(ctx, r.db).Model(&SigningOtpPO{}).
		Where("id = ? AND verified = ?", id, false).
		Update("attempts", gorm.Expr("attempts + 1"))
	return res.RowsAffected, res.Error
}

func (r *otpRepository) MarkVerified(ctx context.Context, id uint, maxAttempts int, at time.Time) (int64, error) {
	res := getDB(ctx, r.db).Model(&SigningOtpPO{}).
		Where("id = ? AND verified = ? AND attempts < ?", id, false, maxAttempts).
		Updates(map[string]any{"verified": true, "verified_at": at})
	return res.RowsAffected, res.Error
}
