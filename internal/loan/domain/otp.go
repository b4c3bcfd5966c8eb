package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SigningOtp 合同签署验证码，只保存哈希
type SigningOtp struct {
	ID            uint
	ApplicationID uint
	CustomerID    string
	Token         string
	CodeHash      string
	ExpiresAt     time.Time
	Attempts      int
	Verified      bool
	VerifiedAt    *time.Time
	CreatedAt     time.Time
}

// IssueOtp 生成验证码记录，返回记录与明文验证码
func IssueOtp(app *Application, code string, now time.Time, ttl time.Duration, cost int) (*SigningOtp, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash otp: %w", err)
	}
	return &SigningOtp{
		ApplicationID: app.ID,
		CustomerID:    app.CustomerID,
		Token:         strings.ReplaceAll(uuid.NewString(), "-", ""),
		CodeHash:      string(hash),
		ExpiresAt:     now.Add(ttl),
	}, nil
}

// RandomOtpCode 生成 6 位数字验证码
func RandomOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// CheckUsable 依次校验归属、是否已用、是否过期、失败次数
func (o *SigningOtp) CheckUsable(applicationID uint, now time.Time, maxAttempts int) error {
	if o == nil || o.ApplicationID != applicationID {
		return ErrOtpNotFound
	}
	if o.Verified {
		return ErrOtpAlreadyVerified
	}
	if now.After(o.ExpiresAt) {
		return ErrOtpExpired
	}
	if o.Attempts >= maxAttempts {
		return ErrOtpAttemptsExceeded
	}
	return nil
}

// Matches 比对明文验证码
func (o *SigningOtp) Matches(code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(o.CodeHash), []byte(code)) == nil
}
