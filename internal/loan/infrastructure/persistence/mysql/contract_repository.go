package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/creditline/internal/loan/domain"
)

type contractDraftRepository struct {
	db *gorm.DB
}

// NewContractDraftRepository 创建待签合同仓储
func NewContractDraftRepository(db *gorm.DB) domain.ContractDraftRepository {
	return &contractDraftRepository{db: db}
}

func (r *contractDraftRepository) Create(ctx context.Context, draft *domain.ContractDraft) error {
	po := &ContractDraftPO{
		ApplicationID:   draft.ApplicationID,
		CustomerID:      draft.CustomerID,
		ContractNo:      draft.ContractNo,
		TemplateVersion: draft.TemplateVersion,
		Content:         draft.Content,
		Digest:          draft.Digest,
		Status:          string(draft.Status),
		SignedAt:        draft.SignedAt,
	}
	if err := getDB(ctx, r.db).Create(po).Error; err != nil {
		return translateWrite("create contract draft", err)
	}
	draft.ID = po.ID
	draft.CreatedAt = po.CreatedAt
	return nil
}

func (r *contractDraftRepository) GetByApplicationID(ctx context.Context, applicationID uint) (*domain.ContractDraft, error) {
	var po ContractDraftPO
	found, err := firstOrNil(getDB(ctx, r.db).Where("application_id = ?", applicationID), &po)
	if err != nil || !found {
		return nil, err
	}
	return &domain.ContractDraft{
		ID:              po.ID,
		ApplicationID:   po.ApplicationID,
		CustomerID:      po.CustomerID,
		ContractNo:      po.ContractNo,
		TemplateVersion: po.TemplateVersion,
		Content:         po.Content,
		Digest:          po.Digest,
		Status:          domain.ContractStatus(po.Status),
		SignedAt:        utcPtr(po.SignedAt),
		CreatedAt:       po.CreatedAt.UTC(),
	}, nil
}

func (r *contractDraftRepository) MarkSigned(ctx context.Context, id uint, signedAt time.Time) (int64, error) {
	res := getDB(ctx, r.db).Model(&ContractDraftPO{}).
		Where("id = ? AND status = ?", id, string(domain.ContractStatusDraft)).
		Updates(map[string]any{"status": string(domain.ContractStatusSigned), "signed_at": signedAt})
	return res.RowsAffected, res.Error
}

type loanContractRepository struct {
	db *gorm.DB
}

// NewLoanContractRepository 创建已签合同仓储
func NewLoanContractRepository(db *gorm.DB) domain.LoanContractRepository {
	return &loanContractRepository{db: db}
}

func (r *loanContractRepository) Create(ctx context.Context, c *domain.LoanContract) error {
	po := &LoanContractPO{
		ContractNo:    c.ContractNo,
		CustomerID:    c.CustomerID,
		ApplicationID: c.ApplicationID,
		Amount:        c.Amount,
		Status:        string(c.Status),
		SignedAt:      c.SignedAt,
		InitialTxnNo:  c.InitialTxnNo,
	}
	if err := getDB(ctx, r.db).Create(po).Error; err != nil {
		return translateWrite("create loan contract", err)
	}
	c.ID = po.ID
	c.CreatedAt = po.CreatedAt
	return nil
}

func (r *loanContractRepository) GetByContractNo(ctx context.Context, contractNo string) (*domain.LoanContract, error) {
	var po LoanContractPO
	found, err := firstOrNil(getDB(ctx, r.db).Where("contract_no = ?", contractNo), &po)
	if err != nil || !found {
		return nil, err
	}
	return toLoanContract(&po), nil
}

func (r *loanContractRepository) GetLatestByCustomer(ctx context.Context, customerID string) (*domain.LoanContract, error) {
	var po LoanContractPO
	found, err := firstOrNil(getDB(ctx, r.db).Where("customer_id = ?", customerID).Order("id DESC"), &po)
	if err != nil || !found {
		return nil, err
	}
	return toLoanContract(&po), nil
}

func toLoanContract(po *LoanContractPO) *domain.LoanContract {
	return &domain.LoanContract{
		ID:            po.ID,
		ContractNo:    po.ContractNo,
		CustomerID:    po.CustomerID,
		ApplicationID: po.ApplicationID,
		Amount:        po.Amount,
		Status:        domain.ContractStatus(po.Status),
		SignedAt:      po.SignedAt.UTC(),
		InitialTxnNo:  po.InitialTxnNo,
		CreatedAt:     po.CreatedAt.UTC(),
	}
}
