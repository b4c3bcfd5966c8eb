package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/creditline/internal/loan/domain"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository 创建账务流水仓储
func NewTransactionRepository(db *gorm.DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, t *domain.LedgerTransaction) error {
	po := &TransactionPO{
		TxnNo:                     t.TxnNo,
		CustomerID:                t.CustomerID,
		IdempotencyKey:            t.IdempotencyKey,
		ContractNo:                t.ContractNo,
		Type:                      string(t.Type),
		Status:                    string(t.Status),
		Source:                    string(t.Source),
		Amount:                    t.Amount,
		PrincipalComponent:        t.PrincipalComponent,
		InterestComponent:         t.InterestComponent,
		AvailableLimitAfter:       t.AvailableLimitAfter,
		PrincipalOutstandingAfter: t.PrincipalOutstandingAfter,
		InterestOutstandingAfter:  t.InterestOutstandingAfter,
		Note:                      t.Note,
		CreatedBy:                 t.CreatedBy,
		ReversalOfID:              t.ReversalOfID,
		ReversalOfTxnNo:           t.ReversalOfTxnNo,
	}
	if err := getDB(ctx, r.db).Create(po).Error; err != nil {
		return translateWrite("create transaction", err)
	}
	t.ID = po.ID
	t.CreatedAt = po.CreatedAt.UTC()
	return nil
}

func (r *transactionRepository) GetByTxnNo(ctx context.Context, txnNo string) (*domain.LedgerTransaction, error) {
	var po TransactionPO
	found, err := firstOrNil(getDB(ctx, r.db).Where("txn_no = ?", txnNo), &po)
	if err != nil || !found {
		return nil, err
	}
	return toTransaction(&po), nil
}

func (r *transactionRepository) GetByIdempotencyKey(ctx context.Context, customerID, key string) (*domain.LedgerTransaction, error) {
	var po TransactionPO
	found, err := firstOrNil(getDB(ctx, r.db).Where("customer_id = ? AND idempotency_key = ?", customerID, key), &po)
	if err != nil || !found {
		return nil, err
	}
	return toTransaction(&po), nil
}

func (r *transactionRepository) ListRecent(ctx context.Context, customerID string, limit int) ([]*domain.LedgerTransaction, error) {
	var pos []*TransactionPO
	if err := getDB(ctx, r.db).Where("customer_id = ?", customerID).
		Order("id DESC").Limit(limit).Find(&pos).Error; err != nil {
		return nil, err
	}
	return toTransactions(pos), nil
}

func (r *transactionRepository) List(ctx context.Context, filter domain.TransactionFilter, offset, limit int) ([]*domain.LedgerTransaction, int64, error) {
	query := getDB(ctx, r.db).Model(&TransactionPO{})
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.ContractNo != "" {
		query = query.Where("contract_no = ?", filter.ContractNo)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", string(filter.Type))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var pos []*TransactionPO
	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&pos).Error; err != nil {
		return nil, 0, err
	}
	return toTransactions(pos), total, nil
}

func (r *transactionRepository) MarkReversed(ctx context.Context, id uint) (int64, error) {
	res := getDB(ctx, r.db).Model(&TransactionPO{}).
		Where("id = ? AND status = ?", id, string(domain.TxnPosted)).
		Update("status", string(domain.TxnReversed))
	return res.RowsAffected, res.Error
}

// UpdateNote 同时刷新 updated_at，备注未变时 MySQL 仍计入影响行数
func (r *transactionRepository) UpdateNote(ctx context.Context, txnNo, note string) (int64, error) {
	res := getDB(ctx, r.db).Model(&TransactionPO{}).
		Where("txn_no = ?", txnNo).
		Updates(map[string]any{"note": note, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func toTransactions(pos []*TransactionPO) []*domain.LedgerTransaction {
	txns := make([]*domain.LedgerTransaction, len(pos))
	for i, po := range pos {
		txns[i] = toTransaction(po)
	}
	return txns
}

func toTransaction(po *TransactionPO) *domain.LedgerTransaction {
	return &domain.LedgerTransaction{
		ID:                        po.ID,
		TxnNo:                     po.TxnNo,
		CustomerID:                po.CustomerID,
		ContractNo:                po.ContractNo,
		Type:                      domain.TransactionType(po.Type),
		Status:                    domain.TransactionStatus(po.Status),
		Source:                    domain.TransactionSource(po.Source),
		Amount:                    po.Amount,
		PrincipalComponent:        po.PrincipalComponent,
		InterestComponent:         po.InterestComponent,
		AvailableLimitAfter:       po.AvailableLimitAfter,
		PrincipalOutstandingAfter: po.PrincipalOutstandingAfter,
		InterestOutstandingAfter:  po.InterestOutstandingAfter,
		IdempotencyKey:            po.IdempotencyKey,
		Note:                      po.Note,
		CreatedBy:                 po.CreatedBy,
		ReversalOfID:              po.ReversalOfID,
		ReversalOfTxnNo:           po.ReversalOfTxnNo,
		CreatedAt:                 po.CreatedAt.UTC(),
	}
}
