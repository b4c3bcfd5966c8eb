package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventTransactionPosted   = "LedgerTransactionPosted"
	EventTransactionReversed = "LedgerTransactionReversed"
)

// LedgerEvent 账务流水事件，按客户分区保证同一账户有序
type LedgerEvent struct {
	EventType                 string            `json:"event_type"`
	TxnNo                     string            `json:"txn_no"`
	CustomerID                string            `json:"customer_id"`
	ContractNo                string            `json:"contract_no"`
	TxnType                   TransactionType   `json:"txn_type"`
	Source                    TransactionSource `json:"source"`
	Amount                    decimal.Decimal   `json:"amount"`
	PrincipalComponent        decimal.Decimal   `json:"principal_component"`
	InterestComponent         decimal.Decimal   `json:"interest_component"`
	AvailableLimitAfter       decimal.Decimal   `json:"available_limit_after"`
	PrincipalOutstandingAfter decimal.Decimal   `json:"principal_outstanding_after"`
	ReversalOf                string            `json:"reversal_of,omitempty"`
	OccurredAt                time.Time         `json:"occurred_at"`
}

// NewLedgerEvent 由流水构造事件
func NewLedgerEvent(txn *LedgerTransaction) *LedgerEvent {
	eventType := EventTransactionPosted
	if txn.Type == TxnReversal {
		eventType = EventTransactionReversed
	}
	return &LedgerEvent{
		EventType:                 eventType,
		TxnNo:                     txn.TxnNo,
		CustomerID:                txn.CustomerID,
		ContractNo:                txn.ContractNo,
		TxnType:                   txn.Type,
		Source:                    txn.Source,
		Amount:                    txn.Amount,
		PrincipalComponent:        txn.PrincipalComponent,
		InterestComponent:         txn.InterestComponent,
		AvailableLimitAfter:       txn.AvailableLimitAfter,
		PrincipalOutstandingAfter: txn.PrincipalOutstandingAfter,
		ReversalOf:                txn.ReversalOfTxnNo,
		OccurredAt:                txn.CreatedAt,
	}
}
