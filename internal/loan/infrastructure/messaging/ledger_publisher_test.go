package messaging_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/creditline/internal/loan/domain"
	"github.com/wyfcoding/creditline/internal/loan/infrastructure/messaging"
	"github.com/wyfcoding/creditline/pkg/mq"
)

type recordingWriter struct {
	msgs []kafka.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublisher_PartitionsByCustomer(t *testing.T) {
	w := &recordingWriter{}
	pub := messaging.NewKafkaPublisher(mq.NewProducerWithWriter(w), "loan.ledger.events")

	txn := &domain.LedgerTransaction{
		TxnNo:      "TX1",
		CustomerID: "C1",
		ContractNo: "CT1",
		Type:       domain.TxnReversal,
		Source:     domain.SourceAdmin,
		Amount:     decimal.RequireFromString("-100"),
	}
	require.NoError(t, pub.Publish(context.Background(), domain.NewLedgerEvent(txn)))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "loan.ledger.events", msg.Topic)
	assert.Equal(t, "C1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, domain.EventTransactionReversed, string(msg.Headers[0].Value))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "TX1", body["txn_no"])
	assert.Equal(t, "-100", body["amount"])
}
