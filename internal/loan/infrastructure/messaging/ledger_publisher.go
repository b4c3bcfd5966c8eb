package messaging

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/creditline/internal/loan/domain"
	"github.com/wyfcoding/creditline/pkg/mq"
)

// kafkaPublisher 按客户分区发布账务事件
type kafkaPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaPublisher 创建 Kafka 账务事件发布者
func NewKafkaPublisher(producer *mq.KafkaProducer, topic string) domain.EventPublisher {
	return &kafkaPublisher{producer: producer, topic: topic}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event *domain.LedgerEvent) error {
	return p.producer.SendMessage(ctx, p.topic, event.CustomerID, event, map[string]string{
		"event_type": event.EventType,
	})
}

// logPublisher Kafka 未启用时只记录事件
type logPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher 创建日志事件发布者
func NewLogPublisher(logger *slog.Logger) domain.EventPublisher {
	return &logPublisher{logger: logger.With("module", "ledger_events")}
}

func (p *logPublisher) Publish(ctx context.Context, event *domain.LedgerEvent) error {
	p.logger.DebugContext(ctx, "ledger event", "event_type", event.EventType, "txn_no", event.TxnNo, "customer_id", event.CustomerID)
	return nil
}
