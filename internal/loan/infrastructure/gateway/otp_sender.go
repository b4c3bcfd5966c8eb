package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/creditline/pkg/mq"
)

// LogOtpSender 开发环境下将验证码写入日志
type LogOtpSender struct {
	logger *slog.Logger
}

// NewLogOtpSender 创建日志验证码发送器
func NewLogOtpSender(logger *slog.Logger) *LogOtpSender {
	return &LogOtpSender{logger: logger.With("module", "otp_sender")}
}

func (s *LogOtpSender) SendOtp(ctx context.Context, customerID, code string) error {
	s.logger.InfoContext(ctx, "otp issued", "customer_id", customerID, "code", code)
	return nil
}

// SmsMessage 短信下发队列的消息体
type SmsMessage struct {
	CustomerID string    `json:"customer_id"`
	Template   string    `json:"template"`
	Code       string    `json:"code"`
	CreatedAt  time.Time `json:"created_at"`
}

// SmsTemplateSigningOtp 合同签署验证码短信模板
const SmsTemplateSigningOtp = "loan_signing_otp"

// KafkaOtpSender 将验证码投递到短信下发队列，由短信服务负责送达与重试
type KafkaOtpSender struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaOtpSender 创建 Kafka 验证码发送器
func NewKafkaOtpSender(producer *mq.KafkaProducer, topic string) *KafkaOtpSender {
	return &KafkaOtpSender{producer: producer, topic: topic}
}

func (s *KafkaOtpSender) SendOtp(ctx context.Context, customerID, code string) error {
	msg := &SmsMessage{
		CustomerID: customerID,
		Template:   SmsTemplateSigningOtp,
		Code:       code,
		CreatedAt:  time.Now().UTC(),
	}
	return s.producer.SendMessage(ctx, s.topic, customerID, msg, map[string]string{"template": SmsTemplateSigningOtp})
}
