// Package metrics 提供 Prometheus 指标定义与暴露
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wyfcoding/creditline/pkg/logger"
)

// Metrics 指标集合，所有方法对 nil 接收者安全
type Metrics struct {
	// HTTP 请求计数与耗时
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// gRPC 请求计数
	GRPCRequestsTotal *prometheus.CounterVec

	// 业务指标
	ApplicationDecisions *prometheus.CounterVec
	OtpVerifications     *prometheus.CounterVec
	LedgerPostings       *prometheus.CounterVec
	IdempotentReplays    *prometheus.CounterVec
	VersionConflicts     prometheus.Counter
	PublishFailures      *prometheus.CounterVec
}

// New 创建指标实例并注册到 reg
func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		GRPCRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Total gRPC requests",
		}, []string{"method", "code"}),
		ApplicationDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "application_decisions_total",
			Help:      "Loan applications by risk decision",
		}, []string{"decision"}),
		OtpVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_verifications_total",
			Help:      "Signing OTP verification outcomes",
		}, []string{"result"}),
		LedgerPostings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_postings_total",
			Help:      "Ledger transactions posted",
		}, []string{"type", "source"}),
		IdempotentReplays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotent_replays_total",
			Help:      "Mutating calls answered from a stored result",
		}, []string{"operation"}),
		VersionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_version_conflicts_total",
			Help:      "Account writes rejected by the version check",
		}),
		PublishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Events that could not be published after commit",
		}, []string{"topic"}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.HTTPRequestsTotal, m.HTTPRequestDuration, m.GRPCRequestsTotal,
		m.ApplicationDecisions, m.OtpVerifications, m.LedgerPostings,
		m.IdempotentReplays, m.VersionConflicts, m.PublishFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// RecordGRPCRequest 记录 gRPC 请求
func (m *Metrics) RecordGRPCRequest(method, code string) {
	if m == nil {
		return
	}
	m.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
}

// RecordDecision 记录风控决策
func (m *Metrics) RecordDecision(decision string) {
	if m == nil {
		return
	}
	m.ApplicationDecisions.WithLabelValues(decision).Inc()
}

// RecordOtp 记录验证码校验结果
func (m *Metrics) RecordOtp(result string) {
	if m == nil {
		return
	}
	m.OtpVerifications.WithLabelValues(result).Inc()
}

// RecordPosting 记录账务流水入账
func (m *Metrics) RecordPosting(txnType, source string) {
	if m == nil {
		return
	}
	m.LedgerPostings.WithLabelValues(txnType, source).Inc()
}

// RecordReplay 记录幂等重放
func (m *Metrics) RecordReplay(operation string) {
	if m == nil {
		return
	}
	m.IdempotentReplays.WithLabelValues(operation).Inc()
}

// RecordConflict 记录版本冲突
func (m *Metrics) RecordConflict() {
	if m == nil {
		return
	}
	m.VersionConflicts.Inc()
}

// RecordPublishFailure 记录事件投递失败
func (m *Metrics) RecordPublishFailure(topic string) {
	if m == nil {
		return
	}
	m.PublishFailures.WithLabelValues(topic).Inc()
}

// NewServer 构建 Prometheus 抓取端点
func NewServer(port int, path string, gatherer prometheus.Gatherer) *http.Server {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
}

// Serve 启动抓取端点，正常关闭时返回 nil
func Serve(srv *http.Server) error {
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
