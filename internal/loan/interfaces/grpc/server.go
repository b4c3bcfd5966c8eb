// Package grpc 提供运维用 gRPC 端点：健康检查与反射，业务接口走 HTTP
package grpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/wyfcoding/creditline/internal/loan/domain"
	"github.com/wyfcoding/creditline/pkg/logger"
	"github.com/wyfcoding/creditline/pkg/metrics"
	"github.com/wyfcoding/creditline/pkg/middleware"
)

// ServiceName 健康检查中登记的服务名
const ServiceName = "creditline.loan.v1.LendingService"

// Probe 依赖探活，返回 nil 表示可用
type Probe func(ctx context.Context) error

// NewServer 创建带日志、恢复与错误码映射拦截器的 gRPC 服务，并注册健康检查与反射
func NewServer(m *metrics.Metrics, hs *health.Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		middleware.GRPCRecoveryInterceptor(),
		middleware.GRPCLoggingInterceptor(m),
		ErrorInterceptor(),
	))
	srv := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return srv
}

// ErrorInterceptor 把领域错误转换为 gRPC 状态码
func ErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return resp, ToStatus(err)
		}
		return resp, nil
	}
}

// ToStatus 领域错误分类到 gRPC 状态码；已是 status 的错误原样返回
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var de *domain.Error
	if !errors.As(err, &de) {
		return status.Error(codes.Internal, "internal error")
	}
	switch de.Kind {
	case domain.KindValidation:
		return status.Error(codes.InvalidArgument, de.Message)
	case domain.KindConflict:
		return status.Error(codes.Aborted, de.Message)
	case domain.KindNotFound:
		return status.Error(codes.NotFound, de.Message)
	default:
		return status.Error(codes.Internal, de.Message)
	}
}

// HealthChecker 周期探活并刷新健康状态
type HealthChecker struct {
	server   *health.Server
	probes   map[string]Probe
	interval time.Duration
	timeout  time.Duration
}

// NewHealthChecker 创建探活器，interval 为 0 时默认 10s
func NewHealthChecker(hs *health.Server, interval time.Duration, probes map[string]Probe) *HealthChecker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthChecker{server: hs, probes: probes, interval: interval, timeout: 2 * time.Second}
}

// Check 执行一轮探活，任一依赖失败即标记为 NOT_SERVING
func (h *HealthChecker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	for name, probe := range h.probes {
		pctx, cancel := context.WithTimeout(ctx, h.timeout)
		err := probe(pctx)
		cancel()
		if err != nil {
			logger.Warn(ctx, "dependency probe failed", "dependency", name, "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.server.SetServingStatus("", st)
	h.server.SetServingStatus(ServiceName, st)
	return st
}

// Run 阻塞运行直到 ctx 结束，结束时标记为 NOT_SERVING
func (h *HealthChecker) Run(ctx context.Context) error {
	h.Check(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return nil
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}
