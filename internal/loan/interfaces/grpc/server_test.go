package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/wyfcoding/creditline/internal/loan/domain"
)

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{domain.ErrInvalidAmount, codes.InvalidArgument},
		{fmt.Errorf("repay: %w", domain.ErrConcurrentModification), codes.Aborted},
		{domain.ErrTransactionNotFound, codes.NotFound},
		{domain.ErrStateCorrupted, codes.Internal},
		{errors.New("db down"), codes.Internal},
		{status.Error(codes.Unavailable, "later"), codes.Unavailable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, status.Code(ToStatus(tc.err)), tc.err.Error())
	}
	assert.NoError(t, ToStatus(nil))
}

func TestHealthChecker_Check(t *testing.T) {
	hs := health.NewServer()
	healthy := true
	checker := NewHealthChecker(hs, 0, map[string]Probe{
		"database": func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("connection refused")
		},
	})

	ctx := context.Background()
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checker.Check(ctx))

	healthy = false
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checker.Check(ctx))
	resp, err := hs.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestNewServer_ServesHealth(t *testing.T) {
	hs := health.NewServer()
	NewHealthChecker(hs, 0, nil).Check(context.Background())

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(nil, hs)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
