package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/wyfcoding/creditline/internal/loan/application"
	"github.com/wyfcoding/creditline/internal/loan/domain"
	"github.com/wyfcoding/creditline/internal/loan/infrastructure/gateway"
	"github.com/wyfcoding/creditline/internal/loan/infrastructure/messaging"
	"github.com/wyfcoding/creditline/internal/loan/infrastructure/persistence/mysql"
	"github.com/wyfcoding/creditline/internal/loan/infrastructure/persistence/redis"
	grpcserver "github.com/wyfcoding/creditline/internal/loan/interfaces/grpc"
	httpserver "github.com/wyfcoding/creditline/internal/loan/interfaces/http"
	"github.com/wyfcoding/creditline/pkg/cache"
	"github.com/wyfcoding/creditline/pkg/config"
	"github.com/wyfcoding/creditline/pkg/db"
	"github.com/wyfcoding/creditline/pkg/idgen"
	"github.com/wyfcoding/creditline/pkg/logger"
	"github.com/wyfcoding/creditline/pkg/metrics"
	"github.com/wyfcoding/creditline/pkg/middleware"
	"github.com/wyfcoding/creditline/pkg/mq"
	"github.com/wyfcoding/creditline/pkg/ratelimit"
)

var configPath = flag.String("config", "configs/lending/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 初始化配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 初始化日志
	log, err := logger.Init(cfg.Logger, cfg.ServiceName)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	// 3. 初始化指标
	m, err := metrics.New("lending", prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}

	// 4. 初始化基础设施
	database, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()

	// Auto Migrate (仅用于开发方便)
	if cfg.Environment == "dev" {
		if err := database.AutoMigrate(mysql.Models()...); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	var (
		summaryCache domain.AccountReadRepository
		limiter      ratelimit.RateLimiter
	)
	if cfg.Redis.Enabled {
		redisCache, err := cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			// 缓存与限流可降级，不阻止启动
			log.Warn("redis unavailable, summary cache and rate limiting disabled", "error", err)
		} else {
			defer redisCache.Close()
			summaryCache = redis.NewAccountRedisRepository(redisCache, cfg.Loan.SummaryCacheTTL)
			limiter = ratelimit.NewRedisRateLimiter(redisCache.GetClient())
		}
	}

	var (
		publisher domain.EventPublisher
		otpSender domain.OtpSender
	)
	if cfg.Kafka.Enabled {
		producer := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		defer producer.Close()
		publisher = messaging.NewKafkaPublisher(producer, cfg.Kafka.LedgerTopic)
		otpSender = gateway.NewKafkaOtpSender(producer, cfg.Kafka.OtpTopic)
	} else {
		publisher = messaging.NewLogPublisher(log)
		otpSender = gateway.NewLogOtpSender(log)
	}

	ids, err := idgen.New(cfg.IDGen.Node)
	if err != nil {
		return err
	}

	// 5. 初始化仓储
	customers := mysql.NewCustomerRepository(database.DB)
	accounts := mysql.NewAccountRepository(database.DB)
	txns := mysql.NewTransactionRepository(database.DB)
	contracts := mysql.NewLoanContractRepository(database.DB)

	// 6. 初始化应用服务
	risk := gateway.NewRuleBasedRiskGateway(
		decimal.RequireFromString(cfg.Risk.MaxApprovedAmount),
		decimal.RequireFromString(cfg.Risk.MaxDebtRatio),
		log,
	)
	ledger := application.NewLedgerService(application.LedgerDeps{
		Tx:        database,
		Accounts:  accounts,
		Txns:      txns,
		Contracts: contracts,
		Customers: customers,
		Cache:     summaryCache,
		Publisher: publisher,
		IDs:       ids,
		Metrics:   m,
		Logger:    log,
	})
	apps := application.NewApplicationService(application.ApplicationDeps{
		Tx:        database,
		Customers: customers,
		Apps:      mysql.NewApplicationRepository(database.DB),
		Drafts:    mysql.NewContractDraftRepository(database.DB),
		Contracts: contracts,
		Otps:      mysql.NewOtpRepository(database.DB),
		Accounts:  accounts,
		Txns:      txns,
		Risk:      risk,
		OtpSender: otpSender,
		Ledger:    ledger,
		IDs:       ids,
		Config:    cfg.Loan,
		Metrics:   m,
		Logger:    log,
	})

	// 7. 初始化接口层
	// gRPC
	hs := health.NewServer()
	grpcSrv := grpcserver.NewServer(m, hs, grpc.MaxConcurrentStreams(cfg.GRPC.MaxConcurrentStreams))
	checker := grpcserver.NewHealthChecker(hs, 0, map[string]grpcserver.Probe{
		"database": database.Ping,
	})

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinMetricsMiddleware(m),
		middleware.RateLimitMiddleware(limiter, cfg.RateLimit, middleware.HeaderKey(httpserver.HeaderCustomerID)),
	)
	httpserver.NewLoanHandler(apps, ledger).RegisterRoutes(r)
	httpserver.NewAdminHandler(apps, ledger).RegisterRoutes(r)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, prometheus.DefaultGatherer)
	}

	// 8. 启动服务
	g, gctx := errgroup.WithContext(ctx)

	// gRPC Start
	g.Go(func() error {
		addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		log.Info("gRPC server starting", "addr", addr)
		return grpcSrv.Serve(lis)
	})

	// HTTP Start
	g.Go(func() error {
		log.Info("HTTP server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if metricsSrv != nil {
		g.Go(func() error { return metrics.Serve(metricsSrv) })
	}

	g.Go(func() error { return checker.Run(gctx) })

	// 9. 优雅关闭
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			log.Info("shutting down servers...")
		case <-gctx.Done():
			log.Info("context cancelled, shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown failed", "error", err)
		}
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		grpcSrv.GracefulStop()
		// 触发健康检查协程退出
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		return err
	}
	log.Info("servers stopped")
	return nil
}

var errShutdown = errors.New("shutdown requested")
