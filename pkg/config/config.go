// Package config 提供 TOML 配置加载、环境变量覆盖与基础校验
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/wyfcoding/creditline/pkg/db"
	"github.com/wyfcoding/creditline/pkg/logger"
)

// Config 服务配置
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`

	HTTP      HTTPConfig      `mapstructure:"http"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Database  db.Config       `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Logger    logger.Config   `mapstructure:"logger"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Loan      LoanConfig      `mapstructure:"loan"`
	Risk      RiskConfig      `mapstructure:"risk"`
	IDGen     IDGenConfig     `mapstructure:"idgen"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// 读写超时（秒）
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// GRPCConfig gRPC 服务配置
type GRPCConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// 最大并发流数
	MaxConcurrentStreams uint32 `mapstructure:"max_concurrent_streams"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 为 false 时不连接 Redis，摘要缓存与限流均关闭
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// 连接池大小
	MaxPoolSize int `mapstructure:"max_pool_size"`
	// 超时（秒）
	ConnTimeout  int `mapstructure:"conn_timeout"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	// 为 false 时账务事件只写日志
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	// 重试次数与退避（毫秒）
	MaxRetries   int `mapstructure:"max_retries"`
	RetryBackoff int `mapstructure:"retry_backoff"`
	// 账务事件主题
	LedgerTopic string `mapstructure:"ledger_topic"`
	// 短信验证码派发主题
	OtpTopic string `mapstructure:"otp_topic"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// RateLimitConfig 接口限流配置
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	QPS     int  `mapstructure:"qps"`
	Burst   int  `mapstructure:"burst"`
}

// LoanConfig 贷款流程参数
type LoanConfig struct {
	// 审批通过后合同待签有效期
	ContractExpiry time.Duration `mapstructure:"contract_expiry"`
	// 拒绝后的冷静期
	RejectCooldown time.Duration `mapstructure:"reject_cooldown"`
	// 验证码有效期
	OtpTTL time.Duration `mapstructure:"otp_ttl"`
	// 验证码最大校验失败次数
	OtpMaxAttempts int `mapstructure:"otp_max_attempts"`
	// 重发提示间隔
	OtpResendAfter time.Duration `mapstructure:"otp_resend_after"`
	// bcrypt cost
	OtpHashCost int `mapstructure:"otp_hash_cost"`
	// 非空时固定下发该验证码，仅用于联调环境
	FixedOtpCode string `mapstructure:"fixed_otp_code"`
	// 账户摘要缓存时间
	SummaryCacheTTL time.Duration `mapstructure:"summary_cache_ttl"`
}

// RiskConfig 风控网关参数
type RiskConfig struct {
	MaxApprovedAmount string `mapstructure:"max_approved_amount"`
	MaxDebtRatio      string `mapstructure:"max_debt_ratio"`
}

// IDGenConfig 雪花算法节点配置
type IDGenConfig struct {
	Node int64 `mapstructure:"node"`
}

// Load 从 TOML 文件加载配置，支持 APP_ 前缀的环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.GRPC.Port <= 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required for %s driver", c.Database.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}
	if c.Loan.OtpMaxAttempts <= 0 {
		return fmt.Errorf("loan.otp_max_attempts must be positive")
	}
	if c.Loan.FixedOtpCode != "" && c.Environment == "prod" {
		return fmt.Errorf("loan.fixed_otp_code is not allowed in prod")
	}
	for name, raw := range map[string]string{
		"risk.max_approved_amount": c.Risk.MaxApprovedAmount,
		"risk.max_debt_ratio":      c.Risk.MaxDebtRatio,
	} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if !d.IsPositive() {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)
	v.SetDefault("grpc.max_concurrent_streams", 1000)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.log_enabled", false)
	v.SetDefault("database.slow_query_threshold", 1000)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.conn_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)
	v.SetDefault("kafka.ledger_topic", "loan.ledger.events")
	v.SetDefault("kafka.otp_topic", "loan.otp.sms")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/lending.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.qps", 50)
	v.SetDefault("ratelimit.burst", 100)

	v.SetDefault("loan.contract_expiry", "336h")
	v.SetDefault("loan.reject_cooldown", "24h")
	v.SetDefault("loan.otp_ttl", "5m")
	v.SetDefault("loan.otp_max_attempts", 5)
	v.SetDefault("loan.otp_resend_after", "60s")
	v.SetDefault("loan.otp_hash_cost", 10)
	v.SetDefault("loan.summary_cache_ttl", "10m")

	v.SetDefault("risk.max_approved_amount", "50000.00")
	v.SetDefault("risk.max_debt_ratio", "0.60")

	v.SetDefault("idgen.node", 1)
}
