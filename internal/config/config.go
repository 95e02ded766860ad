// Package config 提供配置加载和管理功能
package config

import (
	"time"

	apperrors "shadow-ai-sentinel/pkg/errors"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Database      DatabaseConfig      `yaml:"database" mapstructure:"database"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Messaging     MessagingConfig     `yaml:"messaging" mapstructure:"messaging"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
	Analysis      AnalysisConfig      `yaml:"analysis" mapstructure:"analysis"`
	Enrichment    EnrichmentConfig    `yaml:"enrichment" mapstructure:"enrichment"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	Database        string        `yaml:"database" mapstructure:"database"`
	SSLMode         string        `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis      RedisConfig   `yaml:"redis" mapstructure:"redis"`
	SummaryTTL time.Duration `yaml:"summary_ttl" mapstructure:"summary_ttl"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// MessagingConfig 消息队列配置
type MessagingConfig struct {
	RedisStream RedisStreamConfig `yaml:"redis_stream" mapstructure:"redis_stream"`
}

// RedisStreamConfig Redis Stream 配置
type RedisStreamConfig struct {
	MaxLen       int64         `yaml:"max_len" mapstructure:"max_len"`
	BlockTimeout time.Duration `yaml:"block_timeout" mapstructure:"block_timeout"`
	RetryLimit   int           `yaml:"retry_limit" mapstructure:"retry_limit"`
	RetryBackoff BackoffConfig `yaml:"retry_backoff" mapstructure:"retry_backoff"`
}

// BackoffConfig 退避配置
type BackoffConfig struct {
	Initial    time.Duration `yaml:"initial" mapstructure:"initial"`
	Max        time.Duration `yaml:"max" mapstructure:"max"`
	Multiplier float64       `yaml:"multiplier" mapstructure:"multiplier"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	JWT  JWTConfig  `yaml:"jwt" mapstructure:"jwt"`
	CORS CORSConfig `yaml:"cors" mapstructure:"cors"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Secret  string `yaml:"secret" mapstructure:"secret"`
	Issuer  string `yaml:"issuer" mapstructure:"issuer"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}

// ProviderDomainRule 供应商域名映射规则
type ProviderDomainRule struct {
	Domain   string `yaml:"domain" mapstructure:"domain"`
	Provider string `yaml:"provider" mapstructure:"provider"`
	Service  string `yaml:"service" mapstructure:"service"`
}

// AnalysisConfig 分析规则配置
// 分类规则的全部输入：部门敏感度集合、字节阈值、供应商域名表、PII 关键词。
// 启动时加载一次，之后只读。
type AnalysisConfig struct {
	HighSensitivityDepartments   []string             `yaml:"high_sensitivity_departments" mapstructure:"high_sensitivity_departments"`
	MediumSensitivityDepartments []string             `yaml:"medium_sensitivity_departments" mapstructure:"medium_sensitivity_departments"`
	LargeTransferThreshold       int64                `yaml:"large_transfer_threshold" mapstructure:"large_transfer_threshold"`
	LargePayloadThreshold        int64                `yaml:"large_payload_threshold" mapstructure:"large_payload_threshold"`
	HighSensPayloadThreshold     int64                `yaml:"high_sens_payload_threshold" mapstructure:"high_sens_payload_threshold"`
	AllowedProviders             []string             `yaml:"allowed_providers" mapstructure:"allowed_providers"`
	PIIKeywords                  []string             `yaml:"pii_keywords" mapstructure:"pii_keywords"`
	AIIndicators                 []string             `yaml:"ai_indicators" mapstructure:"ai_indicators"`
	ProviderDomains              []ProviderDomainRule `yaml:"provider_domains" mapstructure:"provider_domains"`
	Workers                      int                  `yaml:"workers" mapstructure:"workers"`
	MaxRowErrors                 int                  `yaml:"max_row_errors" mapstructure:"max_row_errors"`
	TopRisks                     int                  `yaml:"top_risks" mapstructure:"top_risks"`
}

// EnrichmentConfig 价值评估配置
type EnrichmentConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey     string        `yaml:"api_key" mapstructure:"api_key"`
	Model      string        `yaml:"model" mapstructure:"model"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
}

// Validate 校验分析配置
// 每个下游分类决策都依赖这份配置，缺失或非法时在任何分类开始前终止运行。
func (c *AnalysisConfig) Validate() error {
	if len(c.ProviderDomains) == 0 {
		return apperrors.ErrProviderTableEmpty
	}
	for _, rule := range c.ProviderDomains {
		if rule.Domain == "" || rule.Provider == "" {
			return apperrors.ErrConfigInvalid.WithDetail("provider domain rule missing domain or provider")
		}
	}
	if len(c.HighSensitivityDepartments) == 0 && len(c.MediumSensitivityDepartments) == 0 {
		return apperrors.ErrSensitivitySetEmpty
	}
	if c.LargeTransferThreshold <= 0 || c.LargePayloadThreshold <= 0 || c.HighSensPayloadThreshold <= 0 {
		return apperrors.ErrThresholdInvalid
	}
	if len(c.PIIKeywords) == 0 {
		return apperrors.ErrPIIKeywordListEmpty
	}
	if c.Workers < 0 || c.MaxRowErrors < 0 || c.TopRisks < 0 {
		return apperrors.ErrConfigInvalid.WithDetail("workers, max_row_errors and top_risks must be non-negative")
	}
	return nil
}
