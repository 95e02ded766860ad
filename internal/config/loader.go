// Package config 提供配置加载功能
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load 加载配置文件
// 按优先级加载：默认配置 -> 环境配置 -> 环境变量
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 加载默认配置
	if err := loadConfigFile(v, "configs/config.yaml", false); err != nil {
		return nil, err
	}

	// 2. 加载环境特定配置
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	envFile := fmt.Sprintf("configs/config.%s.yaml", env)
	if err := loadConfigFile(v, envFile, true); err != nil {
		return nil, err
	}

	// 3. 绑定环境变量 (直接覆盖)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 设置默认值 (兜底)
	setDefaults(v)

	// 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 分析规则表允许留空走内置默认表
	applyAnalysisDefaults(&cfg.Analysis)

	return &cfg, nil
}

// loadConfigFile 读取文件，执行环境变量替换，并加载到 viper
func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// 执行环境变量替换
	expanded := expandEnv(string(content))

	// 加载到 viper
	reader := strings.NewReader(expanded)
	if v.ConfigFileUsed() == "" {
		if err := v.ReadConfig(reader); err != nil {
			return fmt.Errorf("failed to read processed config %s: %w", path, err)
		}
		// 手动标记已加载文件，防止后续 ReadInConfig 报错
		v.SetConfigFile(path)
	} else {
		if err := v.MergeConfig(reader); err != nil {
			return fmt.Errorf("failed to merge processed config %s: %w", path, err)
		}
	}

	return nil
}

// expandEnv 替换字符串中的 ${VAR:default} 占位符
func expandEnv(s string) string {
	// 匹配 ${VAR} 或 ${VAR:default}
	// g1: 变量名, g2: 默认值部分（含冒号）, g3: 默认值内容
	re := regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		submatch := re.FindStringSubmatch(match)
		key := submatch[1]
		hasDefault := submatch[2] != ""
		defVal := submatch[3]

		val, ok := os.LookupEnv(key)
		if ok {
			return val
		}
		if hasDefault {
			return defVal
		}
		return match // 原样返回，以便识别未定义的变量
	})
}

// MustLoad 加载配置，失败时 panic
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	// 应用默认值
	v.SetDefault("app.name", "shadow-ai-sentinel")
	v.SetDefault("app.version", "v0.0.0")
	v.SetDefault("app.env", "development")

	// HTTP 服务器默认值
	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "60s")
	v.SetDefault("server.http.idle_timeout", "120s")

	// 数据库默认值
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.database", "shadow_ai")
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 50)
	v.SetDefault("database.postgres.max_idle_conns", 10)
	v.SetDefault("database.postgres.conn_max_lifetime", "30m")
	v.SetDefault("database.postgres.conn_max_idle_time", "5m")

	// Redis 默认值
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.pool_size", 100)
	v.SetDefault("cache.redis.min_idle_conns", 10)
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.redis.read_timeout", "3s")
	v.SetDefault("cache.redis.write_timeout", "3s")
	v.SetDefault("cache.summary_ttl", "5m")

	// 消息队列默认值
	v.SetDefault("messaging.redis_stream.max_len", 100000)
	v.SetDefault("messaging.redis_stream.block_timeout", "5s")
	v.SetDefault("messaging.redis_stream.retry_limit", 3)
	v.SetDefault("messaging.redis_stream.retry_backoff.initial", "1s")
	v.SetDefault("messaging.redis_stream.retry_backoff.max", "1m")
	v.SetDefault("messaging.redis_stream.retry_backoff.multiplier", 2.0)

	// 可观测性默认值
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")

	// 安全默认值
	v.SetDefault("security.jwt.enabled", false)
	v.SetDefault("security.jwt.issuer", "shadow-ai-sentinel")

	// 分析默认值
	v.SetDefault("analysis.large_transfer_threshold", 4096)
	v.SetDefault("analysis.large_payload_threshold", 10000)
	v.SetDefault("analysis.high_sens_payload_threshold", 4096)
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.max_row_errors", 0)
	v.SetDefault("analysis.top_risks", 3)

	// 价值评估默认值
	v.SetDefault("enrichment.enabled", false)
	v.SetDefault("enrichment.base_url", "https://api.openai.com/v1")
	v.SetDefault("enrichment.model", "gpt-4o-mini")
	v.SetDefault("enrichment.timeout", "60s")
	v.SetDefault("enrichment.max_retries", 3)
}

// applyAnalysisDefaults 填充内置规则表
// 配置文件未给出的列表取内置默认，便于开箱即用；显式配置完全覆盖。
func applyAnalysisDefaults(a *AnalysisConfig) {
	if len(a.HighSensitivityDepartments) == 0 {
		a.HighSensitivityDepartments = []string{
			"Clinical", "Claims", "Legal", "Trading", "Underwriting", "Wealth Management",
		}
	}
	if len(a.MediumSensitivityDepartments) == 0 {
		a.MediumSensitivityDepartments = []string{"Finance", "HR"}
	}
	if len(a.AllowedProviders) == 0 {
		a.AllowedProviders = []string{"github_copilot"}
	}
	if len(a.PIIKeywords) == 0 {
		a.PIIKeywords = []string{
			"patient", "claim", "record", "ssn", "dob", "mrn",
			"medical", "diagnosis", "prescription", "phi", "pii",
			"confidential", "hipaa",
		}
	}
	if len(a.AIIndicators) == 0 {
		a.AIIndicators = []string{
			"ai", "gpt", "llm", "chat", "copilot", "assistant", "gemini", "claude",
		}
	}
	if len(a.ProviderDomains) == 0 {
		a.ProviderDomains = []ProviderDomainRule{
			{Domain: "api.openai.com", Provider: "openai", Service: "api"},
			{Domain: "chat.openai.com", Provider: "openai", Service: "web_chat"},
			{Domain: "openai.com", Provider: "openai", Service: "unclassified"},
			{Domain: "api.anthropic.com", Provider: "anthropic", Service: "api"},
			{Domain: "console.anthropic.com", Provider: "anthropic", Service: "web_chat"},
			{Domain: "anthropic.com", Provider: "anthropic", Service: "unclassified"},
			{Domain: "claude.ai", Provider: "anthropic", Service: "web_chat"},
			{Domain: "generativelanguage.googleapis.com", Provider: "google", Service: "api"},
			{Domain: "gemini.google.com", Provider: "google", Service: "web_chat"},
			{Domain: "api.githubcopilot.com", Provider: "github_copilot", Service: "code_completion"},
			{Domain: "githubcopilot.com", Provider: "github_copilot", Service: "code_completion"},
			{Domain: "api.perplexity.ai", Provider: "perplexity", Service: "api"},
			{Domain: "perplexity.ai", Provider: "perplexity", Service: "web_chat"},
		}
	}
}
