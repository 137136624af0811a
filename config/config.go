package config

import (
	"time"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 GraphRAG 的完整配置结构
type Config struct {
	// Workflow 自适应工作流配置
	Workflow WorkflowConfig `yaml:"workflow" env:"WORKFLOW"`

	// Neo4j 知识图谱配置
	Neo4j Neo4jConfig `yaml:"neo4j" env:"NEO4J"`

	// Database 向量存储（Postgres + pgvector）配置
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Redis 应答缓存配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// LLM 判断与生成模型配置
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// WebSearch 网络搜索配置
	WebSearch WebSearchConfig `yaml:"web_search" env:"WEB_SEARCH"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// WorkflowConfig 工作流配置
type WorkflowConfig struct {
	// 检索重试上限（不含首次检索）
	MaxRetrievalAttempts int `yaml:"max_retrieval_attempts" env:"MAX_RETRIEVAL_ATTEMPTS"`
	// 生成重试上限
	MaxGenerationAttempts int `yaml:"max_generation_attempts" env:"MAX_GENERATION_ATTEMPTS"`
	// 分解产生的子问题上限，超出截断
	MaxSubQuestions int `yaml:"max_sub_questions" env:"MAX_SUB_QUESTIONS"`
	// 每个来源返回的文档数
	TopK int `yaml:"top_k" env:"TOP_K"`
	// 单次工具调用超时
	ToolTimeout time.Duration `yaml:"tool_timeout" env:"TOOL_TIMEOUT"`
	// 单次判断调用超时
	JudgeTimeout time.Duration `yaml:"judge_timeout" env:"JUDGE_TIMEOUT"`
	// 检索预算耗尽后是否强制一次网络搜索回退
	WebFallbackEnabled bool `yaml:"web_fallback_enabled" env:"WEB_FALLBACK_ENABLED"`
	// 塞进生成提示词的证据 Token 上限
	EvidenceTokenLimit int `yaml:"evidence_token_limit" env:"EVIDENCE_TOKEN_LIMIT"`
	// 是否启用应答缓存
	EnableCache bool `yaml:"enable_cache" env:"ENABLE_CACHE"`
	// 应答缓存过期时间
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
}

// Neo4jConfig 知识图谱配置
type Neo4jConfig struct {
	// Bolt 地址
	URI string `yaml:"uri" env:"URI"`
	// 用户名
	Username string `yaml:"username" env:"USERNAME"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名
	Database string `yaml:"database" env:"DATABASE"`
}

// DatabaseConfig 向量存储数据库配置
type DatabaseConfig struct {
	// 主机
	Host string `yaml:"host" env:"HOST"`
	// 端口
	Port int `yaml:"port" env:"PORT"`
	// 用户名
	User string `yaml:"user" env:"USER"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名
	Name string `yaml:"name" env:"NAME"`
	// SSL 模式
	SSLMode string `yaml:"ssl_mode" env:"SSL_MODE"`
	// 文档块表名
	ChunkTable string `yaml:"chunk_table" env:"CHUNK_TABLE"`
	// 最大连接数
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	// 最大空闲连接
	MaxIdleConns int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	// 连接最大生命周期
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL（OpenAI 兼容端点）
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 模型名称
	Model string `yaml:"model" env:"MODEL"`
	// 采样温度
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// WebSearchConfig 网络搜索配置
type WebSearchConfig struct {
	// API Key，为空时禁用网络搜索
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 最多返回结果数
	MaxResults int `yaml:"max_results" env:"MAX_RESULTS"`
	// 每秒请求上限
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🧩 默认配置
// =============================================================================

// DefaultConfig 返回完整默认配置
func DefaultConfig() *Config {
	return &Config{
		Workflow:  DefaultWorkflowConfig(),
		Neo4j:     DefaultNeo4jConfig(),
		Database:  DefaultDatabaseConfig(),
		Redis:     DefaultRedisConfig(),
		LLM:       DefaultLLMConfig(),
		WebSearch: DefaultWebSearchConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultWorkflowConfig 返回默认工作流配置
func DefaultWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		MaxRetrievalAttempts:  2,
		MaxGenerationAttempts: 2,
		MaxSubQuestions:       4,
		TopK:                  3,
		ToolTimeout:           15 * time.Second,
		JudgeTimeout:          30 * time.Second,
		WebFallbackEnabled:    true,
		EvidenceTokenLimit:    3000,
		EnableCache:           true,
		CacheTTL:              10 * time.Minute,
	}
}

// DefaultNeo4jConfig 返回默认知识图谱配置
func DefaultNeo4jConfig() Neo4jConfig {
	return Neo4jConfig{
		URI:      "bolt://localhost:7687",
		Username: "neo4j",
		Password: "password",
		Database: "neo4j",
	}
}

// DefaultDatabaseConfig 返回默认向量存储配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "graphrag",
		Password:        "",
		Name:            "graphrag",
		SSLMode:         "disable",
		ChunkTable:      "document_chunks",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		BaseURL:     "https://api.openai.com",
		Model:       "gpt-4o-mini",
		Temperature: 0,
		Timeout:     30 * time.Second,
	}
}

// DefaultWebSearchConfig 返回默认网络搜索配置
func DefaultWebSearchConfig() WebSearchConfig {
	return WebSearchConfig{
		BaseURL:      "https://api.tavily.com",
		MaxResults:   3,
		RateLimitRPS: 1,
		Timeout:      15 * time.Second,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "graphrag",
		SampleRate:   1.0,
	}
}
