// =============================================================================
// 🔌 组件装配
// =============================================================================
// 把配置展开为完整的工作流引擎。外部依赖逐个装配，单个依赖
// 不可用时降级：缺图谱/向量库少一个检索来源，缺 Redis 少缓存，
// 问答流程本身不受影响。只有 LLM 端点是硬依赖。
// =============================================================================

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/graphrag/config"
	"github.com/BaSui01/graphrag/internal/cache"
	"github.com/BaSui01/graphrag/internal/metrics"
	"github.com/BaSui01/graphrag/judge"
	"github.com/BaSui01/graphrag/llm"
	"github.com/BaSui01/graphrag/retrieval"
	"github.com/BaSui01/graphrag/types"
	"github.com/BaSui01/graphrag/workflow"
)

// wiredEngine 持有引擎与需要显式关闭的连接。
type wiredEngine struct {
	engine       *workflow.Engine
	cacheManager *cache.Manager
	graphDriver  neo4j.DriverWithContext
	sqlDB        interface{ Close() error }
}

func (w *wiredEngine) close(ctx context.Context, logger *zap.Logger) {
	if w.cacheManager != nil {
		if err := w.cacheManager.Close(); err != nil {
			logger.Warn("closing cache failed", zap.Error(err))
		}
	}
	if w.graphDriver != nil {
		if err := w.graphDriver.Close(ctx); err != nil {
			logger.Warn("closing neo4j driver failed", zap.Error(err))
		}
	}
	if w.sqlDB != nil {
		if err := w.sqlDB.Close(); err != nil {
			logger.Warn("closing database failed", zap.Error(err))
		}
	}
}

// buildEngine 装配全部组件。
func buildEngine(cfg *config.Config, logger *zap.Logger) (*wiredEngine, error) {
	if cfg.LLM.APIKey == "" {
		return nil, types.NewError(types.ErrConfiguration, "llm.api_key is required")
	}

	collector := metrics.NewCollector("graphrag", logger)

	provider := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	embedder := llm.NewEmbeddingsClient(llm.EmbeddingsConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLM.Timeout,
	}, logger)

	j := judge.New(provider, judge.Config{Timeout: cfg.Workflow.JudgeTimeout}, logger)
	j.OnFallback(func(task judge.Task) {
		collector.RecordJudgmentFallback(string(task))
	})

	wired := &wiredEngine{}
	tools := retrieval.Tools{}

	// 知识图谱
	graphTool := openGraphTool(cfg.Neo4j, cfg.Workflow.TopK, logger)
	if graphTool != nil {
		tools.Structured = graphTool
		wired.graphDriver = graphTool.Driver()
	}

	// 向量库
	if vectorTool, sqlDB := openVectorTool(cfg.Database, embedder, logger); vectorTool != nil {
		if graphTool != nil {
			vectorTool.WithGraphEnricher(graphTool.Enrich)
		}
		tools.Vector = vectorTool
		wired.sqlDB = sqlDB
	}

	// 网络搜索
	if cfg.WebSearch.APIKey != "" {
		tools.Web = retrieval.NewWebTool(retrieval.WebSearchConfig{
			APIKey:       cfg.WebSearch.APIKey,
			BaseURL:      cfg.WebSearch.BaseURL,
			MaxResults:   cfg.WebSearch.MaxResults,
			RateLimitRPS: cfg.WebSearch.RateLimitRPS,
			Timeout:      cfg.WebSearch.Timeout,
		}, logger)
	} else {
		logger.Warn("web search api key missing, web route degraded")
	}

	orch := retrieval.NewOrchestrator(tools, retrieval.Config{
		TopK:        cfg.Workflow.TopK,
		ToolTimeout: cfg.Workflow.ToolTimeout,
	}, logger)
	orch.Observe(func(source types.Source, status string, elapsed time.Duration) {
		collector.RecordToolCall(string(source), status, elapsed)
	})

	generator := workflow.NewGenerator(provider, workflow.GeneratorConfig{
		EvidenceTokenLimit: cfg.Workflow.EvidenceTokenLimit,
		Timeout:            cfg.Workflow.JudgeTimeout,
	}, logger)

	controller := workflow.NewController(j, orch, generator, workflow.Config{
		MaxRetrievalAttempts:  cfg.Workflow.MaxRetrievalAttempts,
		MaxGenerationAttempts: cfg.Workflow.MaxGenerationAttempts,
		MaxSubQuestions:       cfg.Workflow.MaxSubQuestions,
		WebFallbackEnabled:    cfg.Workflow.WebFallbackEnabled,
	}, logger)

	opts := []workflow.EngineOption{workflow.WithMetrics(collector)}

	if cfg.Workflow.EnableCache {
		manager, err := cache.NewManager(cache.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DefaultTTL:   cfg.Workflow.CacheTTL,
		}, logger)
		if err != nil {
			// Redis 不可用时降级为进程内缓存：命中只在本进程内生效
			logger.Warn("redis not available, falling back to in-process answer cache", zap.Error(err))
			opts = append(opts, workflow.WithCache(cache.NewMemory(0, cfg.Workflow.CacheTTL, logger)))
		} else {
			wired.cacheManager = manager
			opts = append(opts, workflow.WithCache(manager))
		}
	}

	engine, err := workflow.NewEngine(cfg.Workflow, controller, logger, opts...)
	if err != nil {
		wired.close(context.Background(), logger)
		return nil, err
	}

	wired.engine = engine
	return wired, nil
}

// openGraphTool 连接 Neo4j。连接失败返回 nil，结构化检索降级。
func openGraphTool(cfg config.Neo4jConfig, limit int, logger *zap.Logger) *retrieval.GraphTool {
	if cfg.URI == "" {
		logger.Warn("neo4j uri missing, structured route degraded")
		return nil
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		logger.Warn("neo4j driver creation failed, structured route degraded", zap.Error(err))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		logger.Warn("neo4j not reachable, structured route degraded", zap.Error(err))
		_ = driver.Close(ctx)
		return nil
	}

	return retrieval.NewGraphTool(driver, cfg.Database, limit, logger)
}

// openVectorTool 连接 Postgres + pgvector。失败返回 nil，语义检索降级。
func openVectorTool(cfg config.DatabaseConfig, embedder *llm.EmbeddingsClient, logger *zap.Logger) (*retrieval.VectorTool, interface{ Close() error }) {
	if cfg.Host == "" {
		logger.Warn("database host missing, semantic route degraded")
		return nil, nil
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Warn("postgres not available, semantic route degraded", zap.Error(err))
		return nil, nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("postgres pool unavailable, semantic route degraded", zap.Error(err))
		return nil, nil
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return retrieval.NewVectorTool(db, cfg.ChunkTable, embedder.Embed, logger), sqlDB
}
