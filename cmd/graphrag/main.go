// =============================================================================
// GraphRAG 主入口
// =============================================================================
// 自适应检索问答工作流的命令行入口，包含交互式问答与单次提问
//
// 使用方法:
//
//	graphrag chat                        # 启动交互式问答
//	graphrag chat --config config.yaml   # 指定配置文件
//	graphrag ask "question"              # 单次提问
//	graphrag version                     # 显示版本信息
// =============================================================================

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/graphrag/config"
	"github.com/BaSui01/graphrag/internal/telemetry"
	"github.com/BaSui01/graphrag/types"
	"github.com/BaSui01/graphrag/workflow"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		runChat(os.Args[2:])
	case "ask":
		runAsk(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 💬 chat 命令
// =============================================================================

func runChat(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	metricsAddr := fs.String("metrics-addr", "", "Prometheus metrics listen address (empty disables)")
	fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, logger, shutdown := mustBuildEngine(*configPath, *metricsAddr)
	defer shutdown()

	logger.Info("starting interactive session",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	fmt.Println("GraphRAG interactive session. Type 'quit' or 'exit' to leave.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		answerOne(ctx, engine, line)

		if ctx.Err() != nil {
			break
		}
	}

	fmt.Println("Bye.")
}

// =============================================================================
// ❓ ask 命令
// =============================================================================

func runAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "Usage: graphrag ask [--config <path>] <question>")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, _, shutdown := mustBuildEngine(*configPath, "")
	defer shutdown()

	answerOne(ctx, engine, question)
}

// answerOne 提问并打印答案与溯源信息。
func answerOne(ctx context.Context, engine *workflow.Engine, question string) {
	answer, err := engine.Ask(ctx, question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	fmt.Println()
	fmt.Println(answer.Text)
	fmt.Println()
	fmt.Printf("  route=%s attempts=%d/%d elapsed=%s",
		answer.Trace.Route,
		answer.Trace.RetrievalAttempts,
		answer.Trace.GenerationAttempts,
		answer.Trace.Elapsed.Round(time.Millisecond))
	if answer.Trace.Cached {
		fmt.Print(" (cached)")
	}
	fmt.Println()
	if len(answer.Trace.Caveats) > 0 {
		fmt.Printf("  caveats: %s\n", joinCaveats(answer.Trace.Caveats))
	}
	fmt.Println()
}

func joinCaveats(caveats []types.Caveat) string {
	parts := make([]string, len(caveats))
	for i, c := range caveats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

// mustBuildEngine 加载配置并组装引擎，失败即退出。
// 返回的 shutdown 负责冲刷遥测与关闭连接。
func mustBuildEngine(configPath, metricsAddr string) (*workflow.Engine, *zap.Logger, func()) {
	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	wired, err := buildEngine(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build engine", zap.Error(err))
	}

	var metricsSrv *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		logger.Info("metrics exposed", zap.String("addr", metricsAddr))
	}

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(ctx)
		}
		wired.close(ctx, logger)
		if otelProviders != nil {
			if err := otelProviders.Shutdown(ctx); err != nil {
				logger.Warn("telemetry shutdown failed", zap.Error(err))
			}
		}
		_ = logger.Sync()
	}

	return wired.engine, logger, shutdown
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("GraphRAG %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`GraphRAG - Adaptive retrieval question answering

Usage:
  graphrag <command> [options]

Commands:
  chat      Start an interactive question-answering session
  ask       Ask a single question and exit
  version   Show version information
  help      Show this help message

Options for 'chat':
  --config <path>        Path to configuration file (YAML)
  --metrics-addr <addr>  Expose Prometheus metrics (e.g. :9090)

Examples:
  graphrag chat
  graphrag chat --config /etc/graphrag/config.yaml --metrics-addr :9090
  graphrag ask "What is a holographic will?"
  graphrag version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "ts"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level)
	return zap.New(core, zap.AddCaller())
}
