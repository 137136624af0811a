package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/graphrag/config"
	"github.com/BaSui01/graphrag/testutil"
	"github.com/BaSui01/graphrag/testutil/mocks"
	"github.com/BaSui01/graphrag/types"
)

// memoryCache 进程内 ResponseCache，引擎测试无需 Redis。
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*types.Answer
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*types.Answer{}}
}

func (c *memoryCache) Get(ctx context.Context, fingerprint string) (*types.Answer, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	a, ok := c.entries[fingerprint]
	if !ok {
		return nil, false, nil
	}
	clone := *a
	return &clone, true, nil
}

func (c *memoryCache) SetIfAbsent(ctx context.Context, fingerprint string, answer *types.Answer, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[fingerprint]; !ok {
		clone := *answer
		c.entries[fingerprint] = &clone
	}
	return nil
}

func newTestEngine(t *testing.T, opts ...EngineOption) (*Engine, *mocks.MockRetriever) {
	t.Helper()
	retriever := &mocks.MockRetriever{Docs: []types.Document{
		testutil.Doc("evidence", types.SourceVector),
	}}
	generator := &mocks.MockGenerator{Answer: "the answer"}
	controller := NewController(&mocks.MockJudgment{}, retriever, generator, DefaultConfig(), zap.NewNop())

	engine, err := NewEngine(config.DefaultWorkflowConfig(), controller, zap.NewNop(), opts...)
	require.NoError(t, err)
	return engine, retriever
}

// ============================================================
// 构造与校验
// ============================================================

func TestNewEngine_RejectsBadConfig(t *testing.T) {
	controller := NewController(&mocks.MockJudgment{}, &mocks.MockRetriever{}, &mocks.MockGenerator{}, DefaultConfig(), zap.NewNop())

	cfg := config.DefaultWorkflowConfig()
	cfg.MaxRetrievalAttempts = 0

	_, err := NewEngine(cfg, controller, zap.NewNop())
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrConfiguration))

	_, err = NewEngine(config.DefaultWorkflowConfig(), nil, zap.NewNop())
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrConfiguration))
}

// ============================================================
// Ask
// ============================================================

func TestEngine_AskEmptyQuestion(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Ask(context.Background(), "   \t ")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrEmptyQuestion))
}

func TestEngine_AskProducesTracedAnswer(t *testing.T) {
	engine, _ := newTestEngine(t)

	answer, err := engine.Ask(context.Background(), "what is the answer?")
	require.NoError(t, err)

	assert.Equal(t, "the answer", answer.Text)
	assert.NotEmpty(t, answer.Trace.TraceID)
	assert.Equal(t, types.Fingerprint("what is the answer?"), answer.Trace.Fingerprint)
	assert.Equal(t, types.RouteSemantic, answer.Trace.Route)
	assert.False(t, answer.Trace.Cached)
	assert.GreaterOrEqual(t, answer.Trace.Elapsed, time.Duration(0))
}

func TestEngine_RepeatedQuestionServedFromCache(t *testing.T) {
	cache := newMemoryCache()
	engine, retriever := newTestEngine(t, WithCache(cache))

	first, err := engine.Ask(context.Background(), "what is a holographic will?")
	require.NoError(t, err)
	assert.False(t, first.Trace.Cached)

	second, err := engine.Ask(context.Background(), "what is a holographic will?")
	require.NoError(t, err)
	assert.True(t, second.Trace.Cached)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Trace.Fingerprint, second.Trace.Fingerprint)
	// 追踪 ID 每次提问独立
	assert.NotEqual(t, first.Trace.TraceID, second.Trace.TraceID)
	// 第二次没有触发检索
	assert.Equal(t, 1, retriever.CallCount())
}

// 指纹对大小写和空白不敏感：形变问题命中同一条缓存。
func TestEngine_FingerprintNormalization(t *testing.T) {
	cache := newMemoryCache()
	engine, retriever := newTestEngine(t, WithCache(cache))

	_, err := engine.Ask(context.Background(), "What  is a holographic will?")
	require.NoError(t, err)

	second, err := engine.Ask(context.Background(), "  what is A holographic WILL?  ")
	require.NoError(t, err)
	assert.True(t, second.Trace.Cached)
	assert.Equal(t, 1, retriever.CallCount())
}

// 缓存故障只降级为未命中，问答照常进行。
func TestEngine_CacheFailureDegradesToMiss(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = assert.AnError
	engine, _ := newTestEngine(t, WithCache(cache))

	answer, err := engine.Ask(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer.Text)
	assert.False(t, answer.Trace.Cached)
}

func TestEngine_CancelledContext(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Ask(testutil.CancelledContext(), "question")
	require.Error(t, err)
}
