package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/graphrag/types"
)

// =============================================================================
// 🧠 进程内缓存（Redis 不可用时的降级方案）
// =============================================================================

// memoryEntry 单个缓存条目，携带过期时刻
type memoryEntry struct {
	answer    types.Answer
	expiresAt time.Time
}

// Memory 进程内 TTL 答案缓存。
// 接口与 Manager 对齐，Redis 不可用时作为降级替身接入引擎。
// 容量受 maxEntries 约束，写满后惰性清理过期条目，仍满则拒绝写入
// （缓存写入失败不影响正确性，只影响命中率）。
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	maxEntries int
	defaultTTL time.Duration
	logger     *zap.Logger
}

// NewMemory 创建进程内缓存
func NewMemory(maxEntries int, defaultTTL time.Duration, logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultConfig().DefaultTTL
	}
	return &Memory{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		logger:     logger.With(zap.String("component", "memory_cache")),
	}
}

// Get 按指纹读取缓存答案。未命中或已过期返回 (nil, false, nil)。
func (m *Memory) Get(_ context.Context, fingerprint string) (*types.Answer, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[fingerprint]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		// 可能已被并发写入刷新，复查后再删
		if cur, ok := m.entries[fingerprint]; ok && time.Now().After(cur.expiresAt) {
			delete(m.entries, fingerprint)
		}
		m.mu.Unlock()
		return nil, false, nil
	}

	answer := entry.answer
	return &answer, true, nil
}

// SetIfAbsent 按指纹写入答案，已存在且未过期时不覆盖。
func (m *Memory) SetIfAbsent(_ context.Context, fingerprint string, answer *types.Answer, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if cur, ok := m.entries[fingerprint]; ok && now.Before(cur.expiresAt) {
		return nil
	}

	if len(m.entries) >= m.maxEntries {
		m.evictExpired(now)
	}
	if len(m.entries) >= m.maxEntries {
		m.logger.Debug("memory cache full, dropping write", zap.String("fingerprint", fingerprint))
		return nil
	}

	m.entries[fingerprint] = memoryEntry{
		answer:    *answer,
		expiresAt: now.Add(ttl),
	}
	return nil
}

// Delete 删除指定指纹的缓存答案
func (m *Memory) Delete(_ context.Context, fingerprints ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, fp := range fingerprints {
		delete(m.entries, fp)
	}
	return nil
}

// Len 返回当前条目数（含未清理的过期条目），用于测试与观测。
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// evictExpired 清理已过期条目。调用方必须持有写锁。
func (m *Memory) evictExpired(now time.Time) {
	for fp, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, fp)
		}
	}
}
