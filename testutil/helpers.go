// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 提供通用的测试上下文与样例数据构造
//
// 使用方法:
//
//	ctx := testutil.TestContext(t)
//	doc := testutil.Doc("content", types.SourceVector)
// =============================================================================
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/BaSui01/graphrag/types"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestContextWithTimeout 返回带自定义超时的测试上下文
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// =============================================================================
// 📄 文档工厂
// =============================================================================

// Doc 构造一个未评分的检索文档
func Doc(content string, source types.Source) types.Document {
	return types.Document{
		Content:  content,
		Source:   source,
		Metadata: map[string]string{},
	}
}

// GradedDoc 构造一个已评分的检索文档
func GradedDoc(content string, source types.Source, relevant bool) types.Document {
	return Doc(content, source).WithRelevance(relevant)
}
