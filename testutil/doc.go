// Copyright (c) GraphRAG Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 GraphRAG 测试的共享工具和辅助函数。

# 概述

testutil 包为整个项目的单元测试提供统一的辅助能力，
避免各包重复实现相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 文档工厂: Doc / GradedDoc，简化检索文档样例构造

# 子包

  - testutil/mocks: Mock 实现，包括 ScriptedProvider（LLM Provider，
    按脚本逐条返回响应）、MockJudgment（判断服务，函数字段注入）、
    MockRetriever 与 MockGenerator

# 使用示例

	ctx := testutil.TestContext(t)
	provider := mocks.NewScriptedProvider(`{"route": "semantic", "compound": false}`)
	decision := j.ClassifyRoute(ctx, "what is a holographic will")
*/
package testutil
