// Copyright (c) GraphRAG Authors.
// Licensed under the MIT License.

/*
Package types 提供 GraphRAG 工作流的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 judge、retrieval、workflow
等上层模块提供统一的类型契约。

# 核心类型

  - Document / Source      — 检索文档及其来源（graph / vector / web）
  - Route                  — 检索路由枚举（structured / semantic / hybrid / web_search）
  - WorkflowState          — 单个子工作流的全部可变状态
  - Answer / Trace / Caveat — 最终答案与可观测性轨迹
  - Error / ErrorCode      — 结构化错误体系，含 Retryable 标记
*/
package types
