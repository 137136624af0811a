// Copyright (c) GraphRAG Authors.
// Licensed under the MIT License.

/*
Package workflow 实现有界的自适应检索问答状态机。

# 概述

一个问题依次经过：路由分类 →（可选分解）→ 检索 → 文档评分 →
（重写重试 | 继续）→ 生成 → 答案评分 →（重新生成 | 网络回退 | 定稿）。
控制流是显式的有限状态机：命名状态集合、(状态, 结局) → 下一状态的
转换表、承载全部数据的 WorkflowState 值——不依赖任何运行期图构建。

# 边界

  - 检索与生成的重试次数各有配置上限，绝不无界循环
  - 每次工具/判断调用都有独立超时，失败降级而不崩溃
  - 分解出的子问题并发运行独立的子工作流，Assembler 按原始顺序合并
  - 会话取消时所有在途子工作流协作式取消，不贡献残缺答案

# 核心类型

  - Engine     — 公共入口（Ask），串接缓存、指标与追踪
  - Controller — 状态机本体
  - Generator  — 基于证据的答案草稿生成
  - State / Outcome / transitions — 显式转换表
*/
package workflow
