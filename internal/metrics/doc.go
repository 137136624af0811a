// Copyright (c) GraphRAG Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的工作流指标采集能力，覆盖
问答、检索工具、判断降级与缓存四大维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
支持多维度 label 分组，便于 Grafana 等工具进行可视化与告警。

# 主要能力

  - 问答指标：问题总数、端到端耗时，按 route/cached 分组。
  - 尝试指标：检索重写与重新生成次数直方图。
  - 工具指标：检索工具调用总数与耗时，按 source/status 分组。
  - 判断指标：LLM 判断降级计数，按 task 分组。
  - 缓存指标：命中/未命中/故障计数。
*/
package metrics
