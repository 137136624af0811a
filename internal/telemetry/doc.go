// Copyright (c) GraphRAG Authors.
// Licensed under the MIT License.

/*
包 telemetry 封装 OpenTelemetry SDK 的初始化与关闭。

链路追踪通过 OTLP gRPC 导出；指标由 internal/metrics 的
Prometheus Collector 负责，本包不创建 MeterProvider。
遥测关闭时不连接任何外部服务，全局 TracerProvider 保持 noop。
*/
package telemetry
