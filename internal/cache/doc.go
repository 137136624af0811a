// Copyright (c) GraphRAG Authors.
// Licensed under the MIT License.

/*
包 cache 提供基于 Redis 的答案缓存能力，按问题指纹存取定稿答案。

# 概述

本包封装 go-redis 客户端，为工作流引擎提供答案级缓存。
Manager 负责连接生命周期管理，包括初始化、健康检查与优雅关闭。
写入采用 insert-if-absent 语义（SetNX）：同一指纹下先到的答案
保持权威，并发提问不会互相覆盖。

# 核心类型

  - Manager：缓存管理器，持有 Redis 客户端与连接池配置，
    提供 Get/SetIfAbsent/Delete/Ping/Close 操作，
    答案以 JSON 序列化存储。
  - Config：缓存配置，包含地址、密码、连接池大小、默认 TTL、
    健康检查间隔等。
*/
package cache
