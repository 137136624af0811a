// Copyright (c) GraphRAG Authors.
// Licensed under the MIT License.

/*
Package config 提供 GraphRAG 的统一配置加载。

配置优先级: 默认值 → YAML 文件 → 环境变量（GRAPHRAG_ 前缀）。

使用方法:

	cfg, err := config.NewLoader().
	    WithConfigPath("config.yaml").
	    Load()

非法配置（如非正的重试上限）在构造期即失败，绝不进入问题处理流程。
*/
package config
