// Copyright (c) GraphRAG Authors.
// Licensed under the MIT License.

/*
graphrag 是自适应检索问答工作流的命令行入口。

# 用法

	graphrag chat                        # 启动交互式问答
	graphrag chat --config config.yaml   # 指定配置文件
	graphrag ask "question"              # 单次提问
	graphrag version                     # 显示版本信息

外部依赖（Neo4j、Postgres、Redis、网络搜索）都是可降级的：
连接失败只会损失对应检索来源或缓存，问答照常进行。
*/
package main
