// Copyright (c) GraphRAG Authors.
// Licensed under the MIT License.

/*
Package retrieval 提供三个检索工具（图查询、向量检索、网络搜索）
与按路由分发的编排器。

检索来源是封闭枚举：新增来源是明确的枚举与分发表扩展，而不是可发现
的插件。单个工具超时或出错只产生该来源的空结果集，绝不中断编排器；
证据缺失由下游的相关性评分自然发现。
*/
package retrieval
