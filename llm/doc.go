// Copyright (c) GraphRAG Authors.
// Licensed under the MIT License.

/*
Package llm 提供查询期工作流使用的最小 LLM 客户端。

只暴露一个同步补全接口（prompt in → text out），兼容 OpenAI
Chat Completions 协议的任何端点。流式、工具调用、多模态均不在
查询工作流的需要范围内。
*/
package llm
