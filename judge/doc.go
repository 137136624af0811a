// Copyright (c) GraphRAG Authors.
// Licensed under the MIT License.

/*
Package judge 提供工作流的全部判断任务：路由分类、问题分解、
文档相关性评分、查询重写、答案质量评分。

每个任务的输出都是受约束的机器可解析结果（枚举或布尔），绝不信任
自由文本去驱动状态转换。输出不符合 schema 时使用该任务的保守默认值，
调用方通过返回的 fallback 标记感知降级，错误不向上抛出。
*/
package judge
