// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xslog: 结构化日志构建器，基于 log/slog，支持文件轮转与动态级别
//
// 设计原则：
//   - 产出标准库 *slog.Logger，不引入自定义日志接口
//   - 指标走 OpenTelemetry（见 xstate 的 WithMeterProvider），日志与指标解耦
//   - 日志器由调用方显式注入各组件，本包只负责"怎么构建"
package observability
