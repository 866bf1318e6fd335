// Package xslog 提供 log/slog 的引导构建器。
//
// # 设计理念
//
// statekit 各组件只接受 *slog.Logger（通过各自的 WithLogger 选项），
// 不关心日志怎么来。xslog 负责“怎么来”：级别、格式、输出目标、
// 文件轮转在一处配置完，Build 返回标准的 *slog.Logger。
// 产物是 slog 原生类型，随处可传，不引入自定义 Logger 接口。
//
// # 使用方式
//
//	logger, cleanup, err := xslog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/statekit/statekit.log").
//		Build()
//	if err != nil {
//		// 配置错误：未知级别、非法轮转参数等
//	}
//	defer cleanup()
//
// 链式调用中的配置错误被暂存，统一从 Build 返回，中途不 panic。
//
// # 文件轮转
//
// SetRotation 基于 lumberjack v2 按大小轮转，
// 默认单文件 500 MB、保留 7 份备份、30 天、gzip 压缩。
// cleanup 函数关闭轮转文件句柄，可重复调用。
//
// # 动态级别
//
// SetLevelVar 共享调用方持有的 slog.LevelVar，
// 运行期调整该变量即可改变已构建 logger 的输出级别。
package xslog
