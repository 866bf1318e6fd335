// Package xremote 提供远端共享存储的适配层。
//
// xremote 把跨实例共享的键值服务抽象为 Store 接口，是两级状态管理中的
// 远端层（L2）：本实例写入后，其他实例经由它观察到最新状态。
//
// # 核心特性
//
//   - 类型化故障：连接类错误归类为 ErrUnavailable/ErrTimeout，
//     与"键不存在"（ErrNotFound）严格区分——"确定没有"不等于"不知道"
//   - 兜底超时：调用方 context 没有截止时间时自动补上默认超时，
//     任何远端调用都不会无界阻塞
//   - 可选熔断：连续失败达到阈值后快速失败，不再触网
//   - 分布式锁：SET NX 轻量锁与 redsync（Redlock）两种实现
//   - 就绪等待：WaitReady 以退避加抖动轮询，用于启动时等待依赖
//
// # 实现
//
// NewRedis 基于 go-redis，是生产实现；NewMemory 是进程内实现，
// 支持故障注入与调用计数，用作测试替身或无远端部署时的降级后端。
//
// # 错误语义
//
// 所有错误同时包裹类型哨兵和底层错误，errors.Is 对两者都成立；
// IsNotFound/IsUnavailable/IsTimeout 提供便捷判断。
// 调用方主动取消（context.Canceled）原样透传，不算远端故障。
//
// # 注意事项
//
//   - Store 不做内部重试，重试策略属于调用方
//   - Close 会关闭传入的客户端连接
//   - Scan 不是一致性快照，并发写入可能部分可见
package xremote
