// Package xstate 提供两级状态管理门面：进程内缓存 + 远端共享存储。
//
// xstate 把 xlocal（本地 L1）和 xremote（远端 L2）组合成统一的状态管理器：
// 读操作先查本地，未命中时读穿透到远端并回填；写操作先落本地再镜像远端。
// 适合会话数据、指标窗口、记忆化计算结果这类半持久化应用状态。
//
// # 核心特性
//
//   - 读穿透：本地未命中时读远端并回填本地，命中路径零 I/O
//   - 写穿透：本地同步写入在前（自写立即可见），远端镜像在后，
//     镜像失败不回滚本地，错误上抛供调用方重试
//   - 冲突消解：回填使用版本条件写入，远端取数期间的并发本地写入获胜，
//     过期的远端读数被丢弃
//   - 防击穿：GetOrCompute 以 singleflight 收敛同 key 的并发回源，
//     可选分布式锁把回源进一步收敛到集群内单个实例
//   - 降级：远端不可达时读写退化为仅本地，错误归类上报而非拖垮调用方
//   - 后台清理：周期性分批删除过期条目，批大小有界，不长时间持锁
//   - 指标：原子计数器 + 非阻塞快照，可选 OpenTelemetry 桥接
//
// # 键组织
//
// 状态键由命名空间和键名组合为 "namespace:key"。命名空间对核心透明，
// 仅用于前缀隔离；NamespaceGlobal 等常量提供常用约定值。
//
// # 降级语义
//
// 远端故障从不让本地层陪葬：Get 在远端故障时报告未命中和错误，
// Set 保留本地写入，Increment 退化为实例本地计数，
// GetAll 返回仅含本地视图的部分结果。调用方通过
// xremote.IsUnavailable/IsTimeout 判断是否处于降级窗口。
//
// # 生命周期
//
// New 创建管理器并启动后台清理循环；Close 停止清理、排空异步镜像写、
// 关闭本地层。传入的远端存储由调用方负责关闭（可能被多处共享）。
//
// # 注意事项
//
//   - value 是不透明的 []byte，序列化由调用方负责
//   - 跨实例一致性是最终一致：其他实例的写入要等本地条目过期后才可见
//   - Close 后所有操作返回 ErrClosed
package xstate
