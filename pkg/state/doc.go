// Package state 提供两级状态管理相关的子包。
//
// 子包列表：
//   - xlocal: 进程内 LRU + TTL 缓存，带版本号和移除回调
//   - xremote: 远端共享存储抽象，提供 Redis 与内存实现、分布式锁
//   - xstate: 两级状态管理器门面，本地优先、读穿透、回源收敛
//
// 设计原则：
//   - 本地层回答"这个实例刚刚看到了什么"，远端层回答"集群共识是什么"
//   - 远端故障降级为仅本地操作，绝不让远端可用性决定本地可用性
//   - "确定没有"（未命中）与"不知道"（故障）是两类信号，永不混同
package state
