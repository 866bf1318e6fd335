// Package xlocal 提供带逐条目 TTL 和版本号的有界 LRU 缓存。
//
// xlocal 是本地状态层（L1）：进程内、无 I/O、并发安全，
// 配合远端共享存储（L2）组成两级状态管理。
//
// # 核心特性
//
//   - 有界容量：条目数严格不超过配置上限，超出时 LRU 淘汰
//   - 逐条目 TTL：每次写入可指定独立的过期时间，0 表示永不过期
//   - 版本号：每个键维护单调递增的版本，支持 SetIfVersion 条件写入，
//     用于读穿透回填与并发本地写入的冲突消解
//   - 确定性淘汰：从未被访问的条目按插入顺序（FIFO）淘汰，
//     容量淘汰优先选择 LRU 端有界扫描内的已过期条目
//   - 并发安全：所有操作都是线程安全的
//
// # 数据结构
//
// 双向链表维护访问顺序（头部最新、尾部最旧），哈希表提供 O(1) 键查找。
// Get/Set/Delete/SetIfVersion 均为 O(1)；Keys/Entries 为 O(n) 快照。
//
// # TTL 语义
//
//   - 过期条目逻辑上不存在：Get/Peek/Contains/Version 一律视为未命中
//   - 惰性删除：Get 命中已过期条目时原子地删除并报告未命中
//   - 批量清理：ExpireBatch 按键列表分批删除过期条目，
//     供外部周期性清理循环使用，单次持锁时间有界
//   - Len/Keys/Entries 可能包含已过期但尚未被清理的条目
//
// # 设计决策
//
// 不复用现成 LRU 库而是手写链表+哈希表：通用实现的 TTL 是缓存级别的，
// 无法表达逐条目过期、版本条件写入和过期优先淘汰。
// 淘汰与过期事件通过 WithOnEvicted 回调对外暴露，缓存自身不做统计。
//
// # 注意事项
//
//   - TTL 是条目级别的，从写入时刻开始计算；覆盖写会刷新 TTL
//   - 读取返回的切片与缓存共享底层数组，调用方不得修改
//   - Close 后所有读操作返回零值/false，写操作静默忽略
//   - OnEvicted 回调在锁内执行，严禁回调中再调用缓存方法
package xlocal
