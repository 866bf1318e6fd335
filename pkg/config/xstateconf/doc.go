// Package xstateconf 提供 statekit 的类型化配置加载，基于 koanf 实现。
//
// # 设计理念
//
// 与通用配置加载器不同，xstateconf 只认识一种结构：[Config]。
// 加载流程固定为三步：默认值打底 → 文件内容覆盖 → Validate 校验，
// Load/LoadBytes 返回的 *Config 要么完整可用，要么是错误，没有中间态。
//
// 默认值引用各归属包导出的推荐常量（xstate、xremote、xslog），
// 配置默认值与运行时默认值同源，不会漂移。
//
// # 支持的格式
//
//   - YAML（默认，推荐）：.yaml, .yml
//   - JSON：.json
//
// 完整的 YAML 配置示例（所有字段均可省略，省略即取默认值）：
//
//	local:
//	  max_entries: 1000
//	  default_ttl: 300s
//	redis:
//	  addr: localhost:6379
//	  password: ""
//	  db: 0
//	  op_timeout: 3s
//	state:
//	  sweep_interval: 5s
//	  sweep_batch: 256
//	  compute_timeout: 30s
//	  lock_ttl: 45s
//	  async_remote_write: false
//	log:
//	  level: info
//	  format: text
//	  add_source: false
//	  file: /var/log/statekit/statekit.log
//	  rotation:
//	    max_size_mb: 500
//	    max_backups: 7
//	    max_age_days: 30
//	    compress: true
//
// 时间字段使用 Go duration 字符串（"300s"、"5m"、"1h30m"）。
//
// # 配置监视
//
// 支持文件变更监视和自动重载（基于 fsnotify）。
// 特性：监视目录、内置防抖、支持 vim/emacs 原子写入。
// 重载失败时旧配置继续生效，错误通过 WithOnError 钩子上报；
// 回调 panic 被隔离，不会终止监视循环。
// Stop() 取消尚未触发的重载，未启动的 Watcher 也应当 Stop 以释放资源。
package xstateconf
