package xstateconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchCallback 文件变更回调函数。
// 配置文件变更且重新加载成功后调用，cfg 为校验通过的新配置。
// 加载或校验失败不会触发此回调，错误走 WithOnError 钩子。
type WatchCallback func(cfg *Config)

// Watcher 配置文件监视器。
// 监控配置文件变更，重新加载并把新配置推给回调。
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	callback WatchCallback
	onError  func(error)
	debounce time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	running  bool
	stopped  bool
	timer    *time.Timer // debounce 定时器，Stop() 时需要取消
}

// WatchOption 监视器配置选项。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
	onError  func(error)
}

func defaultWatchOptions() *watchOptions {
	return &watchOptions{
		debounce: 100 * time.Millisecond, // 默认防抖时间
	}
}

// WithDebounce 设置防抖时间。
// 在指定时间内的多次变更只触发一次重载，必须为正值。
// 默认值为 100ms，适合大多数场景。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		o.debounce = d
	}
}

// WithOnError 设置错误钩子。
// 文件系统监视错误、重载失败（读取/解析/校验）都通过此钩子上报。
// 默认 nil，错误被静默丢弃，旧配置继续生效。
func WithOnError(fn func(error)) WatchOption {
	return func(o *watchOptions) {
		o.onError = fn
	}
}

// Watch 创建配置文件监视器。
//
// 监控 path 指向的配置文件，变更后重新执行 Load 并把新配置推给 callback。
// 重载失败（文件被删、内容非法、校验不过）时旧配置继续生效，
// 错误通过 WithOnError 钩子上报。
//
// 返回的 Watcher 需要调用 Start() 或 StartAsync() 开始监视，Stop() 停止。
//
// 示例:
//
//	cfg, _ := xstateconf.Load("/etc/statekit/config.yaml")
//	w, err := xstateconf.Watch("/etc/statekit/config.yaml", func(c *xstateconf.Config) {
//	    log.Println("config reloaded")
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//	w.StartAsync()
func Watch(path string, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if callback == nil {
		return nil, ErrNilCallback
	}
	if _, err := detectFormat(path); err != nil {
		return nil, err
	}

	options := defaultWatchOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.debounce <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidDebounce, options.debounce)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xstateconf: failed to create watcher: %w", err)
	}

	// 监视配置文件所在目录（而非文件本身）
	// 因为编辑器保存文件时可能先删除再创建，直接监视文件会丢失事件
	dir := filepath.Dir(path)
	if err := fsWatcher.Add(dir); err != nil {
		closeErr := fsWatcher.Close()
		return nil, errors.Join(
			fmt.Errorf("xstateconf: failed to watch directory %s: %w", dir, err),
			closeErr,
		)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		path:     path,
		watcher:  fsWatcher,
		callback: callback,
		onError:  options.onError,
		debounce: options.debounce,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start 启动监视。
// 此方法会阻塞，通常应在 goroutine 中调用。
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running || w.stopped {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.run()
}

// StartAsync 异步启动监视。
// 在后台 goroutine 中运行，立即返回。
// 先设置 running 标志再启动 goroutine，避免与 Stop() 竞态。
func (w *Watcher) StartAsync() {
	w.mu.Lock()
	if w.running || w.stopped {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run()
}

// Stop 停止监视并释放文件系统资源。
// 取消尚未触发的防抖重载；已进入重载的那一次仍会完成并回调。
// 幂等，重复调用返回 nil。
// 未调用过 Start/StartAsync 的 Watcher 也应当 Stop，否则 fsnotify 资源泄漏。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	w.running = false

	// 停止 debounce 定时器，防止 Stop 后仍触发回调
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	w.cancel()
	return w.watcher.Close()
}

// run 运行监视循环。
func (w *Watcher) run() {
	filename := filepath.Base(w.path)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, filename)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.reportError(fmt.Errorf("xstateconf: watch error: %w", err))
		}
	}
}

// handleEvent 处理文件系统事件。
func (w *Watcher) handleEvent(event fsnotify.Event, filename string) {
	// 只处理目标配置文件的事件
	if filepath.Base(event.Name) != filename {
		return
	}

	// 处理可能表示配置更新的事件
	// - Write: 直接修改
	// - Create: 新建文件（部分编辑器）
	// - Rename: 原子写入模式（vim/emacs 写临时文件后 rename）
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	// 防抖处理：重置计时器
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		// 检查 watcher 是否已停止
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		w.reload()
	})
}

// reload 重新加载配置并通知回调。
func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.reportError(err)
		return
	}
	w.notify(cfg)
}

// notify 把新配置推给回调。
//
// 设计决策: 回调由业务方提供，panic 必须被隔离——回调运行在 debounce 定时器的
// goroutine 上，未恢复的 panic 会直接终止进程，监视器不替业务代码赔上整个服务。
func (w *Watcher) notify(cfg *Config) {
	defer func() { _ = recover() }()
	w.callback(cfg)
}

// reportError 通过错误钩子上报监视和重载错误。
func (w *Watcher) reportError(err error) {
	if w.onError == nil {
		return
	}
	defer func() { _ = recover() }()
	w.onError(err)
}
