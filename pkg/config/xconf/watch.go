package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchFunc 配置文件变更后的回调
//
// err 非 nil 表示重载失败（此时 cfg 仍为旧内容）或监视出错。
type WatchFunc func(cfg Config, err error)

// DefaultDebounce 默认防抖时间
const DefaultDebounce = 100 * time.Millisecond

// WatchOption 监视器选项
type WatchOption func(*Watcher)

// WithDebounce 设置防抖时间，窗口内的多次变更只触发一次重载
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher 配置文件监视器
//
// 监视文件所在目录而不是文件本身：编辑器和 ConfigMap 常以
// "写临时文件再 rename" 的方式更新，直接监视文件会丢失后续事件。
type Watcher struct {
	cfg      *koanfConfig
	fs       *fsnotify.Watcher
	fn       WatchFunc
	debounce time.Duration
}

// Watch 创建监视器，调用 [Watcher.Run] 开始监视
//
//	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) { ... })
//	if err != nil {
//	    return err
//	}
//	go w.Run(ctx) // ctx 取消后返回
func Watch(cfg Config, fn WatchFunc, opts ...WatchOption) (*Watcher, error) {
	kc, ok := cfg.(*koanfConfig)
	if !ok || kc.path == "" {
		return nil, ErrNotReloadable
	}

	w := &Watcher{cfg: kc, fn: fn, debounce: DefaultDebounce}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	dir := filepath.Dir(kc.path)
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch %s: %w", dir, err), fsw.Close())
	}
	w.fs = fsw
	return w, nil
}

// Run 处理文件事件直到 ctx 取消，返回时释放 fsnotify 资源
//
// 回调在 Run 所在的 goroutine 中同步执行，Run 返回后不会再有回调。
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fs.Close() }()

	name := filepath.Base(w.cfg.path)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			w.notify(w.cfg.Reload())

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.notify(fmt.Errorf("xconf: watch: %w", err))
		}
	}
}

func (w *Watcher) notify(err error) {
	if w.fn != nil {
		w.fn(w.cfg, err)
	}
}
