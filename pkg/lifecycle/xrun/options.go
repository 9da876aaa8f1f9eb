package xrun

import (
	"log/slog"
	"os"
	"syscall"
)

// Option Group 选项
type Option func(*options)

type options struct {
	logger    *slog.Logger
	name      string
	signals   []os.Signal
	noSignals bool
}

func defaultOptions() *options {
	return &options{
		logger: slog.Default(),
		name:   "xrun",
	}
}

// WithLogger 设置生命周期日志使用的 Logger，默认 slog.Default()
//
// xlog 的 Logger 可通过 xlog.AsSlog 转换。
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithName 设置 Group 名称，出现在生命周期日志的 group 字段
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithSignals 设置 Run 监听的信号，空列表使用 DefaultSignals
func WithSignals(sigs ...os.Signal) Option {
	copied := append([]os.Signal(nil), sigs...)
	return func(o *options) {
		o.signals = copied
	}
}

// WithoutSignalHandler 不监听信号，退出完全由 ctx 和服务决定
func WithoutSignalHandler() Option {
	return func(o *options) {
		o.noSignals = true
	}
}

// DefaultSignals SIGINT、SIGTERM
func DefaultSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}
