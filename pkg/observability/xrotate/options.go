package xrotate

import (
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// 默认值
const (
	// DefaultFileMode 默认日志文件权限
	DefaultFileMode os.FileMode = 0o644

	// DefaultMaxSizeMB 按大小轮转时单个文件的默认上限（MB）
	DefaultMaxSizeMB = 2048

	// maxSizeMB 单个日志文件大小上限（10 GB）
	maxSizeMB = 10240
)

// options 轮转器的通用配置
type options struct {
	now           func() time.Time
	fileMode      os.FileMode
	lazy          bool
	maxSizeMB     int
	onError       func(error)
	meterProvider metric.MeterProvider
}

func defaultOptions() options {
	return options{
		now:       time.Now,
		fileMode:  DefaultFileMode,
		lazy:      true,
		maxSizeMB: DefaultMaxSizeMB,
	}
}

// Option 轮转器配置选项函数
type Option func(*options)

// WithClock 替换时间源（默认 time.Now）
//
// 用于测试中模拟跨越轮转边界。
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithFileMode 设置日志文件权限（默认 0644）
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) {
		o.fileMode = mode
	}
}

// WithLazyOpen 设置是否在首次写入时才创建文件（默认 true）
func WithLazyOpen(lazy bool) Option {
	return func(o *options) {
		o.lazy = lazy
	}
}

// WithMaxSize 设置按大小轮转时单个文件的上限（MB），仅 [NewSize] 使用
func WithMaxSize(mb int) Option {
	return func(o *options) {
		o.maxSizeMB = mb
	}
}

// WithOnError 设置内部错误回调
//
// 接收不影响写入结果的内部错误：历史文件清理失败、旧文件关闭失败、权限调整失败。
// 回调不得向同一 Rotator 写入数据，否则会死锁。
func WithOnError(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithMeterProvider 设置 OTel MeterProvider（默认全局 provider）
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = provider
	}
}
