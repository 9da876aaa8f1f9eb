// xlog.go 定义核心接口：Logger、Leveler、LoggerWithLevel
//
//   - 强制 context 传递，EnrichHandler 从中提取 trace_id/span_id
//   - 每个命名 Logger 有独立的动态级别
//   - 方法签名只接受 slog.Attr
package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口
//
// 所有方法都需要 context.Context 参数，确保追踪信息正确传播。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// Critical 记录 CRITICAL 级别日志
	Critical(ctx context.Context, msg string, attrs ...slog.Attr)

	// Log 以任意级别记录日志，attrs 即记录的元数据
	Log(ctx context.Context, level Level, msg string, attrs ...slog.Attr)

	// With 返回带额外属性的派生 Logger，共享父级的级别
	With(attrs ...slog.Attr) Logger

	// WithGroup 返回带分组的派生 Logger
	WithGroup(name string) Logger
}

// Leveler 级别控制接口
type Leveler interface {
	// SetLevel 动态设置日志级别，运行时生效
	SetLevel(level Level)

	// GetLevel 获取当前日志级别
	GetLevel() Level

	// Enabled 检查指定级别是否启用
	//
	// 同时考虑 Logger 自身级别和所有目的地的过滤器。
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 组合接口：Logger + Leveler
//
// [Factory.Logger] 返回此接口。
type LoggerWithLevel interface {
	Logger
	Leveler
}
