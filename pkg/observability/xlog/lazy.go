package xlog

import "log/slog"

// 延迟求值属性
//
// 只保存函数引用，格式化时才调用。记录被 Logger 级别或所有目的地过滤掉时，
// 函数永远不会执行，适合 DEBUG 日志中开销大的参数（如网页片段）。

type lazyValue struct {
	fn func() any
}

func (l lazyValue) LogValue() slog.Value {
	return slog.AnyValue(l.fn())
}

// Lazy 返回延迟求值的属性
//
//	logger.Debug(ctx, "page",
//	    xlog.Lazy("title", func() any { return doc.Find("title").Text() }))
func Lazy(key string, fn func() any) slog.Attr {
	if fn == nil {
		return slog.Any(key, nil)
	}
	return slog.Any(key, lazyValue{fn: fn})
}

type lazyStringValue struct {
	fn func() string
}

func (l lazyStringValue) LogValue() slog.Value {
	return slog.StringValue(l.fn())
}

// LazyString 返回延迟求值的字符串属性
func LazyString(key string, fn func() string) slog.Attr {
	if fn == nil {
		return slog.String(key, "")
	}
	return slog.Any(key, lazyStringValue{fn: fn})
}
