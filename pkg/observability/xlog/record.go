package xlog

import (
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Source 记录的源码位置
type Source struct {
	File     string // 文件名（不含目录）
	Line     int
	Function string // 短函数名，如 "crawl.(*Crawler).Run"
}

// Record 一条日志记录
//
// 由 slog.Record 构造，构造后不再修改；同一条记录被所有目的地共享。
type Record struct {
	Time    time.Time
	Level   slog.Level
	PID     int
	Logger  string
	Source  Source
	Message string

	// Attrs 已展开分组并求值的元数据，key 形如 "group.key"
	Attrs []slog.Attr
}

// newRecord 由 slog.Record 构造 Record
//
// pre 为 With 预置的属性（已展开），groups 为当前分组路径。
func newRecord(r slog.Record, pid int, logger string, pre []slog.Attr, groups []string) Record {
	rec := Record{
		Time:    r.Time,
		Level:   r.Level,
		PID:     pid,
		Logger:  logger,
		Source:  sourceOf(r.PC),
		Message: r.Message,
	}

	attrs := make([]slog.Attr, 0, len(pre)+r.NumAttrs())
	attrs = append(attrs, pre...)
	prefix := strings.Join(groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		attrs = appendFlat(attrs, prefix, a)
		return true
	})
	rec.Attrs = attrs
	return rec
}

// appendFlat 展开分组属性并求值 LogValuer
//
// 空 key 的属性被丢弃；空分组被丢弃，与 slog 内置 handler 一致。
func appendFlat(dst []slog.Attr, prefix string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return dst
		}
		p := prefix
		if a.Key != "" {
			p = joinKey(prefix, a.Key)
		}
		for _, ga := range group {
			dst = appendFlat(dst, p, ga)
		}
		return dst
	}
	if a.Key == "" {
		return dst
	}
	a.Key = joinKey(prefix, a.Key)
	return append(dst, a)
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// sourceOf 解析调用位置，pc 为 0 时返回零值
func sourceOf(pc uintptr) Source {
	if pc == 0 {
		return Source{}
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	f, _ := frames.Next()
	return Source{
		File:     filepath.Base(f.File),
		Line:     f.Line,
		Function: shortFunc(f.Function),
	}
}

// shortFunc 去掉函数名中的包路径："github.com/a/b/pkg.Func" → "pkg.Func"
func shortFunc(fn string) string {
	if i := strings.LastIndexByte(fn, '/'); i >= 0 {
		return fn[i+1:]
	}
	return fn
}
