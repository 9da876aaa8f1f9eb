package xlog

import (
	"fmt"
	"log/slog"
)

// FilterKind 过滤方式
type FilterKind int

const (
	// FilterAll 全部通过，忽略 Level
	FilterAll FilterKind = iota

	// FilterMin 级别不低于 Level 的记录通过
	FilterMin

	// FilterExact 只有级别恰好为 Level 的记录通过
	FilterExact
)

// Filter 目的地的级别过滤器
//
// 零值为 FilterAll，全部通过。
type Filter struct {
	Kind  FilterKind
	Level Level
}

// MinLevel 返回级别下限过滤器
func MinLevel(l Level) Filter {
	return Filter{Kind: FilterMin, Level: l}
}

// OnlyLevel 返回精确级别过滤器
func OnlyLevel(l Level) Filter {
	return Filter{Kind: FilterExact, Level: l}
}

// Allow 判断级别为 l 的记录能否通过
//
// 精确匹配时先把自定义级别（如 INFO+2）归一到标准级别再比较。
func (f Filter) Allow(l slog.Level) bool {
	switch f.Kind {
	case FilterAll:
		return true
	case FilterExact:
		return levelOf(l) == f.Level
	default:
		return l >= slog.Level(f.Level)
	}
}

// String 返回可读形式，如 ">=ERROR"、"==INFO"
func (f Filter) String() string {
	switch f.Kind {
	case FilterAll:
		return "*"
	case FilterExact:
		return "==" + f.Level.String()
	case FilterMin:
		return ">=" + f.Level.String()
	default:
		return fmt.Sprintf("Filter(%d)", int(f.Kind))
	}
}
