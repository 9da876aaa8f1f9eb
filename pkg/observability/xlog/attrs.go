package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 key
const (
	KeyError      = "error"
	KeyDuration   = "duration"
	KeyCount      = "count"
	KeyComponent  = "component"
	KeyURL        = "url"
	KeyStatusCode = "status_code"
	KeyRunID      = "run_id"

	// KeyTraceID 和 KeySpanID 由 EnrichHandler 注入
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"
)

// Err 创建错误属性，err 为 nil 时返回空属性（会被忽略）
//
//	if err != nil {
//	    logger.Error(ctx, "fetch failed", xlog.Err(err))
//	}
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建耗时属性
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Count 创建计数属性
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Component 创建组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// URL 创建请求地址属性
func URL(u string) slog.Attr {
	return slog.String(KeyURL, u)
}

// StatusCode 创建 HTTP 状态码属性
func StatusCode(code int) slog.Attr {
	return slog.Int(KeyStatusCode, code)
}

// RunID 创建运行批次 ID 属性
func RunID(id string) slog.Attr {
	return slog.String(KeyRunID, id)
}
