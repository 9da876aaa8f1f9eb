package xlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// router 一组目的地，由 Factory 持有，所有命名 Logger 共享
type router struct {
	dests  []*destination
	pid    int
	closed atomic.Bool
}

// bufPool 格式化缓冲区
var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 512)
		return &b
	},
}

// maxPooledBuf 超过该容量的缓冲区不归还，避免池中积累大块内存
const maxPooledBuf = 64 * 1024

// routeHandler 将记录分发到多个目的地的 slog.Handler
//
// 每个命名 Logger 一个实例（共享 router），With/WithGroup 返回新实例。
type routeHandler struct {
	r      *router
	name   string
	level  *slog.LevelVar
	attrs  []slog.Attr // 已展开
	groups []string
}

var _ slog.Handler = (*routeHandler)(nil)

func newRouteHandler(r *router, name string, level *slog.LevelVar) *routeHandler {
	return &routeHandler{r: r, name: name, level: level}
}

// Enabled 级别不低于 Logger 级别，且至少一个目的地会接收
func (h *routeHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level < h.level.Level() {
		return false
	}
	for _, d := range h.r.dests {
		if d.filter.Allow(level) {
			return true
		}
	}
	return false
}

// Handle 格式化并写入所有接收该级别的目的地
//
// 同一格式化器的输出只生成一次。某个目的地失败不影响其他目的地，
// 所有错误合并后返回。
func (h *routeHandler) Handle(_ context.Context, sr slog.Record) error {
	if h.r.closed.Load() {
		return ErrShutdown
	}
	rec := newRecord(sr, h.r.pid, h.name, h.attrs, h.groups)

	type formatted struct {
		f    Formatter
		line []byte
	}
	var cache [2]formatted
	lines := cache[:0]
	var bufs []*[]byte
	defer func() {
		for _, bp := range bufs {
			if cap(*bp) <= maxPooledBuf {
				*bp = (*bp)[:0]
				bufPool.Put(bp)
			}
		}
	}()

	var errs []error
	for _, d := range h.r.dests {
		if !d.filter.Allow(sr.Level) {
			continue
		}

		var line []byte
		for _, l := range lines {
			if l.f == d.format {
				line = l.line
				break
			}
		}
		if line == nil {
			bp, _ := bufPool.Get().(*[]byte)
			if bp == nil {
				b := make([]byte, 0, 512)
				bp = &b
			}
			*bp = d.format.Format((*bp)[:0], &rec)
			bufs = append(bufs, bp)
			line = *bp
			lines = append(lines, formatted{f: d.format, line: line})
		}

		if err := d.write(line); err != nil {
			errs = append(errs, fmt.Errorf("xlog: destination %s: %w", d.name, err))
		}
	}
	return errors.Join(errs...)
}

// WithAttrs 返回带预置属性的新 handler
func (h *routeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	prefix := strings.Join(h.groups, ".")
	for _, a := range attrs {
		h2.attrs = appendFlat(h2.attrs, prefix, a)
	}
	return h2
}

// WithGroup 返回带分组的新 handler
func (h *routeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

func (h *routeHandler) clone() *routeHandler {
	return &routeHandler{
		r:      h.r,
		name:   h.name,
		level:  h.level,
		attrs:  slices.Clip(h.attrs),
		groups: slices.Clip(h.groups),
	}
}
