package xrun

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Group 基于 errgroup 的服务组
//
// 任一服务返回错误、调用 Cancel 或父 ctx 取消时，所有服务的 ctx 被取消。
// Go 和 Cancel 可并发调用，Wait 只调用一次。
type Group struct {
	eg     *errgroup.Group
	ctx    context.Context // errgroup 派生，传给服务
	cause  context.Context // Cancel 的作用点
	cancel context.CancelCauseFunc
	opts   *options
}

// NewGroup 创建 Group，返回的 ctx 与传给服务的 ctx 相同
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	cause, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(cause)
	return &Group{eg: eg, ctx: egCtx, cause: cause, cancel: cancel, opts: o}, egCtx
}

// Go 启动一个服务
//
// 服务应在 ctx 取消后尽快返回；返回非 nil 错误会取消整个组。
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		log := g.opts.logger.With(slog.String("group", g.opts.name), slog.String("service", name))
		log.Debug("service starting")

		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("service exited with error", slog.Any("error", err))
		} else {
			log.Debug("service stopped")
		}
		return err
	})
}

// Cancel 以 cause 为原因取消所有服务，Wait 将返回 cause
//
// cause 不应包装 context.Canceled，否则会被当作普通取消。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Wait 等待所有服务返回
//
// 返回第一个错误；由 Cancel 或父 ctx 引起的取消错误被替换为
// 取消原因（没有显式原因时为 nil）。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	if g.cause.Err() == nil {
		return err
	}
	if err != nil && !isCancel(err) {
		return err
	}
	if c := context.Cause(g.cause); c != nil && !isCancel(c) {
		return c
	}
	return nil
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
