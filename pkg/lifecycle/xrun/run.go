package xrun

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
)

// notify 与 stopNotify 可在测试中替换，避免发送真实信号
var (
	notify     = signal.Notify
	stopNotify = signal.Stop
)

// Service 命名服务
type Service struct {
	Name string
	Run  func(ctx context.Context) error
}

// Run 运行一组服务直到全部返回
//
// 默认监听 DefaultSignals：收到信号时取消所有服务，并返回 *SignalError。
// 所有服务正常返回后信号监听随之结束。
//
//	err := xrun.Run(ctx, opts,
//	    xrun.Service{Name: "crawl", Run: c.Run},
//	    xrun.Service{Name: "config-watch", Run: w.Run},
//	)
//	if errors.Is(err, xrun.ErrSignal) {
//	    err = nil
//	}
func Run(ctx context.Context, opts []Option, services ...Service) error {
	g, _ := NewGroup(ctx, opts...)

	var wg sync.WaitGroup
	wg.Add(len(services))
	for _, svc := range services {
		fn := svc.Run
		g.Go(svc.Name, func(ctx context.Context) error {
			defer wg.Done()
			if fn == nil {
				return ErrNilFunc
			}
			return fn(ctx)
		})
	}

	if !g.opts.noSignals {
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		g.Go("signal", func(ctx context.Context) error {
			return g.watchSignals(ctx, done)
		})
	}
	return g.Wait()
}

// watchSignals 等待信号，收到后以 *SignalError 取消整个组
func (g *Group) watchSignals(ctx context.Context, done <-chan struct{}) error {
	sigs := g.opts.signals
	if len(sigs) == 0 {
		sigs = DefaultSignals()
	}
	ch := make(chan os.Signal, 1)
	notify(ch, sigs...)
	defer stopNotify(ch)

	select {
	case sig := <-ch:
		g.opts.logger.Info("received signal",
			slog.String("group", g.opts.name),
			slog.String("signal", sig.String()),
		)
		g.Cancel(&SignalError{Signal: sig})
	case <-ctx.Done():
	case <-done:
	}
	return nil
}
