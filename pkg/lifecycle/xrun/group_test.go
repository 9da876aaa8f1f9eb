package xrun

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestGroup_AllSucceed(t *testing.T) {
	g, _ := NewGroup(context.Background())
	var n atomic.Int32
	for i := 0; i < 3; i++ {
		g.Go("worker", func(context.Context) error {
			n.Add(1)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(3), n.Load())
}

func TestGroup_ErrorCancelsOthers(t *testing.T) {
	boom := errors.New("boom")
	g, ctx := NewGroup(context.Background())
	g.Go("failing", func(context.Context) error { return boom })
	g.Go("blocking", blockUntilDone)

	assert.ErrorIs(t, g.Wait(), boom)
	assert.Error(t, ctx.Err())
}

func TestGroup_CancelCause(t *testing.T) {
	stop := errors.New("stop requested")
	g, _ := NewGroup(context.Background())
	g.Go("blocking", blockUntilDone)
	g.Go("plain", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	g.Cancel(stop)
	assert.ErrorIs(t, g.Wait(), stop)
}

func TestGroup_ParentCanceled(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	g, _ := NewGroup(parent)
	g.Go("blocking", blockUntilDone)

	cancel()
	assert.NoError(t, g.Wait(), "普通取消不是错误")
}

func TestGroup_InnerCanceledKept(t *testing.T) {
	g, _ := NewGroup(context.Background())
	g.Go("inner", func(context.Context) error { return context.Canceled })
	assert.ErrorIs(t, g.Wait(), context.Canceled, "服务内部的 Canceled 不被吞掉")
}

func TestGroup_NilFunc(t *testing.T) {
	g, _ := NewGroup(nil) //nolint:staticcheck // nil ctx 归一为 Background
	g.Go("nil", nil)
	assert.ErrorIs(t, g.Wait(), ErrNilFunc)
}

// fakeSignals 替换 signal.Notify，返回用于投递信号的通道
func fakeSignals(t *testing.T) chan<- os.Signal {
	t.Helper()
	src := make(chan os.Signal, 1)
	registered := make(chan chan<- os.Signal, 1)

	oldNotify, oldStop := notify, stopNotify
	notify = func(c chan<- os.Signal, _ ...os.Signal) { registered <- c }
	stopNotify = func(chan<- os.Signal) {}
	t.Cleanup(func() { notify, stopNotify = oldNotify, oldStop })

	go func() {
		c := <-registered
		if sig, ok := <-src; ok {
			c <- sig
		}
	}()
	t.Cleanup(func() { close(src) })
	return src
}

func TestRun_Signal(t *testing.T) {
	sig := fakeSignals(t)

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), nil, Service{Name: "crawl", Run: blockUntilDone})
	}()
	sig <- syscall.SIGTERM

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrSignal)
		var sigErr *SignalError
		require.ErrorAs(t, err, &sigErr)
		assert.Equal(t, syscall.SIGTERM, sigErr.Signal)
	case <-time.After(2 * time.Second):
		t.Fatal("Run 未在收到信号后返回")
	}
}

func TestRun_ServicesFinish(t *testing.T) {
	_ = fakeSignals(t)

	var ran atomic.Bool
	err := Run(context.Background(), []Option{WithName("test")},
		Service{Name: "once", Run: func(context.Context) error {
			ran.Store(true)
			return nil
		}},
	)
	require.NoError(t, err, "服务正常结束后 Run 返回，不等待信号")
	assert.True(t, ran.Load())
}

func TestRun_ServiceError(t *testing.T) {
	_ = fakeSignals(t)

	boom := errors.New("boom")
	err := Run(context.Background(), nil,
		Service{Name: "failing", Run: func(context.Context) error { return boom }},
		Service{Name: "blocking", Run: blockUntilDone},
	)
	assert.ErrorIs(t, err, boom)
}

func TestRun_WithoutSignalHandler(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Run(ctx, []Option{WithoutSignalHandler()}, Service{Name: "blocking", Run: blockUntilDone})
	assert.NoError(t, err)
}

func TestSignalError(t *testing.T) {
	err := &SignalError{Signal: syscall.SIGINT}
	assert.Equal(t, "xrun: received signal interrupt", err.Error())
	assert.ErrorIs(t, err, ErrSignal)
}
