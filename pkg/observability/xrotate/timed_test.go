package xrotate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// fakeClock 可手动推进的时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func readFile(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(name)
	require.NoError(t, err)
	return string(b)
}

func sortedDir(t *testing.T, dir string) []string {
	t.Helper()
	names := listDir(t, dir)
	sort.Strings(names)
	return names
}

func newTestTimed(t *testing.T, when string, clock *fakeClock, popts []PolicyOption, opts ...Option) (*TimedRotator, string) {
	t.Helper()
	dir := t.TempDir()
	p, err := NewPolicy(when, append([]PolicyOption{WithUTC(true)}, popts...)...)
	require.NoError(t, err)

	r, err := NewTimed(filepath.Join(dir, "app-info.log"), p, append([]Option{WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, dir
}

func TestNewTimed_LazyOpen(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 10, 12, 0, 30, 0, time.UTC))
	r, dir := newTestTimed(t, "M", clock, nil)

	assert.Empty(t, listDir(t, dir), "首次写入前不创建文件")
	assert.Equal(t, filepath.Join(dir, "app-info-2024-03-10_12-00.log"), r.Filename())
	assert.True(t, time.Date(2024, 3, 10, 12, 1, 0, 0, time.UTC).Equal(r.NextRollover()))
	assert.Equal(t, StateOpen, r.State())

	_, err := r.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"app-info-2024-03-10_12-00.log"}, listDir(t, dir))
	assert.Equal(t, "hello\n", readFile(t, r.Filename()))
}

func TestNewTimed_EagerOpen(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 10, 12, 0, 30, 0, time.UTC))
	_, dir := newTestTimed(t, "H", clock, nil, WithLazyOpen(false))

	assert.Equal(t, []string{"app-info-2024-03-10_12.log"}, listDir(t, dir))
}

func TestNewTimed_AppendsExisting(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 10, 12, 0, 30, 0, time.UTC))
	dir := t.TempDir()
	existing := filepath.Join(dir, "app-info-2024-03-10.log")
	require.NoError(t, os.WriteFile(existing, []byte("old\n"), 0o600))

	r, err := NewTimed(filepath.Join(dir, "app-info.log"), MustPolicy("MIDNIGHT", WithUTC(true)), WithClock(clock.Now))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("new\n"))
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", readFile(t, existing))
}

func TestNewTimed_Errors(t *testing.T) {
	p := MustPolicy("H")

	_, err := NewTimed("", p)
	assert.ErrorIs(t, err, ErrEmptyFilename)

	_, err = NewTimed(filepath.Join(t.TempDir(), "a.log"), Policy{})
	assert.ErrorIs(t, err, ErrInvalidUnit)

	_, err = NewTimed(filepath.Join(t.TempDir(), "a.log"), p, WithFileMode(os.ModeDir|0o644))
	assert.ErrorIs(t, err, ErrInvalidFileMode)

	_, err = NewTimed("../escape/a.log", p)
	assert.Error(t, err)

	_, err = NewTimed(t.TempDir()+"/", p)
	assert.Error(t, err)
}

func TestTimedRotator_BoundaryEpsilon(t *testing.T) {
	boundary := time.Date(2024, 3, 10, 12, 1, 0, 0, time.UTC)
	clock := newFakeClock(boundary.Add(-time.Nanosecond))
	r, dir := newTestTimed(t, "M", clock, nil)

	_, err := r.Write([]byte("before\n"))
	require.NoError(t, err)

	clock.Set(boundary)
	_, err = r.Write([]byte("at\n"))
	require.NoError(t, err)

	assert.Equal(t, "before\n", readFile(t, filepath.Join(dir, "app-info-2024-03-10_12-00.log")))
	assert.Equal(t, "at\n", readFile(t, filepath.Join(dir, "app-info-2024-03-10_12-01.log")))
	assert.True(t, boundary.Add(time.Minute).Equal(r.NextRollover()))
}

func TestTimedRotator_MinuteRotationWithRetention(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	clock := newFakeClock(time.Date(2024, 3, 10, 12, 0, 30, 0, time.UTC))
	r, dir := newTestTimed(t, "M", clock, []PolicyOption{WithBackupCount(3)}, WithMeterProvider(provider))

	for i := 0; i < 6; i++ {
		_, err := fmt.Fprintf(r, "record %d\n", i)
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	assert.Equal(t, []string{
		"app-info-2024-03-10_12-02.log",
		"app-info-2024-03-10_12-03.log",
		"app-info-2024-03-10_12-04.log",
		"app-info-2024-03-10_12-05.log",
	}, sortedDir(t, dir))
	assert.Equal(t, "record 5\n", readFile(t, r.Filename()))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.Equal(t, int64(5), sumCounter(t, rm, metricRotateTotal))
	assert.Equal(t, int64(2), sumCounter(t, rm, metricPrunedTotal))
}

func TestTimedRotator_RetentionBound(t *testing.T) {
	tests := []struct {
		rotations int
		keep      int
	}{
		{1, 2},
		{3, 2},
		{6, 2},
		{3, 5},
		{7, 5},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("N%d_k%d", tt.rotations, tt.keep), func(t *testing.T) {
			clock := newFakeClock(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
			r, dir := newTestTimed(t, "H", clock, []PolicyOption{WithBackupCount(tt.keep)})

			_, err := r.Write([]byte("x\n"))
			require.NoError(t, err)
			for i := 0; i < tt.rotations; i++ {
				clock.Advance(time.Hour)
				_, err := r.Write([]byte("x\n"))
				require.NoError(t, err)
			}

			rotated := len(listDir(t, dir)) - 1
			assert.Equal(t, min(tt.rotations, tt.keep), rotated)
		})
	}
}

func TestTimedRotator_IdleGapRotatesOnce(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	clock := newFakeClock(time.Date(2024, 3, 10, 12, 0, 30, 0, time.UTC))
	r, dir := newTestTimed(t, "M", clock, nil, WithMeterProvider(provider))

	_, err := r.Write([]byte("a\n"))
	require.NoError(t, err)

	clock.Set(time.Date(2024, 3, 10, 12, 7, 10, 0, time.UTC))
	_, err = r.Write([]byte("b\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"app-info-2024-03-10_12-00.log",
		"app-info-2024-03-10_12-07.log",
	}, sortedDir(t, dir))
	assert.True(t, time.Date(2024, 3, 10, 12, 8, 0, 0, time.UTC).Equal(r.NextRollover()))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.Equal(t, int64(1), sumCounter(t, rm, metricRotateTotal))
}

func TestTimedRotator_MidnightDST(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	clock := newFakeClock(time.Date(2024, 3, 10, 0, 30, 0, 0, ny))
	dir := t.TempDir()

	r, err := NewTimed(filepath.Join(dir, "app.log"), MustPolicy("MIDNIGHT", WithLocation(ny)), WithClock(clock.Now))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("a\n"))
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 11, 0, 0, 0, 0, ny).Equal(r.NextRollover()))

	clock.Set(time.Date(2024, 3, 11, 0, 0, 1, 0, ny))
	_, err = r.Write([]byte("b\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"app-2024-03-10.log", "app-2024-03-11.log"}, sortedDir(t, dir))
	assert.Equal(t, 24*time.Hour, r.NextRollover().Sub(time.Date(2024, 3, 11, 0, 0, 0, 0, ny)))
}

func TestTimedRotator_MidnightDSTAtMidnight(t *testing.T) {
	scl := mustLoad(t, "America/Santiago")
	clock := newFakeClock(time.Date(2024, 9, 7, 12, 0, 0, 0, scl))
	dir := t.TempDir()

	r, err := NewTimed(filepath.Join(dir, "app.log"), MustPolicy("MIDNIGHT", WithLocation(scl)), WithClock(clock.Now))
	require.NoError(t, err)
	defer r.Close()

	for _, day := range []int{7, 8, 9} {
		clock.Set(time.Date(2024, 9, day, 12, 0, 0, 0, scl))
		_, err = fmt.Fprintf(r, "2024-09-%02d\n", day)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"app-2024-09-07.log", "app-2024-09-08.log", "app-2024-09-09.log"}, sortedDir(t, dir))
	for _, day := range []int{7, 8, 9} {
		name := fmt.Sprintf("app-2024-09-%02d.log", day)
		assert.Equal(t, fmt.Sprintf("2024-09-%02d\n", day), readFile(t, filepath.Join(dir, name)), name)
	}
}

func TestTimedRotator_Closed(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 10, 12, 0, 30, 0, time.UTC))
	r, _ := newTestTimed(t, "M", clock, nil)

	_, err := r.Write([]byte("x\n"))
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, StateClosed, r.State())

	_, err = r.Write([]byte("y\n"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Rotate(), ErrClosed)
	assert.ErrorIs(t, r.Close(), ErrClosed)
}

func TestTimedRotator_CloseWithoutWrite(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 10, 12, 0, 30, 0, time.UTC))
	r, dir := newTestTimed(t, "M", clock, nil)

	require.NoError(t, r.Close())
	assert.Empty(t, listDir(t, dir))
}

func TestTimedRotator_OpenFailureRetries(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 10, 12, 0, 30, 0, time.UTC))
	r, dir := newTestTimed(t, "M", clock, nil)

	_, err := r.Write([]byte("a\n"))
	require.NoError(t, err)

	var fail atomic.Bool
	fail.Store(true)
	errDisk := errors.New("disk full")
	r.openFile = func(name string, flag int, perm os.FileMode) (*os.File, error) {
		if fail.Load() {
			return nil, errDisk
		}
		return os.OpenFile(name, flag, perm)
	}

	clock.Advance(time.Minute)
	_, err = r.Write([]byte("lost\n"))
	require.ErrorIs(t, err, errDisk)
	assert.Equal(t, StateOpen, r.State())
	assert.Equal(t, filepath.Join(dir, "app-info-2024-03-10_12-01.log"), r.Filename())

	fail.Store(false)
	_, err = r.Write([]byte("b\n"))
	require.NoError(t, err)

	assert.Equal(t, "a\n", readFile(t, filepath.Join(dir, "app-info-2024-03-10_12-00.log")))
	assert.Equal(t, "b\n", readFile(t, r.Filename()))
}

func TestTimedRotator_PruneFailureDoesNotFailWrite(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 10, 12, 0, 30, 0, time.UTC))

	var reported atomic.Int32
	r, dir := newTestTimed(t, "M", clock, []PolicyOption{WithBackupCount(1)},
		WithOnError(func(err error) {
			if errors.Is(err, ErrPrune) {
				reported.Add(1)
			}
		}))
	r.retention.remove = func(string) error { return os.ErrPermission }

	for i := 0; i < 4; i++ {
		_, err := r.Write([]byte("x\n"))
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	assert.Len(t, listDir(t, dir), 4)
	assert.Positive(t, reported.Load())
}

func TestTimedRotator_ManualRotate(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 10, 12, 0, 30, 0, time.UTC))
	r, dir := newTestTimed(t, "H", clock, nil)

	_, err := r.Write([]byte("a\n"))
	require.NoError(t, err)

	// 外部工具移走了活动文件
	moved := filepath.Join(dir, "moved.log")
	require.NoError(t, os.Rename(r.Filename(), moved))

	require.NoError(t, r.Rotate())
	_, err = r.Write([]byte("b\n"))
	require.NoError(t, err)

	assert.Equal(t, "a\n", readFile(t, moved))
	assert.Equal(t, "b\n", readFile(t, filepath.Join(dir, "app-info-2024-03-10_12.log")))
}

func TestTimedRotator_ConcurrentWrites(t *testing.T) {
	var tick atomic.Int64
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		return start.Add(time.Duration(tick.Add(1)) * 10 * time.Millisecond)
	}

	dir := t.TempDir()
	p := MustPolicy("S", WithUTC(true), WithBackupCount(0))
	r, err := NewTimed(filepath.Join(dir, "app.log"), p, WithClock(clock))
	require.NoError(t, err)

	const (
		workers = 8
		perWork = 200
	)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				_, err := fmt.Fprintf(r, "worker=%d seq=%d\n", w, i)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, r.Close())

	seen := make(map[string]struct{})
	files := listDir(t, dir)
	assert.Greater(t, len(files), 1)
	for _, name := range files {
		f, err := os.Open(filepath.Join(dir, name))
		require.NoError(t, err)
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := sc.Text()
			require.True(t, strings.HasPrefix(line, "worker="), "记录被截断: %q", line)
			_, dup := seen[line]
			require.False(t, dup, "重复记录: %q", line)
			seen[line] = struct{}{}
		}
		require.NoError(t, f.Close())
	}
	assert.Len(t, seen, workers*perWork)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "rotation-pending", StateRotationPending.String())
	assert.Equal(t, "rotating", StateRotating.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "State(9)", State(9).String())
}

// sumCounter 汇总指定 int64 计数器的所有数据点
func sumCounter(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is %T", name, m.Data)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}
