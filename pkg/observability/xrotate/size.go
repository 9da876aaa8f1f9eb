package xrotate

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xspider/pkg/util/xfile"

	"gopkg.in/natefinch/lumberjack.v2"
)

// sizeRotator 基于 lumberjack 的按大小轮转实现
//
// 作为按时间轮转之外的备选模式（配置 rotation.mode=size）。
// 保留数量取自 Policy.BackupCount，备份文件名时区取自 Policy.UTC；
// 不压缩备份文件。
type sizeRotator struct {
	logger   *lumberjack.Logger
	path     string
	fileMode os.FileMode
	onError  func(error)
	metrics  *instruments

	mu          sync.Mutex // 保护 Stat+Chmod
	closed      atomic.Bool
	modeApplied atomic.Bool
	written     atomic.Int64 // 自上次权限校验以来的写入字节数
	maxBytes    int64
}

// NewSize 创建按大小轮转的写入器
//
// 单个文件上限通过 [WithMaxSize] 设置（默认 DefaultMaxSizeMB）。
// WithClock 和 WithLazyOpen 对该实现无效（lumberjack 自身即延迟创建文件）。
func NewSize(filename string, policy Policy, opts ...Option) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.maxSizeMB <= 0 || o.maxSizeMB > maxSizeMB {
		return nil, fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxSize, o.maxSizeMB, maxSizeMB)
	}
	if err := validateFileMode(o.fileMode); err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, err
	}

	m, err := newInstruments(o.meterProvider, safePath)
	if err != nil {
		return nil, err
	}

	return &sizeRotator{
		logger: &lumberjack.Logger{
			Filename:   safePath,
			MaxSize:    o.maxSizeMB,
			MaxBackups: policy.BackupCount(),
			LocalTime:  !policy.UTC(),
		},
		path:     safePath,
		fileMode: o.fileMode,
		onError:  o.onError,
		metrics:  m,
		maxBytes: int64(o.maxSizeMB) * 1024 * 1024,
	}, nil
}

// Write 实现 io.Writer 接口
func (r *sizeRotator) Write(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}

	n, err := r.logger.Write(p)
	if err != nil {
		// Write 与 Close 之间的 TOCTOU 窗口：保证调用方始终得到 ErrClosed
		if r.closed.Load() {
			return n, ErrClosed
		}
		return n, err
	}

	// lumberjack 用 0600 创建文件；累计写入超过上限时可能已自动轮转，需要重新校验
	if !r.modeApplied.Load() || r.written.Add(int64(n)) >= r.maxBytes {
		r.report(r.ensureFileMode())
	}
	return n, nil
}

// ensureFileMode 确保当前文件具有期望的权限
func (r *sizeRotator) ensureFileMode() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Mode().Perm() != r.fileMode {
		//#nosec G302 -- 日志文件权限由调用方配置决定
		if err := os.Chmod(r.path, r.fileMode); err != nil {
			return err
		}
	}
	r.modeApplied.Store(true)
	r.written.Store(0)
	return nil
}

// report 通过回调上报内部错误
func (r *sizeRotator) report(err error) {
	if err != nil && r.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		r.onError(err)
	}
}

// Close 实现 io.Closer 接口
func (r *sizeRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return r.logger.Close()
}

// Rotate 手动触发轮转
func (r *sizeRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.logger.Rotate(); err != nil {
		if r.closed.Load() {
			return ErrClosed
		}
		return err
	}
	r.metrics.rotated()
	r.modeApplied.Store(false)
	r.report(r.ensureFileMode())
	return nil
}

// Filename 返回当前活动文件路径
func (r *sizeRotator) Filename() string {
	return r.path
}
