package xrotate

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/omeyang/xspider/pkg/util/xfile"
)

// State 按时间轮转写入器的状态
type State int

// 状态常量
//
// 状态转换：Open → RotationPending → Rotating → Open，Open → Closed。
// RotationPending 和 Rotating 只在持锁期间出现。
const (
	StateOpen State = iota
	StateRotationPending
	StateRotating
	StateClosed
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateRotationPending:
		return "rotation-pending"
	case StateRotating:
		return "rotating"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TimedRotator 按时间轮转的日志写入器
//
// 持有唯一的文件句柄。每次 Write 在同一把锁内完成
// "检查是否到达轮转时刻 → 必要时轮转 → 追加写入"，
// 因此跨越边界的记录只会写入一个文件，既不丢失也不重复。
type TimedRotator struct {
	mu sync.Mutex

	base      string
	policy    Policy
	sched     Scheduler
	namer     Namer
	retention Retention
	opts      options
	metrics   *instruments
	openFile  func(name string, flag int, perm os.FileMode) (*os.File, error)

	file           *os.File
	active         string
	nextRolloverAt time.Time
	state          State
}

// NewTimed 创建按时间轮转的写入器
//
// 参数:
//   - filename: 基础路径，如 "logs/app-info.log"；实际文件名带时间后缀
//   - policy: 轮转策略，见 [NewPolicy]
//   - opts: 可选配置项
//
// 默认首次写入时才创建文件。父目录不存在时自动创建（权限 0750）。
func NewTimed(filename string, policy Policy, opts ...Option) (*TimedRotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	if policy.unit == 0 {
		return nil, fmt.Errorf("%w: zero policy", ErrInvalidUnit)
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
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

	namer := NewNamer(safePath, policy)
	now := o.now()
	r := &TimedRotator{
		base:      safePath,
		policy:    policy,
		sched:     NewScheduler(policy),
		namer:     namer,
		retention: NewRetention(namer, policy.backupCount, o.onError),
		opts:      o,
		metrics:   m,
		openFile:  os.OpenFile,
		active:    namer.Name(now),
		state:     StateOpen,
	}
	r.nextRolloverAt = r.sched.Next(now)

	if !o.lazy {
		if err := r.openLocked(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// validateFileMode FileMode 仅允许权限位（低 9 位）
func validateFileMode(mode os.FileMode) error {
	if mode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed",
			ErrInvalidFileMode, mode)
	}
	return nil
}

// Write 实现 io.Writer 接口
//
// 当前时间不早于 nextRolloverAt 时先轮转；新文件打开失败时返回错误，
// 本次数据不会写入任何文件。
func (r *TimedRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateClosed {
		return 0, ErrClosed
	}

	now := r.opts.now()
	if !now.Before(r.nextRolloverAt) {
		r.state = StateRotationPending
		if err := r.rolloverLocked(now); err != nil {
			return 0, err
		}
	}

	if r.file == nil {
		if err := r.openLocked(); err != nil {
			return 0, err
		}
	}
	return r.file.Write(p)
}

// rolloverLocked 轮转到 now 之前最后一个被跨越的边界
//
// 调用方必须持有 r.mu。
func (r *TimedRotator) rolloverLocked(now time.Time) error {
	r.state = StateRotating
	defer func() { r.state = StateOpen }()

	boundary := r.sched.Crossed(r.nextRolloverAt, now)
	r.closeFileLocked()

	r.active = r.namer.Name(boundary)
	r.nextRolloverAt = r.sched.Next(boundary)

	// 旧文件已关闭，新文件打开失败时保持无句柄状态，下次 Write 重试打开
	if err := r.openLocked(); err != nil {
		return err
	}

	r.metrics.rotated()
	r.metrics.prunedFiles(r.retention.Prune(r.active))
	return nil
}

// openLocked 以追加模式打开当前活动文件
func (r *TimedRotator) openLocked() error {
	//#nosec G304 -- 路径已经过 SanitizePath 校验
	f, err := r.openFile(r.active, os.O_CREATE|os.O_WRONLY|os.O_APPEND, r.opts.fileMode)
	if err != nil {
		return fmt.Errorf("xrotate: open %s: %w", r.active, err)
	}
	r.file = f
	return nil
}

// closeFileLocked 关闭当前句柄，错误只上报不返回（数据已写入）
func (r *TimedRotator) closeFileLocked() {
	if r.file == nil {
		return
	}
	if err := r.file.Close(); err != nil {
		r.report(fmt.Errorf("xrotate: close %s: %w", r.active, err))
	}
	r.file = nil
}

// Rotate 手动轮转
//
// 以当前时间重新计算活动文件名并重新打开（外部工具移走文件后可用于重建），
// 随后执行历史文件清理。
func (r *TimedRotator) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateClosed {
		return ErrClosed
	}

	r.state = StateRotating
	defer func() { r.state = StateOpen }()

	now := r.opts.now()
	r.closeFileLocked()
	r.active = r.namer.Name(now)
	r.nextRolloverAt = r.sched.Next(now)
	if err := r.openLocked(); err != nil {
		return err
	}

	r.metrics.rotated()
	r.metrics.prunedFiles(r.retention.Prune(r.active))
	return nil
}

// Close 刷新并关闭当前文件
//
// 关闭后调用 Write、Rotate 或 Close 均返回 [ErrClosed]。
// 即使刷新失败，句柄也会被释放。
func (r *TimedRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateClosed {
		return ErrClosed
	}
	r.state = StateClosed

	if r.file == nil {
		return nil
	}
	f := r.file
	r.file = nil
	return errors.Join(f.Sync(), f.Close())
}

// Filename 返回当前活动文件路径
func (r *TimedRotator) Filename() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// NextRollover 返回下一个轮转时刻
func (r *TimedRotator) NextRollover() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextRolloverAt
}

// State 返回当前状态
func (r *TimedRotator) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Policy 返回轮转策略
func (r *TimedRotator) Policy() Policy {
	return r.policy
}

// report 通过回调上报内部错误
//
// 回调 panic 被 recover 隔离，防止日志错误通知反向中断业务主流程。
func (r *TimedRotator) report(err error) {
	if err != nil && r.opts.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		r.opts.onError(err)
	}
}
