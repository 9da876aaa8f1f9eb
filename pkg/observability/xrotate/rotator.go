package xrotate

import "io"

// 编译时断言：Rotator 接口是 io.WriteCloser 的超集
var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器接口
//
// 隐式实现 [io.WriteCloser]，可直接作为 xlog 文件目的地的写入端。
// 所有实现都必须是并发安全的。
//
// 约定：
//   - Write 必须是并发安全的，且"检查轮转 → 轮转 → 写入"对同一实例是原子的
//   - Close 后调用 Write、Rotate 或再次 Close 返回 [ErrClosed]
//   - Rotate 可以在任意时刻调用
type Rotator interface {
	// Write 写入一条已格式化的日志
	// 到达轮转条件时先轮转，再写入新文件
	Write(p []byte) (n int, err error)

	// Close 刷新并关闭当前文件
	Close() error

	// Rotate 手动触发轮转
	Rotate() error

	// Filename 返回当前活动文件路径
	Filename() string
}

// 编译时接口检查
var (
	_ Rotator = (*TimedRotator)(nil)
	_ Rotator = (*sizeRotator)(nil)
)
