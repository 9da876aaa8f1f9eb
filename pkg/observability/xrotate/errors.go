package xrotate

import "errors"

// 配置校验错误
//
// 这些错误都在构造阶段返回：配置有误的轮转器不会被创建，也不会打开任何文件。
var (
	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidUnit 轮转单位无效（支持 S/M/H/D/MIDNIGHT/W0~W6）
	ErrInvalidUnit = errors.New("xrotate: invalid rollover unit")

	// ErrEmptyWeekday 按周轮转未指定星期（如 "W"）
	ErrEmptyWeekday = errors.New("xrotate: weekday is required for weekly rollover")

	// ErrInvalidWeekday 星期数字不在 0~6 范围内（0 为周一）
	ErrInvalidWeekday = errors.New("xrotate: invalid weekday for weekly rollover")

	// ErrInvalidInterval 间隔倍数无效（必须 >= 1）
	ErrInvalidInterval = errors.New("xrotate: invalid interval")

	// ErrInvalidBackupCount 备份数量无效（必须在 0~maxBackups 范围内）
	ErrInvalidBackupCount = errors.New("xrotate: invalid backup count")

	// ErrInvalidPostfix 后缀无效（不能包含路径分隔符）
	ErrInvalidPostfix = errors.New("xrotate: invalid postfix")

	// ErrInvalidMaxSize MaxSizeMB 值无效（必须在 1~10240 范围内）
	ErrInvalidMaxSize = errors.New("xrotate: invalid MaxSizeMB")

	// ErrInvalidFileMode FileMode 包含非权限位（仅允许低 9 位 0000~0777）
	ErrInvalidFileMode = errors.New("xrotate: invalid FileMode")
)

// ErrClosed 轮转器已关闭
//
// 与 I/O 错误区分：表示调用方在 Close 之后仍在使用轮转器（非法状态）。
var ErrClosed = errors.New("xrotate: rotator is closed")
