package xlog

import "errors"

var (
	// ErrUnknownLevel 无法识别的级别名称
	ErrUnknownLevel = errors.New("xlog: unknown level")

	// ErrNilHandler NewEnrichHandler 的 base handler 为 nil
	ErrNilHandler = errors.New("xlog: base handler is nil")

	// ErrUnknownFormat 无法识别的格式化器
	ErrUnknownFormat = errors.New("xlog: unknown formatter")

	// ErrUnknownEncoding 无法识别的字符编码
	ErrUnknownEncoding = errors.New("xlog: unknown encoding")

	// ErrUnknownColorMode 控制台着色模式不是 auto/always/never
	ErrUnknownColorMode = errors.New("xlog: unknown color mode")

	// ErrUnknownRotationMode 轮转模式不是 time/size
	ErrUnknownRotationMode = errors.New("xlog: unknown rotation mode")

	// ErrDuplicateDestination 目的地名称重复
	ErrDuplicateDestination = errors.New("xlog: duplicate destination")

	// ErrShutdown Factory 已关闭
	ErrShutdown = errors.New("xlog: factory is shut down")
)
