// Package xrotate 提供日志文件轮转功能。
//
// Rotator 接口定义了轮转器的核心行为（Write/Close/Rotate/Filename），所有实现并发安全。
//
// # 当前实现
//
//   - [NewTimed]: 按时间轮转（秒/分/时/天/本地午夜/每周指定星期）
//   - [NewSize]: 基于 lumberjack v2 的按大小轮转
//
// # 按时间轮转
//
// 组成部分：
//   - [Policy]: 轮转策略，由 when 配置（S、M、H、D、MIDNIGHT、W0~W6）构造，构造后不可变
//   - [Scheduler]: 计算下一个轮转时刻，本地时间模式下修正夏令时
//   - [Namer]: 轮转时刻与文件名之间的映射，命名与清理扫描共用
//   - [Retention]: 删除超出 BackupCount 的最旧文件，删除失败不影响写入
//   - [TimedRotator]: 持有文件句柄的写入器，"检查 → 轮转 → 写入"在同一把锁内完成
//
// 文件名格式为 <stem>-<时间后缀><postfix>：
//
//	S         app-info-2024-03-10_13-45-07.log
//	M         app-info-2024-03-10_13-45.log
//	H         app-info-2024-03-10_13.log
//	D/MIDNIGHT/W  app-info-2024-03-10.log
//
// # 错误
//
//   - 配置错误（[ErrInvalidUnit]、[ErrInvalidWeekday] 等）在构造时返回
//   - 新文件打开失败由触发轮转的 Write 返回
//   - Close 之后的任何操作返回 [ErrClosed]
//   - 历史文件删除失败只通过 [WithOnError] 上报，并计入 xspider.rotate.prune_failures 指标
package xrotate
