// Package observability 日志相关的子包。
//
// 子包列表：
//   - xlog: 基于 log/slog 的分级路由日志，Factory 创建命名 Logger
//   - xrotate: 日志文件轮转，按时间（含 DST 修正与历史清理）或按大小
//
// xlog 的文件目的地由 xrotate 提供写入器；轮转次数和清理结果通过
// OpenTelemetry metric 上报，trace_id/span_id 从 context 注入日志。
package observability
