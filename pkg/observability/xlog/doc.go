// Package xlog 基于 log/slog 的分级路由日志。
//
// 一条记录从命名 Logger 发出，依次经过：
//
//	xlogger → EnrichHandler（trace_id/span_id）→ routeHandler → 各目的地
//
// routeHandler 对每个目的地应用 [Filter]，通过的记录按目的地的 [Formatter]
// 格式化后写入：控制台（独立的锁）或 xrotate 的按时间轮转文件。
//
// # 创建
//
//	f, err := xlog.NewFactory(xlog.DefaultConfig())
//	if err != nil {
//	    return err // 例如 rotation.when 为 "W7"，此时尚未打开任何文件
//	}
//	defer f.Shutdown()
//
//	logger := f.Logger("crawl")
//	logger.Info(ctx, "fetched", xlog.URL(u), xlog.StatusCode(200))
//
// # 默认目的地
//
// [DefaultDestinations] 生成四个目的地：
//
//	console     >= INFO    着色（终端时）
//	file        == INFO    <base>-info-<日期>.log
//	file_error  >= ERROR   <base>-error-<日期>.log
//	file_debug  == DEBUG   <base>-debug-<日期>.log
//
// WARNING 只出现在控制台；CRITICAL 出现在控制台和 error 文件。
//
// # 级别
//
// DEBUG < INFO < WARNING < ERROR < CRITICAL，CRITICAL 为 slog.LevelError+4。
// 每个命名 Logger 有自己的 slog.LevelVar，初始值按名称逐级查找 Config.Levels，
// 可通过 SetLevel 或 [Factory.ApplyLevels] 在运行时修改。
//
// # 错误
//
// 写入失败不会返回给调用方：计入 [Factory.ErrorCount]，并交给 [WithOnError] 回调。
// 回调内再次触发的错误不会递归。
package xlog
