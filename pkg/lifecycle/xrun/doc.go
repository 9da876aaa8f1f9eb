// Package xrun 进程生命周期：基于 errgroup 运行一组服务，收到信号后协调退出。
//
// 所有服务共享一个 ctx。任一服务出错、收到 SIGINT/SIGTERM 或父 ctx
// 取消时，ctx 被取消，[Run] 等待全部服务返回后给出退出原因：
//
//   - 服务的第一个错误
//   - *SignalError（errors.Is(err, ErrSignal)）
//   - nil：所有服务正常返回
package xrun
