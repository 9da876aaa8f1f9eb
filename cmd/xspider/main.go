// xspider 顺序抓取影人页面，日志按时间轮转并按级别分流到多个文件。
//
// 用法:
//
//	xspider [全局选项] <命令> [命令参数]
//
// 命令:
//
//	crawl       抓取 [--from, --to) 区间内的页面
//	schedule    打印某个轮转配置接下来的轮转时刻
//
// 退出码:
//
//	0: 正常结束，或收到 SIGINT/SIGTERM 后正常退出
//	1: 运行失败（配置无法加载、日志目录不可用等）
//	2: 参数错误
//
// 示例:
//
//	xspider crawl --config xspider.yaml
//	xspider crawl --from 1400001 --to 1400010 --log-dir /tmp/logs
//	xspider schedule --when W0 --count 3
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息，通过 -ldflags "-X main.Version=..." 注入
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xspider",
		Usage:     "影人页面抓取器",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			crawlCommand(),
			scheduleCommand(),
		},
		// 由 run 统一映射退出码
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

// usageError 参数错误，退出码 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := createApp(stdout, stderr).Run(ctx, args)
	if err == nil {
		return 0
	}

	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}
