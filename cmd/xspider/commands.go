package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xspider/internal/crawl"
	"github.com/omeyang/xspider/pkg/config/xconf"
	"github.com/omeyang/xspider/pkg/lifecycle/xrun"
	"github.com/omeyang/xspider/pkg/observability/xlog"
	"github.com/omeyang/xspider/pkg/observability/xrotate"
)

func crawlCommand() *cli.Command {
	return &cli.Command{
		Name:  "crawl",
		Usage: "抓取 [from, to) 区间内的页面，每行输出 \"编号 姓名\"",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "配置文件（.yaml/.json），修改后自动应用 log.levels"},
			&cli.IntFlag{Name: "from", Usage: "起始编号（含）", Value: crawl.DefaultFrom},
			&cli.IntFlag{Name: "to", Usage: "结束编号（不含）", Value: crawl.DefaultTo},
			&cli.StringFlag{Name: "url", Usage: "URL 模板，%d 为编号", Value: crawl.DefaultURLPattern},
			&cli.DurationFlag{Name: "min-delay", Usage: "两次请求的最小间隔", Value: crawl.DefaultMinDelay},
			&cli.DurationFlag{Name: "jitter", Usage: "在最小间隔上增加的随机时长上限", Value: crawl.DefaultJitter},
			&cli.StringFlag{Name: "log-dir", Usage: "日志目录，覆盖配置文件中的 log.dir"},
		},
		Action: runCrawl,
	}
}

// applyFlags 显式设置的命令行参数覆盖配置文件
func applyFlags(cmd *cli.Command, cfg *appConfig) {
	if cmd.IsSet("from") {
		cfg.Crawl.From = cmd.Int("from")
	}
	if cmd.IsSet("to") {
		cfg.Crawl.To = cmd.Int("to")
	}
	if cmd.IsSet("url") {
		cfg.Crawl.URLPattern = cmd.String("url")
	}
	if cmd.IsSet("min-delay") {
		cfg.Crawl.MinDelay = cmd.Duration("min-delay")
	}
	if cmd.IsSet("jitter") {
		cfg.Crawl.Jitter = cmd.Duration("jitter")
	}
	if cmd.IsSet("log-dir") {
		cfg.Log.Dir = cmd.String("log-dir")
	}
}

func runCrawl(ctx context.Context, cmd *cli.Command) error {
	cfg, src, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Crawl.Validate(); err != nil {
		return &usageError{msg: err.Error()}
	}

	stderr := cmd.Root().ErrWriter
	factory, err := xlog.NewFactory(cfg.Log,
		xlog.WithConsoleOutput(stderr),
		xlog.WithOnError(func(err error) {
			fmt.Fprintf(stderr, "xspider: log: %v\n", err)
		}),
	)
	if err != nil {
		return err
	}
	defer func() { _ = factory.Shutdown() }()

	log := factory.Logger("main")
	c, err := crawl.New(cfg.Crawl, factory.Logger("crawl"), crawl.WithOnResult(printResult(cmd.Root().Writer)))
	if err != nil {
		return err
	}

	// 抓取结束后配置监视随之退出
	crawlDone, finish := context.WithCancel(context.Background())
	defer finish()
	services := []xrun.Service{{Name: "crawl", Run: func(ctx context.Context) error {
		defer finish()
		return c.Run(ctx)
	}}}
	if src != nil {
		w, err := xconf.Watch(src, levelReloader(ctx, factory, log))
		if err != nil {
			return err
		}
		services = append(services, xrun.Service{Name: "config-watch", Run: until(crawlDone, w.Run)})
	}

	log.Info(ctx, "xspider starting",
		xlog.RunID(c.RunID()),
		slog.Int("from", cfg.Crawl.From),
		slog.Int("to", cfg.Crawl.To),
		slog.Any("log_files", factory.Files()),
	)
	err = xrun.Run(ctx, []xrun.Option{
		xrun.WithName("xspider"),
		xrun.WithLogger(xlog.AsSlog(factory.Logger("xrun"))),
	}, services...)

	if errors.Is(err, xrun.ErrSignal) {
		log.Info(ctx, "xspider stopped", xlog.Err(err))
		return nil
	}
	return err
}

// until 在 done 结束或组 ctx 取消时取消 fn 的 ctx
func until(done context.Context, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(done, cancel)
		defer stop()
		return fn(ctx)
	}
}

func printResult(w io.Writer) func(crawl.Result) {
	return func(r crawl.Result) {
		if r.Err != nil {
			return
		}
		fmt.Fprintf(w, "%d %s\n", r.ID, r.Name)
	}
}

// levelReloader 配置文件变化后重新应用 log.levels
func levelReloader(ctx context.Context, f *xlog.Factory, log xlog.Logger) xconf.WatchFunc {
	return func(src xconf.Config, err error) {
		if err == nil {
			var levels map[string]xlog.Level
			if levels, err = reloadLevels(src); err == nil {
				f.ApplyLevels(levels)
				log.Info(ctx, "log levels reloaded", slog.String("config", src.Path()))
				return
			}
		}
		log.Warn(ctx, "config reload failed", xlog.Err(err))
	}
}

func scheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "打印轮转配置接下来的轮转时刻",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "when", Usage: "S/M/H/D/MIDNIGHT/W0~W6（W0 为周一）", Value: "MIDNIGHT"},
			&cli.IntFlag{Name: "interval", Usage: "间隔倍数", Value: 1},
			&cli.BoolFlag{Name: "utc", Usage: "按 UTC 计算"},
			&cli.IntFlag{Name: "count", Usage: "输出个数", Value: 5},
			&cli.StringFlag{Name: "from", Usage: "起始时间（RFC 3339），默认当前时间"},
			&cli.StringFlag{Name: "base", Usage: "同时输出该基础路径对应的文件名", Value: "logs/xspider-info.log"},
		},
		Action: runSchedule,
	}
}

func runSchedule(_ context.Context, cmd *cli.Command) error {
	policy, err := xrotate.NewPolicy(cmd.String("when"),
		xrotate.WithInterval(cmd.Int("interval")),
		xrotate.WithUTC(cmd.Bool("utc")),
	)
	if err != nil {
		return &usageError{msg: err.Error()}
	}

	now := time.Now()
	if s := cmd.String("from"); s != "" {
		if now, err = time.Parse(time.RFC3339, s); err != nil {
			return &usageError{msg: fmt.Sprintf("invalid --from: %v", err)}
		}
	}
	now = now.In(policy.Location())

	sched := xrotate.NewScheduler(policy)
	namer := xrotate.NewNamer(cmd.String("base"), policy)
	w := cmd.Root().Writer

	fmt.Fprintf(w, "%s  %s\n", now.Format(time.RFC3339), namer.Name(now))
	t := now
	for i := 0; i < cmd.Int("count"); i++ {
		t = sched.Next(t)
		fmt.Fprintf(w, "%s  %s\n", t.Format(time.RFC3339), namer.Name(t))
	}
	return nil
}
