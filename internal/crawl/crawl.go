// Package crawl 按编号顺序抓取影人页面并提取姓名。
//
// 每个 URL 在请求前记录一条 INFO 日志，两次请求之间随机等待
// MinDelay 到 MinDelay+Jitter。
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/omeyang/xspider/pkg/observability/xlog"
)

// 默认值
const (
	DefaultURLPattern = "https://movie.douban.com/celebrity/%d/"
	DefaultFrom       = 1400001
	DefaultTo         = 1500007
	DefaultSelector   = "div#content > h1"
	DefaultMinDelay   = 2 * time.Second
	DefaultJitter     = time.Second
	DefaultTimeout    = 15 * time.Second
	DefaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/68.0.3440.106 Safari/537.36"
)

var (
	// ErrInvalidRange From 不小于 To
	ErrInvalidRange = errors.New("crawl: invalid id range")

	// ErrInvalidPattern URL 模板不含 %d
	ErrInvalidPattern = errors.New("crawl: url pattern must contain %d")

	// ErrStatus 非 200 响应
	ErrStatus = errors.New("crawl: unexpected status")
)

// Config 抓取范围和节奏，编号区间为 [From, To)
type Config struct {
	From       int           `koanf:"from"`
	To         int           `koanf:"to"`
	URLPattern string        `koanf:"url"`
	Selector   string        `koanf:"selector"`
	MinDelay   time.Duration `koanf:"min_delay"`
	Jitter     time.Duration `koanf:"jitter"`
	Timeout    time.Duration `koanf:"timeout"`
	UserAgent  string        `koanf:"user_agent"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		From:       DefaultFrom,
		To:         DefaultTo,
		URLPattern: DefaultURLPattern,
		Selector:   DefaultSelector,
		MinDelay:   DefaultMinDelay,
		Jitter:     DefaultJitter,
		Timeout:    DefaultTimeout,
		UserAgent:  DefaultUserAgent,
	}
}

// Validate 校验配置
func (c Config) Validate() error {
	if c.From >= c.To {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, c.From, c.To)
	}
	if strings.Count(c.URLPattern, "%d") != 1 {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, c.URLPattern)
	}
	return nil
}

// Result 一个页面的抓取结果
type Result struct {
	ID   int
	URL  string
	Name string // 页面没有匹配元素时为空
	Err  error
}

// Option Crawler 选项
type Option func(*Crawler)

// WithHTTPClient 替换 HTTP 客户端
func WithHTTPClient(c *http.Client) Option {
	return func(cr *Crawler) {
		if c != nil {
			cr.client = c
		}
	}
}

// WithSleep 替换等待函数，ctx 取消时应返回 ctx.Err()
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(cr *Crawler) {
		if fn != nil {
			cr.sleep = fn
		}
	}
}

// WithOnResult 设置每个页面完成后的回调
func WithOnResult(fn func(Result)) Option {
	return func(cr *Crawler) {
		cr.onResult = fn
	}
}

// Crawler 顺序抓取器
type Crawler struct {
	cfg      Config
	log      xlog.Logger
	client   *http.Client
	sleep    func(ctx context.Context, d time.Duration) error
	jitter   func() float64
	onResult func(Result)
	runID    string
}

// New 创建 Crawler，未设置的 Selector/UserAgent/Timeout 取默认值
func New(cfg Config, logger xlog.Logger, opts ...Option) (*Crawler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Selector == "" {
		cfg.Selector = DefaultSelector
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Crawler{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		sleep:  sleepCtx,
		jitter: rand.Float64,
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.log = logger.With(xlog.RunID(c.runID))
	return c, nil
}

// RunID 本次运行的标识，出现在每条日志的 run_id 字段
func (c *Crawler) RunID() string {
	return c.runID
}

// Run 依次抓取 [From, To)，ctx 取消时返回 nil
//
// 单个页面失败只记录 WARNING，不中断抓取。
func (c *Crawler) Run(ctx context.Context) error {
	start := time.Now()
	var done, failed int64
	defer func() {
		c.log.Info(ctx, "crawl finished",
			xlog.Count(done), slog.Int64("failed", failed), xlog.Duration(time.Since(start)))
	}()

	for id := c.cfg.From; id < c.cfg.To; id++ {
		if err := c.sleep(ctx, c.delay()); err != nil {
			return nil
		}

		r := c.fetchOne(ctx, id)
		if ctx.Err() != nil {
			return nil
		}
		done++
		if r.Err != nil {
			failed++
		}
		if c.onResult != nil {
			c.onResult(r)
		}
	}
	return nil
}

func (c *Crawler) delay() time.Duration {
	return c.cfg.MinDelay + time.Duration(c.jitter()*float64(c.cfg.Jitter))
}

func (c *Crawler) fetchOne(ctx context.Context, id int) Result {
	u := fmt.Sprintf(c.cfg.URLPattern, id)
	c.log.Info(ctx, u)

	r := Result{ID: id, URL: u}
	doc, err := c.Fetch(ctx, u)
	if err != nil {
		r.Err = err
		if ctx.Err() == nil {
			c.log.Warn(ctx, "fetch failed", xlog.URL(u), xlog.Err(err))
		}
		return r
	}

	r.Name = ExtractName(doc, c.cfg.Selector)
	c.log.Debug(ctx, "extracted", slog.Int("id", id), slog.String("name", r.Name),
		xlog.Lazy("title", func() any { return strings.TrimSpace(doc.Find("title").Text()) }))
	return r
}

// Fetch 请求 url 并解析为 HTML 文档
func (c *Crawler) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("crawl: parse %s: %w", url, err)
	}
	return doc, nil
}

// ExtractName 返回第一个匹配元素的直接文本（不含子元素），去掉首尾空白
//
// 影人页的 h1 形如 "<h1>张三 <span>Zhang San</span></h1>"，结果为 "张三"。
func ExtractName(doc *goquery.Document, selector string) string {
	var b strings.Builder
	doc.Find(selector).First().Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#text" {
			b.WriteString(s.Text())
		}
	})
	return strings.TrimSpace(b.String())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
