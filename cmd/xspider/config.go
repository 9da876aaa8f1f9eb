package main

import (
	"github.com/omeyang/xspider/internal/crawl"
	"github.com/omeyang/xspider/pkg/config/xconf"
	"github.com/omeyang/xspider/pkg/observability/xlog"
)

// appConfig 配置文件的完整结构
//
//	log:   { ... }   # xlog.Config
//	crawl: { ... }   # crawl.Config
type appConfig struct {
	Log   xlog.Config  `koanf:"log"`
	Crawl crawl.Config `koanf:"crawl"`
}

func defaultAppConfig() appConfig {
	return appConfig{
		Log:   xlog.DefaultConfig(),
		Crawl: crawl.DefaultConfig(),
	}
}

// configDelim 配置键分隔符；Logger 名称本身含 "."，不能用作分隔符
const configDelim = "/"

// loadConfig 读取配置文件并叠加在默认值之上，path 为空时只返回默认值
func loadConfig(path string) (appConfig, xconf.Config, error) {
	cfg := defaultAppConfig()
	if path == "" {
		return cfg, nil, nil
	}

	src, err := xconf.New(path, xconf.WithDelim(configDelim))
	if err != nil {
		return cfg, nil, err
	}
	if err := src.Unmarshal("", &cfg); err != nil {
		return cfg, nil, err
	}
	return cfg, src, nil
}

// reloadLevels 从重载后的配置中取出级别表
func reloadLevels(src xconf.Config) (map[string]xlog.Level, error) {
	cfg := defaultAppConfig()
	if err := src.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return cfg.Log.Levels, nil
}
