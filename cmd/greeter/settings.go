package main

import (
	"fmt"
	"time"

	"github.com/gocrud/greeter/config"
	"github.com/gocrud/greeter/logging"
)

// envPrefix 环境变量和 .env 文件中的键前缀
const envPrefix = "GREETER_"

// Settings 进程级配置，未出现在配置源中的字段保留默认值
type Settings struct {
	Log   LogSettings   `json:"log"`
	Web   WebSettings   `json:"web"`
	Store StoreSettings `json:"store"`
	Cron  CronSettings  `json:"cron"`
	Etcd  EtcdSettings  `json:"etcd"`
}

type LogSettings struct {
	Level  string `json:"level"`
	Format string `json:"format"` // console 或 json
}

type WebSettings struct {
	Port int    `json:"port"`
	Mode string `json:"mode"`
}

// StoreSettings 问候记录存储，Driver 为 memory、sqlite、redis、mongodb 或 etcd
// Key 是 redis 的列表键或 etcd 的键前缀
type StoreSettings struct {
	Driver     string   `json:"driver"`
	DSN        string   `json:"dsn"`
	Addr       string   `json:"addr"`
	Endpoints  []string `json:"endpoints"`
	Key        string   `json:"key"`
	URI        string   `json:"uri"`
	Database   string   `json:"database"`
	Collection string   `json:"collection"`
}

type CronSettings struct {
	Spec string `json:"spec"`
}

type EtcdSettings struct {
	Endpoints []string `json:"endpoints"`
	Prefix    string   `json:"prefix"`
}

func defaultSettings() Settings {
	return Settings{
		Log:  LogSettings{Level: "info", Format: "console"},
		Web:  WebSettings{Port: 8080, Mode: "release"},
		Cron: CronSettings{Spec: "@every 1m"},
		Store: StoreSettings{
			Driver:    "memory",
			DSN:       "greeter.db",
			Addr:      "localhost:6379",
			Endpoints: []string{"localhost:2379"},
			URI:       "mongodb://localhost:27017",
			Database:  "greeter",
		},
	}
}

// loadConfiguration 按 YAML 文件、.env 文件、环境变量的顺序叠加配置；
// 配置了 etcd.endpoints 时在环境变量之前再叠加 etcd
func loadConfiguration(path, envFile string) (config.ReloadableConfiguration, Settings, error) {
	newBuilder := func() *config.ConfigurationBuilder {
		b := config.NewConfigurationBuilder().AddYamlFile(path, true)
		if envFile != "" {
			b.AddDotEnvFile(envFile, envPrefix, true)
		}
		return b
	}

	cfg, err := newBuilder().AddEnvironmentVariables(envPrefix).BuildReloadable()
	if err != nil {
		return nil, Settings{}, err
	}
	settings, err := bindSettings(cfg)
	if err != nil {
		return nil, Settings{}, err
	}
	if len(settings.Etcd.Endpoints) == 0 {
		return cfg, settings, nil
	}

	cfg, err = newBuilder().
		AddEtcd(config.EtcdOptions{Endpoints: settings.Etcd.Endpoints, Prefix: settings.Etcd.Prefix}).
		AddEnvironmentVariables(envPrefix).
		BuildReloadable()
	if err != nil {
		return nil, Settings{}, err
	}
	settings, err = bindSettings(cfg)
	return cfg, settings, err
}

func bindSettings(cfg config.Configuration) (Settings, error) {
	settings := defaultSettings()
	if err := cfg.Bind("", &settings); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

// newLogger 根据配置创建进程日志，返回的函数在退出前刷新缓冲
func newLogger(s LogSettings) (logging.Logger, func(), error) {
	level, err := logging.ParseLevel(s.Level)
	if err != nil {
		return nil, nil, err
	}

	builder := logging.NewLoggingBuilder().SetMinimumLevel(level)
	flush := func() {}

	switch s.Format {
	case "", "console":
		builder.AddConsole(logging.ConsoleLoggerOptions{
			IncludeTimestamp: true,
			TimestampFormat:  time.DateTime,
			ColorOutput:      true,
		})
	case "json":
		provider, err := logging.NewZapLoggerProvider(nil)
		if err != nil {
			return nil, nil, err
		}
		builder.AddProvider(provider)
		flush = func() { _ = provider.Sync() }
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", s.Format)
	}

	return builder.Build().CreateLogger("greeter"), flush, nil
}
