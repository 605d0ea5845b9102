package config

import (
	"context"
	"fmt"

	"github.com/gocrud/greeter/core"
	"github.com/gocrud/greeter/logging"
)

// UseOptions 配置注册选项
type UseOptions struct {
	HotReload bool
}

// UseOption 配置注册选项函数
type UseOption func(*UseOptions)

// WithHotReload 启用热重载：监听支持 Watch 的配置源（如 etcd），变更时重新加载
func WithHotReload() UseOption {
	return func(o *UseOptions) {
		o.HotReload = true
	}
}

// Watcher 由可以推送变更的配置源实现
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Use 把配置注册到运行时容器，同时作为 Runtime Feature
func Use(cfg Configuration, opts ...UseOption) core.Option {
	return func(rt *core.Runtime) error {
		options := &UseOptions{}
		for _, opt := range opts {
			opt(options)
		}

		if err := rt.Provide(func() Configuration { return cfg }); err != nil {
			return fmt.Errorf("config: failed to register configuration: %w", err)
		}
		core.SetFeature(rt, cfg)

		if !options.HotReload {
			return nil
		}

		c, ok := cfg.(*configuration)
		if !ok {
			return fmt.Errorf("config: hot reload requires a configuration from ConfigurationBuilder")
		}
		logger := rt.Logger.WithCategory("config")

		for _, source := range c.sources {
			w, ok := source.(Watcher)
			if !ok {
				continue
			}
			name := source.Name()
			if err := rt.Apply(core.WithWorker("config-watch:"+name, func(ctx context.Context) error {
				err := w.Watch(ctx, func() {
					if err := c.Reload(); err != nil {
						logger.Error("Config reload failed", logging.Field{Key: "source", Value: name}, logging.Field{Key: "error", Value: err})
						return
					}
					logger.Info("Config reloaded", logging.Field{Key: "source", Value: name})
				})
				if ctx.Err() != nil {
					return nil
				}
				return err
			})); err != nil {
				return err
			}
		}
		return nil
	}
}

// Bind 将配置节绑定到 *T 并注册到 DI 容器
// 绑定在容器构建时进行，缺少配置节时构建失败
func Bind[T any](section string) core.Option {
	return func(rt *core.Runtime) error {
		return rt.Provide(func(cfg Configuration) (*T, error) {
			var settings T
			if err := cfg.Bind(section, &settings); err != nil {
				return nil, fmt.Errorf("config: failed to bind section '%s': %w", section, err)
			}
			return &settings, nil
		})
	}
}

// Monitor 注册 OptionMonitor[T]，配置重载后自动返回最新值
func Monitor[T any](section string) core.Option {
	return func(rt *core.Runtime) error {
		return rt.Provide(func(cfg Configuration) OptionMonitor[T] {
			return NewOptionMonitor(NewOptionsCache[T](cfg, section))
		})
	}
}
