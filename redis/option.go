package redis

import (
	"context"
	"fmt"

	"github.com/gocrud/greeter/core"
	"github.com/gocrud/greeter/di"
	"github.com/gocrud/greeter/logging"
	"github.com/redis/go-redis/v9"
)

// BuilderOption 用于配置 Redis Builder
type BuilderOption func(*Builder)

// WithClient 添加 Redis 客户端配置
func WithClient(name string, opts ...func(*RedisClientOptions)) BuilderOption {
	return func(b *Builder) {
		var configure func(*RedisClientOptions)
		if len(opts) > 0 {
			configure = func(o *RedisClientOptions) {
				for _, opt := range opts {
					opt(o)
				}
			}
		}
		b.AddClient(name, configure)
	}
}

// WithAddr 设置服务器地址
func WithAddr(addr string) func(*RedisClientOptions) {
	return func(o *RedisClientOptions) {
		o.Addr = addr
	}
}

// New 启用 Redis 能力
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder()
		for _, opt := range opts {
			opt(builder)
		}

		logger := rt.Logger.WithCategory("redis")
		factory, err := builder.Build(logger)
		if err != nil {
			return err
		}
		if factory == nil {
			return nil
		}

		if err := rt.Provide(factory); err != nil {
			factory.Close()
			return err
		}

		var regErr error
		factory.Each(func(name string, client *redis.Client) {
			if regErr != nil {
				return
			}
			regErr = rt.Provide(client, di.WithName(name))
			if regErr == nil && name == DefaultName {
				regErr = rt.Provide(client)
			}
		})
		if regErr != nil {
			factory.Close()
			return fmt.Errorf("redis: failed to register instance: %w", regErr)
		}

		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			logger.Info("Closing redis clients")
			if err := factory.Close(); err != nil {
				logger.Error("Failed to close redis clients", logging.Field{Key: "error", Value: err})
				return err
			}
			return nil
		})

		return nil
	}
}
