package etcd

import (
	"context"
	"fmt"

	"github.com/gocrud/greeter/core"
	"github.com/gocrud/greeter/di"
	"github.com/gocrud/greeter/logging"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// BuilderOption 用于配置 Etcd Builder
type BuilderOption func(*Builder)

// WithClient 添加 Etcd 客户端配置
func WithClient(name string, opts ...func(*EtcdClientOptions)) BuilderOption {
	return func(b *Builder) {
		var configure func(*EtcdClientOptions)
		if len(opts) > 0 {
			configure = func(o *EtcdClientOptions) {
				for _, opt := range opts {
					opt(o)
				}
			}
		}
		b.AddClient(name, configure)
	}
}

// WithEndpoints 设置服务器地址
func WithEndpoints(endpoints ...string) func(*EtcdClientOptions) {
	return func(o *EtcdClientOptions) {
		o.Endpoints = endpoints
	}
}

// New 启用 Etcd 能力
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder()
		for _, opt := range opts {
			opt(builder)
		}

		logger := rt.Logger.WithCategory("etcd")
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
		factory.Each(func(name string, client *clientv3.Client) {
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
			return fmt.Errorf("etcd: failed to register instance: %w", regErr)
		}

		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			logger.Info("Closing etcd clients")
			if err := factory.Close(); err != nil {
				logger.Error("Failed to close etcd clients", logging.Field{Key: "error", Value: err})
				return err
			}
			return nil
		})

		return nil
	}
}
