package mongodb

import (
	"context"
	"fmt"

	"github.com/gocrud/greeter/core"
	"github.com/gocrud/greeter/di"
	"github.com/gocrud/greeter/logging"
	"github.com/gocrud/mgo"
)

// BuilderOption 用于配置 MongoDB Builder
type BuilderOption func(*Builder)

// WithClient 添加 MongoDB 客户端配置
func WithClient(name string, uri string, opts ...func(*MongoOptions)) BuilderOption {
	return func(b *Builder) {
		var configure func(*MongoOptions)
		if len(opts) > 0 {
			configure = func(o *MongoOptions) {
				for _, opt := range opts {
					opt(o)
				}
			}
		}
		b.Add(name, uri, configure)
	}
}

// WithDatabase 设置默认数据库
func WithDatabase(database string) func(*MongoOptions) {
	return func(o *MongoOptions) {
		o.Database = database
	}
}

// New 启用 MongoDB 能力
// 每个客户端注册 *mgo.Client 和它默认的 *mongo.Database（同名）
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder()
		for _, opt := range opts {
			opt(builder)
		}

		logger := rt.Logger.WithCategory("mongodb")
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
		factory.Each(func(name string, client *mgo.Client) {
			if regErr != nil {
				return
			}
			db, err := factory.Database(name)
			if err != nil {
				regErr = err
				return
			}
			if regErr = rt.Provide(client, di.WithName(name)); regErr != nil {
				return
			}
			if regErr = rt.Provide(db, di.WithName(name)); regErr != nil {
				return
			}
			if name == DefaultName {
				if regErr = rt.Provide(client); regErr == nil {
					regErr = rt.Provide(db)
				}
			}
		})
		if regErr != nil {
			factory.Close()
			return fmt.Errorf("mongodb: failed to register instance: %w", regErr)
		}

		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			logger.Info("Closing mongo clients")
			if err := factory.Close(); err != nil {
				logger.Error("Failed to close mongo clients", logging.Field{Key: "error", Value: err})
				return err
			}
			return nil
		})

		return nil
	}
}
