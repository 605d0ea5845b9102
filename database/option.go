package database

import (
	"context"
	"fmt"

	"github.com/gocrud/greeter/core"
	"github.com/gocrud/greeter/di"
	"github.com/gocrud/greeter/logging"
	"gorm.io/gorm"
)

// BuilderOption 用于配置 Database Builder
type BuilderOption func(*Builder)

// WithDatabase 添加数据库配置
func WithDatabase(name string, dialector gorm.Dialector, opts ...func(*DatabaseOptions)) BuilderOption {
	return func(b *Builder) {
		var configure func(*DatabaseOptions)
		if len(opts) > 0 {
			configure = func(o *DatabaseOptions) {
				for _, opt := range opts {
					opt(o)
				}
			}
		}
		b.Add(name, dialector, configure)
	}
}

// New 启用数据库能力
// 工厂和每个 *gorm.DB 以命名实例注册到容器，default 实例额外注册为匿名实例
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder()
		for _, opt := range opts {
			opt(builder)
		}

		logger := rt.Logger.WithCategory("database")
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
		factory.Each(func(name string, db *gorm.DB) {
			if regErr != nil {
				return
			}
			regErr = rt.Provide(db, di.WithName(name))
			if regErr == nil && name == DefaultName {
				regErr = rt.Provide(db)
			}
		})
		if regErr != nil {
			factory.Close()
			return fmt.Errorf("database: failed to register instance: %w", regErr)
		}

		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			logger.Info("Closing database connections")
			if err := factory.Close(); err != nil {
				logger.Error("Failed to close databases", logging.Field{Key: "error", Value: err})
				return err
			}
			return nil
		})

		return nil
	}
}
