package cron

import (
	"github.com/gocrud/greeter/core"
	"github.com/gocrud/greeter/logging"
)

// BuilderOption 用于配置 Cron Builder
type BuilderOption func(*Builder)

// WithSeconds 启用秒级精度
func WithSeconds() BuilderOption {
	return func(b *Builder) {
		b.WithSeconds()
	}
}

// WithLocation 设置时区
func WithLocation(location string) BuilderOption {
	return func(b *Builder) {
		b.WithLocation(location)
	}
}

// EnableCronLogger 启用 cron 库的内部调度日志
func EnableCronLogger() BuilderOption {
	return func(b *Builder) {
		b.EnableCronLogger()
	}
}

// AddJob 添加任务
func AddJob(spec, name string, handler any) BuilderOption {
	return func(b *Builder) {
		b.AddJob(spec, name, handler)
	}
}

// New 启用 Cron 能力
// Service 由容器创建，任务表达式无效时容器构建失败
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder()
		for _, opt := range opts {
			opt(builder)
		}
		rt.Features.Set(builder)

		factory := func(logger logging.Logger) (*Service, error) {
			return builder.Build(rt.Container, logger)
		}
		return core.WithHostedService(factory)(rt)
	}
}
