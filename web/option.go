package web

import (
	"fmt"

	"github.com/gocrud/greeter/core"
)

// BuilderOption 用于配置 Web Builder
type BuilderOption func(*Builder)

// WithPort 设置端口
func WithPort(port int) BuilderOption {
	return func(b *Builder) {
		b.UsePort(port)
	}
}

// WithMode 设置 Gin 模式 (debug/release/test)
func WithMode(mode string) BuilderOption {
	return func(b *Builder) {
		if mode != "" {
			b.SetMode(mode)
		}
	}
}

// WithControllers 添加控制器
func WithControllers(controllers ...any) BuilderOption {
	return func(b *Builder) {
		b.AddControllers(controllers...)
	}
}

// New 启用 Web 能力
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder()
		builder.UseLogger(rt.Logger)

		for _, opt := range opts {
			opt(builder)
		}

		rt.Features.Set(builder)

		// 立即注册控制器服务到容器，因为容器很快就会被 Build
		if err := builder.RegisterServices(rt.Container); err != nil {
			return fmt.Errorf("web: failed to register services: %w", err)
		}

		// Host 由容器创建，生命周期由 core.WithHostedService 管理
		hostFactory := func() *Host {
			host := builder.Build(rt.Container)
			rt.Features.Set(host)
			return host
		}
		return core.WithHostedService(hostFactory)(rt)
	}
}
