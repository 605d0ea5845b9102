package greeter

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gocrud/greeter/core"
)

// ShutdownTimeout 优雅关闭的超时时间
const ShutdownTimeout = 5 * time.Second

// Run 启动应用程序
// 这是基于微内核架构的唯一入口，收到 SIGINT/SIGTERM 后优雅退出
func Run(opts ...core.Option) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return RunContext(ctx, core.NewRuntime(), opts...)
}

// RunContext 使用给定的 Runtime 运行应用，直到 ctx 结束或运行时请求退出
func RunContext(ctx context.Context, rt *core.Runtime, opts ...core.Option) error {
	// 1. Bootstrap (应用所有选项)
	// 这一步会配置 Feature、注册服务、添加生命周期钩子等
	if err := rt.Apply(opts...); err != nil {
		return err
	}

	// 2. Build DI Container (构建依赖注入容器)
	if err := rt.Container.Build(); err != nil {
		return err
	}

	// 3. Start Lifecycle (启动生命周期)
	if err := rt.Lifecycle.Start(ctx); err != nil {
		// 已启动的部分仍需清理
		stopCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		_ = rt.Lifecycle.Stop(stopCtx)
		return err
	}
	rt.Logger.Info("Application started")

	// 4. 阻塞等待退出
	// 支持外部取消 (信号) 和 Runtime 内部触发的退出 (rt.Shutdown)
	select {
	case <-ctx.Done():
	case <-rt.Done():
	}

	// 5. Graceful Shutdown (优雅关闭)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	rt.Logger.Info("Application stopping")
	return rt.Lifecycle.Stop(shutdownCtx)
}
