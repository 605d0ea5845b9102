package core

import (
	"sync"

	"github.com/gocrud/greeter/di"
	"github.com/gocrud/greeter/logging"
)

// Runtime 是框架的上帝对象，作为状态容器
type Runtime struct {
	// Features 存放构建时特性 (WebBuilder, CronBuilder 等)
	Features FeatureCollection

	// Container 核心依赖注入容器
	Container di.Container

	// Lifecycle 生命周期管理
	Lifecycle *LifecycleEvents

	// Logger 运行时日志，默认丢弃输出
	Logger logging.Logger

	// shutdownCh 用于通知应用退出，只由 shutdownOnce 关闭
	shutdownCh   chan struct{}
	shutdownOnce sync.Once

	// ErrorHandler 用于记录运行时产生的严重错误
	// 外部可以通过设置此字段来接管错误日志
	ErrorHandler func(err error)
}

// Option 在启动前修改 Runtime：注册服务、添加生命周期钩子或设置 Feature
// 返回错误时启动中止
type Option func(rt *Runtime) error

// RuntimeOption 配置 Runtime 本身
type RuntimeOption func(rt *Runtime)

// WithRuntimeLogger 设置运行时、容器和生命周期共用的日志
func WithRuntimeLogger(logger logging.Logger) RuntimeOption {
	return func(rt *Runtime) {
		if logger != nil {
			rt.Logger = logger
		}
	}
}

// NewRuntime 创建一个新的运行时实例
func NewRuntime(opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		Logger:     logging.NewNopLogger(),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rt)
	}

	rt.Container = di.NewContainer(di.WithLogger(rt.Logger))
	rt.Lifecycle = NewLifecycle(rt.Logger)
	rt.ErrorHandler = func(err error) {
		rt.Logger.Error("Runtime error", logging.Field{Key: "error", Value: err})
	}

	// Runtime 和 Logger 自身也可以被注入
	di.RegisterInstance(rt.Container, rt)
	di.RegisterInstance(rt.Container, rt.Logger)
	return rt
}

// Shutdown 请求应用退出
// 调用此方法会触发应用关闭流程，可并发多次调用
func (rt *Runtime) Shutdown() {
	rt.shutdownOnce.Do(func() {
		close(rt.shutdownCh)
	})
}

// Done 返回一个通道，当应用需要退出时该通道会关闭
func (rt *Runtime) Done() <-chan struct{} {
	return rt.shutdownCh
}

// Provide 注册服务提供者 (语法糖)
// 支持构造函数、结构体指针或 reflect.Type
func (rt *Runtime) Provide(target any, opts ...di.Option) error {
	_, err := di.Provide(rt.Container, target, opts...)
	return err
}

// Invoke 调用函数并注入依赖 (语法糖)
func (rt *Runtime) Invoke(function any) error {
	return di.Invoke(rt.Container, function)
}

// Apply 应用多个 Option
func (rt *Runtime) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(rt); err != nil {
			return err
		}
	}
	return nil
}

// As 生成 di.Option，将实现绑定到接口
// core 包的使用者不需要直接引入 di 包
func As[T any]() di.Option {
	return di.Use[T]()
}
