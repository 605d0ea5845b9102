package core

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/gocrud/greeter/di"
	"github.com/gocrud/greeter/logging"
)

// HostedService 后台服务
// Start 在独立的 goroutine 中调用，可以阻塞到 ctx 取消；返回错误会触发应用退出。
// Stop 在应用关闭时调用，须遵守 ctx 的超时。
type HostedService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var hostedServiceType = reflect.TypeOf((*HostedService)(nil)).Elem()

// WithHostedService 注册一个托管服务
// constructor 可以是构造函数或实例，注册到容器后在 OnStart 时解析并启动，
// OnStop 时先取消 Start 的 ctx 再调用 Stop。
func WithHostedService(constructor any) Option {
	return func(rt *Runtime) error {
		key, err := di.Provide(rt.Container, constructor)
		if err != nil {
			return fmt.Errorf("WithHostedService: failed to provide service: %w", err)
		}
		if !key.Type.Implements(hostedServiceType) {
			return fmt.Errorf("WithHostedService: service %v does not implement core.HostedService", key.Type)
		}

		name := key.String()
		bg := &background{rt: rt, name: "hosted service " + name}

		rt.Lifecycle.OnStart(func(ctx context.Context) error {
			val, err := rt.Container.Get(key)
			if err != nil {
				return fmt.Errorf("failed to resolve hosted service %v: %w", key, err)
			}
			rt.Logger.Info("Starting hosted service", logging.Field{Key: "service", Value: name})
			bg.run(val.(HostedService).Start)
			return nil
		})

		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			bg.cancel()

			// 从未解析的服务（启动失败）无需停止
			if !rt.Container.IsResolved(key) {
				return nil
			}
			val, err := rt.Container.Get(key)
			if err != nil {
				return nil
			}
			return val.(HostedService).Stop(ctx)
		})

		return nil
	}
}

// WorkerFunc 阻塞运行的后台任务，ctx 取消时应返回
type WorkerFunc func(ctx context.Context) error

// WithWorker 把阻塞函数注册为后台任务，OnStop 时取消它的 ctx
func WithWorker(name string, fn WorkerFunc) Option {
	return func(rt *Runtime) error {
		bg := &background{rt: rt, name: "worker " + name}

		rt.Lifecycle.OnStart(func(ctx context.Context) error {
			rt.Logger.Debug("Starting worker", logging.Field{Key: "worker", Value: name})
			bg.run(fn)
			return nil
		})
		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			bg.cancel()
			return nil
		})
		return nil
	}
}

// background 在独立 goroutine 中运行阻塞函数
// ctx 独立于启动 ctx，直到 cancel 才结束；函数出错时交给 ErrorHandler 并请求退出
type background struct {
	rt   *Runtime
	name string

	mu       sync.Mutex
	cancelFn context.CancelFunc
}

func (b *background) run(fn func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	b.mu.Lock()
	b.cancelFn = cancel
	b.mu.Unlock()

	go func() {
		if err := fn(ctx); err != nil {
			if b.rt.ErrorHandler != nil {
				b.rt.ErrorHandler(fmt.Errorf("%s exited with error: %w", b.name, err))
			}
			b.rt.Shutdown()
		}
	}()
}

func (b *background) cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancelFn != nil {
		b.cancelFn()
	}
}
