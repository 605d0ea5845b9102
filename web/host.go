package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/greeter/di"
	"github.com/gocrud/greeter/logging"
)

// Host Web 主机，实现 core.HostedService
type Host struct {
	engine         *gin.Engine
	server         *http.Server
	logger         logging.Logger
	container      di.Container
	controllerKeys []di.ServiceKey

	mapOnce sync.Once
	mapErr  error

	mu    sync.Mutex
	ready chan struct{}
}

// Address 获取监听地址 (e.g., "[::]:50234")，Start 之前返回配置的地址
func (h *Host) Address() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.server.Addr
}

// Ready 返回一个在开始监听后关闭的通道
func (h *Host) Ready() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ready == nil {
		h.ready = make(chan struct{})
	}
	return h.ready
}

// Handler 解析控制器、注册路由并返回 http.Handler（便于 httptest 使用）
func (h *Host) Handler() (http.Handler, error) {
	if err := h.mapControllers(); err != nil {
		return nil, err
	}
	return h.engine, nil
}

// Start 启动 Web 主机
// 此方法会阻塞，直到服务退出。框架会在独立的 Goroutine 中调用它。
func (h *Host) Start(ctx context.Context) error {
	// 1. 延迟解析并注册控制器路由
	if err := h.mapControllers(); err != nil {
		return fmt.Errorf("web: failed to map controllers: %w", err)
	}

	// 2. 监听端口 (同步，确保端口可用)
	ln, err := net.Listen("tcp", h.Address())
	if err != nil {
		return fmt.Errorf("web: failed to listen on %s: %w", h.Address(), err)
	}

	h.mu.Lock()
	h.server.Addr = ln.Addr().String()
	if h.ready == nil {
		h.ready = make(chan struct{})
	}
	close(h.ready)
	h.mu.Unlock()

	h.logger.Info("Web host started", logging.Field{Key: "address", Value: ln.Addr().String()})

	// 3. 启动服务 (阻塞直到 Shutdown)
	if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		h.logger.Error("Web host error", logging.Field{Key: "error", Value: err.Error()})
		return err
	}
	return nil
}

// Stop 停止 Web 主机
func (h *Host) Stop(ctx context.Context) error {
	h.logger.Info("Stopping web host")

	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Error("Failed to shutdown web host gracefully",
			logging.Field{Key: "error", Value: err.Error()})
		return err
	}

	h.logger.Info("Web host stopped")
	return nil
}

// mapControllers 从容器解析并注册控制器，只执行一次
func (h *Host) mapControllers() error {
	h.mapOnce.Do(func() {
		for _, key := range h.controllerKeys {
			instance, err := h.container.Get(key)
			if err != nil {
				h.mapErr = fmt.Errorf("failed to resolve controller %v: %w", key, err)
				return
			}

			ctrl, ok := instance.(Controller)
			if !ok {
				h.mapErr = fmt.Errorf("%v does not implement web.Controller", key)
				return
			}

			ctrl.MountRoutes(h.engine)
			h.logger.Debug("Mapped controller routes", logging.Field{Key: "controller", Value: key.String()})
		}
	})
	return h.mapErr
}
