package web

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/greeter/di"
	"github.com/gocrud/greeter/logging"
)

// Builder Web 主机构建器（基于 Gin）
type Builder struct {
	logger         logging.Logger
	port           int
	engine         *gin.Engine
	controllers    []any // 控制器构造函数或实例
	controllerKeys []di.ServiceKey
}

// NewBuilder 创建 Web 构建器
func NewBuilder() *Builder {
	// 设置 Gin 为发布模式（默认）
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	// 默认中间件：恢复 panic
	engine.Use(gin.Recovery())

	return &Builder{
		logger:      logging.NewNopLogger(),
		port:        8080,
		engine:      engine,
		controllers: make([]any, 0),
	}
}

// UseLogger 设置日志记录器，并启用请求日志中间件
func (b *Builder) UseLogger(logger logging.Logger) *Builder {
	if logger == nil {
		return b
	}
	b.logger = logger.WithCategory("web")
	b.engine.Use(RequestLogger(b.logger))
	return b
}

// UsePort 设置端口，0 表示由系统分配
func (b *Builder) UsePort(port int) *Builder {
	b.port = port
	return b
}

// Use 使用全局中间件
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.engine.Use(middleware...)
	return b
}

// Controller 控制器接口
type Controller interface {
	// MountRoutes 注册路由
	MountRoutes(router gin.IRouter)
}

// AddControllers 注册控制器
// 传入参数可以是控制器的构造函数 (例如 api.NewGreetingHandler)，依赖由容器按参数注入；
// 也可以是已经创建好的控制器实例指针。
// 控制器在 Host 启动时从容器解析并注册路由
func (b *Builder) AddControllers(controllers ...any) *Builder {
	b.controllers = append(b.controllers, controllers...)
	return b
}

// Get 注册 GET 路由
func (b *Builder) Get(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.GET(path, handlers...)
	return b
}

// Post 注册 POST 路由
func (b *Builder) Post(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.POST(path, handlers...)
	return b
}

// Group 创建路由组
func (b *Builder) Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return b.engine.Group(relativePath, handlers...)
}

// NoRoute 处理 404
func (b *Builder) NoRoute(handlers ...gin.HandlerFunc) *Builder {
	b.engine.NoRoute(handlers...)
	return b
}

// SetMode 设置 Gin 模式
func (b *Builder) SetMode(mode string) *Builder {
	gin.SetMode(mode)
	return b
}

// Engine 获取 Gin 引擎（用于高级定制）
func (b *Builder) Engine() *gin.Engine {
	return b.engine
}

// RegisterServices 注册控制器到 DI 容器
// 必须在容器 Build 之前调用
func (b *Builder) RegisterServices(container di.Container) error {
	for _, item := range b.controllers {
		key, err := di.Provide(container, item)
		if err != nil {
			return fmt.Errorf("web: failed to register controller %T: %w", item, err)
		}
		b.controllerKeys = append(b.controllerKeys, key)
	}
	return nil
}

// Build 构建 Web 主机
// container 用于在启动时解析控制器
func (b *Builder) Build(container di.Container) *Host {
	return &Host{
		engine:         b.engine,
		container:      container,
		controllerKeys: b.controllerKeys,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", b.port),
			Handler: b.engine,
		},
		logger: b.logger,
	}
}
