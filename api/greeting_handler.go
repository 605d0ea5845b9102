package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/greeter/config"
	"github.com/gocrud/greeter/logging"
	"github.com/gocrud/greeter/mvc"
)

// DefaultRecentLimit GET /greetings 默认返回的条数
const DefaultRecentLimit = 10

// GreetingHandler 问候接口
type GreetingHandler struct {
	store  mvc.GreetingStore
	app    config.OptionMonitor[mvc.Configuration]
	model  *mvc.Model
	logger logging.Logger
}

// NewGreetingHandler 创建问候接口，依赖由容器注入
// 应用名每次请求时从 app 读取，配置重载后立即生效
func NewGreetingHandler(store mvc.GreetingStore, app config.OptionMonitor[mvc.Configuration], model *mvc.Model, logger logging.Logger) *GreetingHandler {
	return &GreetingHandler{
		store:  store,
		app:    app,
		model:  model,
		logger: logger.WithCategory("api"),
	}
}

func (h *GreetingHandler) appName() string {
	cfg := h.app.Value()
	return cfg.Name()
}

type createGreetingRequest struct {
	Name string `json:"name" binding:"required"`
}

// MountRoutes 注册路由
func (h *GreetingHandler) MountRoutes(router gin.IRouter) {
	router.GET("/healthz", h.health)
	router.POST("/greetings", h.create)
	router.GET("/greetings", h.list)
}

func (h *GreetingHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "app": h.appName()})
}

func (h *GreetingHandler) create(c *gin.Context) {
	var req createGreetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	greeting, err := mvc.NewGreeting(req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.Save(c.Request.Context(), greeting); err != nil {
		h.logger.Error("Failed to save greeting", logging.Field{Key: "error", Value: err})
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save greeting"})
		return
	}
	h.model.SetName(greeting.Name)

	c.JSON(http.StatusCreated, greeting)
}

func (h *GreetingHandler) list(c *gin.Context) {
	limit := DefaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	greetings, err := h.store.Recent(ctx, limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load greetings"})
		return
	}
	count, err := h.store.Count(ctx)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count greetings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"app":       h.appName(),
		"last_name": h.model.Name(),
		"count":     count,
		"greetings": greetings,
	})
}
