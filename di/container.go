package di

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gocrud/greeter/logging"
)

// Container 是依赖注入容器的接口。
//
// 构造函数不能回调容器：依赖应通过参数声明，由容器在同一次解析中提供。
type Container interface {
	// Add 注册服务定义。已存在的键会被覆盖，其缓存实例被丢弃。
	Add(def *ServiceDefinition) error

	// Build 验证依赖图、按拓扑顺序创建全部实例并封存容器。
	Build() error

	// Get 返回键对应的共享实例，首次请求时创建。
	Get(key ServiceKey) (any, error)

	// Has 报告键是否已注册。
	Has(key ServiceKey) bool

	// IsResolved 报告键的实例是否已在缓存中。
	IsResolved(key ServiceKey) bool

	// Keys 返回所有已注册的键（按字符串排序）。
	Keys() []ServiceKey

	// Sealed 报告容器是否已 Build。
	Sealed() bool
}

// container 是具体的实现。
type container struct {
	mu          sync.Mutex
	definitions map[ServiceKey]*ServiceDefinition
	instances   map[ServiceKey]any
	sealed      atomic.Bool
	logger      logging.Logger
}

// NewContainer 创建一个新的空容器。
func NewContainer(opts ...ContainerOption) Container {
	c := &container{
		definitions: make(map[ServiceKey]*ServiceDefinition),
		instances:   make(map[ServiceKey]any),
		logger:      logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add 向容器添加服务定义。
func (c *container) Add(def *ServiceDefinition) error {
	if err := def.validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed.Load() {
		return fmt.Errorf("%w: %v", ErrContainerSealed, def.Key)
	}

	// 重新注册使旧实例失效，已持有旧实例的依赖方不受影响
	if _, cached := c.instances[def.Key]; cached {
		delete(c.instances, def.Key)
		c.logger.Debug("Service re-registered, cached instance dropped",
			logging.Field{Key: "service", Value: def.Key.String()})
	}

	c.definitions[def.Key] = def
	c.logger.Debug("Service registered",
		logging.Field{Key: "service", Value: def.Key.String()},
		logging.Field{Key: "deps", Value: len(def.Deps)})
	return nil
}

// Build 构建依赖图并进行验证。
func (c *container) Build() error {
	if c.sealed.Load() {
		return nil // 已构建
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// 双重检查
	if c.sealed.Load() {
		return nil
	}

	// 1. 依赖图和循环检测，不调用任何工厂
	order, err := newGraphBuilder(c.definitions).buildOrder()
	if err != nil {
		return err
	}

	// 2. 按拓扑顺序急切初始化，全部成功才提交
	r := newResolution(c)
	for _, key := range order {
		if _, err := r.resolve(key); err != nil {
			return fmt.Errorf("di: 构建服务 %v 失败: %w", key, err)
		}
	}
	r.commit()

	// 标记为已构建。此后 Add() 将失败，实例缓存只读。
	c.sealed.Store(true)
	c.logger.Debug("Container built", logging.Field{Key: "services", Value: len(order)})
	return nil
}

// Get 检索请求键的实例。
func (c *container) Get(key ServiceKey) (any, error) {
	// 构建后缓存不可变，且包含所有已注册的服务，因此可以无锁读取。
	if c.sealed.Load() {
		if inst, ok := c.instances[key]; ok {
			return inst, nil
		}
		return nil, &UnregisteredTypeError{Key: key}
	}

	// 整个解析过程持有同一把锁，递归解析在同一个 resolution 内完成。
	c.mu.Lock()
	defer c.mu.Unlock()

	r := newResolution(c)
	inst, err := r.resolve(key)
	if err != nil {
		return nil, err
	}
	r.commit()
	return inst, nil
}

func (c *container) Has(key ServiceKey) bool {
	if c.sealed.Load() {
		_, ok := c.definitions[key]
		return ok
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.definitions[key]
	return ok
}

func (c *container) IsResolved(key ServiceKey) bool {
	if c.sealed.Load() {
		_, ok := c.instances[key]
		return ok
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.instances[key]
	return ok
}

func (c *container) Keys() []ServiceKey {
	c.mu.Lock()
	keys := make([]ServiceKey, 0, len(c.definitions))
	for key := range c.definitions {
		keys = append(keys, key)
	}
	c.mu.Unlock()

	sortKeys(keys)
	return keys
}

func (c *container) Sealed() bool {
	return c.sealed.Load()
}

func sortKeys(keys []ServiceKey) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
}
