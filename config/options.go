package config

import (
	"sync"
	"sync/atomic"
)

// Option 静态配置选项，创建后不变
type Option[T any] interface {
	Value() T
}

// OptionMonitor 总是返回最新的配置值，重载成功后通知订阅者
type OptionMonitor[T any] interface {
	Value() T
	OnChange(fn func(T))
}

// OptionsCache 缓存绑定后的配置节，配置重载时重新绑定
// 配置节不存在或绑定失败时保留旧值（初始为零值），错误可通过 Err 查看
type OptionsCache[T any] struct {
	config  Configuration
	section string
	current atomic.Pointer[T]

	mu        sync.Mutex
	err       error
	listeners []func(T)
}

// NewOptionsCache 创建配置缓存
func NewOptionsCache[T any](config Configuration, section string) *OptionsCache[T] {
	cache := &OptionsCache[T]{
		config:  config,
		section: section,
	}
	cache.current.Store(new(T))
	cache.reload()

	if rc, ok := config.(ReloadableConfiguration); ok {
		rc.OnReload(cache.reload)
	}
	return cache
}

func (c *OptionsCache[T]) reload() {
	var value T
	err := c.config.Bind(c.section, &value)

	c.mu.Lock()
	c.err = err
	if err != nil {
		c.mu.Unlock()
		return
	}
	c.current.Store(&value)
	listeners := make([]func(T), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(value)
	}
}

// Get 获取当前配置值
func (c *OptionsCache[T]) Get() T {
	return *c.current.Load()
}

// Err 返回最近一次绑定的错误
func (c *OptionsCache[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// OnChange 订阅重新绑定成功后的新值
func (c *OptionsCache[T]) OnChange(fn func(T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

type option[T any] struct {
	value T
}

func (o *option[T]) Value() T {
	return o.value
}

// NewOption 创建静态配置选项
func NewOption[T any](value T) Option[T] {
	return &option[T]{value: value}
}

type optionMonitor[T any] struct {
	*OptionsCache[T]
}

func (o optionMonitor[T]) Value() T {
	return o.Get()
}

// NewOptionMonitor 基于缓存创建监听配置选项
func NewOptionMonitor[T any](cache *OptionsCache[T]) OptionMonitor[T] {
	return optionMonitor[T]{OptionsCache: cache}
}
