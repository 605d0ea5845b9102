package config

import (
	"strings"
	"sync"
	"sync/atomic"
)

// ValueStore 保存合并后的配置快照，读取无锁，重载时整体替换
type ValueStore struct {
	data atomic.Pointer[map[string]any]
}

// NewValueStore 创建空快照
func NewValueStore() *ValueStore {
	s := &ValueStore{}
	s.Store(nil)
	return s
}

// Load 返回当前快照，调用方不得修改
func (s *ValueStore) Load() map[string]any {
	if p := s.data.Load(); p != nil {
		return *p
	}
	return nil
}

// Store 替换快照，nil 视为空配置
func (s *ValueStore) Store(data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	s.data.Store(&data)
}

// PathCache 缓存键的解析结果，":" 和 "." 都是分隔符，空片段被忽略
type PathCache struct {
	cache sync.Map
}

// GetPathSegments 返回键的路径片段
func (c *PathCache) GetPathSegments(path string) []string {
	if v, ok := c.cache.Load(path); ok {
		return v.([]string)
	}

	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == ':' || r == '.'
	})
	c.cache.Store(path, parts)
	return parts
}

var globalPathCache = &PathCache{}
