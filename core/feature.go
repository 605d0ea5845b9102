package core

import (
	"reflect"
	"sync"
)

// FeatureCollection 按类型存放构建期对象（web.Builder、cron.Builder、配置等）
type FeatureCollection struct {
	mu    sync.RWMutex
	items map[reflect.Type]any
}

// Set 以 feature 的动态类型为键保存
func (fc *FeatureCollection) Set(feature any) {
	fc.store(reflect.TypeOf(feature), feature)
}

// Get 按类型查找
func (fc *FeatureCollection) Get(typ reflect.Type) (any, bool) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	v, ok := fc.items[typ]
	return v, ok
}

func (fc *FeatureCollection) store(typ reflect.Type, feature any) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.items == nil {
		fc.items = make(map[reflect.Type]any)
	}
	fc.items[typ] = feature
}

// LookupFeature 返回类型为 T 的特性以及是否存在
func LookupFeature[T any](rt *Runtime) (T, bool) {
	v, ok := rt.Features.Get(reflect.TypeFor[T]())
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// GetFeature 不存在时返回零值
func GetFeature[T any](rt *Runtime) T {
	v, _ := LookupFeature[T](rt)
	return v
}

// SetFeature 以 T 为键保存，T 可以是接口
func SetFeature[T any](rt *Runtime, feature T) {
	rt.Features.store(reflect.TypeFor[T](), feature)
}
