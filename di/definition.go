package di

import (
	"fmt"
	"reflect"
)

// ServiceKey 是注册表和实例缓存的唯一键。
// Type 标识服务类型，Name 用于同一类型的多个注册（为空表示默认服务）。
type ServiceKey struct {
	Type reflect.Type
	Name string
}

// String 返回键的可读表示，仅用于日志和错误信息。
func (k ServiceKey) String() string {
	if k.Type == nil {
		return "<nil>"
	}
	if k.Name == "" {
		return k.Type.String()
	}
	return fmt.Sprintf("%s(name=%s)", k.Type, k.Name)
}

// KeyOf 返回类型 T 的默认键。
func KeyOf[T any]() ServiceKey {
	return ServiceKey{Type: TypeOf[T]()}
}

// NamedKeyOf 返回类型 T 的命名键。
func NamedKeyOf[T any](name string) ServiceKey {
	return ServiceKey{Type: TypeOf[T](), Name: name}
}

// ServiceDefinition 描述一个已注册的服务：它的键、依赖列表以及如何创建实例。
type ServiceDefinition struct {
	Key ServiceKey

	// Deps 是有序的依赖键，解析结果按相同顺序作为 Invoker 的参数。
	Deps []ServiceKey

	// Invoker 创建实例。IsValue 为 true 时不会被调用。
	Invoker Invoker

	// IsValue 表示 Value 是预先创建好的实例。
	IsValue bool
	Value   any
}

func (d *ServiceDefinition) validate() error {
	if d.Key.Type == nil {
		return fmt.Errorf("di: 服务定义缺少类型")
	}
	if d.IsValue {
		if d.Value == nil {
			return fmt.Errorf("di: 服务 %v 的实例为 nil", d.Key)
		}
		return nil
	}
	if d.Invoker == nil {
		return fmt.Errorf("di: 服务 %v 缺少工厂", d.Key)
	}
	return nil
}
