package di

import (
	"fmt"
	"reflect"
)

// Token 表示一个依赖注入的令牌，用于区分相同类型的不同依赖
//
// 使用场景：
//   - 需要注册多个相同类型但用途不同的实例（如多个问候存储）
//   - 配置值（如字符串、整数等基本类型）
//
// 示例：
//
//	var Banner = di.NewToken[string]("banner")
//
//	di.RegisterInstance[string](c, "Hello", di.WithToken(Banner))
//	banner, _ := di.ResolveToken(c, Banner)
type Token[T any] struct {
	name string
	typ  reflect.Type
}

// NewToken 创建一个新的 Token
//
// 参数 name 用于标识此 Token，应该是唯一的描述性名称。
func NewToken[T any](name string) *Token[T] {
	return &Token[T]{
		name: name,
		typ:  TypeOf[T](),
	}
}

// Name 返回 Token 的名称
func (t *Token[T]) Name() string {
	return t.name
}

// Type 返回 Token 的类型
func (t *Token[T]) Type() reflect.Type {
	return t.typ
}

// Key 返回 Token 对应的服务键
func (t *Token[T]) Key() ServiceKey {
	return ServiceKey{Type: t.typ, Name: t.name}
}

// String 返回 Token 的字符串表示
func (t *Token[T]) String() string {
	return fmt.Sprintf("Token[%s](%s)", t.typ, t.name)
}

// TypeOf 获取类型 T 的 reflect.Type（泛型辅助函数）
//
// 对接口类型同样有效：
//
//	loggerType := di.TypeOf[logging.Logger]()
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// keyed 由 Token 实现，用于在 WithDeps 中引用令牌。
type keyed interface {
	Key() ServiceKey
}

// keyFromDependency 把 WithDeps 的参数解析为 ServiceKey。
// 支持 ServiceKey、reflect.Type 和 Token。
func keyFromDependency(dep any) (ServiceKey, error) {
	switch v := dep.(type) {
	case ServiceKey:
		return v, nil
	case reflect.Type:
		return ServiceKey{Type: v}, nil
	case keyed:
		return v.Key(), nil
	case nil:
		return ServiceKey{}, fmt.Errorf("di: 依赖为 nil")
	default:
		return ServiceKey{}, fmt.Errorf("di: 无法从 %T 推断依赖键", dep)
	}
}
