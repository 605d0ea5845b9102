package di

import (
	"fmt"
	"reflect"

	"github.com/gocrud/greeter/logging"
)

// registration 收集注册选项。
type registration struct {
	name     string
	token    keyed
	implType reflect.Type
	deps     []any
}

// Option 配置服务注册。
type Option func(*registration)

// WithName 设置服务的名称，用于命名注入。
func WithName(name string) Option {
	return func(r *registration) {
		r.name = name
	}
}

// WithToken 使用 Token 作为服务键，Token 的类型必须与注册类型一致。
func WithToken[T any](token *Token[T]) Option {
	return func(r *registration) {
		r.token = token
	}
}

// Use 指定接口的实现类型，仅对 Register 生效。
func Use[T any]() Option {
	return func(r *registration) {
		r.implType = TypeOf[T]()
	}
}

// WithDeps 显式指定构造函数的依赖键，按参数顺序一一对应。
// 每一项可以是 ServiceKey、reflect.Type 或 Token。
//
// 示例：
//
//	di.RegisterWithDependencies[*Report](c, NewReport,
//		di.WithDeps(di.KeyOf[*Model](), di.NamedKeyOf[mvc.GreetingStore]("archive")))
func WithDeps(deps ...any) Option {
	return func(r *registration) {
		r.deps = deps
	}
}

func newRegistration(opts []Option) *registration {
	r := &registration{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// key 返回注册使用的服务键。
func (r *registration) key(typ reflect.Type) (ServiceKey, error) {
	if r.token != nil {
		key := r.token.Key()
		if key.Type != typ {
			return ServiceKey{}, fmt.Errorf("Token 类型 %v 与注册类型 %v 不一致", key.Type, typ)
		}
		return key, nil
	}
	return ServiceKey{Type: typ, Name: r.name}, nil
}

// ContainerOption 配置容器本身。
type ContainerOption func(*container)

// WithLogger 为容器设置日志记录器，注册和解析会输出 Debug 日志。
func WithLogger(logger logging.Logger) ContainerOption {
	return func(c *container) {
		if logger != nil {
			c.logger = logger.WithCategory("di")
		}
	}
}
