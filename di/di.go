package di

import (
	"fmt"
	"reflect"
)

// Register 注册类型 T 的零依赖工厂，解析时默认构造 T。
// 指针类型分配新的结构体，接口类型必须通过 di.Use[Impl]() 指定实现。
// 注册是惰性的，首次解析时才创建实例；重复注册覆盖之前的工厂。
func Register[T any](c Container, opts ...Option) {
	typ := TypeOf[T]()
	r := newRegistration(opts)

	impl := typ
	if r.implType != nil {
		if !r.implType.AssignableTo(typ) {
			panic(fmt.Sprintf("di: failed to register %v: %v does not implement it", typ, r.implType))
		}
		impl = r.implType
	}

	invoker, err := newDefaultInvoker(impl)
	if err != nil {
		panic(fmt.Sprintf("di: failed to register %v: %v", typ, err))
	}

	key, err := r.key(typ)
	if err != nil {
		panic(fmt.Sprintf("di: failed to register %v: %v", typ, err))
	}

	mustAdd(c, &ServiceDefinition{Key: key, Invoker: invoker})
}

// RegisterWithDependencies 注册类型 T 的构造函数。
// 构造函数的参数列表就是有序的依赖列表：解析 T 时先从左到右解析每个依赖，
// 再把解析得到的共享实例按相同顺序传给构造函数。
// 依赖在首次解析 T 时才查找，因此可以在本次注册之后再注册。
//
// 示例：
//
//	di.RegisterWithDependencies[*mvc.Controller](c, mvc.NewController)
func RegisterWithDependencies[T any](c Container, ctor any, opts ...Option) {
	def, err := newConstructorDefinition(TypeOf[T](), ctor, newRegistration(opts))
	if err != nil {
		panic(fmt.Sprintf("di: failed to register %v: %v", TypeOf[T](), err))
	}
	mustAdd(c, def)
}

// RegisterInstance 把已创建的实例注册为类型 T 的共享实例。
func RegisterInstance[T any](c Container, value T, opts ...Option) {
	typ := TypeOf[T]()
	val := reflect.ValueOf(value)
	if !val.IsValid() || (isNilable(val.Kind()) && val.IsNil()) {
		panic(fmt.Sprintf("di: failed to register %v: nil instance", typ))
	}

	key, err := newRegistration(opts).key(typ)
	if err != nil {
		panic(fmt.Sprintf("di: failed to register %v: %v", typ, err))
	}

	mustAdd(c, &ServiceDefinition{Key: key, IsValue: true, Value: value})
}

// Provide 智能注册服务，返回注册使用的键。
//
// 支持的输入 target 类型:
// 1. func(...) (Service, error?) -> 构造函数，键类型为第一个返回值。
// 2. *Struct                      -> 预创建的共享实例，键类型为 *Struct。
// 3. reflect.Type                 -> 默认构造该类型。
func Provide(c Container, target any, opts ...Option) (ServiceKey, error) {
	r := newRegistration(opts)

	var def *ServiceDefinition
	switch {
	case target == nil:
		return ServiceKey{}, fmt.Errorf("di: cannot provide nil")

	case isReflectType(target):
		typ := target.(reflect.Type)
		invoker, err := newDefaultInvoker(typ)
		if err != nil {
			return ServiceKey{}, fmt.Errorf("di: %w", err)
		}
		key, err := r.key(typ)
		if err != nil {
			return ServiceKey{}, fmt.Errorf("di: %w", err)
		}
		def = &ServiceDefinition{Key: key, Invoker: invoker}

	case reflect.TypeOf(target).Kind() == reflect.Func:
		fnType := reflect.TypeOf(target)
		if fnType.NumOut() == 0 {
			return ServiceKey{}, fmt.Errorf("di: constructor function must return at least one value")
		}
		var err error
		def, err = newConstructorDefinition(fnType.Out(0), target, r)
		if err != nil {
			return ServiceKey{}, fmt.Errorf("di: %w", err)
		}

	case reflect.TypeOf(target).Kind() == reflect.Ptr:
		if reflect.ValueOf(target).IsNil() {
			return ServiceKey{}, fmt.Errorf("di: cannot provide nil %T", target)
		}
		key, err := r.key(reflect.TypeOf(target))
		if err != nil {
			return ServiceKey{}, fmt.Errorf("di: %w", err)
		}
		def = &ServiceDefinition{Key: key, IsValue: true, Value: target}

	default:
		return ServiceKey{}, fmt.Errorf("di: unsupported registration target type: %T", target)
	}

	if err := c.Add(def); err != nil {
		return ServiceKey{}, err
	}
	return def.Key, nil
}

// Resolve resolves the shared instance of type T from the container.
func Resolve[T any](c Container) (T, error) {
	return resolveAs[T](c, KeyOf[T]())
}

// ResolveNamed resolves the shared instance of type T registered under name.
func ResolveNamed[T any](c Container, name string) (T, error) {
	return resolveAs[T](c, NamedKeyOf[T](name))
}

// ResolveToken 通过 Token 解析实例。
func ResolveToken[T any](c Container, token *Token[T]) (T, error) {
	return resolveAs[T](c, token.Key())
}

// MustResolve 解析类型 T 的实例，失败时 panic。
// 适用于启动阶段，缺少注册属于配置错误。
func MustResolve[T any](c Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

// Invoke 解析函数的参数并调用它。
// 函数可以没有返回值，或者最后一个返回值是 error。
func Invoke(c Container, fn any) error {
	fnVal := reflect.ValueOf(fn)
	if !fnVal.IsValid() || fnVal.Kind() != reflect.Func || fnVal.IsNil() {
		return fmt.Errorf("di: Invoke expects a function, got %T", fn)
	}

	fnType := fnVal.Type()
	if fnType.IsVariadic() {
		return fmt.Errorf("di: Invoke does not support variadic function %v", fnType)
	}

	args := make([]reflect.Value, fnType.NumIn())
	for i := range args {
		inst, err := c.Get(ServiceKey{Type: fnType.In(i)})
		if err != nil {
			return fmt.Errorf("di: Invoke 参数 %d: %w", i, err)
		}
		args[i] = reflect.ValueOf(inst)
	}

	results := fnVal.Call(args)
	if n := len(results); n > 0 && fnType.Out(n-1) == errorType {
		if errVal := results[n-1]; !errVal.IsNil() {
			return errVal.Interface().(error)
		}
	}
	return nil
}

func resolveAs[T any](c Container, key ServiceKey) (T, error) {
	var zero T

	val, err := c.Get(key)
	if err != nil {
		return zero, err
	}

	if v, ok := val.(T); ok {
		return v, nil
	}
	return zero, fmt.Errorf("di: resolved value is %T, expected %v", val, key.Type)
}

// newConstructorDefinition 根据构造函数和注册选项生成服务定义。
func newConstructorDefinition(typ reflect.Type, ctor any, r *registration) (*ServiceDefinition, error) {
	fn, deps, err := inspectConstructor(ctor, typ)
	if err != nil {
		return nil, err
	}

	if r.deps != nil {
		if len(r.deps) != len(deps) {
			return nil, fmt.Errorf("构造函数需要 %d 个依赖，WithDeps 提供了 %d 个", len(deps), len(r.deps))
		}
		for i, dep := range r.deps {
			key, err := keyFromDependency(dep)
			if err != nil {
				return nil, fmt.Errorf("依赖 %d: %w", i, err)
			}
			if !key.Type.AssignableTo(deps[i].Type) {
				return nil, fmt.Errorf("依赖 %d: %v 无法赋值给参数类型 %v", i, key.Type, deps[i].Type)
			}
			deps[i] = key
		}
	}

	key, err := r.key(typ)
	if err != nil {
		return nil, err
	}

	return &ServiceDefinition{
		Key:     key,
		Deps:    deps,
		Invoker: newConstructorInvoker(fn),
	}, nil
}

func mustAdd(c Container, def *ServiceDefinition) {
	if err := c.Add(def); err != nil {
		panic(fmt.Sprintf("di: failed to register %v: %v", def.Key, err))
	}
}

func isReflectType(target any) bool {
	_, ok := target.(reflect.Type)
	return ok
}
