package di

import (
	"fmt"
	"reflect"
)

// Invoker 实例化调用器
// 封装了反射调用的细节，args 按依赖顺序传入已解析的实例
type Invoker func(args []reflect.Value) (any, error)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// newDefaultInvoker 创建默认构造调用器
// 指针类型分配新的元素，其余类型使用零值
func newDefaultInvoker(implType reflect.Type) (Invoker, error) {
	switch implType.Kind() {
	case reflect.Interface:
		return nil, fmt.Errorf("接口类型 %v 无法默认构造，请使用 di.Use 指定实现", implType)
	case reflect.Ptr:
		elem := implType.Elem()
		return func([]reflect.Value) (any, error) {
			return reflect.New(elem).Interface(), nil
		}, nil
	default:
		return func([]reflect.Value) (any, error) {
			return reflect.New(implType).Elem().Interface(), nil
		}, nil
	}
}

// inspectConstructor 检查构造函数签名并返回按参数顺序推断的依赖键
// 支持的签名: func(D1, D2, ...) T 或 func(D1, D2, ...) (T, error)
func inspectConstructor(fn any, serviceType reflect.Type) (reflect.Value, []ServiceKey, error) {
	fnVal := reflect.ValueOf(fn)
	if !fnVal.IsValid() || fnVal.Kind() != reflect.Func {
		return reflect.Value{}, nil, fmt.Errorf("期望构造函数，得到 %T", fn)
	}
	if fnVal.IsNil() {
		return reflect.Value{}, nil, fmt.Errorf("构造函数为 nil")
	}

	fnType := fnVal.Type()
	if fnType.IsVariadic() {
		return reflect.Value{}, nil, fmt.Errorf("不支持可变参数构造函数 %v", fnType)
	}

	switch fnType.NumOut() {
	case 1:
	case 2:
		if fnType.Out(1) != errorType {
			return reflect.Value{}, nil, fmt.Errorf("构造函数 %v 的第二个返回值必须是 error", fnType)
		}
	default:
		return reflect.Value{}, nil, fmt.Errorf("构造函数 %v 必须返回 T 或 (T, error)", fnType)
	}

	if serviceType != nil && !fnType.Out(0).AssignableTo(serviceType) {
		return reflect.Value{}, nil, fmt.Errorf("构造函数返回 %v，无法赋值给 %v", fnType.Out(0), serviceType)
	}

	deps := make([]ServiceKey, fnType.NumIn())
	for i := range deps {
		deps[i] = ServiceKey{Type: fnType.In(i)}
	}
	return fnVal, deps, nil
}

// newConstructorInvoker 创建构造函数调用器
func newConstructorInvoker(fn reflect.Value) Invoker {
	hasErr := fn.Type().NumOut() == 2

	return func(args []reflect.Value) (any, error) {
		results := fn.Call(args)

		// 检查 error
		if hasErr {
			if errVal := results[1]; !errVal.IsNil() {
				return nil, errVal.Interface().(error)
			}
		}

		// 检查 nil
		first := results[0]
		if isNilable(first.Kind()) && first.IsNil() {
			return nil, fmt.Errorf("构造函数返回了 nil 实例")
		}

		return first.Interface(), nil
	}
}

func isNilable(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}
