package cron

import (
	"fmt"
	"reflect"

	"github.com/gocrud/greeter/di"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// wrapHandler 把任务处理器统一为 func() error
// 带参数的处理器在每次执行时通过 di.Invoke 注入依赖
func wrapHandler(container di.Container, handler any) (func() error, error) {
	switch h := handler.(type) {
	case func():
		return func() error { h(); return nil }, nil
	case func() error:
		return h, nil
	}

	hv := reflect.ValueOf(handler)
	if !hv.IsValid() || hv.Kind() != reflect.Func || hv.IsNil() {
		return nil, fmt.Errorf("handler must be a function, got %T", handler)
	}
	ht := hv.Type()
	if ht.IsVariadic() {
		return nil, fmt.Errorf("variadic handler %v is not supported", ht)
	}
	switch {
	case ht.NumOut() == 0:
	case ht.NumOut() == 1 && ht.Out(0) == errorType:
	default:
		return nil, fmt.Errorf("handler %v must return nothing or error", ht)
	}
	if container == nil {
		return nil, fmt.Errorf("handler %v needs a DI container", ht)
	}

	return func() error {
		return di.Invoke(container, handler)
	}, nil
}
