package di

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnregisteredType 请求的类型（或其传递依赖）从未注册。
	ErrUnregisteredType = errors.New("di: 类型未注册")

	// ErrCyclicDependency 解析过程中检测到循环依赖。
	ErrCyclicDependency = errors.New("di: 检测到循环依赖")

	// ErrContainerSealed 容器 Build 后不再接受注册。
	ErrContainerSealed = errors.New("di: build 后无法注册服务")
)

// UnregisteredTypeError 在解析一个没有工厂的键时返回。
// Chain 是需要该键的解析链（从最外层请求开始），直接解析时为空。
type UnregisteredTypeError struct {
	Key   ServiceKey
	Chain []ServiceKey
}

func (e *UnregisteredTypeError) Error() string {
	if len(e.Chain) == 0 {
		return fmt.Sprintf("di: 未找到服务 %v", e.Key)
	}
	return fmt.Sprintf("di: 未找到服务 %v (依赖链: %s)", e.Key, formatChain(e.Chain))
}

func (e *UnregisteredTypeError) Is(target error) bool {
	return target == ErrUnregisteredType
}

// CyclicDependencyError 描述一条闭合的依赖链，首尾为同一个键。
type CyclicDependencyError struct {
	Chain []ServiceKey
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("di: 检测到循环依赖: %s", formatChain(e.Chain))
}

func (e *CyclicDependencyError) Is(target error) bool {
	return target == ErrCyclicDependency
}

// FactoryError 包装工厂或构造函数返回的错误。
type FactoryError struct {
	Key ServiceKey
	Err error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("di: 创建服务 %v 失败: %v", e.Key, e.Err)
}

func (e *FactoryError) Unwrap() error {
	return e.Err
}

func formatChain(chain []ServiceKey) string {
	parts := make([]string, len(chain))
	for i, k := range chain {
		parts[i] = k.String()
	}
	return strings.Join(parts, " -> ")
}
