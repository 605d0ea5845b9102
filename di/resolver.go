package di

import (
	"reflect"

	"github.com/gocrud/greeter/logging"
)

// resolution 表示一次最外层解析。调用方必须持有容器锁。
// 新建的实例先放在 pending 中，只有整条链成功后才提交到容器缓存，
// 失败的解析不会改变缓存。
type resolution struct {
	c        *container
	pending  map[ServiceKey]any
	order    []ServiceKey
	chain    []ServiceKey
	visiting map[ServiceKey]bool
}

func newResolution(c *container) *resolution {
	return &resolution{
		c:        c,
		pending:  make(map[ServiceKey]any),
		visiting: make(map[ServiceKey]bool),
	}
}

// resolve 返回 key 的实例，按需递归创建依赖。
func (r *resolution) resolve(key ServiceKey) (any, error) {
	if inst, ok := r.c.instances[key]; ok {
		return inst, nil
	}
	if inst, ok := r.pending[key]; ok {
		return inst, nil
	}

	def, ok := r.c.definitions[key]
	if !ok {
		return nil, &UnregisteredTypeError{Key: key, Chain: r.snapshot()}
	}

	if r.visiting[key] {
		return nil, &CyclicDependencyError{Chain: append(r.snapshot(), key)}
	}

	if def.IsValue {
		r.store(key, def.Value)
		return def.Value, nil
	}

	r.visiting[key] = true
	r.chain = append(r.chain, key)
	defer func() {
		r.chain = r.chain[:len(r.chain)-1]
		delete(r.visiting, key)
	}()

	// 依赖按声明顺序从左到右解析
	args := make([]reflect.Value, len(def.Deps))
	for i, dep := range def.Deps {
		inst, err := r.resolve(dep)
		if err != nil {
			return nil, err
		}
		args[i] = reflect.ValueOf(inst)
	}

	inst, err := def.Invoker(args)
	if err != nil {
		return nil, &FactoryError{Key: key, Err: err}
	}

	r.store(key, inst)
	r.c.logger.Debug("Resolved service",
		logging.Field{Key: "service", Value: key.String()},
		logging.Field{Key: "depth", Value: len(r.chain)})
	return inst, nil
}

func (r *resolution) store(key ServiceKey, inst any) {
	r.pending[key] = inst
	r.order = append(r.order, key)
}

// commit 把本次解析创建的实例写入容器缓存。
func (r *resolution) commit() {
	for _, key := range r.order {
		r.c.instances[key] = r.pending[key]
	}
}

func (r *resolution) snapshot() []ServiceKey {
	if len(r.chain) == 0 {
		return nil
	}
	out := make([]ServiceKey, len(r.chain))
	copy(out, r.chain)
	return out
}
