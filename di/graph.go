package di

// graphBuilder 处理依赖图的构建和验证。
type graphBuilder struct {
	definitions map[ServiceKey]*ServiceDefinition
}

func newGraphBuilder(defs map[ServiceKey]*ServiceDefinition) *graphBuilder {
	return &graphBuilder{
		definitions: defs,
	}
}

// buildOrder 返回依赖优先的构建顺序并验证图。
// 未注册的依赖返回 UnregisteredTypeError，环返回 CyclicDependencyError。
func (g *graphBuilder) buildOrder() ([]ServiceKey, error) {
	keys := make([]ServiceKey, 0, len(g.definitions))
	for key := range g.definitions {
		keys = append(keys, key)
	}
	// map 迭代是随机的，排序后顺序与错误信息都是确定的
	sortKeys(keys)

	visited := make(map[ServiceKey]bool)
	onStack := make(map[ServiceKey]bool)
	var stack []ServiceKey
	var order []ServiceKey

	var visit func(ServiceKey) error
	visit = func(u ServiceKey) error {
		visited[u] = true
		onStack[u] = true
		stack = append(stack, u)

		for _, v := range g.definitions[u].Deps {
			if _, exists := g.definitions[v]; !exists {
				chain := make([]ServiceKey, len(stack))
				copy(chain, stack)
				return &UnregisteredTypeError{Key: v, Chain: chain}
			}

			if onStack[v] {
				return &CyclicDependencyError{Chain: cycleFrom(stack, v)}
			}
			if !visited[v] {
				if err := visit(v); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		onStack[u] = false
		order = append(order, u)
		return nil
	}

	for _, key := range keys {
		if !visited[key] {
			if err := visit(key); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

// cycleFrom 截取栈中从 v 开始的部分并以 v 闭合。
func cycleFrom(stack []ServiceKey, v ServiceKey) []ServiceKey {
	start := 0
	for i, k := range stack {
		if k == v {
			start = i
			break
		}
	}
	cycle := make([]ServiceKey, 0, len(stack)-start+1)
	cycle = append(cycle, stack[start:]...)
	return append(cycle, v)
}
