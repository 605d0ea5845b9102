package di

import (
	"errors"
	"sync"
	"testing"
)

type buildA struct{ b *buildB }
type buildB struct{ a *buildA }

// TestBuildIdempotent 测试 Build() 方法的幂等性
func TestBuildIdempotent(t *testing.T) {
	container := NewContainer()

	type TestService struct {
		Value int
	}
	RegisterInstance(container, &TestService{Value: 42})

	for i := 0; i < 3; i++ {
		if err := container.Build(); err != nil {
			t.Fatalf("Build() #%d failed: %v", i+1, err)
		}
	}

	svc, err := Resolve[*TestService](container)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if svc.Value != 42 {
		t.Errorf("Expected Value=42, got %d", svc.Value)
	}
}

// TestBuildConcurrent 测试 Build() 方法的并发安全性
func TestBuildConcurrent(t *testing.T) {
	container := NewContainer()

	type TestService struct{}
	calls := 0
	RegisterWithDependencies[*TestService](container, func() *TestService {
		calls++
		return &TestService{}
	})

	const goroutines = 10
	var wg sync.WaitGroup
	wg.Add(goroutines)
	errs := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if err := container.Build(); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent Build() failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected factory to run once, ran %d times", calls)
	}
}

// TestBuildSealsContainer 测试 Build() 后无法再注册服务
func TestBuildSealsContainer(t *testing.T) {
	container := NewContainer()
	type TestService struct{}
	Register[*TestService](container)

	if err := container.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !container.Sealed() {
		t.Fatal("Container should be sealed after Build")
	}

	_, err := Provide(container, TypeOf[*TestService]())
	if !errors.Is(err, ErrContainerSealed) {
		t.Errorf("Expected ErrContainerSealed, got %v", err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("Register after Build should panic")
		}
	}()
	Register[*TestService](container)
}

// TestBuildEagerlyResolves 测试 Build() 后所有服务都已创建
func TestBuildEagerlyResolves(t *testing.T) {
	container := NewContainer()

	type Repo struct{}
	type Service struct{ repo *Repo }

	RegisterWithDependencies[*Service](container, func(r *Repo) *Service { return &Service{repo: r} })
	Register[*Repo](container)

	if err := container.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, key := range container.Keys() {
		if !container.IsResolved(key) {
			t.Errorf("%v should be resolved after Build", key)
		}
	}

	svc := MustResolve[*Service](container)
	repo := MustResolve[*Repo](container)
	if svc.repo != repo {
		t.Error("Service should share the Repo instance")
	}
}

// TestBuildDetectsCycle 测试 Build() 在不调用工厂的情况下检测循环依赖
func TestBuildDetectsCycle(t *testing.T) {
	container := NewContainer()
	called := false

	RegisterWithDependencies[*buildA](container, func(b *buildB) *buildA {
		called = true
		return &buildA{b: b}
	})
	RegisterWithDependencies[*buildB](container, func(a *buildA) *buildB {
		called = true
		return &buildB{a: a}
	})

	err := container.Build()
	var cyclic *CyclicDependencyError
	if !errors.As(err, &cyclic) {
		t.Fatalf("Expected CyclicDependencyError, got %v", err)
	}
	if len(cyclic.Chain) != 3 || cyclic.Chain[0] != cyclic.Chain[2] {
		t.Errorf("Expected closed chain of 3 keys, got %v", cyclic.Chain)
	}
	if called {
		t.Error("Factories must not run when the graph is invalid")
	}
	if container.Sealed() {
		t.Error("Failed Build must not seal the container")
	}
}

// TestBuildDetectsMissingDependency 测试 Build() 检测缺失的依赖
func TestBuildDetectsMissingDependency(t *testing.T) {
	container := NewContainer()
	RegisterWithDependencies[*buildA](container, func(b *buildB) *buildA { return &buildA{b: b} })

	err := container.Build()
	var unregistered *UnregisteredTypeError
	if !errors.As(err, &unregistered) {
		t.Fatalf("Expected UnregisteredTypeError, got %v", err)
	}
	if unregistered.Key != KeyOf[*buildB]() {
		t.Errorf("Expected missing key *buildB, got %v", unregistered.Key)
	}
	if len(unregistered.Chain) != 1 || unregistered.Chain[0] != KeyOf[*buildA]() {
		t.Errorf("Unexpected chain %v", unregistered.Chain)
	}
}

// TestBuildFactoryErrorIsAtomic 测试工厂失败时 Build() 不提交任何实例
func TestBuildFactoryErrorIsAtomic(t *testing.T) {
	container := NewContainer()
	boom := errors.New("boom")

	type First struct{}
	type Second struct{}
	Register[*First](container)
	RegisterWithDependencies[*Second](container, func(*First) (*Second, error) { return nil, boom })

	err := container.Build()
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if container.IsResolved(KeyOf[*First]()) {
		t.Error("Instances created by a failed Build must be discarded")
	}
}

// TestBuildEmptyContainer 测试空容器的构建
func TestBuildEmptyContainer(t *testing.T) {
	container := NewContainer()
	if err := container.Build(); err != nil {
		t.Fatalf("Build on empty container failed: %v", err)
	}

	_, err := Resolve[*buildA](container)
	if !errors.Is(err, ErrUnregisteredType) {
		t.Errorf("Expected ErrUnregisteredType, got %v", err)
	}
}

func TestCycleFrom(t *testing.T) {
	a, b, c := KeyOf[*buildA](), KeyOf[*buildB](), KeyOf[string]()
	got := cycleFrom([]ServiceKey{c, a, b}, a)
	want := []ServiceKey{a, b, a}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}
}
