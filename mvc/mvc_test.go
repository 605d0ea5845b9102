package mvc

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/gocrud/greeter/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const expectedSession = "[LOG]: Starting application...\n" +
	"Enter your name: Hello Ada!\n" +
	"[LOG]: Application finished.\n"

func TestLogger(t *testing.T) {
	var out bytes.Buffer
	(&Logger{Out: &out}).Log("hi")
	assert.Equal(t, "[LOG]: hi\n", out.String())
}

func TestConfigurationName(t *testing.T) {
	assert.Equal(t, "HelloApp", (&Configuration{}).Name())
	assert.Equal(t, "HelloApp", (*Configuration)(nil).Name())
	assert.Equal(t, "Greeter", (&Configuration{AppName: "Greeter"}).Name())
}

func TestView(t *testing.T) {
	var out bytes.Buffer
	v := &View{In: strings.NewReader("Ada\r\nGrace"), Out: &out}

	name, err := v.AskForName()
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	// 最后一行没有换行符
	name, err = v.AskForName()
	require.NoError(t, err)
	assert.Equal(t, "Grace", name)

	_, err = v.AskForName()
	assert.ErrorIs(t, err, io.EOF)

	out.Reset()
	v.DisplayGreeting("Ada")
	assert.Equal(t, "Hello Ada!\n", out.String())
}

func TestWireManual(t *testing.T) {
	var out bytes.Buffer
	app := WireManual(strings.NewReader("Ada\n"), &out)

	require.NoError(t, app.Controller.Run())
	assert.Equal(t, expectedSession, out.String())
	assert.Equal(t, "Ada", app.Model.Name())
	assert.Same(t, app.Model, app.Controller.Model())
}

// 端到端：Logger、Configuration、Model、View 无依赖，Controller 依赖 [Model, View, Logger]
func TestContainerWiring_EndToEnd(t *testing.T) {
	c := di.NewContainer()
	Register(c)

	controller, err := di.Resolve[*Controller](c)
	require.NoError(t, err)

	// 依赖在解析 Controller 时各创建一次，并被缓存
	assert.True(t, c.IsResolved(di.KeyOf[*Model]()))
	assert.True(t, c.IsResolved(di.KeyOf[*View]()))
	assert.True(t, c.IsResolved(di.KeyOf[*Logger]()))
	assert.False(t, c.IsResolved(di.KeyOf[*Configuration]()))

	logger, err := di.Resolve[*Logger](c)
	require.NoError(t, err)
	assert.Same(t, controller.Logger(), logger)

	model, err := di.Resolve[*Model](c)
	require.NoError(t, err)
	assert.Same(t, controller.Model(), model)

	view, err := di.Resolve[*View](c)
	require.NoError(t, err)
	assert.Same(t, controller.View(), view)

	again, err := di.Resolve[*Controller](c)
	require.NoError(t, err)
	assert.Same(t, controller, again)

	cfg, err := di.Resolve[*Configuration](c)
	require.NoError(t, err)
	assert.Equal(t, "HelloApp", cfg.Name())
}

func TestContainerWiring_ControllerRegisteredFirst(t *testing.T) {
	c := di.NewContainer()
	di.RegisterWithDependencies[*Controller](c, NewController)
	di.Register[*Model](c)
	di.Register[*View](c)
	di.Register[*Logger](c)

	_, err := di.Resolve[*Controller](c)
	assert.NoError(t, err)
}

func TestContainerWiring_MissingDependency(t *testing.T) {
	c := di.NewContainer()
	di.Register[*Model](c)
	di.Register[*View](c)
	di.RegisterWithDependencies[*Controller](c, NewController)

	_, err := di.Resolve[*Controller](c)
	require.ErrorIs(t, err, di.ErrUnregisteredType)

	var unregistered *di.UnregisteredTypeError
	require.ErrorAs(t, err, &unregistered)
	assert.Equal(t, di.KeyOf[*Logger](), unregistered.Key)
	assert.Equal(t, []di.ServiceKey{di.KeyOf[*Controller]()}, unregistered.Chain)

	// 失败的解析不会留下部分实例
	assert.False(t, c.IsResolved(di.KeyOf[*Model]()))
	assert.False(t, c.IsResolved(di.KeyOf[*View]()))
}

func TestRegisterConsole_MatchesManualWiring(t *testing.T) {
	var manualOut, containerOut bytes.Buffer

	manual := WireManual(strings.NewReader("Ada\n"), &manualOut)
	require.NoError(t, manual.Controller.Run())

	c := di.NewContainer()
	RegisterConsole(c, strings.NewReader("Ada\n"), &containerOut)
	require.NoError(t, c.Build())

	app, err := Resolve(c)
	require.NoError(t, err)
	require.NoError(t, app.Controller.Run())

	assert.Equal(t, manualOut.String(), containerOut.String())
	assert.Same(t, app.View, app.Controller.View())
}

func TestControllerRunReadError(t *testing.T) {
	var out bytes.Buffer
	app := WireManual(strings.NewReader(""), &out)

	err := app.Controller.Run()
	assert.ErrorIs(t, err, io.EOF)
	assert.NotContains(t, out.String(), "Application finished.")
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, name := range []string{"Ada", "Grace", "Linus"} {
		g, err := NewGreeting(name)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, g))
		assert.NotEmpty(t, g.ID)
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Linus", recent[0].Name)
	assert.Equal(t, "Hello Grace!", recent[1].Message)

	all, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestMemoryStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, _ := NewGreeting("Ada")
			_ = store.Save(ctx, g)
		}()
	}
	wg.Wait()

	count, _ := store.Count(ctx)
	assert.EqualValues(t, 50, count)
}

func TestNewGreeting(t *testing.T) {
	g, err := NewGreeting("  Ada ")
	require.NoError(t, err)
	assert.Equal(t, "Ada", g.Name)
	assert.Equal(t, "Hello Ada!", g.Message)

	_, err = NewGreeting("   ")
	assert.ErrorIs(t, err, ErrEmptyName)
}
