package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocrud/greeter/config"
	"github.com/gocrud/greeter/core"
	"github.com/gocrud/greeter/cron"
	"github.com/gocrud/greeter/di"
	"github.com/gocrud/greeter/etcd"
	"github.com/gocrud/greeter/logging"
	"github.com/gocrud/greeter/mvc"
	"github.com/gocrud/greeter/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T, data map[string]any) config.ReloadableConfiguration {
	t.Helper()
	cfg, err := config.NewConfigurationBuilder().AddInMemory(data).BuildReloadable()
	require.NoError(t, err)
	return cfg
}

func TestRunConsole(t *testing.T) {
	cfg := memoryConfig(t, map[string]any{"app": map[string]any{"name": "TestApp"}})

	for _, wiring := range []string{wiringContainer, wiringManual} {
		t.Run(wiring, func(t *testing.T) {
			var out bytes.Buffer
			err := runConsole(cfg, wiring, strings.NewReader("Ada\n"), &out, logging.NewNopLogger())
			require.NoError(t, err)

			assert.Equal(t,
				"[LOG]: App Name: TestApp - "+wiring+" wiring\n"+
					"[LOG]: Starting application...\n"+
					"Enter your name: Hello Ada!\n"+
					"[LOG]: Application finished.\n",
				out.String())
		})
	}
}

func TestRunConsole_DefaultName(t *testing.T) {
	var out bytes.Buffer
	err := runConsole(memoryConfig(t, nil), wiringContainer, strings.NewReader("Ada\n"), &out, logging.NewNopLogger())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "App Name: HelloApp - container wiring")
}

func TestRunConsole_Errors(t *testing.T) {
	cfg := memoryConfig(t, nil)

	err := runConsole(cfg, "boost", strings.NewReader(""), &bytes.Buffer{}, logging.NewNopLogger())
	assert.ErrorContains(t, err, "unknown wiring")

	err = runConsole(cfg, wiringManual, strings.NewReader(""), &bytes.Buffer{}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestRun_ConsoleMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greeter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: FileApp\nlog:\n  level: error\n"), 0o644))

	var out bytes.Buffer
	err := run(context.Background(), []string{"-config", path, "-wiring", "manual"}, strings.NewReader("Grace\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "App Name: FileApp - manual wiring")
	assert.Contains(t, out.String(), "Hello Grace!")
}

func TestRun_UnknownMode(t *testing.T) {
	err := run(context.Background(), []string{"-config", "missing.yaml", "-mode", "batch"}, strings.NewReader(""), &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown mode")
}

func TestLoadConfiguration_Layers(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "greeter.yaml")
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(yamlPath, []byte("web:\n  port: 9000\nstore:\n  driver: sqlite\n"), 0o644))
	require.NoError(t, os.WriteFile(envPath, []byte("GREETER_WEB_PORT=9100\nGREETER_CRON_SPEC=\"@every 5m\"\n"), 0o644))
	t.Setenv("GREETER_STORE_DRIVER", "redis")

	_, settings, err := loadConfiguration(yamlPath, envPath)
	require.NoError(t, err)

	assert.Equal(t, 9100, settings.Web.Port)
	assert.Equal(t, "@every 5m", settings.Cron.Spec)
	assert.Equal(t, "redis", settings.Store.Driver)
	assert.Equal(t, "info", settings.Log.Level)
	assert.Equal(t, "localhost:6379", settings.Store.Addr)
}

func TestNewLogger(t *testing.T) {
	logger, flush, err := newLogger(LogSettings{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	flush()

	_, _, err = newLogger(LogSettings{Level: "loud"})
	assert.Error(t, err)

	_, _, err = newLogger(LogSettings{Format: "xml"})
	assert.Error(t, err)
}

func buildServeRuntime(t *testing.T, s Settings) *core.Runtime {
	t.Helper()
	cfg := memoryConfig(t, map[string]any{"app": map[string]any{"name": "ServeApp"}})

	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(serveOptions(cfg, s, core.NewEnvironment("test"))...))
	require.NoError(t, rt.Container.Build())
	t.Cleanup(func() { rt.Lifecycle.Stop(context.Background()) })
	return rt
}

func TestServeOptions_Memory(t *testing.T) {
	s := defaultSettings()
	s.Web.Port = 0
	s.Web.Mode = "test"
	rt := buildServeRuntime(t, s)

	store := di.MustResolve[mvc.GreetingStore](rt.Container)
	assert.IsType(t, &mvc.MemoryStore{}, store)

	appConfig := di.MustResolve[*mvc.Configuration](rt.Container)
	assert.Equal(t, "ServeApp", appConfig.Name())

	svc := di.MustResolve[*cron.Service](rt.Container)
	assert.Equal(t, []string{reportJob}, svc.Jobs())
	assert.NoError(t, svc.RunNow(reportJob))

	_, err := di.Resolve[*web.Host](rt.Container)
	assert.NoError(t, err)

	env := di.MustResolve[core.Environment](rt.Container)
	assert.Equal(t, "test", env.Name())
}

func TestServeOptions_SQLite(t *testing.T) {
	s := defaultSettings()
	s.Web.Port = 0
	s.Web.Mode = "test"
	s.Store.Driver = "sqlite"
	s.Store.DSN = "file:serve_test?mode=memory&cache=shared"
	rt := buildServeRuntime(t, s)

	store := di.MustResolve[mvc.GreetingStore](rt.Container)
	g, err := mvc.NewGreeting("Ada")
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), g))

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestServeOptions_UnknownDriver(t *testing.T) {
	s := defaultSettings()
	s.Store.Driver = "cassandra"

	rt := core.NewRuntime()
	err := rt.Apply(serveOptions(memoryConfig(t, nil), s, core.NewEnvironment("test"))...)
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestServeOptions_Etcd(t *testing.T) {
	s := defaultSettings()
	s.Web.Port = 0
	s.Web.Mode = "test"
	s.Store.Driver = "etcd"
	s.Store.Key = "/greeter-test"
	rt := buildServeRuntime(t, s)

	store := di.MustResolve[mvc.GreetingStore](rt.Container)
	assert.IsType(t, &etcd.GreetingStore{}, store)
}

func TestServeOptions_AppNameFollowsReload(t *testing.T) {
	data := map[string]any{"app": map[string]any{"name": "ServeApp"}}
	cfg := memoryConfig(t, data)
	s := defaultSettings()
	s.Web.Port = 0
	s.Web.Mode = "test"

	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(serveOptions(cfg, s, core.NewEnvironment("test"))...))
	require.NoError(t, rt.Container.Build())
	t.Cleanup(func() { rt.Lifecycle.Stop(context.Background()) })

	data["app"] = map[string]any{"name": "Renamed"}
	require.NoError(t, cfg.Reload())

	app := di.MustResolve[config.OptionMonitor[mvc.Configuration]](rt.Container)
	current := app.Value()
	assert.Equal(t, "Renamed", current.Name())

	var out bytes.Buffer
	logger := logging.NewConsoleLoggerProvider(logging.ConsoleLoggerOptions{Output: &out}).CreateLogger("test")
	require.NoError(t, reportGreetings(di.MustResolve[mvc.GreetingStore](rt.Container), app, logger))
	assert.Contains(t, out.String(), "app=Renamed")
}
