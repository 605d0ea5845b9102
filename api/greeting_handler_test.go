package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/greeter/config"
	"github.com/gocrud/greeter/core"
	"github.com/gocrud/greeter/di"
	"github.com/gocrud/greeter/logging"
	"github.com/gocrud/greeter/mvc"
	"github.com/gocrud/greeter/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ mvc.MemoryStore }

func (*failingStore) Save(context.Context, *mvc.Greeting) error {
	return errors.New("disk full")
}

func appConfig(t *testing.T, name string) (*config.InMemorySource, config.ReloadableConfiguration) {
	t.Helper()
	source := &config.InMemorySource{Data: map[string]any{
		"app": map[string]any{"name": name},
	}}
	cfg, err := config.NewConfigurationBuilder().Add(source).BuildReloadable()
	require.NoError(t, err)
	return source, cfg
}

func appMonitor(cfg config.Configuration) config.OptionMonitor[mvc.Configuration] {
	return config.NewOptionMonitor(config.NewOptionsCache[mvc.Configuration](cfg, "app"))
}

func newTestRouter(t *testing.T, store mvc.GreetingStore) *gin.Engine {
	_, cfg := appConfig(t, "TestApp")
	return newRouter(store, appMonitor(cfg))
}

func newRouter(store mvc.GreetingStore, app config.OptionMonitor[mvc.Configuration]) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewGreetingHandler(store, app, &mvc.Model{}, logging.NewNopLogger())
	h.MountRoutes(router)
	return router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAndListGreetings(t *testing.T) {
	router := newTestRouter(t, mvc.NewMemoryStore())

	w := do(router, http.MethodPost, "/greetings", `{"name":"Ada"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created mvc.Greeting
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Hello Ada!", created.Message)
	assert.NotEmpty(t, created.ID)

	do(router, http.MethodPost, "/greetings", `{"name":"Grace"}`)

	w = do(router, http.MethodGet, "/greetings?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		App       string         `json:"app"`
		LastName  string         `json:"last_name"`
		Count     int64          `json:"count"`
		Greetings []mvc.Greeting `json:"greetings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "TestApp", body.App)
	assert.Equal(t, "Grace", body.LastName)
	assert.EqualValues(t, 2, body.Count)
	require.Len(t, body.Greetings, 1)
	assert.Equal(t, "Grace", body.Greetings[0].Name)
}

func TestCreateGreeting_Validation(t *testing.T) {
	router := newTestRouter(t, mvc.NewMemoryStore())

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/greetings", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/greetings", `{"name":"   "}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/greetings", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/greetings?limit=abc", "").Code)
}

func TestCreateGreeting_StoreError(t *testing.T) {
	router := newTestRouter(t, &failingStore{})
	w := do(router, http.MethodPost, "/greetings", `{"name":"Ada"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealth(t *testing.T) {
	w := do(newTestRouter(t, mvc.NewMemoryStore()), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","app":"TestApp"}`, w.Body.String())
}

func TestHealth_FollowsConfigReload(t *testing.T) {
	source, cfg := appConfig(t, "TestApp")
	router := newRouter(mvc.NewMemoryStore(), appMonitor(cfg))

	source.Data["app"] = map[string]any{"name": "Renamed"}
	require.NoError(t, cfg.Reload())

	w := do(router, http.MethodGet, "/healthz", "")
	assert.JSONEq(t, `{"status":"ok","app":"Renamed"}`, w.Body.String())
}

func TestHealth_DefaultAppName(t *testing.T) {
	cfg, err := config.NewConfigurationBuilder().Build()
	require.NoError(t, err)

	w := do(newRouter(mvc.NewMemoryStore(), appMonitor(cfg)), http.MethodGet, "/healthz", "")
	assert.JSONEq(t, `{"status":"ok","app":"`+mvc.DefaultAppName+`"}`, w.Body.String())
}

// 通过 web.New 和容器组装，验证控制器依赖注入
func TestGreetingHandler_ThroughWebHost(t *testing.T) {
	_, cfg := appConfig(t, "TestApp")
	rt := core.NewRuntime()
	mvc.Register(rt.Container)
	require.NoError(t, rt.Apply(config.Use(cfg), config.Monitor[mvc.Configuration]("app")))
	require.NoError(t, rt.Provide(func() mvc.GreetingStore { return mvc.NewMemoryStore() }))
	require.NoError(t, rt.Apply(web.New(web.WithPort(0), web.WithMode(gin.TestMode), web.WithControllers(NewGreetingHandler))))
	require.NoError(t, rt.Container.Build())

	host, err := di.Resolve[*web.Host](rt.Container)
	require.NoError(t, err)
	handler, err := host.Handler()
	require.NoError(t, err)

	w := do(handler, http.MethodPost, "/greetings", `{"name":"Ada"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	model := di.MustResolve[*mvc.Model](rt.Container)
	assert.Equal(t, "Ada", model.Name())
}
