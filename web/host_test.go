package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/greeter/core"
	"github.com/gocrud/greeter/di"
	"github.com/gocrud/greeter/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingController struct {
	reply string
}

func newPingController(reply string) *pingController {
	return &pingController{reply: reply}
}

func (p *pingController) MountRoutes(router gin.IRouter) {
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, p.reply) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
}

type notAController struct{}

func TestHost_HandlerResolvesControllers(t *testing.T) {
	c := di.NewContainer()
	di.RegisterInstance(c, "pong")

	builder := NewBuilder().SetMode(gin.TestMode).AddControllers(newPingController)
	require.NoError(t, builder.RegisterServices(c))
	require.NoError(t, c.Build())

	handler, err := builder.Build(c).Handler()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestHost_RejectsNonController(t *testing.T) {
	c := di.NewContainer()
	builder := NewBuilder().AddControllers(&notAController{})
	require.NoError(t, builder.RegisterServices(c))

	_, err := builder.Build(c).Handler()
	assert.ErrorContains(t, err, "does not implement web.Controller")
}

func TestBuilder_RegisterServicesError(t *testing.T) {
	builder := NewBuilder().AddControllers(42)
	assert.Error(t, builder.RegisterServices(di.NewContainer()))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	lb := logging.NewLoggingBuilder()
	lb.AddConsole(logging.ConsoleLoggerOptions{Output: &buf})
	logger := lb.Build().CreateLogger("test")

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger(logger))
	(&pingController{reply: "pong"}).MountRoutes(router)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	out := buf.String()
	assert.Contains(t, out, "INFO [test] Request handled")
	assert.Contains(t, out, "path=/ping")
	assert.Contains(t, out, "ERROR [test] Request failed")
}

func TestNew_StartsAndStopsHost(t *testing.T) {
	rt := core.NewRuntime()
	di.RegisterInstance(rt.Container, "pong")
	require.NoError(t, rt.Apply(New(WithPort(0), WithMode(gin.TestMode), WithControllers(newPingController))))
	require.NoError(t, rt.Container.Build())

	host := di.MustResolve[*Host](rt.Container)
	assert.Same(t, host, core.GetFeature[*Host](rt))

	require.NoError(t, rt.Lifecycle.Start(context.Background()))
	select {
	case <-host.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("host did not start listening")
	}

	addr := host.Address()
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		addr = "127.0.0.1" + addr[i:]
	}
	resp, err := http.Get(fmt.Sprintf("http://%s/ping", addr))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, rt.Lifecycle.Stop(ctx))
}
