package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocrud/greeter/core"
	"github.com/gocrud/greeter/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ n atomic.Int32 }

func TestBuild_InjectsDependencies(t *testing.T) {
	c := di.NewContainer()
	cnt := &counter{}
	di.RegisterInstance(c, cnt)

	svc, err := NewBuilder().
		AddJob("@every 1h", "count", func(cnt *counter) { cnt.n.Add(1) }).
		AddJob("@every 1h", "plain", func() {}).
		Build(c, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"count", "plain"}, svc.Jobs())
	require.NoError(t, svc.RunNow("count"))
	assert.EqualValues(t, 1, cnt.n.Load())
	assert.Error(t, svc.RunNow("missing"))
}

func TestBuild_Validation(t *testing.T) {
	c := di.NewContainer()

	_, err := NewBuilder().AddJob("not a spec", "bad", func() {}).Build(c, nil)
	assert.Error(t, err)

	_, err = NewBuilder().AddJob("@every 1h", "bad", 42).Build(c, nil)
	assert.Error(t, err)

	_, err = NewBuilder().AddJob("@every 1h", "bad", func() int { return 0 }).Build(c, nil)
	assert.Error(t, err)

	_, err = NewBuilder().
		AddJob("@every 1h", "dup", func() {}).
		AddJob("@every 1h", "dup", func() {}).
		Build(c, nil)
	assert.Error(t, err)

	_, err = NewBuilder().WithLocation("Mars/Olympus").Build(c, nil)
	assert.Error(t, err)
}

func TestRunNow_ReturnsJobError(t *testing.T) {
	boom := errors.New("boom")
	svc, err := NewBuilder().AddJob("@every 1h", "fail", func() error { return boom }).Build(nil, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.RunNow("fail"), boom)

	svc.Remove("fail")
	assert.Empty(t, svc.Jobs())
}

func TestRunNow_UnresolvedDependency(t *testing.T) {
	svc, err := NewBuilder().AddJob("@every 1h", "needs", func(*counter) {}).Build(di.NewContainer(), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.RunNow("needs"), di.ErrUnregisteredType)
}

func TestNew_SchedulesJobs(t *testing.T) {
	rt := core.NewRuntime()
	cnt := &counter{}
	di.RegisterInstance(rt.Container, cnt)

	require.NoError(t, rt.Apply(New(
		WithSeconds(),
		AddJob("* * * * * *", "tick", func(cnt *counter) { cnt.n.Add(1) }),
	)))
	require.NoError(t, rt.Container.Build())
	require.NoError(t, rt.Lifecycle.Start(context.Background()))

	assert.Eventually(t, func() bool { return cnt.n.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rt.Lifecycle.Stop(ctx))
}

func TestNew_InvalidSpecFailsBuild(t *testing.T) {
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(New(AddJob("nope", "bad", func() {}))))
	assert.Error(t, rt.Container.Build())
}

func TestConvertToFields(t *testing.T) {
	fields := convertToFields([]interface{}{"a", 1, "dangling"})
	require.Len(t, fields, 1)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, 1, fields[0].Value)
}
