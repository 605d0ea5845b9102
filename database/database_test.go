package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/gocrud/greeter/core"
	"github.com/gocrud/greeter/database"
	"github.com/gocrud/greeter/di"
	"github.com/gocrud/greeter/logging"
	"github.com/gocrud/greeter/mvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name string
}

// 内存库每个连接独立，测试固定为单连接
func singleConn(o *database.DatabaseOptions) {
	o.MaxOpenConns = 1
	o.MaxIdleConns = 1
}

func TestNew_RegistersNamedAndDefault(t *testing.T) {
	rt := core.NewRuntime()
	err := rt.Apply(database.New(
		database.WithDatabase("default", sqlite.Open(":memory:"), singleConn),
		database.WithDatabase("report", sqlite.Open(":memory:"), singleConn, func(o *database.DatabaseOptions) {
			o.AutoMigrate = []any{&User{}}
		}),
	))
	require.NoError(t, err)
	require.NoError(t, rt.Container.Build())

	def, err := di.Resolve[*gorm.DB](rt.Container)
	require.NoError(t, err)
	named, err := di.ResolveNamed[*gorm.DB](rt.Container, "default")
	require.NoError(t, err)
	assert.Same(t, def, named)

	report, err := di.ResolveNamed[*gorm.DB](rt.Container, "report")
	require.NoError(t, err)
	assert.NotSame(t, def, report)

	sqlDB, err := report.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, report.Create(&User{Name: "test"}).Error)

	factory, err := di.Resolve[*database.DatabaseFactory](rt.Container)
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "report"}, factory.Names())

	require.NoError(t, rt.Lifecycle.Stop(context.Background()))
	assert.Empty(t, factory.Names())
}

func TestNew_NoDatabases(t *testing.T) {
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(database.New()))
	assert.False(t, rt.Container.Has(di.KeyOf[*database.DatabaseFactory]()))
}

func TestBuilder_Errors(t *testing.T) {
	builder := database.NewBuilder()

	// 缺少 dialector
	builder.Add("invalid", nil, nil)

	builder.Add("dup", sqlite.Open(":memory:"), nil)
	builder.Add("dup", sqlite.Open(":memory:"), nil)

	_, err := builder.Build(logging.NewNopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialector is required")
	assert.Contains(t, err.Error(), "already configured")
}

func TestFactory_GetMissing(t *testing.T) {
	_, err := database.NewDatabaseFactory().Get("nope")
	assert.Error(t, err)
}

func newStore(t *testing.T) *database.GreetingStore {
	t.Helper()
	factory, err := database.NewBuilder().
		Add("default", sqlite.Open(":memory:"), singleConn).
		Build(nil)
	require.NoError(t, err)
	t.Cleanup(func() { factory.Close() })

	db, err := factory.Get("default")
	require.NoError(t, err)
	store, err := database.NewGreetingStore(db)
	require.NoError(t, err)
	return store
}

func TestGreetingStore(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"Ada", "Grace", "Linus"} {
		g, err := mvc.NewGreeting(name)
		require.NoError(t, err)
		g.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(ctx, g))
		assert.NotEmpty(t, g.ID)
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Linus", recent[0].Name)
	assert.Equal(t, "Hello Linus!", recent[0].Message)
	assert.Equal(t, "Grace", recent[1].Name)

	all, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGreetingStore_InvalidID(t *testing.T) {
	store := newStore(t)
	g, err := mvc.NewGreeting("Ada")
	require.NoError(t, err)
	g.ID = "abc"
	assert.Error(t, store.Save(context.Background(), g))
}

func TestGreetingStore_AsContainerService(t *testing.T) {
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(database.New(
		database.WithDatabase("default", sqlite.Open(":memory:"), singleConn),
	)))
	require.NoError(t, rt.Provide(func(db *gorm.DB) (mvc.GreetingStore, error) {
		return database.NewGreetingStore(db)
	}))
	require.NoError(t, rt.Container.Build())
	t.Cleanup(func() { rt.Lifecycle.Stop(context.Background()) })

	store := di.MustResolve[mvc.GreetingStore](rt.Container)
	g, err := mvc.NewGreeting("Ada")
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), g))

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
