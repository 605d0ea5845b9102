package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocrud/greeter/api"
	"github.com/gocrud/greeter/config"
	"github.com/gocrud/greeter/core"
	"github.com/gocrud/greeter/cron"
	"github.com/gocrud/greeter/database"
	"github.com/gocrud/greeter/etcd"
	"github.com/gocrud/greeter/logging"
	"github.com/gocrud/greeter/mongodb"
	"github.com/gocrud/greeter/mvc"
	"github.com/gocrud/greeter/redis"
	"github.com/gocrud/greeter/web"
	goredis "github.com/redis/go-redis/v9"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const reportJob = "greeting-report"

// serveOptions 返回 serve 模式的全部运行时选项
func serveOptions(cfg config.ReloadableConfiguration, s Settings, env core.Environment) []core.Option {
	var useOpts []config.UseOption
	if len(s.Etcd.Endpoints) > 0 {
		useOpts = append(useOpts, config.WithHotReload())
	}

	return []core.Option{
		config.Use(cfg, useOpts...),
		core.WithEnvironment(env),
		registerApp,
		config.Monitor[mvc.Configuration]("app"),
		storeOption(s.Store),
		web.New(
			web.WithPort(s.Web.Port),
			web.WithMode(s.Web.Mode),
			web.WithControllers(api.NewGreetingHandler),
		),
		cron.New(cron.AddJob(s.Cron.Spec, reportJob, reportGreetings)),
	}
}

// registerApp 注册 mvc 对象，*mvc.Configuration 改为从配置读取
func registerApp(rt *core.Runtime) error {
	mvc.Register(rt.Container)
	return rt.Provide(appConfiguration)
}

// storeOption 按驱动注册 mvc.GreetingStore
func storeOption(s StoreSettings) core.Option {
	switch strings.ToLower(s.Driver) {
	case "", "memory":
		return provide(func() mvc.GreetingStore {
			return mvc.NewMemoryStore()
		})

	case "sqlite":
		return chain(
			database.New(database.WithDatabase(database.DefaultName, sqlite.Open(s.DSN))),
			provide(func(db *gorm.DB) (mvc.GreetingStore, error) {
				store, err := database.NewGreetingStore(db)
				if err != nil {
					return nil, err
				}
				return store, nil
			}),
		)

	case "redis":
		return chain(
			redis.New(redis.WithClient(redis.DefaultName, redis.WithAddr(s.Addr))),
			provide(func(client *goredis.Client) mvc.GreetingStore {
				return redis.NewGreetingStore(client, s.Key)
			}),
		)

	case "mongodb":
		return chain(
			mongodb.New(mongodb.WithClient(mongodb.DefaultName, s.URI, mongodb.WithDatabase(s.Database))),
			provide(func(db *mongo.Database) mvc.GreetingStore {
				return mongodb.NewGreetingStore(db, s.Collection)
			}),
		)

	case "etcd":
		return chain(
			etcd.New(etcd.WithClient(etcd.DefaultName, etcd.WithEndpoints(s.Endpoints...))),
			provide(func(client *clientv3.Client) mvc.GreetingStore {
				return etcd.NewGreetingStore(client, s.Key)
			}),
		)

	default:
		return func(*core.Runtime) error {
			return fmt.Errorf("unknown store driver %q", s.Driver)
		}
	}
}

// reportGreetings 定时输出问候统计，参数由容器注入
func reportGreetings(store mvc.GreetingStore, app config.OptionMonitor[mvc.Configuration], logger logging.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := store.Count(ctx)
	if err != nil {
		return err
	}
	appConfig := app.Value()
	logger.WithCategory("report").Info("Greeting report",
		logging.Field{Key: "app", Value: appConfig.Name()},
		logging.Field{Key: "count", Value: n})
	return nil
}

func provide(ctor any) core.Option {
	return func(rt *core.Runtime) error {
		return rt.Provide(ctor)
	}
}

func chain(opts ...core.Option) core.Option {
	return func(rt *core.Runtime) error {
		return rt.Apply(opts...)
	}
}
