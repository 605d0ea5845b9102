package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gocrud/mgo"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// driverHandle 由暴露底层驱动客户端的 mgo.Client 实现
type driverHandle interface {
	Client() *mongo.Client
}

type entry struct {
	client   *mgo.Client
	driver   *mongo.Client
	owned    bool // driver 由工厂单独连接，需要单独断开
	database string
}

func (e entry) disconnect(ctx context.Context) error {
	var errs []error
	if e.owned {
		errs = append(errs, e.driver.Disconnect(ctx))
	}
	errs = append(errs, e.client.Disconnect(ctx))
	return errors.Join(errs...)
}

// MongoFactory MongoDB 客户端工厂
type MongoFactory struct {
	clients map[string]entry
	mu      sync.RWMutex
}

// NewMongoFactory 创建客户端工厂
func NewMongoFactory() *MongoFactory {
	return &MongoFactory{
		clients: make(map[string]entry),
	}
}

// Register 通过 mgo 创建客户端并 Ping 一次，失败时断开连接
func (f *MongoFactory) Register(opts MongoOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.clients[opts.Name]; exists {
		return fmt.Errorf("mongo client '%s' already registered", opts.Name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	client, err := mgo.NewClient(ctx, opts.Uri, opts.clientOptions())
	if err != nil {
		return fmt.Errorf("failed to create mongo client '%s': %w", opts.Name, err)
	}

	e := entry{client: client, database: opts.Database}
	if h, ok := any(client).(driverHandle); ok && h.Client() != nil {
		e.driver = h.Client()
	} else {
		driver, err := mongo.Connect(opts.clientOptions())
		if err != nil {
			client.Disconnect(context.Background())
			return fmt.Errorf("failed to create mongo driver '%s': %w", opts.Name, err)
		}
		e.driver, e.owned = driver, true
	}

	if err := e.driver.Ping(ctx, readpref.Primary()); err != nil {
		e.disconnect(context.Background())
		return fmt.Errorf("failed to connect to mongo '%s': %w", opts.Name, err)
	}

	f.clients[opts.Name] = e
	return nil
}

// Get 获取指定名称的客户端
func (f *MongoFactory) Get(name string) (*mgo.Client, error) {
	e, err := f.lookup(name)
	if err != nil {
		return nil, err
	}
	return e.client, nil
}

// Database 返回指定客户端配置的默认数据库
func (f *MongoFactory) Database(name string) (*mongo.Database, error) {
	e, err := f.lookup(name)
	if err != nil {
		return nil, err
	}
	return e.driver.Database(e.database), nil
}

func (f *MongoFactory) lookup(name string) (entry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	e, exists := f.clients[name]
	if !exists {
		return entry{}, fmt.Errorf("mongo client '%s' not found", name)
	}
	return e, nil
}

// Names 返回已注册的客户端名（有序）
func (f *MongoFactory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.clients))
	for name := range f.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Each 按名称顺序遍历所有客户端
func (f *MongoFactory) Each(fn func(name string, client *mgo.Client)) {
	for _, name := range f.Names() {
		if client, err := f.Get(name); err == nil {
			fn(name, client)
		}
	}
}

// Close 断开所有客户端
func (f *MongoFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	for name, e := range f.clients {
		if err := e.disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close client '%s': %w", name, err))
		}
	}

	f.clients = make(map[string]entry)
	return errors.Join(errs...)
}
