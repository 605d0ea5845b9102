package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gocrud/greeter/mvc"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// DefaultGreetingPrefix 问候记录的默认键前缀
const DefaultGreetingPrefix = "/greeter/greetings"

// GreetingStore 把问候记录保存为 <prefix>/items/<时间戳>-<id> 下的 JSON 值，
// 键按时间排序，倒序读取即为最新记录
type GreetingStore struct {
	client *clientv3.Client
	prefix string
}

var _ mvc.GreetingStore = (*GreetingStore)(nil)

// NewGreetingStore 创建存储，prefix 为空时使用 DefaultGreetingPrefix
func NewGreetingStore(client *clientv3.Client, prefix string) *GreetingStore {
	if prefix == "" {
		prefix = DefaultGreetingPrefix
	}
	return &GreetingStore{client: client, prefix: strings.TrimSuffix(prefix, "/")}
}

func (s *GreetingStore) itemsPrefix() string {
	return s.prefix + "/items/"
}

// itemKey 时间戳补齐到 20 位，保证字典序与时间顺序一致
func (s *GreetingStore) itemKey(g *mvc.Greeting) string {
	return fmt.Sprintf("%s%020d-%s", s.itemsPrefix(), g.CreatedAt.UnixNano(), g.ID)
}

// Save 写入记录；ID 为空时取序号键写入后的集群修订号
func (s *GreetingStore) Save(ctx context.Context, g *mvc.Greeting) error {
	if g.ID == "" {
		resp, err := s.client.Put(ctx, s.prefix+"/seq", "")
		if err != nil {
			return fmt.Errorf("etcd: allocate greeting id: %w", err)
		}
		g.ID = strconv.FormatInt(resp.Header.Revision, 10)
	}

	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("etcd: encode greeting: %w", err)
	}
	if _, err := s.client.Put(ctx, s.itemKey(g), string(data)); err != nil {
		return fmt.Errorf("etcd: save greeting: %w", err)
	}
	return nil
}

func (s *GreetingStore) Recent(ctx context.Context, limit int) ([]mvc.Greeting, error) {
	opts := []clientv3.OpOption{
		clientv3.WithPrefix(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortDescend),
	}
	if limit > 0 {
		opts = append(opts, clientv3.WithLimit(int64(limit)))
	}

	resp, err := s.client.Get(ctx, s.itemsPrefix(), opts...)
	if err != nil {
		return nil, fmt.Errorf("etcd: query greetings: %w", err)
	}

	out := make([]mvc.Greeting, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var g mvc.Greeting
		if err := json.Unmarshal(kv.Value, &g); err != nil {
			return nil, fmt.Errorf("etcd: decode greeting %s: %w", kv.Key, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *GreetingStore) Count(ctx context.Context) (int64, error) {
	resp, err := s.client.Get(ctx, s.itemsPrefix(), clientv3.WithPrefix(), clientv3.WithCountOnly())
	if err != nil {
		return 0, fmt.Errorf("etcd: count greetings: %w", err)
	}
	return resp.Count, nil
}
