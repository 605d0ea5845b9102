package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gocrud/greeter/mvc"
	"github.com/redis/go-redis/v9"
)

// DefaultGreetingKey 问候列表的默认键
const DefaultGreetingKey = "greeter:greetings"

// GreetingStore 把问候记录以 JSON 保存在 Redis 列表中，最新的在表头
type GreetingStore struct {
	client redis.Cmdable
	key    string
}

var _ mvc.GreetingStore = (*GreetingStore)(nil)

// NewGreetingStore 创建存储，key 为空时使用 DefaultGreetingKey
func NewGreetingStore(client redis.Cmdable, key string) *GreetingStore {
	if key == "" {
		key = DefaultGreetingKey
	}
	return &GreetingStore{client: client, key: key}
}

// Save 写入记录；ID 为空时使用 <key>:seq 自增分配
func (s *GreetingStore) Save(ctx context.Context, g *mvc.Greeting) error {
	if g.ID == "" {
		id, err := s.client.Incr(ctx, s.key+":seq").Result()
		if err != nil {
			return fmt.Errorf("redis: allocate greeting id: %w", err)
		}
		g.ID = strconv.FormatInt(id, 10)
	}

	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("redis: encode greeting: %w", err)
	}
	if err := s.client.LPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("redis: save greeting: %w", err)
	}
	return nil
}

func (s *GreetingStore) Recent(ctx context.Context, limit int) ([]mvc.Greeting, error) {
	values, err := s.client.LRange(ctx, s.key, 0, rangeStop(limit)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: query greetings: %w", err)
	}
	return decodeGreetings(values)
}

func (s *GreetingStore) Count(ctx context.Context) (int64, error) {
	n, err := s.client.LLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: count greetings: %w", err)
	}
	return n, nil
}

// rangeStop 把 limit 转换为 LRANGE 的结束下标，limit<=0 表示全部
func rangeStop(limit int) int64 {
	if limit <= 0 {
		return -1
	}
	return int64(limit) - 1
}

func decodeGreetings(values []string) ([]mvc.Greeting, error) {
	out := make([]mvc.Greeting, 0, len(values))
	for _, v := range values {
		var g mvc.Greeting
		if err := json.Unmarshal([]byte(v), &g); err != nil {
			return nil, fmt.Errorf("redis: decode greeting: %w", err)
		}
		out = append(out, g)
	}
	return out, nil
}
