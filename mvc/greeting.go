package mvc

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrEmptyName 问候的名字为空
var ErrEmptyName = errors.New("mvc: name is required")

// Greeting 一次问候记录
type Greeting struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NewGreeting 根据名字生成问候记录，名字会去掉首尾空白
func NewGreeting(name string) (*Greeting, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Greeting{
		Name:      name,
		Message:   FormatGreeting(name),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// FormatGreeting 返回 "Hello <name>!"
func FormatGreeting(name string) string {
	return "Hello " + name + "!"
}

// GreetingStore 问候记录的存储
type GreetingStore interface {
	// Save 保存记录，ID 为空时由存储分配
	Save(ctx context.Context, g *Greeting) error
	// Recent 按时间倒序返回最多 limit 条记录
	Recent(ctx context.Context, limit int) ([]Greeting, error)
	// Count 返回记录总数
	Count(ctx context.Context) (int64, error)
}

// MemoryStore 进程内存储
type MemoryStore struct {
	mu        sync.RWMutex
	greetings []Greeting
	seq       int
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, g *Greeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if g.ID == "" {
		g.ID = strconv.Itoa(s.seq)
	}
	s.greetings = append(s.greetings, *g)
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Greeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.greetings)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Greeting, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.greetings[i])
	}
	return out, nil
}

func (s *MemoryStore) Count(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.greetings)), nil
}
