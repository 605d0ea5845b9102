package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gocrud/greeter/mvc"
	"gorm.io/gorm"
)

// GreetingRecord greetings 表的行
type GreetingRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:255;not null"`
	Message   string    `gorm:"size:512;not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (GreetingRecord) TableName() string {
	return "greetings"
}

// GreetingStore 基于 gorm 的问候记录存储
type GreetingStore struct {
	db *gorm.DB
}

var _ mvc.GreetingStore = (*GreetingStore)(nil)

// NewGreetingStore 创建存储并迁移 greetings 表
func NewGreetingStore(db *gorm.DB) (*GreetingStore, error) {
	if err := db.AutoMigrate(&GreetingRecord{}); err != nil {
		return nil, fmt.Errorf("database: migrate greetings: %w", err)
	}
	return &GreetingStore{db: db}, nil
}

// Save 插入记录；ID 为空时使用自增主键并回写到 g.ID
func (s *GreetingStore) Save(ctx context.Context, g *mvc.Greeting) error {
	rec := GreetingRecord{
		Name:      g.Name,
		Message:   g.Message,
		CreatedAt: g.CreatedAt,
	}
	if g.ID != "" {
		id, err := strconv.ParseUint(g.ID, 10, 64)
		if err != nil {
			return fmt.Errorf("database: invalid greeting id %q: %w", g.ID, err)
		}
		rec.ID = uint(id)
	}

	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("database: save greeting: %w", err)
	}
	g.ID = strconv.FormatUint(uint64(rec.ID), 10)
	return nil
}

func (s *GreetingStore) Recent(ctx context.Context, limit int) ([]mvc.Greeting, error) {
	query := s.db.WithContext(ctx).Order("created_at desc").Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []GreetingRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("database: query greetings: %w", err)
	}

	out := make([]mvc.Greeting, len(records))
	for i, rec := range records {
		out[i] = mvc.Greeting{
			ID:        strconv.FormatUint(uint64(rec.ID), 10),
			Name:      rec.Name,
			Message:   rec.Message,
			CreatedAt: rec.CreatedAt,
		}
	}
	return out, nil
}

func (s *GreetingStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&GreetingRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("database: count greetings: %w", err)
	}
	return n, nil
}
