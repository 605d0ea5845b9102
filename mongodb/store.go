package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/gocrud/greeter/mvc"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection 问候记录的默认集合
const DefaultCollection = "greetings"

type greetingDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Message   string    `bson:"message"`
	CreatedAt time.Time `bson:"created_at"`
}

func toDoc(g *mvc.Greeting) greetingDoc {
	return greetingDoc{ID: g.ID, Name: g.Name, Message: g.Message, CreatedAt: g.CreatedAt}
}

func (d greetingDoc) greeting() mvc.Greeting {
	return mvc.Greeting{ID: d.ID, Name: d.Name, Message: d.Message, CreatedAt: d.CreatedAt}
}

// GreetingStore 基于 MongoDB 集合的问候记录存储
type GreetingStore struct {
	coll *mongo.Collection
}

var _ mvc.GreetingStore = (*GreetingStore)(nil)

// NewGreetingStore 创建存储，collection 为空时使用 DefaultCollection
func NewGreetingStore(db *mongo.Database, collection string) *GreetingStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &GreetingStore{coll: db.Collection(collection)}
}

// Save 插入记录；ID 为空时生成 ObjectID 的十六进制串
func (s *GreetingStore) Save(ctx context.Context, g *mvc.Greeting) error {
	if g.ID == "" {
		g.ID = bson.NewObjectID().Hex()
	}
	if _, err := s.coll.InsertOne(ctx, toDoc(g)); err != nil {
		return fmt.Errorf("mongodb: save greeting: %w", err)
	}
	return nil
}

func (s *GreetingStore) Recent(ctx context.Context, limit int) ([]mvc.Greeting, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: query greetings: %w", err)
	}
	var docs []greetingDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb: decode greetings: %w", err)
	}

	out := make([]mvc.Greeting, len(docs))
	for i, d := range docs {
		out[i] = d.greeting()
	}
	return out, nil
}

func (s *GreetingStore) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongodb: count greetings: %w", err)
	}
	return n, nil
}
