package activity

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rajivgeraev/unlisted-api/internal/config"
	"github.com/rajivgeraev/unlisted-api/internal/models"
)

// MongoRecorder хранит журнал статусов в коллекции MongoDB
type MongoRecorder struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// ConnectMongo подключается к MongoDB и возвращает журнал
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*MongoRecorder, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ошибка проверки соединения с MongoDB: %w", err)
	}

	collection := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ошибка создания индекса истории: %w", err)
	}

	return &MongoRecorder{client: client, collection: collection}, nil
}

func (r *MongoRecorder) Record(ctx context.Context, entries ...models.HistoryStatus) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]interface{}, len(entries))
	for i, e := range entries {
		docs[i] = e
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert history status to Mongo: %w", err)
	}
	return nil
}

func (r *MongoRecorder) ListByListing(ctx context.Context, listingID string) ([]models.HistoryStatus, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"listing_id": listingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения истории: %w", err)
	}

	out := []models.HistoryStatus{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("ошибка разбора истории: %w", err)
	}
	return out, nil
}

// Disconnect закрывает соединение с MongoDB
func (r *MongoRecorder) Disconnect(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
