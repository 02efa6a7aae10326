package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func OpenMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

type mongoSnapshot struct {
	ID        string    `bson:"_id"`
	Namespace string    `bson:"namespace"`
	Key       string    `bson:"key"`
	Data      string    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps every namespace in one collection, one document per key.
type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	if database == "" {
		database = "lessonrunner"
	}
	return &MongoStore{collection: client.Database(database).Collection("snapshots")}
}

func docID(ns Namespace, key string) string { return string(ns) + "/" + key }

func (s *MongoStore) Get(ctx context.Context, ns Namespace, key string) ([]byte, error) {
	if err := checkKey(ns, key); err != nil {
		return nil, err
	}
	var doc mongoSnapshot
	err := s.collection.FindOne(ctx, bson.M{"_id": docID(ns, key)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc.Data), nil
}

func (s *MongoStore) Put(ctx context.Context, ns Namespace, key string, data []byte) error {
	if err := checkKey(ns, key); err != nil {
		return err
	}
	doc := mongoSnapshot{
		ID:        docID(ns, key),
		Namespace: string(ns),
		Key:       key,
		Data:      string(data),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Delete(ctx context.Context, ns Namespace, key string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": docID(ns, key)})
	return err
}
