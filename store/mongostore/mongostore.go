// Package mongostore is the MongoDB backend of the document store.
// Live queries ride on change streams and atomic batches on session
// transactions, so the deployment needs a replica set (Atlas or a
// single-node replica set both work).
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/office/restobook/store"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects and pings the deployment.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	opts := options.Client().ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("cannot ping MongoDB: %w", err)
	}
	return &Store{client: client, db: client.Database(dbName)}, nil
}

func (s *Store) Collection(name string) store.Collection {
	return &collection{coll: s.db.Collection(name)}
}

func (s *Store) NewBatch() store.Batch {
	return &batch{store: s}
}

func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
	}
	return nil
}

type collection struct {
	coll *mongo.Collection
}

func (c *collection) NewID() string {
	return primitive.NewObjectID().Hex()
}

func (c *collection) Get(ctx context.Context, id string) (store.Doc, error) {
	raw, err := c.coll.FindOne(ctx, bson.M{"_id": id}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.Doc{}, store.ErrNotFound
		}
		return store.Doc{}, fmt.Errorf("cannot read document %s/%s: %w", c.coll.Name(), id, err)
	}
	return store.Doc{ID: id, Data: raw}, nil
}

func (c *collection) Set(ctx context.Context, id string, v interface{}) error {
	_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, v, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("cannot write document %s/%s: %w", c.coll.Name(), id, err)
	}
	return nil
}

func (c *collection) Update(ctx context.Context, id string, fields store.Fields) error {
	res, err := c.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return fmt.Errorf("cannot update document %s/%s: %w", c.coll.Name(), id, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *collection) Delete(ctx context.Context, id string) error {
	if _, err := c.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("cannot delete document %s/%s: %w", c.coll.Name(), id, err)
	}
	return nil
}

func (c *collection) Query() store.Query {
	return &query{coll: c.coll}
}
