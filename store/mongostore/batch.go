package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/office/restobook/store"
)

const (
	opSet = iota
	opUpdate
	opDelete
)

type stagedOp struct {
	kind       int
	collection string
	docID      string
	value      interface{}
	fields     store.Fields
}

// batch applies its staged writes inside one session transaction.
type batch struct {
	store *Store
	ops   []stagedOp
}

func (b *batch) Set(collection, id string, v interface{}) {
	b.ops = append(b.ops, stagedOp{kind: opSet, collection: collection, docID: id, value: v})
}

func (b *batch) Update(collection, id string, fields store.Fields) {
	b.ops = append(b.ops, stagedOp{kind: opUpdate, collection: collection, docID: id, fields: fields})
}

func (b *batch) Delete(collection, id string) {
	b.ops = append(b.ops, stagedOp{kind: opDelete, collection: collection, docID: id})
}

func (b *batch) Commit(ctx context.Context) error {
	session, err := b.store.client.StartSession()
	if err != nil {
		return fmt.Errorf("cannot start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, op := range b.ops {
			coll := b.store.db.Collection(op.collection)
			switch op.kind {
			case opSet:
				_, err := coll.ReplaceOne(sc, bson.M{"_id": op.docID}, op.value,
					options.Replace().SetUpsert(true))
				if err != nil {
					return nil, err
				}
			case opUpdate:
				res, err := coll.UpdateOne(sc, bson.M{"_id": op.docID},
					bson.M{"$set": bson.M(op.fields)})
				if err != nil {
					return nil, err
				}
				if res.MatchedCount == 0 {
					return nil, store.ErrNotFound
				}
			case opDelete:
				if _, err := coll.DeleteOne(sc, bson.M{"_id": op.docID}); err != nil {
					return nil, err
				}
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("cannot commit batch: %w", err)
	}
	return nil
}
