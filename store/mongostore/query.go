package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/office/restobook/store"
)

type filter struct {
	field string
	op    store.Op
	value interface{}
}

type ordering struct {
	field string
	dir   store.Direction
}

type query struct {
	coll    *mongo.Collection
	filters []filter
	sorts   []ordering
	limit   int
}

func (q *query) Where(field string, op store.Op, value interface{}) store.Query {
	q.filters = append(q.filters, filter{field: field, op: op, value: value})
	return q
}

func (q *query) OrderBy(field string, dir store.Direction) store.Query {
	q.sorts = append(q.sorts, ordering{field: field, dir: dir})
	return q
}

func (q *query) Limit(n int) store.Query {
	q.limit = n
	return q
}

func (q *query) Docs(ctx context.Context) ([]store.Doc, error) {
	opts := options.Find()
	if len(q.sorts) > 0 {
		sortDoc := bson.D{}
		for _, ord := range q.sorts {
			dir := 1
			if ord.dir == store.Descending {
				dir = -1
			}
			sortDoc = append(sortDoc, bson.E{Key: ord.field, Value: dir})
		}
		opts.SetSort(sortDoc)
	}
	if q.limit > 0 {
		opts.SetLimit(int64(q.limit))
	}

	cursor, err := q.coll.Find(ctx, q.filterDoc(), opts)
	if err != nil {
		return nil, fmt.Errorf("cannot query collection %s: %w", q.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var docs []store.Doc
	for cursor.Next(ctx) {
		raw := make(bson.Raw, len(cursor.Current))
		copy(raw, cursor.Current)
		id, _ := raw.Lookup("_id").StringValueOK()
		docs = append(docs, store.Doc{ID: id, Data: raw})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cannot read collection %s: %w", q.coll.Name(), err)
	}
	return docs, nil
}

// Subscribe runs the query once, then re-runs it after every change
// stream event on the collection. Snapshot-per-change rather than
// delta-tracking keeps both backends' subscription semantics identical.
func (q *query) Subscribe(ctx context.Context) (*store.Subscription, error) {
	docs, err := q.Docs(ctx)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := q.coll.Watch(streamCtx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("cannot watch collection %s: %w", q.coll.Name(), err)
	}

	sub := store.NewSubscription(cancel)
	sub.Send(docs)

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			docs, err := q.Docs(streamCtx)
			if err != nil {
				sub.Fail(err)
				return
			}
			sub.Send(docs)
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			sub.Fail(fmt.Errorf("change stream on %s: %w", q.coll.Name(), err))
		}
	}()
	return sub, nil
}

func (q *query) filterDoc() bson.M {
	m := bson.M{}
	for _, f := range q.filters {
		ops, ok := m[f.field].(bson.M)
		if !ok {
			ops = bson.M{}
			m[f.field] = ops
		}
		switch f.op {
		case store.OpEqual:
			ops["$eq"] = f.value
		case store.OpNotEqual:
			ops["$ne"] = f.value
		case store.OpGreaterOrEqual:
			ops["$gte"] = f.value
		case store.OpLessOrEqual:
			ops["$lte"] = f.value
		}
	}
	return m
}
