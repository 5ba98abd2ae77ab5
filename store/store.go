// Package store defines the document-store contract the repository is
// written against. Two backends implement it: mongostore (MongoDB) and
// localstore (embedded, gorm-backed). Documents are schemaless records
// grouped into named collections, addressed by a store-assigned id and
// queried by field equality/range with optional ordering.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Op is a field comparison operator.
type Op string

const (
	OpEqual          Op = "=="
	OpNotEqual       Op = "!="
	OpGreaterOrEqual Op = ">="
	OpLessOrEqual    Op = "<="
)

// Direction orders query results on a field.
type Direction int

const (
	Ascending Direction = iota + 1
	Descending
)

// Fields is a partial document used for field-level updates.
type Fields map[string]interface{}

// Doc is a document snapshot: the store-assigned id plus the raw
// bson-encoded record.
type Doc struct {
	ID   string
	Data bson.Raw
}

// DataTo decodes the document record into v. Fields absent from v's
// type are ignored.
func (d Doc) DataTo(v interface{}) error {
	return bson.Unmarshal(d.Data, v)
}

// Store is a handle to one document database. It is constructed once at
// process start, injected into the repository, and closed at shutdown.
type Store interface {
	Collection(name string) Collection
	// NewBatch stages writes across collections; Commit applies them
	// atomically (all or nothing).
	NewBatch() Batch
	Close(ctx context.Context) error
}

// Collection is per-collection CRUD plus queries. Point reads return
// ErrNotFound on absence; Update is a partial (field-level) write.
type Collection interface {
	// NewID reserves a fresh document id without writing anything.
	NewID() string
	Get(ctx context.Context, id string) (Doc, error)
	Set(ctx context.Context, id string, v interface{}) error
	Update(ctx context.Context, id string, fields Fields) error
	Delete(ctx context.Context, id string) error
	Query() Query
}

// Query builds a filtered, ordered view over a collection. Builders
// return the query to allow chaining; implementations may mutate in
// place, so a Query is not reusable after Docs or Subscribe.
type Query interface {
	Where(field string, op Op, value interface{}) Query
	OrderBy(field string, dir Direction) Query
	Limit(n int) Query
	// Docs runs the query once.
	Docs(ctx context.Context) ([]Doc, error)
	// Subscribe delivers the complete current result set immediately and
	// again after every underlying change, until cancelled or failed.
	Subscribe(ctx context.Context) (*Subscription, error)
}

// Batch stages multi-document writes. Commit applies them as one atomic
// unit; on error nothing is applied.
type Batch interface {
	Set(collection, id string, v interface{})
	Update(collection, id string, fields Fields)
	Delete(collection, id string)
	Commit(ctx context.Context) error
}
