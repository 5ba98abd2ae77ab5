// Package repository translates domain operations on orders, menu
// items, bills and expenses into document-store operations. It owns the
// query patterns and the update-then-recompute sequences.
//
// Two documented limitations are deliberate and load-bearing:
//
//   - Callers that only hold the legacy numeric id are served by a
//     lookup-then-mutate sequence that is not atomic against concurrent
//     deletes; if the record vanishes in between, the mutation is
//     silently dropped.
//   - Nothing serializes two concurrent total recomputes on the same
//     order, so they can interleave and the last writer wins. Accepted
//     for single-device, single-operator usage.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/office/restobook/store"
)

// Logical collection names.
const (
	collOrders     = "orders"
	collMenuItems  = "menuItems"
	collOrderItems = "orderItems"
	collBills      = "bills"
	collExpenses   = "expenses"
)

type RestoRepository struct {
	store store.Store

	// PaymentTimeout bounds the payment-completion batch. Exceeding it
	// surfaces as store.ErrTimeout; the batch guarantees nothing was
	// partially applied.
	PaymentTimeout time.Duration
}

// New builds a repository over an injected store handle. The store is
// owned by the caller and closed at process shutdown.
func New(s store.Store) *RestoRepository {
	return &RestoRepository{
		store:          s,
		PaymentTimeout: 10 * time.Second,
	}
}

// findDocByNumericID locates a document by its legacy numeric id field.
// Returns store.ErrNotFound when no document carries the id.
func (r *RestoRepository) findDocByNumericID(ctx context.Context, collection string, id int64) (string, error) {
	docs, err := r.store.Collection(collection).Query().
		Where("id", store.OpEqual, id).
		Limit(1).
		Docs(ctx)
	if err != nil {
		return "", fmt.Errorf("cannot locate %s document by id %d: %w", collection, id, err)
	}
	if len(docs) == 0 {
		return "", store.ErrNotFound
	}
	return docs[0].ID, nil
}

func decodeDocs[T any](docs []store.Doc) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.DataTo(&v); err != nil {
			return nil, fmt.Errorf("cannot decode document %s: %w", d.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// queryOne runs a point query and decodes the first hit, nil on absence.
func queryOne[T any](ctx context.Context, q store.Query) (*T, error) {
	docs, err := q.Limit(1).Docs(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	var v T
	if err := docs[0].DataTo(&v); err != nil {
		return nil, fmt.Errorf("cannot decode document %s: %w", docs[0].ID, err)
	}
	return &v, nil
}

// IsNotFound reports whether err marks a missing document.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
