package localstore

import (
	"context"

	"gorm.io/gorm"

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

// batch applies its staged writes inside one gorm transaction, so they
// land together or not at all.
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
	err := b.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range b.ops {
			switch op.kind {
			case opSet:
				if err := applySet(tx, op.collection, op.docID, op.value); err != nil {
					return err
				}
			case opUpdate:
				if err := applyUpdate(tx, op.collection, op.docID, op.fields); err != nil {
					return err
				}
			case opDelete:
				if _, err := applyDelete(tx, op.collection, op.docID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, op := range b.ops {
		if !seen[op.collection] {
			seen[op.collection] = true
			b.store.hub.notify(op.collection)
		}
	}
	return nil
}
