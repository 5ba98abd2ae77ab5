// Package localstore is an embedded document-store backend on top of
// gorm (sqlite or mysql). Every document lives in one `documents` table
// as a bson payload; filters and ordering are evaluated client-side,
// which is fine for a single-restaurant workload and mirrors how the
// cloud backend's queries were used. A change hub re-runs live queries
// after every committed write, so subscriptions behave like the cloud
// backend's snapshot listeners.
package localstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/office/restobook/store"
)

type document struct {
	Collection string `gorm:"column:collection;primaryKey;size:64"`
	DocID      string `gorm:"column:doc_id;primaryKey;size:64"`
	Data       []byte `gorm:"column:data"`
}

func (document) TableName() string { return "documents" }

type Store struct {
	db  *gorm.DB
	hub *changeHub
}

// Open connects the embedded store and migrates its single table.
func Open(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open local store: %w", err)
	}
	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, fmt.Errorf("cannot migrate local store: %w", err)
	}
	return &Store{db: db, hub: newChangeHub()}, nil
}

func (s *Store) Collection(name string) store.Collection {
	return &collection{store: s, name: name}
}

func (s *Store) NewBatch() store.Batch {
	return &batch{store: s}
}

func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type collection struct {
	store *Store
	name  string
}

func (c *collection) NewID() string {
	return uuid.NewString()
}

func (c *collection) Get(ctx context.Context, id string) (store.Doc, error) {
	var rec document
	err := c.store.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", c.name, id).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.Doc{}, store.ErrNotFound
	}
	if err != nil {
		return store.Doc{}, fmt.Errorf("cannot read document %s/%s: %w", c.name, id, err)
	}
	return store.Doc{ID: rec.DocID, Data: bson.Raw(rec.Data)}, nil
}

func (c *collection) Set(ctx context.Context, id string, v interface{}) error {
	if err := applySet(c.store.db.WithContext(ctx), c.name, id, v); err != nil {
		return err
	}
	c.store.hub.notify(c.name)
	return nil
}

// Update runs its read-modify-write of the payload inside a
// transaction, so two concurrent partial updates to one document
// cannot lose each other's fields.
func (c *collection) Update(ctx context.Context, id string, fields store.Fields) error {
	err := c.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyUpdate(tx, c.name, id, fields)
	})
	if err != nil {
		return err
	}
	c.store.hub.notify(c.name)
	return nil
}

func (c *collection) Delete(ctx context.Context, id string) error {
	deleted, err := applyDelete(c.store.db.WithContext(ctx), c.name, id)
	if err != nil {
		return err
	}
	if deleted {
		c.store.hub.notify(c.name)
	}
	return nil
}

func (c *collection) Query() store.Query {
	return &query{coll: c}
}

func applySet(db *gorm.DB, coll, id string, v interface{}) error {
	data, err := bson.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot encode document %s/%s: %w", coll, id, err)
	}
	rec := document{Collection: coll, DocID: id, Data: data}
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
		return fmt.Errorf("cannot write document %s/%s: %w", coll, id, err)
	}
	return nil
}

func applyUpdate(db *gorm.DB, coll, id string, fields store.Fields) error {
	var rec document
	err := db.Where("collection = ? AND doc_id = ?", coll, id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("cannot read document %s/%s: %w", coll, id, err)
	}

	var m bson.M
	if err := bson.Unmarshal(rec.Data, &m); err != nil {
		return fmt.Errorf("cannot decode document %s/%s: %w", coll, id, err)
	}
	for k, v := range fields {
		m[k] = v
	}
	data, err := bson.Marshal(m)
	if err != nil {
		return fmt.Errorf("cannot encode document %s/%s: %w", coll, id, err)
	}
	rec.Data = data
	if err := db.Save(&rec).Error; err != nil {
		return fmt.Errorf("cannot update document %s/%s: %w", coll, id, err)
	}
	return nil
}

func applyDelete(db *gorm.DB, coll, id string) (bool, error) {
	res := db.Where("collection = ? AND doc_id = ?", coll, id).Delete(&document{})
	if res.Error != nil {
		return false, fmt.Errorf("cannot delete document %s/%s: %w", coll, id, res.Error)
	}
	return res.RowsAffected > 0, nil
}
