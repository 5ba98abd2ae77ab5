package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/office/restobook/models"
	"github.com/office/restobook/store"
)

// InsertMenuItem assigns the item its id, persists it and returns it.
func (r *RestoRepository) InsertMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	coll := r.store.Collection(collMenuItems)
	docID := coll.NewID()
	item.ID = models.NumericID(docID)
	if err := coll.Set(ctx, docID, item); err != nil {
		return models.MenuItem{}, fmt.Errorf("cannot insert menu item: %w", err)
	}
	return item, nil
}

// UpdateMenuItem locates the item by numeric id and rewrites it; a
// vanished target drops the update silently.
func (r *RestoRepository) UpdateMenuItem(ctx context.Context, item models.MenuItem) error {
	docID, err := r.findDocByNumericID(ctx, collMenuItems, item.ID)
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.store.Collection(collMenuItems).Set(ctx, docID, item); err != nil {
		return fmt.Errorf("cannot update menu item %d: %w", item.ID, err)
	}
	return nil
}

// UpdateMenuItems rewrites several items in one batched write; used for
// reordering a category. Items that no longer exist are skipped.
// Existing order items keep their denormalized snapshot regardless.
func (r *RestoRepository) UpdateMenuItems(ctx context.Context, items []models.MenuItem) error {
	batch := r.store.NewBatch()
	staged := 0
	for _, item := range items {
		docID, err := r.findDocByNumericID(ctx, collMenuItems, item.ID)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		batch.Set(collMenuItems, docID, item)
		staged++
	}
	if staged == 0 {
		return nil
	}
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("cannot update menu items: %w", err)
	}
	return nil
}

// DeleteMenuItem removes the item. Order items referencing it are left
// alone; they carry their own name/price snapshot.
func (r *RestoRepository) DeleteMenuItem(ctx context.Context, item models.MenuItem) error {
	docID, err := r.findDocByNumericID(ctx, collMenuItems, item.ID)
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.store.Collection(collMenuItems).Delete(ctx, docID); err != nil {
		return fmt.Errorf("cannot delete menu item %d: %w", item.ID, err)
	}
	return nil
}

// GetMenuItemByID is a point read by numeric id; nil on absence.
func (r *RestoRepository) GetMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	return queryOne[models.MenuItem](ctx, r.store.Collection(collMenuItems).Query().
		Where("id", store.OpEqual, id))
}

// sortMenuItems orders for display: category, then sortOrder, then
// name. Done client-side so no composite index is needed.
func sortMenuItems(items []models.MenuItem) []models.MenuItem {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].Name < items[j].Name
	})
	return items
}

// AllMenuItems is a live view of the full menu in display order.
func (r *RestoRepository) AllMenuItems(ctx context.Context) (*Feed[models.MenuItem], error) {
	return watch(ctx, r.store.Collection(collMenuItems).Query(), sortMenuItems)
}

// ActiveMenuItems is a live view of the orderable menu in display order.
func (r *RestoRepository) ActiveMenuItems(ctx context.Context) (*Feed[models.MenuItem], error) {
	return watch(ctx, r.store.Collection(collMenuItems).Query().
		Where("isActive", store.OpEqual, true), sortMenuItems)
}

// MenuItemsNow is the one-shot form of AllMenuItems.
func (r *RestoRepository) MenuItemsNow(ctx context.Context) ([]models.MenuItem, error) {
	docs, err := r.store.Collection(collMenuItems).Query().Docs(ctx)
	if err != nil {
		return nil, err
	}
	items, err := decodeDocs[models.MenuItem](docs)
	if err != nil {
		return nil, err
	}
	return sortMenuItems(items), nil
}
