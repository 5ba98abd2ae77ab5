package repository

import (
	"context"
	"fmt"

	"github.com/office/restobook/models"
	"github.com/office/restobook/store"
	"github.com/office/restobook/utils"
)

// OrderWithItems bundles an order with its current line items.
type OrderWithItems struct {
	Order models.Order       `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// InsertOrder assigns the order its ids, persists it and returns it.
func (r *RestoRepository) InsertOrder(ctx context.Context, order models.Order) (models.Order, error) {
	coll := r.store.Collection(collOrders)
	docID := coll.NewID()
	order.StoreID = docID
	order.ID = models.NumericID(docID)
	if order.Status == "" {
		order.Status = models.OrderStatusRunning
	}
	if order.StartTime == 0 {
		order.StartTime = models.NowMillis()
	}
	if err := coll.Set(ctx, docID, order); err != nil {
		return models.Order{}, fmt.Errorf("cannot insert order: %w", err)
	}
	return order, nil
}

// UpdateOrder rewrites the full order document. Without a cached store
// id the target is located by its numeric id first; if it vanished in
// between, the update is silently dropped.
func (r *RestoRepository) UpdateOrder(ctx context.Context, order models.Order) error {
	coll := r.store.Collection(collOrders)
	docID := order.StoreID
	if docID == "" {
		var err error
		docID, err = r.findDocByNumericID(ctx, collOrders, order.ID)
		if IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		order.StoreID = docID
	}
	if err := coll.Set(ctx, docID, order); err != nil {
		return fmt.Errorf("cannot update order %d: %w", order.ID, err)
	}
	return nil
}

// UpdateOrderStatus is best-effort: a failure is logged and swallowed so
// a transient store fault never blocks the operator. Status sync can be
// lost silently; that is the accepted trade-off.
func (r *RestoRepository) UpdateOrderStatus(ctx context.Context, orderID int64, storeID, status string) {
	if err := r.updateOrderField(ctx, orderID, storeID, "status", status); err != nil {
		utils.ErrorLogger.Printf("updating status of order %d: %v", orderID, err)
	}
}

// UpdateOrderTotal is best-effort, same policy as UpdateOrderStatus.
func (r *RestoRepository) UpdateOrderTotal(ctx context.Context, orderID int64, storeID string, total float64) {
	if err := r.updateOrderField(ctx, orderID, storeID, "totalAmount", total); err != nil {
		utils.ErrorLogger.Printf("updating total of order %d: %v", orderID, err)
	}
}

func (r *RestoRepository) updateOrderField(ctx context.Context, orderID int64, storeID, field string, value interface{}) error {
	coll := r.store.Collection(collOrders)
	if storeID != "" {
		return coll.Update(ctx, storeID, store.Fields{field: value})
	}
	docID, err := r.findDocByNumericID(ctx, collOrders, orderID)
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return coll.Update(ctx, docID, store.Fields{field: value})
}

// DeleteOrder removes the order and, since an order exclusively owns its
// items, every line item that belongs to it.
func (r *RestoRepository) DeleteOrder(ctx context.Context, order models.Order) error {
	coll := r.store.Collection(collOrders)
	docID := order.StoreID
	if docID == "" {
		var err error
		docID, err = r.findDocByNumericID(ctx, collOrders, order.ID)
		if IsNotFound(err) {
			docID = ""
		} else if err != nil {
			return err
		}
	}
	if docID != "" {
		if err := coll.Delete(ctx, docID); err != nil {
			return fmt.Errorf("cannot delete order %d: %w", order.ID, err)
		}
	}

	items := r.store.Collection(collOrderItems)
	docs, err := items.Query().Where("orderId", store.OpEqual, order.ID).Docs(ctx)
	if err != nil {
		return fmt.Errorf("cannot list items of order %d: %w", order.ID, err)
	}
	for _, d := range docs {
		if err := items.Delete(ctx, d.ID); err != nil {
			return fmt.Errorf("cannot delete item of order %d: %w", order.ID, err)
		}
	}
	return nil
}

// GetOrderByID is a point read by numeric id; nil result on absence.
func (r *RestoRepository) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	return queryOne[models.Order](ctx, r.store.Collection(collOrders).Query().
		Where("id", store.OpEqual, orderID))
}

// GetOrderWithItems returns the order and its items; nil when the order
// is absent.
func (r *RestoRepository) GetOrderWithItems(ctx context.Context, orderID int64) (*OrderWithItems, error) {
	order, err := r.GetOrderByID(ctx, orderID)
	if err != nil || order == nil {
		return nil, err
	}
	items, err := r.OrderItemsNow(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderWithItems{Order: *order, Items: items}, nil
}

func (r *RestoRepository) runningOrdersQuery() store.Query {
	return r.store.Collection(collOrders).Query().
		Where("status", store.OpNotEqual, models.OrderStatusCompleted).
		OrderBy("status", store.Ascending).
		OrderBy("startTime", store.Descending)
}

func (r *RestoRepository) completedOrdersQuery() store.Query {
	return r.store.Collection(collOrders).Query().
		Where("status", store.OpEqual, models.OrderStatusCompleted).
		OrderBy("startTime", store.Descending)
}

// RunningOrders is a live view of every order not yet completed,
// ordered by status then by start time descending.
func (r *RestoRepository) RunningOrders(ctx context.Context) (*Feed[models.Order], error) {
	return watch[models.Order](ctx, r.runningOrdersQuery(), nil)
}

// CompletedOrders is a live view of completed orders, newest first.
func (r *RestoRepository) CompletedOrders(ctx context.Context) (*Feed[models.Order], error) {
	return watch[models.Order](ctx, r.completedOrdersQuery(), nil)
}

// RunningOrdersNow is the one-shot form of RunningOrders.
func (r *RestoRepository) RunningOrdersNow(ctx context.Context) ([]models.Order, error) {
	docs, err := r.runningOrdersQuery().Docs(ctx)
	if err != nil {
		return nil, err
	}
	return decodeDocs[models.Order](docs)
}

// CompletedOrdersNow is the one-shot form of CompletedOrders.
func (r *RestoRepository) CompletedOrdersNow(ctx context.Context) ([]models.Order, error) {
	docs, err := r.completedOrdersQuery().Docs(ctx)
	if err != nil {
		return nil, err
	}
	return decodeDocs[models.Order](docs)
}

// CompletedOrdersBetween lists completed orders whose start time falls
// in [start, end], newest first.
func (r *RestoRepository) CompletedOrdersBetween(ctx context.Context, start, end int64) ([]models.Order, error) {
	docs, err := r.store.Collection(collOrders).Query().
		Where("status", store.OpEqual, models.OrderStatusCompleted).
		Where("startTime", store.OpGreaterOrEqual, start).
		Where("startTime", store.OpLessOrEqual, end).
		OrderBy("startTime", store.Descending).
		Docs(ctx)
	if err != nil {
		return nil, err
	}
	return decodeDocs[models.Order](docs)
}
