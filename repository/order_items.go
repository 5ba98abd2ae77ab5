package repository

import (
	"context"
	"fmt"

	"github.com/office/restobook/models"
	"github.com/office/restobook/store"
)

// GetOrderItem resolves the single line for (orderID, menuItemID,
// portion); nil when no such line exists.
func (r *RestoRepository) GetOrderItem(ctx context.Context, orderID, menuItemID int64, portion string) (*models.OrderItem, error) {
	return queryOne[models.OrderItem](ctx, r.store.Collection(collOrderItems).Query().
		Where("orderId", store.OpEqual, orderID).
		Where("menuItemId", store.OpEqual, menuItemID).
		Where("portion", store.OpEqual, portion))
}

// OrderItemsNow lists the order's current line items.
func (r *RestoRepository) OrderItemsNow(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	docs, err := r.store.Collection(collOrderItems).Query().
		Where("orderId", store.OpEqual, orderID).
		Docs(ctx)
	if err != nil {
		return nil, err
	}
	return decodeDocs[models.OrderItem](docs)
}

// OrderItemsForOrder is the live view of an order's line items.
func (r *RestoRepository) OrderItemsForOrder(ctx context.Context, orderID int64) (*Feed[models.OrderItem], error) {
	return watch[models.OrderItem](ctx, r.store.Collection(collOrderItems).Query().
		Where("orderId", store.OpEqual, orderID), nil)
}

// AddOrUpdateOrderItem merges item into the (orderId, menuItemId,
// portion) line: the item's quantity acts as a delta against any
// existing line, a line dropping to zero or below is deleted, and a new
// line is only created for a positive quantity. The order total is
// recomputed afterwards.
func (r *RestoRepository) AddOrUpdateOrderItem(ctx context.Context, item models.OrderItem) error {
	existing, err := r.GetOrderItem(ctx, item.OrderID, item.MenuItemID, item.Portion)
	if err != nil {
		return err
	}

	switch {
	case existing != nil:
		quantity := existing.Quantity + item.Quantity
		if quantity <= 0 {
			err = r.deleteOrderItemRow(ctx, *existing)
		} else {
			existing.Quantity = quantity
			err = r.updateOrderItemRow(ctx, *existing)
		}
	case item.Quantity > 0:
		err = r.insertOrderItemRow(ctx, item)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	r.recomputeOrderTotal(ctx, item.OrderID)
	return nil
}

// SetOrderItemQuantity folds quantity into an existing line as a delta,
// the same merge AddOrUpdateOrderItem applies, except it never creates
// a line: with no existing line the call is a no-op. A line dropping to
// zero or below is deleted.
func (r *RestoRepository) SetOrderItemQuantity(ctx context.Context, item models.OrderItem, quantity int) error {
	existing, err := r.GetOrderItem(ctx, item.OrderID, item.MenuItemID, item.Portion)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	merged := existing.Quantity + quantity
	if merged <= 0 {
		err = r.deleteOrderItemRow(ctx, *existing)
	} else {
		existing.Quantity = merged
		err = r.updateOrderItemRow(ctx, *existing)
	}
	if err != nil {
		return err
	}

	r.recomputeOrderTotal(ctx, item.OrderID)
	return nil
}

// RemoveOrderItem deletes the line and recomputes the order total.
func (r *RestoRepository) RemoveOrderItem(ctx context.Context, item models.OrderItem) error {
	if err := r.deleteOrderItemRow(ctx, item); err != nil {
		return err
	}
	r.recomputeOrderTotal(ctx, item.OrderID)
	return nil
}

// recomputeOrderTotal re-fetches the full item set and writes the sum
// back onto the order. Always re-fetching instead of adjusting the
// cached total keeps totalAmount eventually correct at the cost of one
// extra read per mutation.
func (r *RestoRepository) recomputeOrderTotal(ctx context.Context, orderID int64) {
	order, err := r.GetOrderByID(ctx, orderID)
	if err != nil || order == nil {
		return
	}
	items, err := r.OrderItemsNow(ctx, orderID)
	if err != nil {
		return
	}
	var total float64
	for _, it := range items {
		total += float64(it.Quantity) * it.PriceAtTimeOfOrder
	}
	r.UpdateOrderTotal(ctx, order.ID, order.StoreID, total)
}

func (r *RestoRepository) insertOrderItemRow(ctx context.Context, item models.OrderItem) error {
	coll := r.store.Collection(collOrderItems)
	docID := coll.NewID()
	item.ID = models.NumericID(docID)
	if err := coll.Set(ctx, docID, item); err != nil {
		return fmt.Errorf("cannot insert order item: %w", err)
	}
	return nil
}

func (r *RestoRepository) updateOrderItemRow(ctx context.Context, item models.OrderItem) error {
	docID, err := r.findDocByNumericID(ctx, collOrderItems, item.ID)
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.store.Collection(collOrderItems).Set(ctx, docID, item); err != nil {
		return fmt.Errorf("cannot update order item %d: %w", item.ID, err)
	}
	return nil
}

func (r *RestoRepository) deleteOrderItemRow(ctx context.Context, item models.OrderItem) error {
	docID, err := r.findDocByNumericID(ctx, collOrderItems, item.ID)
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.store.Collection(collOrderItems).Delete(ctx, docID); err != nil {
		return fmt.Errorf("cannot delete order item %d: %w", item.ID, err)
	}
	return nil
}
