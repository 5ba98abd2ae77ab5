package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/office/restobook/models"
	"github.com/office/restobook/store"
)

// CompleteOrderPayment inserts the bill and marks the order COMPLETED
// as one atomic batch: both land or neither does. This is the only
// multi-document sequence in the repository with that guarantee. The
// whole operation is bounded by PaymentTimeout; expiry surfaces as
// store.ErrTimeout with the order and bill untouched.
func (r *RestoRepository) CompleteOrderPayment(ctx context.Context, order models.Order, bill models.Bill) error {
	ctx, cancel := context.WithTimeout(ctx, r.PaymentTimeout)
	defer cancel()

	bills := r.store.Collection(collBills)
	billDocID := bills.NewID()
	bill.ID = models.NumericID(billDocID)
	bill.OrderID = order.ID
	if bill.CreatedAt == 0 {
		bill.CreatedAt = models.NowMillis()
	}

	// The order lookup happens outside the batch; see the package note
	// on lookup-then-mutate.
	orderDocID := order.StoreID
	if orderDocID == "" {
		var err error
		orderDocID, err = r.findDocByNumericID(ctx, collOrders, order.ID)
		if IsNotFound(err) {
			orderDocID = ""
		} else if err != nil {
			return err
		}
	}

	batch := r.store.NewBatch()
	batch.Set(collBills, billDocID, bill)
	if orderDocID != "" {
		batch.Update(collOrders, orderDocID, store.Fields{"status": models.OrderStatusCompleted})
	}

	if err := batch.Commit(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("payment completion for order %d: %w", order.ID, store.ErrTimeout)
		}
		return fmt.Errorf("cannot complete payment for order %d: %w", order.ID, err)
	}
	return nil
}

// InsertBill persists a bill on its own, outside payment completion.
func (r *RestoRepository) InsertBill(ctx context.Context, bill models.Bill) (models.Bill, error) {
	coll := r.store.Collection(collBills)
	docID := coll.NewID()
	bill.ID = models.NumericID(docID)
	if bill.CreatedAt == 0 {
		bill.CreatedAt = models.NowMillis()
	}
	if err := coll.Set(ctx, docID, bill); err != nil {
		return models.Bill{}, fmt.Errorf("cannot insert bill: %w", err)
	}
	return bill, nil
}

// GetBillForOrder is a point read; nil when the order has no bill yet.
func (r *RestoRepository) GetBillForOrder(ctx context.Context, orderID int64) (*models.Bill, error) {
	return queryOne[models.Bill](ctx, r.store.Collection(collBills).Query().
		Where("orderId", store.OpEqual, orderID))
}

// AllBills is a live view of every bill, newest first.
func (r *RestoRepository) AllBills(ctx context.Context) (*Feed[models.Bill], error) {
	return watch[models.Bill](ctx, r.store.Collection(collBills).Query().
		OrderBy("createdAt", store.Descending), nil)
}

// BillsBetween lists bills created in [start, end], newest first.
func (r *RestoRepository) BillsBetween(ctx context.Context, start, end int64) ([]models.Bill, error) {
	docs, err := r.store.Collection(collBills).Query().
		Where("createdAt", store.OpGreaterOrEqual, start).
		Where("createdAt", store.OpLessOrEqual, end).
		OrderBy("createdAt", store.Descending).
		Docs(ctx)
	if err != nil {
		return nil, err
	}
	return decodeDocs[models.Bill](docs)
}
