package services

import (
	"context"

	"github.com/office/restobook/models"
	"github.com/office/restobook/repository"
)

// OrderView is what the order lists render: the order, its displayed
// total and, for completed orders, the bill's payment mode.
type OrderView struct {
	Order models.Order `json:"order"`
	// TotalAmount mirrors the order's denormalized field; the running
	// view does not recompute it from items at display time.
	TotalAmount float64 `json:"total_amount"`
	PaymentMode string  `json:"payment_mode,omitempty"`
}

// Aggregator derives the running/completed order views from the
// repository's live feeds.
type Aggregator struct {
	repo *repository.RestoRepository
}

func NewAggregator(repo *repository.RestoRepository) *Aggregator {
	return &Aggregator{repo: repo}
}

// RunningOrderViews is a live view of all not-yet-completed orders,
// ordered by status then start time descending.
func (a *Aggregator) RunningOrderViews(ctx context.Context) (*repository.Feed[OrderView], error) {
	orders, err := a.repo.RunningOrders(ctx)
	if err != nil {
		return nil, err
	}

	out := repository.NewFeed[OrderView](orders.Cancel)
	go func() {
		for snapshot := range orders.Updates() {
			out.Emit(runningViews(snapshot))
		}
		out.Fail(orders.Err())
	}()
	return out, nil
}

// CompletedOrderViews is a live view of completed orders joined with
// their bills. The join is a client-side linear match by order id
// against the full bill set. A snapshot is emitted once both underlying
// feeds have reported, then again on every update of either. The first
// input to terminate ends the combined feed, cancelling the other; a
// terminal error propagates rather than leaving the join running on a
// dead input's last snapshot.
func (a *Aggregator) CompletedOrderViews(ctx context.Context) (*repository.Feed[OrderView], error) {
	orders, err := a.repo.CompletedOrders(ctx)
	if err != nil {
		return nil, err
	}
	bills, err := a.repo.AllBills(ctx)
	if err != nil {
		orders.Cancel()
		return nil, err
	}

	out := repository.NewFeed[OrderView](func() {
		orders.Cancel()
		bills.Cancel()
	})
	go func() {
		var (
			curOrders []models.Order
			curBills  []models.Bill
			haveO     bool
			haveB     bool
		)
		for {
			select {
			case snapshot, ok := <-orders.Updates():
				if !ok {
					out.Fail(orders.Err())
					return
				}
				curOrders, haveO = snapshot, true
			case snapshot, ok := <-bills.Updates():
				if !ok {
					out.Fail(bills.Err())
					return
				}
				curBills, haveB = snapshot, true
			}
			if haveO && haveB {
				out.Emit(completedViews(curOrders, curBills))
			}
		}
	}()
	return out, nil
}

// RunningOrderViewsNow is the one-shot form of RunningOrderViews.
func (a *Aggregator) RunningOrderViewsNow(ctx context.Context) ([]OrderView, error) {
	orders, err := a.repo.RunningOrdersNow(ctx)
	if err != nil {
		return nil, err
	}
	return runningViews(orders), nil
}

// CompletedOrderViewsNow is the one-shot form of CompletedOrderViews.
func (a *Aggregator) CompletedOrderViewsNow(ctx context.Context) ([]OrderView, error) {
	orders, err := a.repo.CompletedOrdersNow(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		view := OrderView{Order: o, TotalAmount: o.TotalAmount}
		bill, err := a.repo.GetBillForOrder(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		if bill != nil {
			view.PaymentMode = bill.PaymentMode
		}
		views = append(views, view)
	}
	return views, nil
}

func runningViews(orders []models.Order) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, OrderView{Order: o, TotalAmount: o.TotalAmount})
	}
	return views
}

func completedViews(orders []models.Order, bills []models.Bill) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		view := OrderView{Order: o, TotalAmount: o.TotalAmount}
		for _, b := range bills {
			if b.OrderID == o.ID {
				view.PaymentMode = b.PaymentMode
				break
			}
		}
		views = append(views, view)
	}
	return views
}
