package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"

	"github.com/office/restobook/models"
	"github.com/office/restobook/repository"
	"github.com/office/restobook/store/localstore"
	"github.com/office/restobook/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

func openTestStore(t *testing.T, name string) *localstore.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	s, err := localstore.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func newTestRepo(t *testing.T, name string) *repository.RestoRepository {
	t.Helper()
	return repository.New(openTestStore(t, name))
}

func seedMenuItem(t *testing.T, repo *repository.RestoRepository, name string, price float64) models.MenuItem {
	t.Helper()
	item, err := repo.InsertMenuItem(context.Background(), models.MenuItem{
		Name:     name,
		Category: "Main",
		Price:    price,
		IsActive: true,
	})
	assert.NoError(t, err)
	return item
}

func lineFor(t *testing.T, repo *repository.RestoRepository, order models.Order, menu models.MenuItem, portion string, qty int) models.OrderItem {
	t.Helper()
	return models.OrderItem{
		OrderID:            order.ID,
		MenuItemID:         menu.ID,
		Portion:            portion,
		ItemName:           menu.Name,
		Quantity:           qty,
		PriceAtTimeOfOrder: menu.PriceFor(portion),
	}
}

func TestInsertOrderDefaults(t *testing.T) {
	repo := newTestRepo(t, "repo_insert_order")
	ctx := context.Background()

	order, err := repo.InsertOrder(ctx, models.Order{CustomerName: "Raj", OrderType: models.OrderTypeDineIn})
	assert.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.NotEmpty(t, order.StoreID)
	assert.Equal(t, models.OrderStatusRunning, order.Status)
	assert.NotZero(t, order.StartTime)
	assert.Equal(t, order.ID, models.NumericID(order.StoreID))

	got, err := repo.GetOrderByID(ctx, order.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, got) {
		assert.Equal(t, "Raj", got.CustomerName)
	}
}

func TestGetOrderByIDAbsent(t *testing.T) {
	repo := newTestRepo(t, "repo_get_absent")

	got, err := repo.GetOrderByID(context.Background(), 424242)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestAddOrderItemMergesPerPortion(t *testing.T) {
	repo := newTestRepo(t, "repo_item_merge")
	ctx := context.Background()

	order, err := repo.InsertOrder(ctx, models.Order{CustomerName: "Raj", OrderType: models.OrderTypeDineIn})
	assert.NoError(t, err)
	half := 60.0
	full := 100.0
	menu, err := repo.InsertMenuItem(ctx, models.MenuItem{
		Name: "Pav Bhaji", Category: "Main", Price: 100,
		HasPortions: true, PriceHalf: &half, PriceFull: &full, IsActive: true,
	})
	assert.NoError(t, err)

	// Same (order, item, portion) twice merges into one line.
	assert.NoError(t, repo.AddOrUpdateOrderItem(ctx, lineFor(t, repo, order, menu, models.PortionHalf, 1)))
	assert.NoError(t, repo.AddOrUpdateOrderItem(ctx, lineFor(t, repo, order, menu, models.PortionHalf, 1)))
	// A different portion is its own line.
	assert.NoError(t, repo.AddOrUpdateOrderItem(ctx, lineFor(t, repo, order, menu, models.PortionFull, 1)))

	items, err := repo.OrderItemsNow(ctx, order.ID)
	assert.NoError(t, err)
	assert.Len(t, items, 2)

	halfLine, err := repo.GetOrderItem(ctx, order.ID, menu.ID, models.PortionHalf)
	assert.NoError(t, err)
	if assert.NotNil(t, halfLine) {
		assert.Equal(t, 2, halfLine.Quantity)
		assert.Equal(t, 60.0, halfLine.PriceAtTimeOfOrder)
	}

	got, err := repo.GetOrderByID(ctx, order.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, got) {
		assert.Equal(t, 2*60.0+100.0, got.TotalAmount)
	}
}

func TestAddOrderItemNegativeDeltaDeletesLine(t *testing.T) {
	repo := newTestRepo(t, "repo_item_delta")
	ctx := context.Background()

	order, err := repo.InsertOrder(ctx, models.Order{CustomerName: "Raj", OrderType: models.OrderTypeParcel})
	assert.NoError(t, err)
	menu := seedMenuItem(t, repo, "Pulav", 80)

	assert.NoError(t, repo.AddOrUpdateOrderItem(ctx, lineFor(t, repo, order, menu, models.PortionRegular, 2)))
	assert.NoError(t, repo.AddOrUpdateOrderItem(ctx, lineFor(t, repo, order, menu, models.PortionRegular, -2)))

	line, err := repo.GetOrderItem(ctx, order.ID, menu.ID, models.PortionRegular)
	assert.NoError(t, err)
	assert.Nil(t, line)

	got, err := repo.GetOrderByID(ctx, order.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, got) {
		assert.Zero(t, got.TotalAmount)
	}

	// A negative delta with no existing line is a no-op.
	assert.NoError(t, repo.AddOrUpdateOrderItem(ctx, lineFor(t, repo, order, menu, models.PortionRegular, -1)))
	line, err = repo.GetOrderItem(ctx, order.ID, menu.ID, models.PortionRegular)
	assert.NoError(t, err)
	assert.Nil(t, line)
}

func TestSetOrderItemQuantity(t *testing.T) {
	repo := newTestRepo(t, "repo_item_set")
	ctx := context.Background()

	order, err := repo.InsertOrder(ctx, models.Order{CustomerName: "Raj", OrderType: models.OrderTypeDineIn})
	assert.NoError(t, err)
	menu := seedMenuItem(t, repo, "Bhaji", 40)

	// A delta against a line that does not exist does nothing.
	assert.NoError(t, repo.SetOrderItemQuantity(ctx, lineFor(t, repo, order, menu, models.PortionRegular, 0), 3))
	line, err := repo.GetOrderItem(ctx, order.ID, menu.ID, models.PortionRegular)
	assert.NoError(t, err)
	assert.Nil(t, line)

	// The delta folds into the existing quantity, it never overwrites it.
	assert.NoError(t, repo.AddOrUpdateOrderItem(ctx, lineFor(t, repo, order, menu, models.PortionRegular, 1)))
	assert.NoError(t, repo.SetOrderItemQuantity(ctx, lineFor(t, repo, order, menu, models.PortionRegular, 0), 5))

	line, err = repo.GetOrderItem(ctx, order.ID, menu.ID, models.PortionRegular)
	assert.NoError(t, err)
	if assert.NotNil(t, line) {
		assert.Equal(t, 6, line.Quantity)
	}
	got, err := repo.GetOrderByID(ctx, order.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, got) {
		assert.Equal(t, 240.0, got.TotalAmount)
	}

	// A delta taking the line to zero or below deletes it.
	assert.NoError(t, repo.SetOrderItemQuantity(ctx, lineFor(t, repo, order, menu, models.PortionRegular, 0), -6))
	line, err = repo.GetOrderItem(ctx, order.ID, menu.ID, models.PortionRegular)
	assert.NoError(t, err)
	assert.Nil(t, line)

	got, err = repo.GetOrderByID(ctx, order.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, got) {
		assert.Zero(t, got.TotalAmount)
	}
}

func TestDeleteOrderCascadesItems(t *testing.T) {
	repo := newTestRepo(t, "repo_delete_cascade")
	ctx := context.Background()

	order, err := repo.InsertOrder(ctx, models.Order{CustomerName: "Raj", OrderType: models.OrderTypeDineIn})
	assert.NoError(t, err)
	menu := seedMenuItem(t, repo, "Vada", 25)
	assert.NoError(t, repo.AddOrUpdateOrderItem(ctx, lineFor(t, repo, order, menu, models.PortionRegular, 2)))

	assert.NoError(t, repo.DeleteOrder(ctx, order))

	got, err := repo.GetOrderByID(ctx, order.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)

	items, err := repo.OrderItemsNow(ctx, order.ID)
	assert.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateOrderAfterDeleteIsDropped(t *testing.T) {
	repo := newTestRepo(t, "repo_update_dropped")
	ctx := context.Background()

	order, err := repo.InsertOrder(ctx, models.Order{CustomerName: "Raj", OrderType: models.OrderTypeDineIn})
	assert.NoError(t, err)
	assert.NoError(t, repo.DeleteOrder(ctx, order))

	// Without a cached store id the lookup misses and the update is
	// silently dropped rather than resurrecting the order.
	order.StoreID = ""
	order.CustomerName = "Someone Else"
	assert.NoError(t, repo.UpdateOrder(ctx, order))

	got, err := repo.GetOrderByID(ctx, order.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRunningAndCompletedOrderQueries(t *testing.T) {
	repo := newTestRepo(t, "repo_order_queries")
	ctx := context.Background()

	running, err := repo.InsertOrder(ctx, models.Order{CustomerName: "A", OrderType: models.OrderTypeDineIn})
	assert.NoError(t, err)
	pending, err := repo.InsertOrder(ctx, models.Order{
		CustomerName: "B", OrderType: models.OrderTypeParcel, Status: models.OrderStatusPaymentPending,
	})
	assert.NoError(t, err)
	completed, err := repo.InsertOrder(ctx, models.Order{
		CustomerName: "C", OrderType: models.OrderTypeZomato, Status: models.OrderStatusCompleted,
	})
	assert.NoError(t, err)

	got, err := repo.RunningOrdersNow(ctx)
	assert.NoError(t, err)
	ids := orderIDs(got)
	assert.Contains(t, ids, running.ID)
	assert.Contains(t, ids, pending.ID)
	assert.NotContains(t, ids, completed.ID)

	done, err := repo.CompletedOrdersNow(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []int64{completed.ID}, orderIDs(done))

	between, err := repo.CompletedOrdersBetween(ctx, completed.StartTime-1, completed.StartTime+1)
	assert.NoError(t, err)
	assert.Len(t, between, 1)

	between, err = repo.CompletedOrdersBetween(ctx, completed.StartTime+1, completed.StartTime+100)
	assert.NoError(t, err)
	assert.Empty(t, between)
}

func TestRunningOrdersFeedSeesStatusChange(t *testing.T) {
	repo := newTestRepo(t, "repo_order_feed")
	ctx := context.Background()

	order, err := repo.InsertOrder(ctx, models.Order{CustomerName: "Raj", OrderType: models.OrderTypeDineIn})
	assert.NoError(t, err)

	feed, err := repo.RunningOrders(ctx)
	assert.NoError(t, err)
	defer feed.Cancel()

	initial := receiveOrders(t, feed)
	assert.Equal(t, []int64{order.ID}, orderIDs(initial))

	repo.UpdateOrderStatus(ctx, order.ID, order.StoreID, models.OrderStatusCompleted)

	next := receiveOrders(t, feed)
	assert.Empty(t, next, "completed orders leave the running view")
}

func TestMenuSortingAndReorder(t *testing.T) {
	repo := newTestRepo(t, "repo_menu_sort")
	ctx := context.Background()

	a, err := repo.InsertMenuItem(ctx, models.MenuItem{Name: "Zunka", Category: "Main", SortOrder: 2, IsActive: true})
	assert.NoError(t, err)
	b, err := repo.InsertMenuItem(ctx, models.MenuItem{Name: "Bhaji", Category: "Main", SortOrder: 1, IsActive: true})
	assert.NoError(t, err)
	c, err := repo.InsertMenuItem(ctx, models.MenuItem{Name: "Chai", Category: "Drinks", SortOrder: 5, IsActive: true})
	assert.NoError(t, err)

	items, err := repo.MenuItemsNow(ctx)
	assert.NoError(t, err)
	if assert.Len(t, items, 3) {
		// Category sorts first, then sort order.
		assert.Equal(t, c.ID, items[0].ID)
		assert.Equal(t, b.ID, items[1].ID)
		assert.Equal(t, a.ID, items[2].ID)
	}

	// Reorder within the category; a missing item is skipped.
	a.SortOrder = 0
	ghost := models.MenuItem{ID: 999999, Name: "Ghost"}
	assert.NoError(t, repo.UpdateMenuItems(ctx, []models.MenuItem{a, ghost}))

	items, err = repo.MenuItemsNow(ctx)
	assert.NoError(t, err)
	if assert.Len(t, items, 3) {
		assert.Equal(t, a.ID, items[1].ID)
	}
}

func TestExpenseLedger(t *testing.T) {
	repo := newTestRepo(t, "repo_expenses")
	ctx := context.Background()

	first, err := repo.InsertExpense(ctx, models.Expense{Description: "Gas", Amount: 900, Date: 1000})
	assert.NoError(t, err)
	_, err = repo.InsertExpense(ctx, models.Expense{Description: "Veggies", Amount: 450, Date: 5000})
	assert.NoError(t, err)

	got, err := repo.ExpensesBetween(ctx, 0, 2000)
	assert.NoError(t, err)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "Gas", got[0].Description)
	}

	first.Amount = 950
	assert.NoError(t, repo.UpdateExpense(ctx, first))
	got, err = repo.ExpensesBetween(ctx, 0, 2000)
	assert.NoError(t, err)
	if assert.Len(t, got, 1) {
		assert.Equal(t, 950.0, got[0].Amount)
	}

	assert.NoError(t, repo.DeleteExpense(ctx, first))
	got, err = repo.ExpensesBetween(ctx, 0, 2000)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func receiveOrders(t *testing.T, feed *repository.Feed[models.Order]) []models.Order {
	t.Helper()
	select {
	case orders, ok := <-feed.Updates():
		if !ok {
			t.Fatal("feed closed unexpectedly")
		}
		return orders
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed snapshot")
		return nil
	}
}

func orderIDs(orders []models.Order) []int64 {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return ids
}
