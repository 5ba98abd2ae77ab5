package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/office/restobook/models"
	"github.com/office/restobook/repository"
	"github.com/office/restobook/services"
	"github.com/office/restobook/store"
	"github.com/office/restobook/utils"
)

type OrderController struct {
	Repo       *repository.RestoRepository
	Aggregator *services.Aggregator
}

func NewOrderController(repo *repository.RestoRepository, aggregator *services.Aggregator) *OrderController {
	return &OrderController{Repo: repo, Aggregator: aggregator}
}

// GetRunningOrders -> list every order that is not COMPLETED yet.
func (oc *OrderController) GetRunningOrders(c *gin.Context) {
	views, err := oc.Aggregator.RunningOrderViewsNow(c.Request.Context())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Running orders", views)
}

// GetCompletedOrders -> completed orders joined with their bills.
func (oc *OrderController) GetCompletedOrders(c *gin.Context) {
	views, err := oc.Aggregator.CompletedOrderViewsNow(c.Request.Context())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Completed orders", views)
}

// CreateOrder -> open a new order (status=RUNNING).
func (oc *OrderController) CreateOrder(c *gin.Context) {
	type ReqBody struct {
		CustomerName string `json:"customer_name" binding:"required"`
		OrderType    string `json:"order_type"`
	}

	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	body.CustomerName = strings.TrimSpace(body.CustomerName)
	if body.CustomerName == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("customer name is required"))
		return
	}
	if body.OrderType == "" {
		body.OrderType = models.OrderTypeDineIn
	}
	if !models.ValidOrderType(body.OrderType) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown order type %q", body.OrderType))
		return
	}

	order, err := oc.Repo.InsertOrder(c.Request.Context(), models.Order{
		CustomerName: body.CustomerName,
		OrderType:    body.OrderType,
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetOrderByID -> detail of one order with its items.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	orderID, err := parseID(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	detail, err := oc.Repo.GetOrderWithItems(c.Request.Context(), orderID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if detail == nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("order %d not found", orderID))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", detail)
}

// UpdateOrderStatus -> move an order between RUNNING and PAYMENT
// PENDING. COMPLETED is owned by the payment flow and rejected here.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID, err := parseID(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	type ReqBody struct {
		Status string `json:"status" binding:"required"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if !models.ValidOrderStatus(body.Status) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown status %q", body.Status))
		return
	}
	if body.Status == models.OrderStatusCompleted {
		utils.RespondError(c, http.StatusBadRequest, errors.New("orders are completed through payment, not a status update"))
		return
	}

	order, err := oc.Repo.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if order == nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("order %d not found", orderID))
		return
	}
	if order.Status == models.OrderStatusCompleted {
		utils.RespondError(c, http.StatusBadRequest, errors.New("completed orders are immutable"))
		return
	}

	oc.Repo.UpdateOrderStatus(c.Request.Context(), order.ID, order.StoreID, body.Status)
	order.Status = body.Status
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// DeleteOrder -> cancel an open order along with its items.
func (oc *OrderController) DeleteOrder(c *gin.Context) {
	orderID, err := parseID(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Repo.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if order == nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("order %d not found", orderID))
		return
	}
	if order.Status == models.OrderStatusCompleted {
		utils.RespondError(c, http.StatusBadRequest, errors.New("completed orders cannot be deleted"))
		return
	}

	if err := oc.Repo.DeleteOrder(c.Request.Context(), *order); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order deleted", gin.H{"order_id": orderID})
}

// AddOrderItem -> add quantity of a menu item to the order. The
// quantity is a delta; a negative delta removes, zero-or-below lines
// disappear.
func (oc *OrderController) AddOrderItem(c *gin.Context) {
	orderID, err := parseID(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	type ReqBody struct {
		MenuItemID int64  `json:"menu_item_id" binding:"required"`
		Portion    string `json:"portion"`
		Quantity   int    `json:"quantity" binding:"required"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.Portion == "" {
		body.Portion = models.PortionRegular
	}
	if !models.ValidPortion(body.Portion) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown portion %q", body.Portion))
		return
	}

	ctx := c.Request.Context()
	order, err := oc.Repo.GetOrderByID(ctx, orderID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if order == nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("order %d not found", orderID))
		return
	}
	if order.Status == models.OrderStatusCompleted {
		utils.RespondError(c, http.StatusBadRequest, errors.New("completed orders are immutable"))
		return
	}

	menuItem, err := oc.Repo.GetMenuItemByID(ctx, body.MenuItemID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if menuItem == nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("menu item %d not found", body.MenuItemID))
		return
	}

	item := models.OrderItem{
		OrderID:            orderID,
		MenuItemID:         menuItem.ID,
		Portion:            body.Portion,
		ItemName:           menuItem.Name,
		Quantity:           body.Quantity,
		PriceAtTimeOfOrder: menuItem.PriceFor(body.Portion),
	}
	if err := oc.Repo.AddOrUpdateOrderItem(ctx, item); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	oc.respondWithDetail(c, orderID, "Order item merged")
}

// SetOrderItemQuantity -> fold a quantity delta into an existing line;
// a line that does not exist is left alone.
func (oc *OrderController) SetOrderItemQuantity(c *gin.Context) {
	orderID, err := parseID(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	type ReqBody struct {
		MenuItemID int64  `json:"menu_item_id" binding:"required"`
		Portion    string `json:"portion"`
		Quantity   int    `json:"quantity"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.Portion == "" {
		body.Portion = models.PortionRegular
	}
	if !models.ValidPortion(body.Portion) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown portion %q", body.Portion))
		return
	}

	item := models.OrderItem{
		OrderID:    orderID,
		MenuItemID: body.MenuItemID,
		Portion:    body.Portion,
	}
	if err := oc.Repo.SetOrderItemQuantity(c.Request.Context(), item, body.Quantity); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	oc.respondWithDetail(c, orderID, "Order item quantity adjusted")
}

// RemoveOrderItem -> drop a line from the order outright.
func (oc *OrderController) RemoveOrderItem(c *gin.Context) {
	orderID, err := parseID(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	menuItemID, err := parseID(c.Param("menu_item_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	portion := c.DefaultQuery("portion", models.PortionRegular)
	if !models.ValidPortion(portion) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown portion %q", portion))
		return
	}

	ctx := c.Request.Context()
	existing, err := oc.Repo.GetOrderItem(ctx, orderID, menuItemID, portion)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if existing == nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("no %s line for menu item %d on order %d", portion, menuItemID, orderID))
		return
	}

	if err := oc.Repo.RemoveOrderItem(ctx, *existing); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	oc.respondWithDetail(c, orderID, "Order item removed")
}

// CompletePayment -> settle the order: create its bill and mark it
// COMPLETED in one atomic batch.
func (oc *OrderController) CompletePayment(c *gin.Context) {
	orderID, err := parseID(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	type ReqBody struct {
		PaymentMode string  `json:"payment_mode" binding:"required"`
		Tax         float64 `json:"tax"`
		Discount    float64 `json:"discount"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if !models.ValidPaymentMode(body.PaymentMode) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown payment mode %q", body.PaymentMode))
		return
	}

	ctx := c.Request.Context()
	detail, err := oc.Repo.GetOrderWithItems(ctx, orderID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if detail == nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("order %d not found", orderID))
		return
	}
	if detail.Order.Status == models.OrderStatusCompleted {
		utils.RespondError(c, http.StatusBadRequest, errors.New("order is already completed"))
		return
	}

	var subtotal float64
	for _, item := range detail.Items {
		subtotal += float64(item.Quantity) * item.PriceAtTimeOfOrder
	}
	bill := models.Bill{
		Subtotal:    subtotal,
		Tax:         body.Tax,
		Discount:    body.Discount,
		Total:       subtotal + body.Tax - body.Discount,
		PaymentMode: body.PaymentMode,
	}

	if err := oc.Repo.CompleteOrderPayment(ctx, detail.Order, bill); err != nil {
		if errors.Is(err, store.ErrTimeout) {
			utils.RespondError(c, http.StatusGatewayTimeout, err)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Payment completed", gin.H{
		"order_id": orderID,
		"bill":     bill,
	})
}

// GetReceipt -> plain-text printable receipt for the order.
func (oc *OrderController) GetReceipt(c *gin.Context) {
	orderID, err := parseID(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	detail, err := oc.Repo.GetOrderWithItems(ctx, orderID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if detail == nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("order %d not found", orderID))
		return
	}

	bill, err := oc.Repo.GetBillForOrder(ctx, orderID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	menuItems, err := oc.Repo.MenuItemsNow(ctx)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	menuByID := make(map[int64]models.MenuItem, len(menuItems))
	for _, m := range menuItems {
		menuByID[m.ID] = m
	}

	text := utils.GenerateBillText(detail.Order, detail.Items, bill, menuByID)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// respondWithDetail re-reads the order after a mutation so the caller
// sees the merged lines and the recomputed total.
func (oc *OrderController) respondWithDetail(c *gin.Context, orderID int64, message string) {
	detail, err := oc.Repo.GetOrderWithItems(c.Request.Context(), orderID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, message, detail)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
