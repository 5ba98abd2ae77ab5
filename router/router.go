package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/office/restobook/controllers"
	"github.com/office/restobook/live"
	"github.com/office/restobook/middlewares"
	"github.com/office/restobook/repository"
	"github.com/office/restobook/services"
)

func SetupRouter(repo *repository.RestoRepository, hub *live.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.CORSMiddlewares())

	limiter := middlewares.NewRateLimiter(100, 60)
	r.Use(limiter.RateLimit())

	aggregator := services.NewAggregator(repo)
	reports := services.NewReportService(repo)

	orderCtrl := controllers.NewOrderController(repo, aggregator)
	menuCtrl := controllers.NewMenuController(repo)
	expenseCtrl := controllers.NewExpenseController(repo)
	reportCtrl := controllers.NewReportController(reports)
	liveCtrl := controllers.NewLiveController(hub)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	orders := r.Group("/orders")
	{
		orders.GET("/running", orderCtrl.GetRunningOrders)
		orders.GET("/completed", orderCtrl.GetCompletedOrders)
		orders.POST("", orderCtrl.CreateOrder)
		orders.GET("/:order_id", orderCtrl.GetOrderByID)
		orders.PATCH("/:order_id/status", orderCtrl.UpdateOrderStatus)
		orders.DELETE("/:order_id", orderCtrl.DeleteOrder)

		orders.POST("/:order_id/items", orderCtrl.AddOrderItem)
		orders.PATCH("/:order_id/items", orderCtrl.SetOrderItemQuantity)
		orders.DELETE("/:order_id/items/:menu_item_id", orderCtrl.RemoveOrderItem)

		orders.POST("/:order_id/payment", orderCtrl.CompletePayment)
		orders.GET("/:order_id/receipt", orderCtrl.GetReceipt)
	}

	menu := r.Group("/menu")
	{
		menu.GET("", menuCtrl.GetMenu)
		menu.POST("", menuCtrl.CreateMenuItem)
		menu.PUT("/:item_id", menuCtrl.UpdateMenuItem)
		menu.PATCH("/reorder", menuCtrl.ReorderMenuItems)
		menu.DELETE("/:item_id", menuCtrl.DeleteMenuItem)
	}

	expenses := r.Group("/expenses")
	{
		expenses.GET("", expenseCtrl.GetExpenses)
		expenses.POST("", expenseCtrl.CreateExpense)
		expenses.PUT("/:expense_id", expenseCtrl.UpdateExpense)
		expenses.DELETE("/:expense_id", expenseCtrl.DeleteExpense)
	}

	r.GET("/reports/daily", reportCtrl.GetDailyReport)

	r.GET("/ws", liveCtrl.Handle)

	return r
}
