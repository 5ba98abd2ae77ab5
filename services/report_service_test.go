package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/office/restobook/models"
	"github.com/office/restobook/repository"
	"github.com/office/restobook/services"
)

func settle(t *testing.T, repo *repository.RestoRepository, name, mode string, total float64) models.Order {
	t.Helper()
	ctx := context.Background()
	order, err := repo.InsertOrder(ctx, models.Order{CustomerName: name, OrderType: models.OrderTypeDineIn})
	assert.NoError(t, err)
	assert.NoError(t, repo.CompleteOrderPayment(ctx, order, models.Bill{
		Subtotal:    total,
		Total:       total,
		PaymentMode: mode,
	}))
	return order
}

func TestDailyReport(t *testing.T) {
	repo := newTestRepo(t, "report_daily")
	reports := services.NewReportService(repo)
	ctx := context.Background()

	settle(t, repo, "A", models.PaymentModeCash, 200)
	settle(t, repo, "B", models.PaymentModeUPI, 100)
	_, err := repo.InsertExpense(ctx, models.Expense{Description: "Gas refill", Amount: 50})
	assert.NoError(t, err)

	now := models.NowMillis()
	report, err := reports.DailyReport(ctx, now-60_000, now+60_000)
	assert.NoError(t, err)

	assert.Equal(t, 2, report.CompletedOrders)
	assert.Equal(t, 300.0, report.SalesTotal)
	assert.Equal(t, 200.0, report.SalesByMode[models.PaymentModeCash])
	assert.Equal(t, 100.0, report.SalesByMode[models.PaymentModeUPI])
	assert.Equal(t, 50.0, report.ExpenseTotal)
	assert.Len(t, report.Expenses, 1)
	assert.Equal(t, 250.0, report.Net)
}

func TestDailyReportEmptyRange(t *testing.T) {
	repo := newTestRepo(t, "report_empty")
	reports := services.NewReportService(repo)

	report, err := reports.DailyReport(context.Background(), 0, 1)
	assert.NoError(t, err)
	assert.Zero(t, report.CompletedOrders)
	assert.Zero(t, report.SalesTotal)
	assert.Zero(t, report.Net)
	assert.Empty(t, report.Expenses)
}

func TestRenderText(t *testing.T) {
	repo := newTestRepo(t, "report_render")
	reports := services.NewReportService(repo)

	text := reports.RenderText(&services.DailyReport{
		CompletedOrders: 2,
		SalesTotal:      300,
		SalesByMode: map[string]float64{
			models.PaymentModeCash: 200,
			models.PaymentModeUPI:  100,
		},
		ExpenseTotal: 50,
		Expenses:     []models.Expense{{Description: "Gas refill", Amount: 50}},
		Net:          250,
	})

	assert.Contains(t, text, "Completed orders: 2")
	assert.Contains(t, text, "Cash")
	assert.Contains(t, text, "200.00")
	assert.Contains(t, text, "Gas refill")
	assert.Contains(t, text, "Net: 250.00")
}
