package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/office/restobook/models"
	"github.com/office/restobook/repository"
)

// DailyReport summarizes one day of trading: sales from the bills
// created that day, the expense ledger entries dated that day, and the
// net of the two.
type DailyReport struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`

	CompletedOrders int                `json:"completed_orders"`
	SalesTotal      float64            `json:"sales_total"`
	SalesByMode     map[string]float64 `json:"sales_by_mode"`

	ExpenseTotal float64          `json:"expense_total"`
	Expenses     []models.Expense `json:"expenses"`

	Net float64 `json:"net"`
}

// ReportService builds daily reports from the repository's range reads.
type ReportService struct {
	repo *repository.RestoRepository
}

func NewReportService(repo *repository.RestoRepository) *ReportService {
	return &ReportService{repo: repo}
}

// DailyReport aggregates bills, completed orders and expenses whose
// timestamps fall in [start, end].
func (s *ReportService) DailyReport(ctx context.Context, start, end int64) (*DailyReport, error) {
	bills, err := s.repo.BillsBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("cannot load bills for report: %w", err)
	}
	orders, err := s.repo.CompletedOrdersBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("cannot load orders for report: %w", err)
	}
	expenses, err := s.repo.ExpensesBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("cannot load expenses for report: %w", err)
	}

	report := &DailyReport{
		Start:           start,
		End:             end,
		CompletedOrders: len(orders),
		SalesByMode:     make(map[string]float64),
		Expenses:        expenses,
	}
	for _, b := range bills {
		report.SalesTotal += b.Total
		mode := b.PaymentMode
		if mode == "" {
			mode = models.PaymentModeCash
		}
		report.SalesByMode[mode] += b.Total
	}
	for _, e := range expenses {
		report.ExpenseTotal += e.Amount
	}
	report.Net = report.SalesTotal - report.ExpenseTotal
	return report, nil
}

// RenderText renders the report as plain tables for the terminal and
// for sharing over chat.
func (s *ReportService) RenderText(report *DailyReport) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Daily Report\n")
	fmt.Fprintf(&sb, "Completed orders: %d\n\n", report.CompletedOrders)

	sales := tablewriter.NewTable(&sb)
	sales.Header("Payment Mode", "Sales")
	for _, mode := range sortedModes(report.SalesByMode) {
		sales.Append([]string{mode, fmt.Sprintf("%.2f", report.SalesByMode[mode])})
	}
	sales.Append([]string{"TOTAL", fmt.Sprintf("%.2f", report.SalesTotal)})
	sales.Render()

	sb.WriteString("\n")

	spend := tablewriter.NewTable(&sb)
	spend.Header("Expense", "Amount")
	for _, e := range report.Expenses {
		spend.Append([]string{e.Description, fmt.Sprintf("%.2f", e.Amount)})
	}
	spend.Append([]string{"TOTAL", fmt.Sprintf("%.2f", report.ExpenseTotal)})
	spend.Render()

	fmt.Fprintf(&sb, "\nNet: %.2f\n", report.Net)
	return sb.String()
}

func sortedModes(byMode map[string]float64) []string {
	modes := make([]string, 0, len(byMode))
	for mode := range byMode {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}
