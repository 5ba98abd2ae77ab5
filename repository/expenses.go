package repository

import (
	"context"
	"fmt"

	"github.com/office/restobook/models"
	"github.com/office/restobook/store"
)

// InsertExpense assigns the expense its id, persists it and returns it.
func (r *RestoRepository) InsertExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	coll := r.store.Collection(collExpenses)
	docID := coll.NewID()
	expense.ID = models.NumericID(docID)
	if expense.Date == 0 {
		expense.Date = models.NowMillis()
	}
	if err := coll.Set(ctx, docID, expense); err != nil {
		return models.Expense{}, fmt.Errorf("cannot insert expense: %w", err)
	}
	return expense, nil
}

// UpdateExpense locates the expense by numeric id and rewrites it; a
// vanished target drops the update silently.
func (r *RestoRepository) UpdateExpense(ctx context.Context, expense models.Expense) error {
	docID, err := r.findDocByNumericID(ctx, collExpenses, expense.ID)
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.store.Collection(collExpenses).Set(ctx, docID, expense); err != nil {
		return fmt.Errorf("cannot update expense %d: %w", expense.ID, err)
	}
	return nil
}

func (r *RestoRepository) DeleteExpense(ctx context.Context, expense models.Expense) error {
	docID, err := r.findDocByNumericID(ctx, collExpenses, expense.ID)
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.store.Collection(collExpenses).Delete(ctx, docID); err != nil {
		return fmt.Errorf("cannot delete expense %d: %w", expense.ID, err)
	}
	return nil
}

func (r *RestoRepository) expensesBetweenQuery(start, end int64) store.Query {
	return r.store.Collection(collExpenses).Query().
		Where("date", store.OpGreaterOrEqual, start).
		Where("date", store.OpLessOrEqual, end).
		OrderBy("date", store.Descending)
}

// ExpensesForDate is a live view of expenses dated in [start, end],
// newest first.
func (r *RestoRepository) ExpensesForDate(ctx context.Context, start, end int64) (*Feed[models.Expense], error) {
	return watch[models.Expense](ctx, r.expensesBetweenQuery(start, end), nil)
}

// AllExpenses is a live view of the whole expense ledger, newest first.
func (r *RestoRepository) AllExpenses(ctx context.Context) (*Feed[models.Expense], error) {
	return watch[models.Expense](ctx, r.store.Collection(collExpenses).Query().
		OrderBy("date", store.Descending), nil)
}

// ExpensesBetween is the one-shot form of ExpensesForDate.
func (r *RestoRepository) ExpensesBetween(ctx context.Context, start, end int64) ([]models.Expense, error) {
	docs, err := r.expensesBetweenQuery(start, end).Docs(ctx)
	if err != nil {
		return nil, err
	}
	return decodeDocs[models.Expense](docs)
}
