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
	"github.com/office/restobook/utils"
)

type ExpenseController struct {
	Repo *repository.RestoRepository
}

func NewExpenseController(repo *repository.RestoRepository) *ExpenseController {
	return &ExpenseController{Repo: repo}
}

// GetExpenses -> expenses dated in [start, end] (epoch ms query params),
// newest first.
func (ec *ExpenseController) GetExpenses(c *gin.Context) {
	start, end, err := parseRange(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	expenses, err := ec.Repo.ExpensesBetween(c.Request.Context(), start, end)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Expenses", expenses)
}

// CreateExpense -> record a ledger entry.
func (ec *ExpenseController) CreateExpense(c *gin.Context) {
	type ReqBody struct {
		Description string  `json:"description" binding:"required"`
		Amount      float64 `json:"amount" binding:"required"`
		Date        int64   `json:"date"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	body.Description = strings.TrimSpace(body.Description)
	if body.Description == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("description is required"))
		return
	}
	if body.Amount <= 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("amount must be positive"))
		return
	}

	expense, err := ec.Repo.InsertExpense(c.Request.Context(), models.Expense{
		Description: body.Description,
		Amount:      body.Amount,
		Date:        body.Date,
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Expense recorded", expense)
}

// UpdateExpense -> rewrite a ledger entry.
func (ec *ExpenseController) UpdateExpense(c *gin.Context) {
	id, err := parseID(c.Param("expense_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	type ReqBody struct {
		Description string  `json:"description" binding:"required"`
		Amount      float64 `json:"amount" binding:"required"`
		Date        int64   `json:"date" binding:"required"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.Amount <= 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("amount must be positive"))
		return
	}

	expense := models.Expense{
		ID:          id,
		Description: strings.TrimSpace(body.Description),
		Amount:      body.Amount,
		Date:        body.Date,
	}
	if err := ec.Repo.UpdateExpense(c.Request.Context(), expense); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Expense updated", expense)
}

// DeleteExpense -> drop a ledger entry.
func (ec *ExpenseController) DeleteExpense(c *gin.Context) {
	id, err := parseID(c.Param("expense_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := ec.Repo.DeleteExpense(c.Request.Context(), models.Expense{ID: id}); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Expense deleted", gin.H{"expense_id": id})
}

// parseRange reads start/end epoch-ms query params; end defaults to now
// and start to the beginning of time.
func parseRange(c *gin.Context) (int64, int64, error) {
	start := int64(0)
	end := models.NowMillis()

	if s := c.Query("start"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid start %q", s)
		}
		start = v
	}
	if s := c.Query("end"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid end %q", s)
		}
		end = v
	}
	if end < start {
		return 0, 0, errors.New("end precedes start")
	}
	return start, end, nil
}
