package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/office/restobook/models"
	"github.com/office/restobook/repository"
	"github.com/office/restobook/utils"
)

type MenuController struct {
	Repo *repository.RestoRepository
}

func NewMenuController(repo *repository.RestoRepository) *MenuController {
	return &MenuController{Repo: repo}
}

type menuItemReq struct {
	Name        string   `json:"name" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Price       float64  `json:"price"`
	PriceHalf   *float64 `json:"price_half"`
	PriceFull   *float64 `json:"price_full"`
	HasPortions bool     `json:"has_portions"`
	IsVeg       bool     `json:"is_veg"`
	IsActive    *bool    `json:"is_active"`
	SortOrder   int      `json:"sort_order"`
}

func (req *menuItemReq) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return errors.New("name is required")
	}
	if req.HasPortions {
		if req.PriceHalf == nil || req.PriceFull == nil {
			return errors.New("portion pricing requires both half and full prices")
		}
		if *req.PriceHalf < 0 || *req.PriceFull < 0 {
			return errors.New("portion prices cannot be negative")
		}
	} else if req.Price < 0 {
		return errors.New("price cannot be negative")
	}
	return nil
}

func (req *menuItemReq) toModel() models.MenuItem {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	item := models.MenuItem{
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		HasPortions: req.HasPortions,
		IsVeg:       req.IsVeg,
		IsActive:    active,
		SortOrder:   req.SortOrder,
	}
	if req.HasPortions {
		item.PriceHalf = req.PriceHalf
		item.PriceFull = req.PriceFull
	}
	return item
}

// GetMenu -> the full menu in display order; ?active=true narrows to
// orderable items.
func (mc *MenuController) GetMenu(c *gin.Context) {
	items, err := mc.Repo.MenuItemsNow(c.Request.Context())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if c.Query("active") == "true" {
		filtered := items[:0]
		for _, item := range items {
			if item.IsActive {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", items)
}

// CreateMenuItem -> add an item to the menu.
func (mc *MenuController) CreateMenuItem(c *gin.Context) {
	var req menuItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if err := req.validate(); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item, err := mc.Repo.InsertMenuItem(c.Request.Context(), req.toModel())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

// UpdateMenuItem -> rewrite an item. Existing order lines keep their
// denormalized name and price snapshot.
func (mc *MenuController) UpdateMenuItem(c *gin.Context) {
	id, err := parseID(c.Param("item_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req menuItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if err := req.validate(); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	existing, err := mc.Repo.GetMenuItemByID(ctx, id)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if existing == nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("menu item %d not found", id))
		return
	}

	item := req.toModel()
	item.ID = id
	if err := mc.Repo.UpdateMenuItem(ctx, item); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

// ReorderMenuItems -> assign new sort orders to a set of items in one
// batched write. Ids that no longer exist are skipped.
func (mc *MenuController) ReorderMenuItems(c *gin.Context) {
	type ReqBody struct {
		Items []struct {
			ID        int64 `json:"id" binding:"required"`
			SortOrder int   `json:"sort_order"`
		} `json:"items" binding:"required"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	items := make([]models.MenuItem, 0, len(body.Items))
	for _, entry := range body.Items {
		existing, err := mc.Repo.GetMenuItemByID(ctx, entry.ID)
		if err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		if existing == nil {
			continue
		}
		existing.SortOrder = entry.SortOrder
		items = append(items, *existing)
	}

	if err := mc.Repo.UpdateMenuItems(ctx, items); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu reordered", gin.H{"updated": len(items)})
}

// DeleteMenuItem -> remove an item from the menu.
func (mc *MenuController) DeleteMenuItem(c *gin.Context) {
	id, err := parseID(c.Param("item_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	existing, err := mc.Repo.GetMenuItemByID(ctx, id)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if existing == nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("menu item %d not found", id))
		return
	}

	if err := mc.Repo.DeleteMenuItem(ctx, *existing); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item deleted", gin.H{"item_id": id})
}
