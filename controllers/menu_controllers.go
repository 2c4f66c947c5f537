package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daikochiya/teashop-app/models"
	"github.com/daikochiya/teashop-app/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// ListForShop returns the customer-facing catalog for the shop behind the
// slug. Unavailable items are soft-filtered, never deleted.
func (mc *MenuController) ListForShop(c *gin.Context) {
	var shop models.Shop
	if err := mc.DB.Where("slug = ?", c.Param("slug")).First(&shop).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("shop not found"))
		return
	}

	var items []models.MenuItem
	query := mc.DB.Where("shop_id = ? AND is_available = ?", shop.ID, true)
	if category := c.Query("category"); category != "" {
		if !models.ValidCategory(category) {
			utils.RespondError(c, http.StatusBadRequest, errors.New("unknown category"))
			return
		}
		query = query.Where("category = ?", category)
	}
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu items", items)
}

// ListAll returns every item of the admin's shop, unavailable ones included.
func (mc *MenuController) ListAll(c *gin.Context) {
	shopID := c.GetString("shopID")

	var items []models.MenuItem
	if err := mc.DB.Where("shop_id = ?", shopID).Order("created_at DESC").Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu items", items)
}

type menuItemBody struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`
	Price           float64 `json:"price" binding:"required"`
	Category        string  `json:"category" binding:"required"`
	Image           *string `json:"image"`
	Discount        *int    `json:"discount"`
	IsBestSeller    bool    `json:"isBestSeller"`
	IsTodaysSpecial bool    `json:"isTodaysSpecial"`
	IsAvailable     *bool   `json:"isAvailable"`
}

func (b *menuItemBody) validate() error {
	if b.Price <= 0 {
		return errors.New("price must be positive")
	}
	if !models.ValidCategory(b.Category) {
		return errors.New("category must be one of tea, snacks, extra")
	}
	if b.Discount != nil && (*b.Discount < 0 || *b.Discount > 100) {
		return errors.New("discount must be between 0 and 100")
	}
	return nil
}

// Create adds a menu item to the admin's shop.
func (mc *MenuController) Create(c *gin.Context) {
	shopID := c.GetString("shopID")

	var body menuItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if err := body.validate(); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	now := time.Now()
	item := models.MenuItem{
		ID:              uuid.NewString(),
		ShopID:          shopID,
		Name:            body.Name,
		Description:     body.Description,
		Price:           body.Price,
		Category:        body.Category,
		ImageURL:        body.Image,
		Discount:        body.Discount,
		IsBestSeller:    body.IsBestSeller,
		IsTodaysSpecial: body.IsTodaysSpecial,
		IsAvailable:     true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if body.IsAvailable != nil {
		item.IsAvailable = *body.IsAvailable
	}

	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

// Update applies a partial update to one of the admin's items.
func (mc *MenuController) Update(c *gin.Context) {
	shopID := c.GetString("shopID")

	var item models.MenuItem
	if err := mc.DB.Where("id = ? AND shop_id = ?", c.Param("item_id"), shopID).First(&item).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}

	var body struct {
		Name            *string  `json:"name"`
		Description     *string  `json:"description"`
		Price           *float64 `json:"price"`
		Category        *string  `json:"category"`
		Image           *string  `json:"image"`
		Discount        *int     `json:"discount"`
		IsBestSeller    *bool    `json:"isBestSeller"`
		IsTodaysSpecial *bool    `json:"isTodaysSpecial"`
		IsAvailable     *bool    `json:"isAvailable"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if body.Name != nil {
		item.Name = *body.Name
	}
	if body.Description != nil {
		item.Description = *body.Description
	}
	if body.Price != nil {
		if *body.Price <= 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("price must be positive"))
			return
		}
		item.Price = *body.Price
	}
	if body.Category != nil {
		if !models.ValidCategory(*body.Category) {
			utils.RespondError(c, http.StatusBadRequest, errors.New("category must be one of tea, snacks, extra"))
			return
		}
		item.Category = *body.Category
	}
	if body.Image != nil {
		item.ImageURL = body.Image
	}
	if body.Discount != nil {
		if *body.Discount < 0 || *body.Discount > 100 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("discount must be between 0 and 100"))
			return
		}
		item.Discount = body.Discount
	}
	if body.IsBestSeller != nil {
		item.IsBestSeller = *body.IsBestSeller
	}
	if body.IsTodaysSpecial != nil {
		item.IsTodaysSpecial = *body.IsTodaysSpecial
	}
	if body.IsAvailable != nil {
		item.IsAvailable = *body.IsAvailable
	}
	item.UpdatedAt = time.Now()

	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

// Delete removes one of the admin's items. Historical orders keep their
// snapshots regardless.
func (mc *MenuController) Delete(c *gin.Context) {
	shopID := c.GetString("shopID")

	res := mc.DB.Where("id = ? AND shop_id = ?", c.Param("item_id"), shopID).Delete(&models.MenuItem{})
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item deleted", nil)
}
