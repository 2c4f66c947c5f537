package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/daikochiya/teashop-app/config"
	"github.com/daikochiya/teashop-app/models"
	"github.com/daikochiya/teashop-app/utils"
)

type ShopController struct {
	DB  *gorm.DB
	Cfg config.Config
}

func NewShopController(db *gorm.DB, cfg config.Config) *ShopController {
	return &ShopController{DB: db, Cfg: cfg}
}

// GetShopBySlug is the customer-side entry point: it resolves the shop
// context from the routing slug carried by the QR-code URL.
func (sc *ShopController) GetShopBySlug(c *gin.Context) {
	var shop models.Shop
	if err := sc.DB.Where("slug = ?", c.Param("slug")).First(&shop).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("shop not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Shop detail", shop)
}

// GetSettings returns the admin's own shop.
func (sc *ShopController) GetSettings(c *gin.Context) {
	shopID := c.GetString("shopID")

	var shop models.Shop
	if err := sc.DB.First(&shop, "id = ?", shopID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("shop not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Shop settings", shop)
}

// UpdateSettings applies a partial update to the admin's shop.
func (sc *ShopController) UpdateSettings(c *gin.Context) {
	shopID := c.GetString("shopID")

	var shop models.Shop
	if err := sc.DB.First(&shop, "id = ?", shopID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("shop not found"))
		return
	}

	var body struct {
		Name                 *string `json:"name"`
		Description          *string `json:"description"`
		NumberOfTables       *int    `json:"numberOfTables"`
		IsOpen               *bool   `json:"isOpen"`
		SoundAlerts          *bool   `json:"soundAlerts"`
		BrowserNotifications *bool   `json:"browserNotifications"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if body.Name != nil {
		shop.Name = *body.Name
	}
	if body.Description != nil {
		shop.Description = *body.Description
	}
	if body.NumberOfTables != nil {
		if *body.NumberOfTables < 1 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("numberOfTables must be positive"))
			return
		}
		shop.NumberOfTables = *body.NumberOfTables
	}
	if body.IsOpen != nil {
		shop.IsOpen = *body.IsOpen
	}
	if body.SoundAlerts != nil {
		shop.SoundAlerts = *body.SoundAlerts
	}
	if body.BrowserNotifications != nil {
		shop.BrowserNotifications = *body.BrowserNotifications
	}
	shop.UpdatedAt = time.Now()

	if err := sc.DB.Save(&shop).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Settings updated", shop)
}

// UploadLogo stores the shop's logo under a shop-scoped key and saves the
// resulting public URL on the shop.
func (sc *ShopController) UploadLogo(c *gin.Context) {
	shopID := c.GetString("shopID")

	var shop models.Shop
	if err := sc.DB.First(&shop, "id = ?", shopID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("shop not found"))
		return
	}

	file, err := c.FormFile("logo")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("logo file is required"))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".webp" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("unsupported image type"))
		return
	}

	dir := filepath.Join(sc.Cfg.UploadDir, "logos")
	if err := os.MkdirAll(dir, 0755); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	filename := fmt.Sprintf("%s-%d%s", shopID, time.Now().UnixNano(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(dir, filename)); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	logoURL := fmt.Sprintf("%s/uploads/logos/%s", sc.Cfg.PublicBaseURL, filename)
	shop.LogoURL = &logoURL
	shop.UpdatedAt = time.Now()
	if err := sc.DB.Save(&shop).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Logo uploaded", gin.H{"logoUrl": logoURL})
}

// Overview returns the admin dashboard counters. Chart rendering happens
// client-side; this endpoint only aggregates.
func (sc *ShopController) Overview(c *gin.Context) {
	shopID := c.GetString("shopID")

	var totalOrders int64
	if err := sc.DB.Model(&models.Order{}).Where("shop_id = ?", shopID).Count(&totalOrders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var totalRevenue float64
	if err := sc.DB.Model(&models.Order{}).
		Where("shop_id = ? AND status = ?", shopID, models.StatusReady.StoreLabel()).
		Select("COALESCE(SUM(total), 0)").Scan(&totalRevenue).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	type statusCount struct {
		Status models.OrderStatus `json:"status"`
		Count  int64              `json:"count"`
	}
	var byStatus []statusCount
	if err := sc.DB.Model(&models.Order{}).
		Where("shop_id = ?", shopID).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var avgOrderValue float64
	if totalOrders > 0 {
		var sum float64
		if err := sc.DB.Model(&models.Order{}).
			Where("shop_id = ?", shopID).
			Select("COALESCE(SUM(total), 0)").Scan(&sum).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		avgOrderValue = sum / float64(totalOrders)
	}

	utils.RespondJSON(c, http.StatusOK, "Shop overview", gin.H{
		"totalOrders":       totalOrders,
		"totalRevenue":      totalRevenue,
		"averageOrderValue": avgOrderValue,
		"ordersByStatus":    byStatus,
	})
}
