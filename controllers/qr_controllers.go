package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/daikochiya/teashop-app/config"
	"github.com/daikochiya/teashop-app/models"
	"github.com/daikochiya/teashop-app/utils"
)

type QRController struct {
	DB  *gorm.DB
	Cfg config.Config
}

func NewQRController(db *gorm.DB, cfg config.Config) *QRController {
	return &QRController{DB: db, Cfg: cfg}
}

func (qc *QRController) tableURL(shop *models.Shop, table int) string {
	return fmt.Sprintf("%s/%s?table=%d", qc.Cfg.PublicBaseURL, shop.Slug, table)
}

// ListTableURLs returns the customer entry URL for every table, so the
// admin UI can render the printable QR sheet.
func (qc *QRController) ListTableURLs(c *gin.Context) {
	shopID := c.GetString("shopID")

	var shop models.Shop
	if err := qc.DB.First(&shop, "id = ?", shopID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("shop not found"))
		return
	}

	type tableURL struct {
		TableNumber int    `json:"tableNumber"`
		URL         string `json:"url"`
	}
	urls := make([]tableURL, 0, shop.NumberOfTables)
	for n := 1; n <= shop.NumberOfTables; n++ {
		urls = append(urls, tableURL{TableNumber: n, URL: qc.tableURL(&shop, n)})
	}
	utils.RespondJSON(c, http.StatusOK, "Table URLs", urls)
}

// TableQR renders the QR code PNG for one table.
func (qc *QRController) TableQR(c *gin.Context) {
	shopID := c.GetString("shopID")

	var shop models.Shop
	if err := qc.DB.First(&shop, "id = ?", shopID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("shop not found"))
		return
	}

	table, err := strconv.Atoi(c.Param("table"))
	if err != nil || table < 1 || table > shop.NumberOfTables {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid table number"))
		return
	}

	png, err := qrcode.Encode(qc.tableURL(&shop, table), qrcode.Medium, 256)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
