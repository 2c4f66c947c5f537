package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/daikochiya/teashop-app/cart"
	"github.com/daikochiya/teashop-app/engine"
	"github.com/daikochiya/teashop-app/models"
	"github.com/daikochiya/teashop-app/session"
	"github.com/daikochiya/teashop-app/utils"
)

// SessionKeyHeader identifies the customer's browsing session. The client
// generates an opaque key once and sends it with every cart request.
const SessionKeyHeader = "X-Session-Key"

type OrderController struct {
	DB       *gorm.DB
	Engine   *engine.Engine
	Carts    *cart.Registry
	Sessions *session.Guard
}

func NewOrderController(db *gorm.DB, eng *engine.Engine, carts *cart.Registry, sessions *session.Guard) *OrderController {
	return &OrderController{DB: db, Engine: eng, Carts: carts, Sessions: sessions}
}

func sessionKey(c *gin.Context) (string, bool) {
	key := c.GetHeader(SessionKeyHeader)
	if key == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("missing "+SessionKeyHeader+" header"))
		return "", false
	}
	return key, true
}

func (oc *OrderController) shopBySlug(c *gin.Context) (*models.Shop, bool) {
	var shop models.Shop
	if err := oc.DB.Where("slug = ?", c.Param("slug")).First(&shop).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("shop not found"))
		return nil, false
	}
	return &shop, true
}

// GetCart returns the session's current cart.
func (oc *OrderController) GetCart(c *gin.Context) {
	key, ok := sessionKey(c)
	if !ok {
		return
	}
	lines, total := oc.Carts.Snapshot(key)
	utils.RespondJSON(c, http.StatusOK, "Cart", gin.H{
		"items": lines,
		"total": total,
	})
}

// AddCartItem adds one unit of a menu item to the session's cart.
func (oc *OrderController) AddCartItem(c *gin.Context) {
	key, ok := sessionKey(c)
	if !ok {
		return
	}
	shop, ok := oc.shopBySlug(c)
	if !ok {
		return
	}

	var body struct {
		MenuItemID string `json:"menuItemId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.MenuItem
	if err := oc.DB.Where("id = ? AND shop_id = ?", body.MenuItemID, shop.ID).First(&item).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}
	if !item.IsAvailable {
		utils.RespondError(c, http.StatusConflict, errors.New("menu item is not available"))
		return
	}

	oc.Carts.Add(key, item)
	lines, total := oc.Carts.Snapshot(key)
	utils.RespondJSON(c, http.StatusOK, "Item added", gin.H{"items": lines, "total": total})
}

// UpdateCartItem overwrites a line's quantity; zero or negative removes it.
func (oc *OrderController) UpdateCartItem(c *gin.Context) {
	key, ok := sessionKey(c)
	if !ok {
		return
	}

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	oc.Carts.SetQuantity(key, c.Param("item_id"), body.Quantity)
	lines, total := oc.Carts.Snapshot(key)
	utils.RespondJSON(c, http.StatusOK, "Cart updated", gin.H{"items": lines, "total": total})
}

// RemoveCartItem deletes a line from the session's cart.
func (oc *OrderController) RemoveCartItem(c *gin.Context) {
	key, ok := sessionKey(c)
	if !ok {
		return
	}
	oc.Carts.Remove(key, c.Param("item_id"))
	lines, total := oc.Carts.Snapshot(key)
	utils.RespondJSON(c, http.StatusOK, "Item removed", gin.H{"items": lines, "total": total})
}

// Checkout converts the session's cart into an order. The cart is cleared
// and the table binding stored only after the engine reports success, so a
// failed checkout leaves the cart untouched for a retry.
func (oc *OrderController) Checkout(c *gin.Context) {
	key, ok := sessionKey(c)
	if !ok {
		return
	}
	shop, ok := oc.shopBySlug(c)
	if !ok {
		return
	}

	var body struct {
		TableNumber  int    `json:"tableNumber"`
		CustomerName string `json:"customerName"`
		Notes        string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	tableNumber := body.TableNumber
	if tableNumber == 0 {
		// Fall back to the session's stored table binding, if still valid.
		if stored, err := oc.Sessions.Get(c.Request.Context(), key); err == nil && stored != nil && stored.ShopID == shop.ID {
			tableNumber = stored.TableNumber
		}
	}

	lines, _ := oc.Carts.Snapshot(key)
	order, err := oc.Engine.CreateOrder(c.Request.Context(), shop, tableNumber, lines, engine.CheckoutDetails{
		CustomerName: body.CustomerName,
		Notes:        body.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrEmptyCart),
			errors.Is(err, engine.ErrTableOutOfRange):
			utils.RespondError(c, http.StatusBadRequest, err)
		case errors.Is(err, engine.ErrShopClosed):
			utils.RespondError(c, http.StatusConflict, err)
		default:
			utils.RespondError(c, http.StatusInternalServerError, errors.New("failed to place order"))
		}
		return
	}

	oc.Carts.Clear(key)
	if err := oc.Sessions.Set(c.Request.Context(), key, session.TableSession{
		TableNumber: tableNumber,
		ShopID:      shop.ID,
		ShopSlug:    shop.Slug,
	}); err != nil {
		// The order is already placed; a session-store hiccup only costs
		// the table prefill on the next visit.
		utils.ErrorLogger.Printf("storing table session failed: %v", err)
	}

	utils.RespondJSON(c, http.StatusCreated, "Order placed", order)
}

// GetOrder returns one order with its item snapshots. This is the customer
// tracking endpoint.
func (oc *OrderController) GetOrder(c *gin.Context) {
	var order models.Order
	if err := oc.DB.Preload("Items").First(&order, "id = ?", c.Param("order_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("order not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// ListOrders returns the admin's full order list, most recent first.
func (oc *OrderController) ListOrders(c *gin.Context) {
	shopID := c.GetString("shopID")

	var orders []models.Order
	if err := oc.DB.Preload("Items").
		Where("shop_id = ?", shopID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// UpdateStatus advances an order through the workflow. "preparing" and
// "started" are accepted interchangeably.
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	shopID := c.GetString("shopID")
	orderID := c.Param("order_id")

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	// Ownership check before touching the lifecycle.
	var owned int64
	if err := oc.DB.Model(&models.Order{}).Where("id = ? AND shop_id = ?", orderID, shopID).Count(&owned).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if owned == 0 {
		utils.RespondError(c, http.StatusNotFound, errors.New("order not found"))
		return
	}

	order, err := oc.Engine.AdvanceStatus(c.Request.Context(), orderID, body.Status)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrOrderNotFound):
			utils.RespondError(c, http.StatusNotFound, err)
		case errors.Is(err, engine.ErrUnknownStatus):
			utils.RespondError(c, http.StatusBadRequest, err)
		case errors.Is(err, engine.ErrInvalidTransition):
			utils.RespondError(c, http.StatusConflict, err)
		default:
			utils.RespondError(c, http.StatusInternalServerError, errors.New("failed to update order"))
		}
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}
