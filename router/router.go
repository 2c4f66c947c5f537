package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/daikochiya/teashop-app/cart"
	"github.com/daikochiya/teashop-app/config"
	"github.com/daikochiya/teashop-app/controllers"
	"github.com/daikochiya/teashop-app/engine"
	"github.com/daikochiya/teashop-app/middlewares"
	"github.com/daikochiya/teashop-app/realtime"
	"github.com/daikochiya/teashop-app/session"
)

// Deps is everything the HTTP surface composes. The services behind it are
// independent; they only meet here.
type Deps struct {
	DB       *gorm.DB
	Cfg      config.Config
	Engine   *engine.Engine
	Carts    *cart.Registry
	Sessions *session.Guard
	Hub      *realtime.Hub
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.CORSMiddleware())
	r.Use(middlewares.LoggerMiddleware())

	authCtrl := controllers.NewAuthController(deps.DB)
	shopCtrl := controllers.NewShopController(deps.DB, deps.Cfg)
	menuCtrl := controllers.NewMenuController(deps.DB)
	orderCtrl := controllers.NewOrderController(deps.DB, deps.Engine, deps.Carts, deps.Sessions)
	qrCtrl := controllers.NewQRController(deps.DB, deps.Cfg)
	wsCtrl := controllers.NewWSController(deps.Hub)

	r.Static("/uploads", deps.Cfg.UploadDir)

	api := r.Group("/api/v1")

	api.POST("/auth/login", authCtrl.Login)

	// Customer flow, keyed by shop slug from the QR-code URL.
	shops := api.Group("/shops/:slug")
	{
		shops.GET("", shopCtrl.GetShopBySlug)
		shops.GET("/menu", menuCtrl.ListForShop)
		shops.GET("/cart", orderCtrl.GetCart)
		shops.POST("/cart/items", orderCtrl.AddCartItem)
		shops.PATCH("/cart/items/:item_id", orderCtrl.UpdateCartItem)
		shops.DELETE("/cart/items/:item_id", orderCtrl.RemoveCartItem)
		shops.POST("/checkout", orderCtrl.Checkout)
	}

	// Customer order tracking.
	api.GET("/orders/:order_id", orderCtrl.GetOrder)

	// Admin flow, scoped to the shop in the token.
	admin := api.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(), middlewares.AdminOnly())
	{
		admin.GET("/shop", shopCtrl.GetSettings)
		admin.PATCH("/shop", shopCtrl.UpdateSettings)
		admin.POST("/shop/logo", shopCtrl.UploadLogo)
		admin.GET("/overview", shopCtrl.Overview)

		admin.GET("/menu", menuCtrl.ListAll)
		admin.POST("/menu", menuCtrl.Create)
		admin.PATCH("/menu/:item_id", menuCtrl.Update)
		admin.DELETE("/menu/:item_id", menuCtrl.Delete)

		admin.GET("/orders", orderCtrl.ListOrders)
		admin.PATCH("/orders/:order_id/status", orderCtrl.UpdateStatus)

		admin.GET("/tables/urls", qrCtrl.ListTableURLs)
		admin.GET("/tables/:table/qr", qrCtrl.TableQR)

		admin.GET("/ws", wsCtrl.Stream)
	}

	return r
}
