package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/daikochiya/teashop-app/cart"
	"github.com/daikochiya/teashop-app/config"
	"github.com/daikochiya/teashop-app/engine"
	"github.com/daikochiya/teashop-app/models"
	"github.com/daikochiya/teashop-app/realtime"
	"github.com/daikochiya/teashop-app/router"
	"github.com/daikochiya/teashop-app/session"
	"github.com/daikochiya/teashop-app/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	utils.InitLogger()

	cfg := config.Load()

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	utils.InitDB(db)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := db.AutoMigrate(
		&models.Shop{},
		&models.User{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.DBChange{},
	); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	// Table sessions go to Redis when configured, memory otherwise.
	var sessionStore session.Store = session.NewMemoryStore()
	if cfg.RedisAddr != "" {
		sessionStore = session.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		utils.InfoLogger.Printf("Table sessions backed by Redis at %s", cfg.RedisAddr)
	}

	hub := realtime.NewHub()
	feed := realtime.NewFeed(db)
	feed.Interval = 500 * time.Millisecond
	feed.AddSink(hub)
	if len(cfg.KafkaBrokers) > 0 {
		publisher := realtime.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		feed.AddSink(publisher)
		utils.InfoLogger.Printf("Order events published to Kafka topic %s", cfg.KafkaTopic)
	}
	feed.Start()
	defer feed.Stop()

	r := router.SetupRouter(router.Deps{
		DB:       db,
		Cfg:      cfg,
		Engine:   engine.New(db),
		Carts:    cart.NewRegistry(),
		Sessions: session.NewGuard(sessionStore),
		Hub:      hub,
	})

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}
