package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/qrdine/config"
	"github.com/yeremiapane/qrdine/events"
	"github.com/yeremiapane/qrdine/middlewares"
	"github.com/yeremiapane/qrdine/models"
	"github.com/yeremiapane/qrdine/router"
	"github.com/yeremiapane/qrdine/session"
	"github.com/yeremiapane/qrdine/utils"
	"gorm.io/gorm"
)

func init() {
	// Load .env before anything reads the environment
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	for _, envVar := range []string{"CATALOG_BASE_URL", "SELF_SERVICE_BASE_URL"} {
		if os.Getenv(envVar) == "" {
			log.Printf("Warning: %s is not set, tenant features will fail closed", envVar)
		}
	}

	utils.InfoLogger = logrus.New()
	utils.ErrorLogger = logrus.New()

	utils.InfoLogger.SetOutput(os.Stdout)
	utils.ErrorLogger.SetOutput(os.Stderr)

	utils.InfoLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   true,
	})
	utils.ErrorLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   true,
	})
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	utils.InitDB(db)

	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	// Rate limiter (50 requests per second per IP)
	rateLimiter := middlewares.NewRateLimiter(50, 1)

	// Session monitor fires binding expiry and happy-hour flips into the
	// events hub; stopped on shutdown so no timer outlives its state.
	monitor := session.NewMonitor(events.Broadcaster{})
	monitor.Start()
	defer monitor.Stop()

	r := router.SetupRouter(db, monitor)
	r.Use(rateLimiter.RateLimit())

	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Cart{},
		&models.CartLine{},
		&models.TenantConfigCache{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
