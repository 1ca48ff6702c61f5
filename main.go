package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/template/html/v2"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vuela/internal/bot"
	"vuela/internal/handlers"
	"vuela/internal/middleware"
	"vuela/internal/models"
	"vuela/internal/repositories"
	"vuela/internal/services"
	"vuela/pkg/rabbitmq"
	"vuela/pkg/telegram"
)

func main() {
	// --- Configuration ---
	// Set up Viper to read configuration from environment variables
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("VIEWS_DIR", "./views")
	viper.SetDefault("SQLITE_PATH", "vuela.db")
	viper.SetDefault("ADMIN_USERNAME", "admin")
	viper.AutomaticEnv() // Load environment variables

	appPort := viper.GetString("APP_PORT")
	botToken := viper.GetString("BOT_TOKEN")
	adminChatID := viper.GetInt64("ADMIN_CHAT_ID")
	jwtSecret := viper.GetString("JWT_SECRET")

	if botToken == "" {
		log.Fatal("BOT_TOKEN is required")
	}
	if adminChatID == 0 {
		log.Fatal("ADMIN_CHAT_ID is required")
	}
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// --- Initialize Database ---
	// Hosted Postgres in production; a local sqlite file otherwise.
	var (
		db  *gorm.DB
		err error
	)
	if dsn := viper.GetString("DATABASE_URL"); dsn != "" {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	} else {
		sqlitePath := viper.GetString("SQLITE_PATH")
		log.Printf("DATABASE_URL not set, using local sqlite at %s", sqlitePath)
		db, err = gorm.Open(sqlite.Open(sqlitePath), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.Admin{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Initialize RabbitMQ Client (optional) ---
	// Lifecycle events are best-effort; without a broker they are skipped.
	var events services.EventPublisher
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, mqErr := rabbitmq.NewClient(rabbitmq.Config{URL: mqURL})
		if mqErr != nil {
			log.Printf("Warning: RabbitMQ unavailable, lifecycle events disabled: %v", mqErr)
		} else {
			defer mqClient.Close() // Ensure the connection is closed on exit
			events = mqClient
		}
	}

	// --- Initialize Telegram Client ---
	tgClient, err := telegram.NewClient(botToken)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram client: %v", err)
	}

	// --- Initialize Repositories ---
	orderRepo := repositories.NewGORMOrderRepository(db)
	adminRepo := repositories.NewGORMAdminRepository(db)

	// --- Initialize Services ---
	orderService := services.NewOrderService(orderRepo, tgClient, events, adminChatID)
	authService := services.NewAuthService(adminRepo, jwtSecret)

	// Seed the dashboard account from configuration.
	if adminPassword := viper.GetString("ADMIN_PASSWORD"); adminPassword != "" {
		if err := authService.EnsureAdmin(viper.GetString("ADMIN_USERNAME"), adminPassword); err != nil {
			log.Fatalf("Failed to seed admin account: %v", err)
		}
	} else {
		log.Println("ADMIN_PASSWORD not set; dashboard account seeding skipped")
	}

	// --- Start Telegram Bot in a Goroutine ---
	chatBot := bot.New(tgClient, orderService, bot.NewSessionStore(), adminChatID)
	go func() {
		log.Println("Starting Telegram bot (long polling)...")
		chatBot.Run(tgClient.Updates())
	}()

	// --- Initialize Fiber App ---
	engine := html.New(viper.GetString("VIEWS_DIR"), ".html")
	app := fiber.New(fiber.Config{
		Views: engine,
	})

	// --- Middleware ---
	app.Use(logger.New()) // Request logger

	// --- Routes ---
	authHandler := handlers.NewAuthHandler(authService)
	dashboardHandler := handlers.NewDashboardHandler(orderService)

	// Login routes (public)
	authHandler.RegisterRoutes(app)

	// --- Health Check Endpoint ---
	// Registered before the protected group: its empty-prefix middleware
	// applies to every route added after it.
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Dashboard routes (require a valid session)
	protected := app.Group("", middleware.AuthRequired(authService))
	dashboardHandler.RegisterRoutes(protected)

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	tgClient.StopPolling()

	// Shutdown Fiber app
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	// RabbitMQ connection close is handled by defer in main
	log.Println("Server gracefully stopped")
}
