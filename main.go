package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"jackpot-ledger-system/handlers"
	"jackpot-ledger-system/middleware"
	"jackpot-ledger-system/models"
	"jackpot-ledger-system/services"
	"jackpot-ledger-system/utils"
	"jackpot-ledger-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Wallet{},
		&models.PlatformBalance{},
		&models.Jackpot{},
		&models.Ticket{},
		&models.Transaction{},
		&models.PayoutDestination{},
		&models.Draw{},
		&models.Winner{},
		&models.UserProgress{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// --- CONFIGURE external collaborators ---
	providerURL := os.Getenv("PAYMENT_PROVIDER_URL")
	if providerURL == "" {
		log.Fatal("PAYMENT_PROVIDER_URL environment variable not set")
	}
	providerToken := os.Getenv("PAYMENT_PROVIDER_TOKEN")
	if providerToken == "" {
		log.Fatal("PAYMENT_PROVIDER_TOKEN environment variable not set")
	}
	provider := services.NewHTTPPaymentProvider(providerURL, providerToken)

	var notifier services.Notifier = services.NoopNotifier{}
	if notifyURL := os.Getenv("NOTIFY_SERVICE_URL"); notifyURL != "" {
		notifier = services.NewNotificationClient(notifyURL, os.Getenv("LEDGER_SERVICE_TOKEN"))
	} else {
		log.Println("⚠️  NOTIFY_SERVICE_URL not set — notifications disabled")
	}
	// --- END CONFIG ---

	walletService := services.NewWalletService(db)
	progressionService := services.NewProgressionService(db)
	jackpotService := services.NewJackpotService(db)
	ticketService := services.NewTicketService(db, walletService, progressionService, notifier)
	transactionService := services.NewTransactionService(db, walletService, provider, notifier)
	settlementService := services.NewSettlementService(db, walletService, progressionService, notifier)
	withdrawalService := services.NewWithdrawalService(db, walletService, provider, notifier)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	payoutWorker := workers.NewPayoutWorker(db, withdrawalService)
	go payoutWorker.Run(ctx, 1*time.Minute)

	reconciliationWorker := workers.NewReconciliationWorker(db)
	go reconciliationWorker.Run(ctx, 15*time.Minute)

	settlementService.StartSettlementScheduler()

	// ✅ Setup routes — enforced Gateway auth + consistent /s/admin prefix
	handlers.SetupJackpotRoutes(app, jackpotService, ticketService, settlementService)
	handlers.SetupTransactionRoutes(app, transactionService, walletService)
	handlers.SetupWithdrawalRoutes(app, withdrawalService)
	handlers.SetupProgressionRoutes(app, progressionService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Settlement sweep running (every 1m)")
	log.Println("✅ Payout worker running (every 1m)")
	log.Println("✅ Reconciliation audit running (every 15m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
