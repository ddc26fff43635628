package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/bryantttp/bankingwebapp/internal/config"
	"github.com/bryantttp/bankingwebapp/internal/database"
	"github.com/bryantttp/bankingwebapp/internal/handlers"
	"github.com/bryantttp/bankingwebapp/internal/services"
)

func main() {
	// Initialize config
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	viper.SetEnvPrefix("")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	billingCfg := config.LoadBillingConfig()
	fxCfg := config.LoadFXConfig()

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	clock := services.SystemClock()
	audit := services.NewAuditLogger(redisClient)

	rates := services.NewRateService(fxCfg.SnapshotPath, fxCfg.FeedURL, fxCfg.FetchTimeout, redisClient)
	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), fxCfg.FetchTimeout)
	rates.Bootstrap(bootstrapCtx)
	cancelBootstrap()

	accountService := services.NewAccountService(db)
	cardService := services.NewCreditCardService(db)
	ledgerService := services.NewLedgerService(db, cardService, audit)
	settlementService := services.NewSettlementService(fxCfg.BankBIC)
	transferService := services.NewTransferService(db, rates, accountService, cardService,
		ledgerService, settlementService, audit, clock)
	billingService := services.NewBillingService(db, cardService, ledgerService, audit, clock, billingCfg)

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	billingService.Schedule(schedulerCtx)
	if billingCfg.RunOnStartup {
		if err := billingService.RunCycle(schedulerCtx, clock.Now()); err != nil {
			log.Printf("[BILLING] Startup cycle failed: %v", err)
		}
	}

	transferHandler := handlers.NewTransferHandler(transferService)
	accountHandler := handlers.NewAccountHandler(accountService, cardService, ledgerService)
	rateHandler := handlers.NewRateHandler(rates)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/accounts", accountHandler.CreateAccount)
		r.Get("/accounts/{accountID}", accountHandler.GetAccount)
		r.Put("/accounts/{accountID}/status", accountHandler.ChangeAccountStatus)
		r.Get("/accounts/{accountID}/transactions", accountHandler.AccountHistory)
		r.Get("/accounts/{accountID}/statement", accountHandler.AccountStatement)

		r.Post("/cards", accountHandler.IssueCard)
		r.Get("/cards/{cardID}", accountHandler.GetCard)
		r.Put("/cards/{cardID}/status", accountHandler.ChangeCardStatus)
		r.Get("/cards/{cardID}/statement", accountHandler.CardStatement)

		r.Post("/transfers", transferHandler.Transfer)
		r.Post("/deposits", transferHandler.Deposit)
		r.Post("/withdrawals", transferHandler.Withdraw)
		r.Post("/purchases", transferHandler.Purchase)
		r.Post("/payments", transferHandler.PayCard)

		r.Get("/currencies", rateHandler.ListCurrencies)
		r.Get("/currencies/{code}", rateHandler.GetCurrency)
		r.Post("/currencies/convert", rateHandler.Quote)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	stopScheduler()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
