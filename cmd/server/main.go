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
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/dayledger/backend/docs"
	"github.com/dayledger/backend/internal/database"
	"github.com/dayledger/backend/internal/filestore"
	"github.com/dayledger/backend/internal/identity"
	mW "github.com/dayledger/backend/internal/middleware"
	"github.com/dayledger/backend/internal/models"
	"github.com/dayledger/backend/internal/services"
)

// @title Day Ledger Backend API
// @version 1.0
// @description Multi-tenant day book, personal ledger and bank bookkeeping API
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	viper.ReadInConfig()

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

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")

	viper.BindEnv("identity.url", "IDENTITY_URL")
	viper.BindEnv("identity.anon_key", "IDENTITY_ANON_KEY")
	viper.BindEnv("identity.service_key", "IDENTITY_SERVICE_KEY")
	viper.BindEnv("identity.timeout_seconds", "IDENTITY_TIMEOUT_SECONDS")

	viper.BindEnv("storage.url", "STORAGE_URL")
	viper.BindEnv("storage.service_key", "STORAGE_SERVICE_KEY")
	viper.BindEnv("storage.bucket", "STORAGE_BUCKET")
	viper.BindEnv("storage.timeout_seconds", "STORAGE_TIMEOUT_SECONDS")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "Day Ledger Backend API"
	docs.SwaggerInfo.Description = "Multi-tenant day book, personal ledger and bank bookkeeping API"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize backing services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	identityClient := identity.NewClient()
	fileStore := filestore.NewClient()

	authService := services.NewAuthService(identityClient, redisClient)
	dayBookService := services.NewDayBookService(db, fileStore, services.NewSalaryPayments(db))
	personalService := services.NewPersonalService(db)
	bankingService := services.NewBankingService(db, redisClient)

	// Initialize auth middleware with the identity provider and Redis
	mW.InitAuthMiddleware(identityClient, redisClient)

	r := newRouter(authService, dayBookService, personalService, bankingService)

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
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}

// newRouter wires middleware and the versioned API surface. Paths here must
// stay in step with the swagger annotations on each handler.
func newRouter(
	authService *services.AuthService,
	dayBookService *services.DayBookService,
	personalService *services.PersonalService,
	bankingService *services.BankingService,
) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
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

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/create-admin", authService.CreateAdmin)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.Authenticate)

			r.Get("/auth/me", authService.Me)
			r.Post("/auth/logout", authService.Logout)

			// Admin-only user management
			r.Group(func(r chi.Router) {
				r.Use(mW.RequireRole([]models.UserRole{models.RoleAdmin}))

				r.Post("/auth/register", authService.Register)
				r.Get("/auth/users", authService.ListUsers)
			})

			// Day book ledger
			r.Route("/daybook", func(r chi.Router) {
				r.Post("/create", dayBookService.Create)
				r.Get("/list", dayBookService.List)
				r.Get("/summary/amounts", dayBookService.PaymentSummary)
				r.Get("/revenue/net", dayBookService.NetRevenue)
				r.Get("/download/excel", dayBookService.DownloadExcel)
				r.Get("/{id}", dayBookService.GetByID)
				r.Put("/update/{id}", dayBookService.Update)
				r.Delete("/delete/{id}", dayBookService.Delete)
			})

			// Personal ledger
			r.Route("/personal", func(r chi.Router) {
				r.Post("/", personalService.Create)
				r.Get("/", personalService.List)
				r.Get("/balance", personalService.Balance)
				r.Get("/{id}", personalService.Get)
				r.Put("/{id}", personalService.Update)
				r.Delete("/{id}", personalService.Delete)
			})

			// Bank bookkeeping
			r.Route("/daybank", func(r chi.Router) {
				r.Route("/accounts", func(r chi.Router) {
					r.Post("/create", bankingService.CreateAccount)
					r.Get("/list", bankingService.ListAccounts)
					r.Get("/{id}", bankingService.GetAccount)
					r.Put("/update/{id}", bankingService.UpdateAccount)
					r.Delete("/delete/{id}", bankingService.DeleteAccount)
					r.Get("/{id}/balance", bankingService.GetBalance)
					r.Get("/{id}/qr", bankingService.AccountQR)
				})

				r.Route("/transactions", func(r chi.Router) {
					r.Post("/deposit", bankingService.Deposit)
					r.Post("/withdraw", bankingService.Withdraw)
					r.Post("/transfer", bankingService.Transfer)
					r.Post("/cheque", bankingService.Cheque)
					r.Get("/list", bankingService.ListTransactions)
					r.Get("/account/{account_id}", bankingService.TransactionsByAccount)
					r.Get("/type/{type}", bankingService.TransactionsByType)
					r.Get("/date-range", bankingService.TransactionsByDateRange)
					r.Get("/{id}", bankingService.GetTransaction)
				})
			})
		})
	})

	return r
}
