package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cowrite/internal/api"
	"cowrite/internal/handlers"
	"cowrite/internal/models"
	"cowrite/internal/repositories"
	"cowrite/internal/routers"
	"cowrite/internal/services"
	"cowrite/internal/session"
)

func openDB() (*gorm.DB, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	// local development fallback
	return gorm.Open(sqlite.Open("cowrite.db"), &gorm.Config{})
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev"
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "redis:6379"
	}

	db, err := openDB()
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.User{}, &models.Document{}); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	userRepo := &repositories.UserRepository{DB: db}
	docRepo := &repositories.DocumentRepository{DB: db}

	activity := services.NewActivityPublisher(redisAddr, logger)
	defer activity.Close()

	hub := session.NewHub()

	authHandler := handlers.NewAuthHandler(userRepo, jwtSecret)
	docHandler := handlers.NewDocumentHandler(docRepo)
	collabHandler := api.NewHandlers(logger, hub, userRepo, docRepo, activity, jwtSecret)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Mount("/", routers.New(authHandler, docHandler, collabHandler, jwtSecret))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port
	log.Printf("cowrite-svc listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
