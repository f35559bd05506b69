package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/deenverse/deenverse/internal/config"
	"github.com/deenverse/deenverse/internal/database"
	"github.com/deenverse/deenverse/internal/handlers"
	"github.com/deenverse/deenverse/internal/repository"
	cron "github.com/deenverse/deenverse/internal/scheduler"
	"github.com/deenverse/deenverse/internal/services"
	"github.com/deenverse/deenverse/pkg/email"
	"github.com/deenverse/deenverse/pkg/logger"
	"github.com/deenverse/deenverse/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	// Connect to MongoDB
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Index creation error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	connRepo := repository.NewConnectionRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	postRepo := repository.NewPostRepository(db)

	// --- Services ---
	mailer := email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPSender, cfg.SMTPPassword)
	userService := services.NewUserService(userRepo, mailer, cfg.BaseURL)
	notificationService := services.NewNotificationService(notifRepo)
	connectionService := services.NewConnectionService(connRepo, userRepo, notificationService)
	postService := services.NewPostService(postRepo, userRepo, notificationService)

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService, connectionService, cfg)
	imaamHandler := handlers.NewImaamHandler(userService, connectionService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	postHandler := handlers.NewPostHandler(postService)

	// Initialize Gorilla Mux router
	router := mux.NewRouter()

	// Public auth routes, rate limited per IP
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	authRoutes := router.PathPrefix("/users").Subrouter()
	authRoutes.Use(limiter.Middleware)
	authRoutes.HandleFunc("/register", userHandler.RegisterUserHandler).Methods("POST")
	authRoutes.HandleFunc("/login", userHandler.LoginUserHandler).Methods("POST")
	authRoutes.HandleFunc("/verify", userHandler.VerifyEmailHandler).Methods("GET")
	authRoutes.HandleFunc("/request-password-reset", userHandler.RequestPasswordResetHandler).Methods("POST")
	authRoutes.HandleFunc("/reset-password", userHandler.ResetPasswordHandler).Methods("POST")

	// Protected user routes. Fixed paths are registered before /{id}.
	protectedUserRoutes := router.PathPrefix("/users").Subrouter()
	protectedUserRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedUserRoutes.Use(middleware.UpdateLastActiveMiddleware(userService))
	protectedUserRoutes.HandleFunc("/me", userHandler.GetMeHandler).Methods("GET")
	protectedUserRoutes.HandleFunc("/search", userHandler.SearchUsersHandler).Methods("GET")
	protectedUserRoutes.HandleFunc("/{id}", userHandler.GetUserHandler).Methods("GET")
	protectedUserRoutes.HandleFunc("/{id}", userHandler.UpdateUserHandler).Methods("PATCH")
	protectedUserRoutes.HandleFunc("/{id}/follow", userHandler.FollowHandler).Methods("POST")
	protectedUserRoutes.HandleFunc("/{id}/follow", userHandler.UnfollowHandler).Methods("DELETE")

	// Imaam directory and the connection workflow
	imaamRoutes := router.PathPrefix("/imaam").Subrouter()
	imaamRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	imaamRoutes.Use(middleware.UpdateLastActiveMiddleware(userService))
	imaamRoutes.HandleFunc("", imaamHandler.ListImaamsHandler).Methods("GET")
	imaamRoutes.HandleFunc("/connections/{id}/accept", imaamHandler.AcceptRequestHandler).Methods("POST")
	imaamRoutes.HandleFunc("/connections/{id}/reject", imaamHandler.RejectRequestHandler).Methods("POST")
	imaamRoutes.HandleFunc("/{id}/connect", imaamHandler.ConnectHandler).Methods("POST")

	// Incoming request list is the teacher's inbox
	imaamRoutes.Handle("/connections/requests", middleware.RequireRole("teacher")(http.HandlerFunc(imaamHandler.PendingRequestsHandler))).Methods("GET")

	// Notification routes
	notificationRoutes := router.PathPrefix("/notifications").Subrouter()
	notificationRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	notificationRoutes.HandleFunc("", notificationHandler.ListHandler).Methods("GET")
	notificationRoutes.HandleFunc("/unread-count", notificationHandler.UnreadCountHandler).Methods("GET")
	notificationRoutes.HandleFunc("/read-all", notificationHandler.MarkAllReadHandler).Methods("POST")
	notificationRoutes.HandleFunc("/{id}/read", notificationHandler.MarkReadHandler).Methods("POST")

	// Post routes
	postRoutes := router.PathPrefix("/posts").Subrouter()
	postRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	postRoutes.Use(middleware.UpdateLastActiveMiddleware(userService))
	postRoutes.HandleFunc("", postHandler.CreatePostHandler).Methods("POST")
	postRoutes.HandleFunc("", postHandler.FeedHandler).Methods("GET")
	postRoutes.HandleFunc("/{id}", postHandler.GetPostHandler).Methods("GET")
	postRoutes.HandleFunc("/{id}", postHandler.DeletePostHandler).Methods("DELETE")
	postRoutes.HandleFunc("/{id}/comments", postHandler.AddCommentHandler).Methods("POST")
	postRoutes.HandleFunc("/{id}/like", postHandler.ToggleLikeHandler).Methods("POST")

	// Admin routes
	adminRoutes := router.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	adminRoutes.Use(middleware.RequireRole("admin"))
	adminRoutes.HandleFunc("/users", userHandler.AdminGetAllUsersHandler).Methods("GET")
	adminRoutes.HandleFunc("/users/{id}/deactivate", userHandler.AdminDeactivateUserHandler).Methods("POST")
	adminRoutes.HandleFunc("/imaams/{id}/verify", userHandler.AdminVerifyTeacherHandler).Methods("POST")
	adminRoutes.HandleFunc("/posts/{id}/pin", postHandler.PinPostHandler).Methods("POST")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	// Background maintenance jobs
	cron.StartMaintenanceCronJobs(notificationService, connectionService)

	// Start the HTTP server
	port := cfg.Port
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	fmt.Printf("Server running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
