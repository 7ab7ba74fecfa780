package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"calTrackAPI/handlers"
	"calTrackAPI/internal/cache"
	"calTrackAPI/internal/jobs"
	"calTrackAPI/internal/notification"
	"calTrackAPI/middleware"
	"calTrackAPI/services"
)

var (
	dbPool              *pgxpool.Pool
	streakService       *services.StreakService
	userService         *services.UserService
	foodLogService      *services.FoodLogService
	exerciseService     *services.ExerciseService
	wellnessService     *services.WellnessService
	notificationService *services.NotificationService
	aiParserService     *services.AIParserService
	scheduler           *jobs.Scheduler
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	var fcmService *notification.FCMService
	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM, push disabled: %v", err)
		fcmService = nil
	} else {
		log.Println("FCM push provider initialized successfully")
	}

	statsCache := cache.New(16*1024*1024, time.Minute)

	streakService = services.NewStreakService(dbPool)
	notificationService = services.NewNotificationService(dbPool, fcmService)
	userService = services.NewUserService(dbPool, streakService, statsCache)
	foodLogService = services.NewFoodLogService(dbPool, streakService, notificationService)
	exerciseService = services.NewExerciseService(dbPool, streakService, notificationService)
	wellnessService = services.NewWellnessService(dbPool, notificationService)
	aiParserService = services.NewAIParserService(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_MODEL"))

	scheduler = jobs.NewScheduler(streakService, notificationService)

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService)
	foodLogHandler := handlers.NewFoodLogHandler(foodLogService, streakService)
	exerciseHandler := handlers.NewExerciseHandler(exerciseService, streakService)
	wellnessHandler := handlers.NewWellnessHandler(wellnessService)
	aiHandler := handlers.NewAIHandler(aiParserService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "calTrack-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/user/energy-targets", userHandler.GetEnergyTargets).Methods("GET")
	protected.HandleFunc("/user/calendar", userHandler.GetCalendar).Methods("GET")
	protected.HandleFunc("/user/stats", userHandler.GetStats).Methods("GET")
	protected.HandleFunc("/user/stats/days-logged", userHandler.GetDaysLogged).Methods("GET")

	protected.HandleFunc("/food-logs", foodLogHandler.AddFoodLog).Methods("POST")
	protected.HandleFunc("/food-logs/{id}", foodLogHandler.DeleteFoodLog).Methods("DELETE")
	protected.HandleFunc("/food-logs/daily-summary", foodLogHandler.GetDailySummary).Methods("GET")
	protected.HandleFunc("/food-logs/streak", foodLogHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/food-logs/parse", aiHandler.ParseMeal).Methods("POST")

	protected.HandleFunc("/workouts", exerciseHandler.AddWorkout).Methods("POST")
	protected.HandleFunc("/workouts", exerciseHandler.GetWorkouts).Methods("GET")
	protected.HandleFunc("/workouts/{id}", exerciseHandler.DeleteWorkout).Methods("DELETE")
	protected.HandleFunc("/cardio", exerciseHandler.AddCardioSession).Methods("POST")
	protected.HandleFunc("/cardio", exerciseHandler.GetCardioSessions).Methods("GET")
	protected.HandleFunc("/cardio/{id}", exerciseHandler.DeleteCardioSession).Methods("DELETE")
	protected.HandleFunc("/exercise/streak", exerciseHandler.GetStreak).Methods("GET")

	protected.HandleFunc("/wellness/water", wellnessHandler.AddWater).Methods("POST")
	protected.HandleFunc("/wellness/water", wellnessHandler.GetWater).Methods("GET")
	protected.HandleFunc("/wellness/sleep", wellnessHandler.AddSleepLog).Methods("POST")
	protected.HandleFunc("/wellness/steps", wellnessHandler.SetSteps).Methods("PUT")
	protected.HandleFunc("/wellness/weight", wellnessHandler.AddWeightLog).Methods("POST")
	protected.HandleFunc("/wellness/weight", wellnessHandler.GetWeightLogs).Methods("GET")
	protected.HandleFunc("/wellness/weight/progress", wellnessHandler.GetWeightProgress).Methods("GET")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("POST")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("POST")
	protected.HandleFunc("/notifications/devices", notificationHandler.RegisterDevice).Methods("POST")
	protected.HandleFunc("/notifications/devices/{token}", notificationHandler.UnregisterDevice).Methods("DELETE")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	scheduler.Start(context.Background())
	defer scheduler.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
