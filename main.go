package main

import (
	"context"
	"log"
	"strings"

	api "inboxai-backend/cmd/api"
	authdomain "inboxai-backend/internal/auth/domain"
	authrepo "inboxai-backend/internal/auth/repository"
	authusecase "inboxai-backend/internal/auth/usecase"
	calendarusecase "inboxai-backend/internal/calendar/usecase"
	emailusecase "inboxai-backend/internal/email/usecase"
	"inboxai-backend/internal/notification"
	syncsvc "inboxai-backend/internal/sync"
	"inboxai-backend/pkg/chroma"
	"inboxai-backend/pkg/config"
	"inboxai-backend/pkg/database"
	"inboxai-backend/pkg/fcm"
	"inboxai-backend/pkg/gcalendar"
	"inboxai-backend/pkg/gmail"
	"inboxai-backend/pkg/sse"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&authdomain.User{}, &authdomain.RefreshToken{}, &authdomain.FCMToken{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authrepo.NewUserRepository(db)
	fcmTokenRepo := authrepo.NewFCMTokenRepository(db)

	// Initialize SSE Manager
	sseManager := sse.NewManager()
	go sseManager.Run()

	// Initialize Google provider clients
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
	calendarService := gcalendar.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)

	// Initialize FCM Client (optional, alerts degrade to SSE only)
	var fcmClient *fcm.Client
	if cfg.FirebaseCredentials != "" {
		fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("Warning: Failed to initialize FCM client (push notifications disabled): %v", err)
			fcmClient = nil
		}
	} else {
		log.Println("No Firebase credentials configured, FCM disabled")
	}

	// Initialize Chroma client for semantic search (optional)
	var vectorIndex emailusecase.VectorIndex
	if cfg.ChromaAPIKey != "" {
		chromaClient, err := chroma.NewChromaClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Chroma client. Semantic search will not be available: %v", err)
		} else {
			vectorIndex = chromaClient
			log.Println("Chroma client initialized successfully")
		}
	} else {
		log.Println("Warning: CHROMA_API_KEY not set. Semantic search will not be available.")
	}

	// Initialize use cases (dependency injection)
	authUc := authusecase.NewAuthUsecase(userRepo, cfg)
	persister := authUc.TokenPersister

	notifier := notification.NewNotifier(sseManager, fcmTokenRepo, fcmClient)
	emailUc := emailusecase.NewEmailUsecase(gmailService, vectorIndex, notifier, persister, cfg.SyncBatchSize)
	calendarUc := calendarusecase.NewCalendarUsecase(calendarService, persister)

	// Initialize Notification Service (Pub/Sub)
	// Only start if project ID is configured
	var notifService *notification.Service
	if cfg.GoogleProjectID != "" {
		// Extract short topic name from full resource name if necessary
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}
		if topicName == "" {
			topicName = "gmail-updates"
		}

		notifService, err = notification.NewService(cfg.GoogleProjectID, topicName, userRepo, gmailService, emailUc, notifier, persister, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("Failed to initialize notification service: %v", err)
			notifService = nil
		} else {
			go notifService.Start(context.Background())
		}
	} else {
		log.Println("GOOGLE_PROJECT_ID not configured, notification service disabled")
	}

	// Start background sync for connected accounts
	scheduler := syncsvc.NewScheduler(userRepo, emailUc, calendarUc, cfg.SyncInterval)
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP handler
	handler := api.NewHandler(authUc, emailUc, calendarUc, fcmTokenRepo, sseManager, cfg, notifService, scheduler)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
