package api

import (
	"context"
	"log"
	"time"

	authrepo "inboxai-backend/internal/auth/repository"
	authusecase "inboxai-backend/internal/auth/usecase"
	calendarusecase "inboxai-backend/internal/calendar/usecase"
	chatusecase "inboxai-backend/internal/chat/usecase"
	emailusecase "inboxai-backend/internal/email/usecase"
	"inboxai-backend/internal/notification"
	syncsvc "inboxai-backend/internal/sync"
	"inboxai-backend/pkg/config"
	"inboxai-backend/pkg/gemini"
	"inboxai-backend/pkg/sse"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase         authusecase.AuthUsecase
	emailUsecase        emailusecase.EmailUsecase
	calendarUsecase     calendarusecase.CalendarUsecase
	chatUsecase         chatusecase.ChatUsecase
	fcmRepo             authrepo.FCMTokenRepository
	sseManager          *sse.Manager
	config              *config.Config
	geminiService       *gemini.GeminiService
	notificationService *notification.Service
}

// geminiLLMAdapter binds the chat assistant to the Gemini client, always
// resolving the model from runtime settings so a PUT on the settings API
// takes effect on the next message.
type geminiLLMAdapter struct {
	service *gemini.GeminiService
}

func (a *geminiLLMAdapter) ClassifyIntent(ctx context.Context, message string, actions []string) (*chatusecase.Intent, error) {
	result, err := a.service.ClassifyIntent(ctx, GetRuntimeGeminiModel(), message, actions)
	if err != nil {
		return nil, err
	}
	return &chatusecase.Intent{Action: result.Action, Params: result.Params}, nil
}

func (a *geminiLLMAdapter) GenerateReply(ctx context.Context, message, contextText string) (string, error) {
	return a.service.GenerateReply(ctx, GetRuntimeGeminiModel(), message, contextText)
}

func NewHandler(authUc authusecase.AuthUsecase, emailUc emailusecase.EmailUsecase, calendarUc calendarusecase.CalendarUsecase, fcmRepo authrepo.FCMTokenRepository, sseManager *sse.Manager, cfg *config.Config, notificationService *notification.Service, scheduler *syncsvc.Scheduler) *Handler {
	// Initialize runtime config for settings API
	var intervalChanged func(interval time.Duration)
	if scheduler != nil {
		intervalChanged = scheduler.SetInterval
	}
	InitRuntimeConfig(cfg.GeminiModel, cfg.SyncInterval, intervalChanged)

	geminiService := gemini.NewGeminiService(cfg.GeminiApiKey, cfg.GeminiModel)
	if cfg.GeminiApiKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set. Assistant replies will use static fallbacks.")
	}

	chatUc := chatusecase.NewChatUsecase(&geminiLLMAdapter{service: geminiService}, emailUc, calendarUc)

	return &Handler{
		authUsecase:         authUc,
		emailUsecase:        emailUc,
		calendarUsecase:     calendarUc,
		chatUsecase:         chatUc,
		fcmRepo:             fcmRepo,
		sseManager:          sseManager,
		config:              cfg,
		geminiService:       geminiService,
		notificationService: notificationService,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h)

	return r.Run(addr)
}
