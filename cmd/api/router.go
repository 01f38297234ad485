package api

import (
	"net/http"

	authdelivery "inboxai-backend/internal/auth/delivery"
	calendardelivery "inboxai-backend/internal/calendar/delivery"
	chatdelivery "inboxai-backend/internal/chat/delivery"
	emaildelivery "inboxai-backend/internal/email/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	authHandler := authdelivery.NewAuthHandler(h.authUsecase, h.fcmRepo)
	emailHandler := emaildelivery.NewEmailHandler(h.emailUsecase)
	calendarHandler := calendardelivery.NewCalendarHandler(h.calendarUsecase)
	chatHandler := chatdelivery.NewChatHandler(h.chatUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// SSE endpoint
		api.GET("/events", authdelivery.AuthMiddleware(h.authUsecase), func(c *gin.Context) {
			userID := c.GetString("userID")
			h.sseManager.ServeHTTP(c, userID)
		})

		// Pub/Sub push endpoint for Gmail notifications. Unauthenticated
		// like any webhook; the payload only carries an address and a
		// history id.
		if h.notificationService != nil {
			api.POST("/notifications/pubsub", h.notificationService.HandlePush)
		}

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/google", authdelivery.AuthMiddleware(h.authUsecase), authHandler.GoogleConnect)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", authdelivery.AuthMiddleware(h.authUsecase), authHandler.Me)
			auth.POST("/logout", authHandler.Logout)
		}

		// FCM routes (protected)
		fcm := api.Group("/fcm")
		fcm.Use(authdelivery.AuthMiddleware(h.authUsecase))
		{
			fcm.POST("/register", authHandler.RegisterFCMToken)
			fcm.DELETE("/:token", authHandler.UnregisterFCMToken)
		}

		// Email routes (protected)
		emails := api.Group("/emails")
		emails.Use(authdelivery.AuthMiddleware(h.authUsecase))
		{
			emails.POST("/sync", emailHandler.Sync)
			emails.GET("", emailHandler.GetEmails)
			emails.POST("", emailHandler.CreateEmail)
			emails.DELETE("", emailHandler.ClearEmails)
			emails.GET("/analytics", emailHandler.GetAnalytics)
			emails.POST("/send", emailHandler.SendEmail)
			emails.GET("/:id", emailHandler.GetEmailByID)
			emails.PATCH("/:id", emailHandler.UpdateEmail)
			emails.DELETE("/:id", emailHandler.DeleteEmail)
			emails.GET("/:id/summary", emailHandler.SummarizeEmail)
			emails.GET("/:id/draft-reply", emailHandler.DraftReply)
			emails.POST("/:id/archive", emailHandler.ArchiveEmail)
			emails.POST("/:id/trash", emailHandler.TrashEmail)
		}

		// Search routes (protected)
		search := api.Group("/search")
		search.Use(authdelivery.AuthMiddleware(h.authUsecase))
		{
			search.POST("/semantic", emailHandler.SemanticSearch)
		}

		// Calendar routes (protected)
		calendar := api.Group("/calendar")
		calendar.Use(authdelivery.AuthMiddleware(h.authUsecase))
		{
			calendar.POST("/sync", calendarHandler.Sync)
			calendar.GET("/events", calendarHandler.GetEvents)
			calendar.POST("/events", calendarHandler.CreateEvent)
			calendar.DELETE("/events", calendarHandler.ClearEvents)
			calendar.GET("/events/:id", calendarHandler.GetEventByID)
			calendar.PATCH("/events/:id", calendarHandler.UpdateEvent)
			calendar.DELETE("/events/:id", calendarHandler.DeleteEvent)
			calendar.GET("/upcoming", calendarHandler.GetUpcomingEvents)
			calendar.GET("/analytics", calendarHandler.GetAnalytics)
			calendar.GET("/free-slots", calendarHandler.GetFreeSlots)
		}

		// Chat assistant routes (protected)
		chat := api.Group("/chat")
		chat.Use(authdelivery.AuthMiddleware(h.authUsecase))
		{
			chat.POST("/message", chatHandler.SendMessage)
			chat.GET("/history", chatHandler.GetMessages)
			chat.DELETE("/history", chatHandler.ClearMessages)
		}

		// Settings routes (public) - Runtime configuration
		settings := api.Group("/settings")
		{
			settings.GET("/assistant", GetAssistantSettings)
			settings.PUT("/assistant", UpdateAssistantSettings)
			settings.POST("/assistant/test", h.TestAssistantModel)
		}
	}
}
