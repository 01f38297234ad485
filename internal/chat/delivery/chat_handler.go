package delivery

import (
	"net/http"

	authdomain "inboxai-backend/internal/auth/domain"
	chatdto "inboxai-backend/internal/chat/dto"
	"inboxai-backend/internal/chat/usecase"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatUsecase usecase.ChatUsecase
}

func NewChatHandler(chatUsecase usecase.ChatUsecase) *ChatHandler {
	return &ChatHandler{
		chatUsecase: chatUsecase,
	}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req chatdto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, _ := c.Get("user")
	resp, err := h.chatUsecase.HandleMessage(c.Request.Context(), user.(*authdomain.User), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	messages, err := h.chatUsecase.GetMessages(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages, "total": len(messages)})
}

func (h *ChatHandler) ClearMessages(c *gin.Context) {
	h.chatUsecase.ClearMessages(c.GetString("userID"))
	c.JSON(http.StatusOK, gin.H{"message": "chat history cleared"})
}
