package dto

import chatdomain "inboxai-backend/internal/chat/domain"

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type ChatResponse struct {
	Reply       *chatdomain.ChatMessage `json:"reply"`
	Action      chatdomain.Action       `json:"action"`
	Suggestions []string                `json:"suggestions,omitempty"`
}
