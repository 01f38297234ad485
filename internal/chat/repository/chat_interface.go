package repository

import (
	chatdomain "inboxai-backend/internal/chat/domain"
)

type ChatRepository interface {
	AppendMessage(role chatdomain.Role, content string, metadata map[string]string) (*chatdomain.ChatMessage, error)
	GetMessages() ([]*chatdomain.ChatMessage, error)
	Clear()
	Count() int
}
