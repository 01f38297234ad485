package usecase

import (
	"context"

	authdomain "inboxai-backend/internal/auth/domain"
	chatdomain "inboxai-backend/internal/chat/domain"
	chatdto "inboxai-backend/internal/chat/dto"
)

// Intent is a classified chat message: one action plus the parameters
// the model extracted for it.
type Intent struct {
	Action string
	Params map[string]string
}

// LLM is the language model surface the assistant needs.
type LLM interface {
	ClassifyIntent(ctx context.Context, message string, actions []string) (*Intent, error)
	GenerateReply(ctx context.Context, message, contextText string) (string, error)
}

type ChatUsecase interface {
	// HandleMessage stores the user's message, classifies it, performs
	// the resolved action and returns the assistant's reply.
	HandleMessage(ctx context.Context, user *authdomain.User, req *chatdto.ChatRequest) (*chatdto.ChatResponse, error)
	GetMessages(userID string) ([]*chatdomain.ChatMessage, error)
	ClearMessages(userID string)
}
