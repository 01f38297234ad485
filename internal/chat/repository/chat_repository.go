package repository

import (
	"sync"
	"time"

	chatdomain "inboxai-backend/internal/chat/domain"

	"github.com/google/uuid"
)

type chatRepository struct {
	mu       sync.RWMutex
	messages []*chatdomain.ChatMessage
	lastAt   time.Time
}

func NewChatRepository() ChatRepository {
	return &chatRepository{}
}

func copyMessage(m *chatdomain.ChatMessage) *chatdomain.ChatMessage {
	c := *m
	if m.Metadata != nil {
		c.Metadata = make(map[string]string, len(m.Metadata))
		for k, v := range m.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func (r *chatRepository) AppendMessage(role chatdomain.Role, content string, metadata map[string]string) (*chatdomain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Timestamps must stay strictly monotonic so the transcript keeps its
	// insertion order even when two appends land in the same clock tick.
	now := time.Now()
	if !now.After(r.lastAt) {
		now = r.lastAt.Add(time.Millisecond)
	}
	r.lastAt = now

	message := &chatdomain.ChatMessage{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: now,
		Metadata:  metadata,
	}
	r.messages = append(r.messages, copyMessage(message))
	return message, nil
}

func (r *chatRepository) GetMessages() ([]*chatdomain.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	messages := make([]*chatdomain.ChatMessage, 0, len(r.messages))
	for _, message := range r.messages {
		messages = append(messages, copyMessage(message))
	}
	return messages, nil
}

func (r *chatRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
	r.lastAt = time.Time{}
}

func (r *chatRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages)
}
