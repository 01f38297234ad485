package usecase

import (
	"context"
	"time"

	authdomain "inboxai-backend/internal/auth/domain"
	emaildomain "inboxai-backend/internal/email/domain"
	emaildto "inboxai-backend/internal/email/dto"
	"inboxai-backend/pkg/classifier"
)

// GmailProvider is the slice of the Gmail client the email usecase needs.
type GmailProvider interface {
	GetEmails(ctx context.Context, accessToken, refreshToken string, limit int, query string, onTokenRefresh authdomain.TokenUpdateFunc) ([]*emaildomain.Email, error)
	GetEmailByID(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh authdomain.TokenUpdateFunc) (*emaildomain.Email, error)
	SendEmail(ctx context.Context, accessToken, refreshToken, fromName, fromEmail, to, subject, body string, onTokenRefresh authdomain.TokenUpdateFunc) error
	MarkAsRead(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh authdomain.TokenUpdateFunc) error
	MarkAsUnread(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh authdomain.TokenUpdateFunc) error
	StarEmail(ctx context.Context, accessToken, refreshToken, messageID string, starred bool, onTokenRefresh authdomain.TokenUpdateFunc) error
	ArchiveEmail(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh authdomain.TokenUpdateFunc) error
	TrashEmail(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh authdomain.TokenUpdateFunc) error
}

// VectorIndex is the semantic search surface backed by Chroma.
type VectorIndex interface {
	UpsertEmailEmbedding(ctx context.Context, emailID, userID, subject, body string) error
	SemanticSearch(ctx context.Context, userID, query string, limit int) ([]string, []float64, error)
	DeleteEmailEmbedding(ctx context.Context, emailID string) error
}

// Notifier delivers urgent-email alerts out of band (push and SSE).
type Notifier interface {
	NotifyUrgentEmail(ctx context.Context, userID string, email *emaildomain.Email)
	NotifyEmailsUpdated(userID string, count int)
}

type EmailUsecase interface {
	SyncEmails(ctx context.Context, user *authdomain.User) (int, error)
	ProcessIncomingEmail(ctx context.Context, user *authdomain.User, messageID string) (*emaildomain.Email, error)

	GetEmails(userID string) ([]*emaildomain.Email, error)
	GetEmailByID(userID, id string) (*emaildomain.Email, error)
	CreateEmail(userID string, req *emaildto.CreateEmailRequest) (*emaildomain.Email, error)
	UpdateEmail(ctx context.Context, user *authdomain.User, id string, req *emaildto.UpdateEmailRequest) (*emaildomain.Email, error)
	DeleteEmail(ctx context.Context, user *authdomain.User, id string) (bool, error)
	GetAnalytics(userID string, now time.Time) *emaildomain.EmailAnalytics

	SendEmail(ctx context.Context, user *authdomain.User, req *emaildto.SendEmailRequest) error
	ArchiveEmail(ctx context.Context, user *authdomain.User, id string) error
	TrashEmail(ctx context.Context, user *authdomain.User, id string) error

	SummarizeEmail(userID, id string) (string, error)
	DraftReply(userID, id string) (*classifier.Draft, error)
	SemanticSearch(ctx context.Context, userID string, req *emaildto.SemanticSearchRequest) ([]*emaildomain.Email, error)

	ClearEmails(userID string)
}
