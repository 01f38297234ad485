package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	authdomain "inboxai-backend/internal/auth/domain"
	emaildomain "inboxai-backend/internal/email/domain"
	emaildto "inboxai-backend/internal/email/dto"
	"inboxai-backend/internal/email/repository"
	"inboxai-backend/pkg/classifier"
)

var ErrEmailNotFound = errors.New("email not found")

type emailUsecase struct {
	mu        sync.Mutex
	stores    map[string]repository.EmailRepository
	gmail     GmailProvider
	vectors   VectorIndex
	notifier  Notifier
	persister func(userID string) authdomain.TokenUpdateFunc
	batchSize int
}

func NewEmailUsecase(gmail GmailProvider, vectors VectorIndex, notifier Notifier, persister func(userID string) authdomain.TokenUpdateFunc, batchSize int) EmailUsecase {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &emailUsecase{
		stores:    make(map[string]repository.EmailRepository),
		gmail:     gmail,
		vectors:   vectors,
		notifier:  notifier,
		persister: persister,
		batchSize: batchSize,
	}
}

// persist resolves the token refresh callback for a user.
func (u *emailUsecase) persist(userID string) authdomain.TokenUpdateFunc {
	if u.persister == nil {
		return nil
	}
	return u.persister(userID)
}

// storeFor returns the user's in-memory mailbox, creating it on first use.
func (u *emailUsecase) storeFor(userID string) repository.EmailRepository {
	u.mu.Lock()
	defer u.mu.Unlock()

	store, ok := u.stores[userID]
	if !ok {
		store = repository.NewEmailRepository()
		u.stores[userID] = store
	}
	return store
}

// classify fills in the derived fields on a fetched email.
func classify(email *emaildomain.Email) {
	email.Category = classifier.Categorize(email.From, email.Subject, email.Body)
	email.IsUrgent = classifier.IsUrgent(email.From, email.Subject, email.Body)
}

func (u *emailUsecase) SyncEmails(ctx context.Context, user *authdomain.User) (int, error) {
	if !user.GoogleConnected() {
		return 0, errors.New("google account not connected")
	}

	emails, err := u.gmail.GetEmails(ctx, user.AccessToken, user.RefreshToken, u.batchSize, "", u.persist(user.ID))
	if err != nil {
		return 0, fmt.Errorf("failed to sync emails: %w", err)
	}

	store := u.storeFor(user.ID)
	synced := 0
	for _, email := range emails {
		classify(email)
		stored, err := store.UpsertEmail(email)
		if err != nil {
			log.Printf("[Email] Failed to store message %s: %v", email.MessageID, err)
			continue
		}
		synced++

		if u.vectors != nil {
			if err := u.vectors.UpsertEmailEmbedding(ctx, stored.MessageID, user.ID, stored.Subject, stored.Body); err != nil {
				log.Printf("[Email] Failed to index message %s: %v", stored.MessageID, err)
			}
		}
		if stored.IsUrgent && !stored.IsRead && u.notifier != nil {
			u.notifier.NotifyUrgentEmail(ctx, user.ID, stored)
		}
	}

	if synced > 0 && u.notifier != nil {
		u.notifier.NotifyEmailsUpdated(user.ID, synced)
	}
	return synced, nil
}

// ProcessIncomingEmail fetches and stores a single message, used by the
// push notification pipeline for incremental sync.
func (u *emailUsecase) ProcessIncomingEmail(ctx context.Context, user *authdomain.User, messageID string) (*emaildomain.Email, error) {
	email, err := u.gmail.GetEmailByID(ctx, user.AccessToken, user.RefreshToken, messageID, u.persist(user.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", messageID, err)
	}

	classify(email)
	stored, err := u.storeFor(user.ID).UpsertEmail(email)
	if err != nil {
		return nil, err
	}

	if u.vectors != nil {
		if err := u.vectors.UpsertEmailEmbedding(ctx, stored.MessageID, user.ID, stored.Subject, stored.Body); err != nil {
			log.Printf("[Email] Failed to index message %s: %v", stored.MessageID, err)
		}
	}
	if stored.IsUrgent && !stored.IsRead && u.notifier != nil {
		u.notifier.NotifyUrgentEmail(ctx, user.ID, stored)
	}
	return stored, nil
}

func (u *emailUsecase) GetEmails(userID string) ([]*emaildomain.Email, error) {
	return u.storeFor(userID).GetEmails()
}

func (u *emailUsecase) GetEmailByID(userID, id string) (*emaildomain.Email, error) {
	email, err := u.storeFor(userID).GetEmailByID(id)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, ErrEmailNotFound
	}
	return email, nil
}

func (u *emailUsecase) CreateEmail(userID string, req *emaildto.CreateEmailRequest) (*emaildomain.Email, error) {
	receivedAt := req.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	email := &emaildomain.Email{
		MessageID:  req.MessageID,
		Subject:    req.Subject,
		From:       req.From,
		To:         req.To,
		Body:       req.Body,
		ReceivedAt: receivedAt,
	}
	if email.MessageID == "" {
		// Manual entries have no provider id, synthesize one.
		email.MessageID = fmt.Sprintf("local-%d", time.Now().UnixNano())
	}
	classify(email)
	return u.storeFor(userID).UpsertEmail(email)
}

func (u *emailUsecase) UpdateEmail(ctx context.Context, user *authdomain.User, id string, req *emaildto.UpdateEmailRequest) (*emaildomain.Email, error) {
	store := u.storeFor(user.ID)
	existing, err := store.GetEmailByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrEmailNotFound
	}

	// Mirror the change to Gmail first, then patch the local copy.
	if user.GoogleConnected() {
		if req.IsRead != nil && *req.IsRead != existing.IsRead {
			if *req.IsRead {
				err = u.gmail.MarkAsRead(ctx, user.AccessToken, user.RefreshToken, existing.MessageID, u.persist(user.ID))
			} else {
				err = u.gmail.MarkAsUnread(ctx, user.AccessToken, user.RefreshToken, existing.MessageID, u.persist(user.ID))
			}
			if err != nil {
				log.Printf("[Email] Failed to mirror read state to Gmail: %v", err)
			}
		}
		if req.IsStarred != nil && *req.IsStarred != existing.IsStarred {
			if err := u.gmail.StarEmail(ctx, user.AccessToken, user.RefreshToken, existing.MessageID, *req.IsStarred, u.persist(user.ID)); err != nil {
				log.Printf("[Email] Failed to mirror star state to Gmail: %v", err)
			}
		}
	}

	return store.UpdateEmail(id, emaildomain.EmailPatch{
		IsRead:    req.IsRead,
		IsStarred: req.IsStarred,
	})
}

func (u *emailUsecase) DeleteEmail(ctx context.Context, user *authdomain.User, id string) (bool, error) {
	store := u.storeFor(user.ID)
	existing, err := store.GetEmailByID(id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	if u.vectors != nil {
		if err := u.vectors.DeleteEmailEmbedding(ctx, existing.MessageID); err != nil {
			log.Printf("[Email] Failed to remove index entry %s: %v", existing.MessageID, err)
		}
	}
	return store.DeleteEmail(id), nil
}

func (u *emailUsecase) GetAnalytics(userID string, now time.Time) *emaildomain.EmailAnalytics {
	return u.storeFor(userID).GetAnalytics(now)
}

func (u *emailUsecase) SendEmail(ctx context.Context, user *authdomain.User, req *emaildto.SendEmailRequest) error {
	if !user.GoogleConnected() {
		return errors.New("google account not connected")
	}
	return u.gmail.SendEmail(ctx, user.AccessToken, user.RefreshToken, user.Name, user.Email, req.To, req.Subject, req.Body, u.persist(user.ID))
}

func (u *emailUsecase) ArchiveEmail(ctx context.Context, user *authdomain.User, id string) error {
	existing, err := u.storeFor(user.ID).GetEmailByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrEmailNotFound
	}
	if user.GoogleConnected() {
		return u.gmail.ArchiveEmail(ctx, user.AccessToken, user.RefreshToken, existing.MessageID, u.persist(user.ID))
	}
	return nil
}

func (u *emailUsecase) TrashEmail(ctx context.Context, user *authdomain.User, id string) error {
	store := u.storeFor(user.ID)
	existing, err := store.GetEmailByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrEmailNotFound
	}
	if user.GoogleConnected() {
		if err := u.gmail.TrashEmail(ctx, user.AccessToken, user.RefreshToken, existing.MessageID, u.persist(user.ID)); err != nil {
			return err
		}
	}
	store.DeleteEmail(id)
	return nil
}

func (u *emailUsecase) SummarizeEmail(userID, id string) (string, error) {
	email, err := u.GetEmailByID(userID, id)
	if err != nil {
		return "", err
	}
	return classifier.Summarize(email.Subject, email.Body), nil
}

func (u *emailUsecase) DraftReply(userID, id string) (*classifier.Draft, error) {
	email, err := u.GetEmailByID(userID, id)
	if err != nil {
		return nil, err
	}
	draft := classifier.DraftReply(email)
	return &draft, nil
}

func (u *emailUsecase) SemanticSearch(ctx context.Context, userID string, req *emaildto.SemanticSearchRequest) ([]*emaildomain.Email, error) {
	if u.vectors == nil {
		return nil, errors.New("semantic search is not configured")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	messageIDs, _, err := u.vectors.SemanticSearch(ctx, userID, req.Query, limit)
	if err != nil {
		return nil, err
	}

	store := u.storeFor(userID)
	emails := make([]*emaildomain.Email, 0, len(messageIDs))
	for _, messageID := range messageIDs {
		email, err := store.GetEmailByMessageID(messageID)
		if err != nil {
			return nil, err
		}
		if email != nil {
			emails = append(emails, email)
		}
	}
	return emails, nil
}

func (u *emailUsecase) ClearEmails(userID string) {
	u.storeFor(userID).Clear()
}
