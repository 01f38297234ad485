package usecase

import (
	"context"
	"testing"
	"time"

	authdomain "inboxai-backend/internal/auth/domain"
	emaildomain "inboxai-backend/internal/email/domain"
	emaildto "inboxai-backend/internal/email/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGmail struct {
	mock.Mock
}

func (m *mockGmail) GetEmails(ctx context.Context, accessToken, refreshToken string, limit int, query string, onTokenRefresh authdomain.TokenUpdateFunc) ([]*emaildomain.Email, error) {
	args := m.Called(accessToken, limit, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*emaildomain.Email), args.Error(1)
}

func (m *mockGmail) GetEmailByID(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh authdomain.TokenUpdateFunc) (*emaildomain.Email, error) {
	args := m.Called(messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*emaildomain.Email), args.Error(1)
}

func (m *mockGmail) SendEmail(ctx context.Context, accessToken, refreshToken, fromName, fromEmail, to, subject, body string, onTokenRefresh authdomain.TokenUpdateFunc) error {
	return m.Called(to, subject, body).Error(0)
}

func (m *mockGmail) MarkAsRead(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh authdomain.TokenUpdateFunc) error {
	return m.Called(messageID).Error(0)
}

func (m *mockGmail) MarkAsUnread(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh authdomain.TokenUpdateFunc) error {
	return m.Called(messageID).Error(0)
}

func (m *mockGmail) StarEmail(ctx context.Context, accessToken, refreshToken, messageID string, starred bool, onTokenRefresh authdomain.TokenUpdateFunc) error {
	return m.Called(messageID, starred).Error(0)
}

func (m *mockGmail) ArchiveEmail(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh authdomain.TokenUpdateFunc) error {
	return m.Called(messageID).Error(0)
}

func (m *mockGmail) TrashEmail(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh authdomain.TokenUpdateFunc) error {
	return m.Called(messageID).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyUrgentEmail(ctx context.Context, userID string, email *emaildomain.Email) {
	m.Called(userID, email.MessageID)
}

func (m *mockNotifier) NotifyEmailsUpdated(userID string, count int) {
	m.Called(userID, count)
}

func connectedUser() *authdomain.User {
	return &authdomain.User{
		ID:           "user-1",
		Email:        "me@example.com",
		Name:         "Me",
		AccessToken:  "access",
		RefreshToken: "refresh",
	}
}

func TestSyncEmails_ClassifiesAndNotifies(t *testing.T) {
	gmailMock := new(mockGmail)
	notifier := new(mockNotifier)

	fetched := []*emaildomain.Email{
		{
			MessageID:  "msg-urgent",
			Subject:    "URGENT: server down",
			From:       "ops@example.com",
			Body:       "production is down, action required",
			ReceivedAt: time.Now(),
		},
		{
			MessageID:  "msg-promo",
			Subject:    "50% off sale ends tonight",
			From:       "deals@shop.com",
			Body:       "discount on everything, limited time offer",
			ReceivedAt: time.Now(),
		},
	}
	gmailMock.On("GetEmails", "access", 50, "").Return(fetched, nil)
	notifier.On("NotifyUrgentEmail", "user-1", "msg-urgent").Return()
	notifier.On("NotifyEmailsUpdated", "user-1", 2).Return()

	uc := NewEmailUsecase(gmailMock, nil, notifier, nil, 0)
	count, err := uc.SyncEmails(context.Background(), connectedUser())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	emails, err := uc.GetEmails("user-1")
	require.NoError(t, err)
	require.Len(t, emails, 2)

	byID := map[string]*emaildomain.Email{}
	for _, e := range emails {
		byID[e.MessageID] = e
	}
	assert.Equal(t, emaildomain.CategoryUrgent, byID["msg-urgent"].Category)
	assert.True(t, byID["msg-urgent"].IsUrgent)
	assert.Equal(t, emaildomain.CategoryPromotional, byID["msg-promo"].Category)
	assert.False(t, byID["msg-promo"].IsUrgent)

	notifier.AssertExpectations(t)
}

func TestSyncEmails_RequiresGoogleAccount(t *testing.T) {
	uc := NewEmailUsecase(new(mockGmail), nil, nil, nil, 0)
	_, err := uc.SyncEmails(context.Background(), &authdomain.User{ID: "user-1"})
	assert.EqualError(t, err, "google account not connected")
}

func TestCreateEmail_ClassifiesLocally(t *testing.T) {
	uc := NewEmailUsecase(new(mockGmail), nil, nil, nil, 0)

	email, err := uc.CreateEmail("user-1", &emaildto.CreateEmailRequest{
		Subject: "Weekly digest",
		From:    "newsletter@blog.com",
		Body:    "unsubscribe anytime",
	})
	require.NoError(t, err)
	assert.Equal(t, emaildomain.CategoryNewsletter, email.Category)
	assert.NotEmpty(t, email.MessageID)
	assert.False(t, email.ReceivedAt.IsZero())
}

func TestUpdateEmail_MirrorsReadStateToGmail(t *testing.T) {
	gmailMock := new(mockGmail)
	uc := NewEmailUsecase(gmailMock, nil, nil, nil, 0)
	user := connectedUser()

	created, err := uc.CreateEmail(user.ID, &emaildto.CreateEmailRequest{
		Subject: "hello",
		From:    "friend@example.com",
	})
	require.NoError(t, err)

	gmailMock.On("MarkAsRead", created.MessageID).Return(nil)

	read := true
	updated, err := uc.UpdateEmail(context.Background(), user, created.ID, &emaildto.UpdateEmailRequest{IsRead: &read})
	require.NoError(t, err)
	assert.True(t, updated.IsRead)
	gmailMock.AssertExpectations(t)
}

func TestUpdateEmail_NotFound(t *testing.T) {
	uc := NewEmailUsecase(new(mockGmail), nil, nil, nil, 0)
	read := true
	_, err := uc.UpdateEmail(context.Background(), connectedUser(), "missing", &emaildto.UpdateEmailRequest{IsRead: &read})
	assert.ErrorIs(t, err, ErrEmailNotFound)
}

func TestTrashEmail_RemovesLocalCopy(t *testing.T) {
	gmailMock := new(mockGmail)
	uc := NewEmailUsecase(gmailMock, nil, nil, nil, 0)
	user := connectedUser()

	created, _ := uc.CreateEmail(user.ID, &emaildto.CreateEmailRequest{
		Subject: "old thread",
		From:    "someone@example.com",
	})
	gmailMock.On("TrashEmail", created.MessageID).Return(nil)

	require.NoError(t, uc.TrashEmail(context.Background(), user, created.ID))
	_, err := uc.GetEmailByID(user.ID, created.ID)
	assert.ErrorIs(t, err, ErrEmailNotFound)
}

func TestGetAnalytics_MatchesListLength(t *testing.T) {
	uc := NewEmailUsecase(new(mockGmail), nil, nil, nil, 0)

	for _, subject := range []string{"one", "two", "three"} {
		_, err := uc.CreateEmail("user-1", &emaildto.CreateEmailRequest{
			Subject: subject,
			From:    "someone@example.com",
		})
		require.NoError(t, err)
	}

	emails, _ := uc.GetEmails("user-1")
	analytics := uc.GetAnalytics("user-1", time.Now())
	assert.Equal(t, len(emails), analytics.TotalEmails)
}

func TestStoresAreIsolatedPerUser(t *testing.T) {
	uc := NewEmailUsecase(new(mockGmail), nil, nil, nil, 0)

	_, err := uc.CreateEmail("alice", &emaildto.CreateEmailRequest{
		Subject: "for alice",
		From:    "someone@example.com",
	})
	require.NoError(t, err)

	bobEmails, err := uc.GetEmails("bob")
	require.NoError(t, err)
	assert.Empty(t, bobEmails)
}

func TestSemanticSearch_NotConfigured(t *testing.T) {
	uc := NewEmailUsecase(new(mockGmail), nil, nil, nil, 0)
	_, err := uc.SemanticSearch(context.Background(), "user-1", &emaildto.SemanticSearchRequest{Query: "invoices"})
	assert.EqualError(t, err, "semantic search is not configured")
}
