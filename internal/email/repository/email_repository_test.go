package repository

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	emaildomain "inboxai-backend/internal/email/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmail(messageID string, receivedAt time.Time) *emaildomain.Email {
	return &emaildomain.Email{
		MessageID:  messageID,
		ThreadID:   "thread-1",
		Subject:    "hello",
		From:       "sender@example.com",
		To:         "me@example.com",
		Snippet:    "hi there",
		Body:       "hi there, long time no see",
		ReceivedAt: receivedAt,
		Category:   emaildomain.CategoryImportant,
		Labels:     []string{"INBOX"},
	}
}

func TestUpsertEmail_RoundTrip(t *testing.T) {
	repo := NewEmailRepository()
	in := testEmail("msg-1", time.Now())

	created, err := repo.UpsertEmail(in)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.GetEmailByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	// Equal in all fields except the generated identifier.
	in.ID = got.ID
	assert.Equal(t, in, got)
}

func TestUpsertEmail_NaturalKeyDeduplicates(t *testing.T) {
	repo := NewEmailRepository()

	first, err := repo.UpsertEmail(testEmail("msg-1", time.Now()))
	require.NoError(t, err)

	updated := testEmail("msg-1", time.Now())
	updated.Subject = "hello again"
	second, err := repo.UpsertEmail(updated)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.Count())

	got, err := repo.GetEmailByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello again", got.Subject)
}

func TestUpsertEmail_CapsBodyLength(t *testing.T) {
	repo := NewEmailRepository()
	in := testEmail("msg-1", time.Now())
	in.Body = string(make([]byte, emaildomain.MaxBodyLength+500))

	created, err := repo.UpsertEmail(in)
	require.NoError(t, err)
	assert.Len(t, created.Body, emaildomain.MaxBodyLength)
}

func TestUpsertEmail_CapsBodyOnRuneBoundary(t *testing.T) {
	repo := NewEmailRepository()
	in := testEmail("msg-1", time.Now())
	in.Body = strings.Repeat("日本語", emaildomain.MaxBodyLength)

	created, err := repo.UpsertEmail(in)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(created.Body))
	assert.Equal(t, emaildomain.MaxBodyLength, utf8.RuneCountInString(created.Body))
}

func TestGetEmailByID_NotFoundReturnsNil(t *testing.T) {
	repo := NewEmailRepository()
	got, err := repo.GetEmailByID("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetEmails_SortedByDateDescending(t *testing.T) {
	repo := NewEmailRepository()
	base := time.Now()

	for i, id := range []string{"old", "mid", "new"} {
		_, err := repo.UpsertEmail(testEmail(id, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	emails, err := repo.GetEmails()
	require.NoError(t, err)
	require.Len(t, emails, 3)
	assert.Equal(t, "new", emails[0].MessageID)
	assert.Equal(t, "mid", emails[1].MessageID)
	assert.Equal(t, "old", emails[2].MessageID)
}

func TestUpdateEmail_PatchesReadAndStarred(t *testing.T) {
	repo := NewEmailRepository()
	created, err := repo.UpsertEmail(testEmail("msg-1", time.Now()))
	require.NoError(t, err)

	read := true
	got, err := repo.UpdateEmail(created.ID, emaildomain.EmailPatch{IsRead: &read})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsRead)
	assert.False(t, got.IsStarred) // untouched

	starred := true
	got, err = repo.UpdateEmail(created.ID, emaildomain.EmailPatch{IsStarred: &starred})
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	assert.True(t, got.IsStarred)
}

func TestUpdateEmail_NotFoundReturnsNil(t *testing.T) {
	repo := NewEmailRepository()
	read := true
	got, err := repo.UpdateEmail("missing", emaildomain.EmailPatch{IsRead: &read})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteEmail(t *testing.T) {
	repo := NewEmailRepository()
	created, _ := repo.UpsertEmail(testEmail("msg-1", time.Now()))

	assert.True(t, repo.DeleteEmail(created.ID))
	assert.False(t, repo.DeleteEmail(created.ID))

	// Natural-key index is cleaned up: re-inserting creates a fresh record.
	again, err := repo.UpsertEmail(testEmail("msg-1", time.Now()))
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, again.ID)
}

func TestGetAnalytics_ConsistentWithList(t *testing.T) {
	repo := NewEmailRepository()
	now := time.Now()

	urgent := testEmail("msg-1", now)
	urgent.Category = emaildomain.CategoryUrgent
	urgent.IsUrgent = true
	repo.UpsertEmail(urgent)

	read := testEmail("msg-2", now.AddDate(0, 0, -2))
	read.IsRead = true
	repo.UpsertEmail(read)

	old := testEmail("msg-3", now.AddDate(0, 0, -30)) // outside 7-day window
	repo.UpsertEmail(old)

	analytics := repo.GetAnalytics(now)
	emails, _ := repo.GetEmails()

	assert.Equal(t, len(emails), analytics.TotalEmails)
	assert.Equal(t, 2, analytics.UnreadEmails)
	assert.Equal(t, 1, analytics.UrgentEmails)
	assert.Equal(t, 1, analytics.Categories[emaildomain.CategoryUrgent])
	assert.Equal(t, 2, analytics.Categories[emaildomain.CategoryImportant])

	require.Len(t, analytics.DailyActivity, 7)
	assert.Equal(t, now.Format("2006-01-02"), analytics.DailyActivity[6].Date)
	assert.Equal(t, 1, analytics.DailyActivity[6].Count)
	assert.Equal(t, 1, analytics.DailyActivity[4].Count) // two days ago

	total := 0
	for _, day := range analytics.DailyActivity {
		total += day.Count
	}
	assert.Equal(t, 2, total) // msg-3 falls outside the histogram
}

func TestClear(t *testing.T) {
	repo := NewEmailRepository()
	repo.UpsertEmail(testEmail("msg-1", time.Now()))
	repo.Clear()

	emails, err := repo.GetEmails()
	require.NoError(t, err)
	assert.Empty(t, emails)
	assert.Equal(t, 0, repo.GetAnalytics(time.Now()).TotalEmails)
}

func TestReadsReturnDefensiveCopies(t *testing.T) {
	repo := NewEmailRepository()
	created, _ := repo.UpsertEmail(testEmail("msg-1", time.Now()))

	got, _ := repo.GetEmailByID(created.ID)
	got.Subject = "mutated"
	got.Labels[0] = "mutated"

	fresh, _ := repo.GetEmailByID(created.ID)
	assert.Equal(t, "hello", fresh.Subject)
	assert.Equal(t, "INBOX", fresh.Labels[0])
}
