package repository

import (
	"time"

	emaildomain "inboxai-backend/internal/email/domain"
)

// EmailRepository is the in-memory store for synced emails.
// Reads return copies; callers never hold references into the store.
type EmailRepository interface {
	// UpsertEmail inserts the record, or updates in place when an email with
	// the same Gmail message id already exists. Returns the stored copy.
	UpsertEmail(email *emaildomain.Email) (*emaildomain.Email, error)
	GetEmailByID(id string) (*emaildomain.Email, error)
	GetEmailByMessageID(messageID string) (*emaildomain.Email, error)
	// GetEmails returns all stored emails sorted by received date descending.
	GetEmails() ([]*emaildomain.Email, error)
	// UpdateEmail merges the patch into the stored record. Returns nil when
	// the id is absent.
	UpdateEmail(id string, patch emaildomain.EmailPatch) (*emaildomain.Email, error)
	// DeleteEmail reports whether a record existed.
	DeleteEmail(id string) bool
	GetAnalytics(now time.Time) *emaildomain.EmailAnalytics
	Clear()
	Count() int
}
