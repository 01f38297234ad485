package repository

import (
	"sort"
	"sync"
	"time"

	emaildomain "inboxai-backend/internal/email/domain"

	"github.com/google/uuid"
)

// emailRepository implements EmailRepository with mutex-guarded maps.
// byMessageID is the natural-key index that gives repeated syncs upsert
// semantics instead of piling up duplicates.
type emailRepository struct {
	mu          sync.RWMutex
	emails      map[string]*emaildomain.Email
	byMessageID map[string]string // gmail message id -> surrogate id
}

// NewEmailRepository creates an empty in-memory email store.
func NewEmailRepository() EmailRepository {
	return &emailRepository{
		emails:      make(map[string]*emaildomain.Email),
		byMessageID: make(map[string]string),
	}
}

func (r *emailRepository) UpsertEmail(email *emaildomain.Email) (*emaildomain.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyEmail(email)
	// Cap counts runes so the cut never lands inside a multi-byte character.
	if runes := []rune(stored.Body); len(runes) > emaildomain.MaxBodyLength {
		stored.Body = string(runes[:emaildomain.MaxBodyLength])
	}

	if existingID, ok := r.byMessageID[stored.MessageID]; ok && stored.MessageID != "" {
		stored.ID = existingID
		r.emails[existingID] = stored
		return copyEmail(stored), nil
	}

	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	r.emails[stored.ID] = stored
	if stored.MessageID != "" {
		r.byMessageID[stored.MessageID] = stored.ID
	}
	return copyEmail(stored), nil
}

func (r *emailRepository) GetEmailByID(id string) (*emaildomain.Email, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email, ok := r.emails[id]
	if !ok {
		return nil, nil
	}
	return copyEmail(email), nil
}

func (r *emailRepository) GetEmailByMessageID(messageID string) (*emaildomain.Email, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byMessageID[messageID]
	if !ok {
		return nil, nil
	}
	return copyEmail(r.emails[id]), nil
}

func (r *emailRepository) GetEmails() ([]*emaildomain.Email, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	emails := make([]*emaildomain.Email, 0, len(r.emails))
	for _, email := range r.emails {
		emails = append(emails, copyEmail(email))
	}

	sort.Slice(emails, func(i, j int) bool {
		return emails[i].ReceivedAt.After(emails[j].ReceivedAt)
	})
	return emails, nil
}

func (r *emailRepository) UpdateEmail(id string, patch emaildomain.EmailPatch) (*emaildomain.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email, ok := r.emails[id]
	if !ok {
		return nil, nil
	}

	if patch.IsRead != nil {
		email.IsRead = *patch.IsRead
	}
	if patch.IsStarred != nil {
		email.IsStarred = *patch.IsStarred
	}
	return copyEmail(email), nil
}

func (r *emailRepository) DeleteEmail(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	email, ok := r.emails[id]
	if !ok {
		return false
	}
	delete(r.emails, id)
	if email.MessageID != "" {
		delete(r.byMessageID, email.MessageID)
	}
	return true
}

// GetAnalytics recomputes totals, the category histogram and the 7-day
// activity buckets from scratch on every call.
func (r *emailRepository) GetAnalytics(now time.Time) *emaildomain.EmailAnalytics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	analytics := &emaildomain.EmailAnalytics{
		Categories: make(map[emaildomain.Category]int),
	}
	for _, c := range emaildomain.Categories {
		analytics.Categories[c] = 0
	}

	for _, email := range r.emails {
		analytics.TotalEmails++
		if !email.IsRead {
			analytics.UnreadEmails++
		}
		if email.IsUrgent {
			analytics.UrgentEmails++
		}
		analytics.Categories[email.Category]++
	}

	// 7 daily buckets, oldest first, today last.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	analytics.DailyActivity = make([]emaildomain.DailyCount, 0, 7)
	for offset := 6; offset >= 0; offset-- {
		day := today.AddDate(0, 0, -offset)
		next := day.AddDate(0, 0, 1)

		count := 0
		for _, email := range r.emails {
			if !email.ReceivedAt.Before(day) && email.ReceivedAt.Before(next) {
				count++
			}
		}
		analytics.DailyActivity = append(analytics.DailyActivity, emaildomain.DailyCount{
			Date:  day.Format("2006-01-02"),
			Count: count,
		})
	}

	return analytics
}

func (r *emailRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.emails = make(map[string]*emaildomain.Email)
	r.byMessageID = make(map[string]string)
}

func (r *emailRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.emails)
}

func copyEmail(email *emaildomain.Email) *emaildomain.Email {
	dup := *email
	if email.Labels != nil {
		dup.Labels = make([]string, len(email.Labels))
		copy(dup.Labels, email.Labels)
	}
	return &dup
}
