package domain

import "time"

// Category classifies an email's intent/origin. Assigned once at sync time,
// never recomputed afterwards.
type Category string

const (
	CategoryUrgent      Category = "urgent"
	CategoryImportant   Category = "important"
	CategoryPromotional Category = "promotional"
	CategorySocial      Category = "social"
	CategoryUpdates     Category = "updates"
	CategoryNewsletter  Category = "newsletter"
)

// Categories lists all valid category labels.
var Categories = []Category{
	CategoryUrgent,
	CategoryImportant,
	CategoryPromotional,
	CategorySocial,
	CategoryUpdates,
	CategoryNewsletter,
}

// MaxBodyLength caps the stored body text per email.
const MaxBodyLength = 5000

type Email struct {
	ID              string    `json:"id"`
	MessageID       string    `json:"message_id"` // Gmail message id, natural key for upserts
	ThreadID        string    `json:"thread_id"`
	Subject         string    `json:"subject"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	Snippet         string    `json:"snippet"`
	Body            string    `json:"body"`
	ReceivedAt      time.Time `json:"received_at"`
	IsRead          bool      `json:"is_read"`
	IsStarred       bool      `json:"is_starred"`
	Category        Category  `json:"category"`
	IsUrgent        bool      `json:"is_urgent"`
	Labels          []string  `json:"labels"`
	AttachmentCount int       `json:"attachment_count"`
}

// EmailPatch carries the fields a caller may change on a stored email.
// Everything else is owned by the sync path or the external system.
type EmailPatch struct {
	IsRead    *bool
	IsStarred *bool
}

// EmailAnalytics is recomputed from scratch on every request; nothing here is
// cached or persisted.
type EmailAnalytics struct {
	TotalEmails   int              `json:"total_emails"`
	UnreadEmails  int              `json:"unread_emails"`
	UrgentEmails  int              `json:"urgent_emails"`
	Categories    map[Category]int `json:"categories"`
	DailyActivity []DailyCount     `json:"daily_activity"`
}

// DailyCount is one bucket of the 7-day activity histogram.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}
