package classifier

import (
	"strings"
	"unicode/utf8"

	emaildomain "inboxai-backend/internal/email/domain"
)

// Canonical urgency keyword table. Both Categorize and IsUrgent derive from
// this single list so the category label and the urgency flag can never
// disagree on the same message.
var urgentKeywords = []string{
	"urgent",
	"asap",
	"emergency",
	"immediately",
	"critical",
	"action required",
	"deadline",
	"right away",
	"time sensitive",
}

var newsletterKeywords = []string{
	"unsubscribe",
	"view in browser",
	"newsletter",
	"weekly digest",
	"daily digest",
	"mailing list",
}

var promotionalKeywords = []string{
	"sale",
	"discount",
	"% off",
	"special offer",
	"limited time",
	"deal",
	"coupon",
	"promo code",
	"free shipping",
	"buy now",
}

var socialKeywords = []string{
	"friend request",
	"mentioned you",
	"tagged you",
	"commented on",
	"liked your",
	"followed you",
	"new follower",
	"invitation to connect",
	"sent you a message",
}

var socialDomains = []string{
	"facebook.com",
	"twitter.com",
	"x.com",
	"instagram.com",
	"linkedin.com",
	"tiktok.com",
	"reddit.com",
	"pinterest.com",
	"youtube.com",
	"discord.com",
}

var updateKeywords = []string{
	"order",
	"shipped",
	"delivery",
	"receipt",
	"invoice",
	"payment",
	"confirmation",
	"statement",
	"security alert",
	"verification",
	"password",
	"your account",
}

// Categorize maps an email's headers and body to exactly one category label.
// The rules run in strict priority order; every input produces a label and
// there is no error path.
func Categorize(from, subject, body string) emaildomain.Category {
	from = strings.ToLower(from)
	subject = strings.ToLower(subject)
	body = strings.ToLower(body)

	if containsAny(subject, urgentKeywords) || containsAny(body, urgentKeywords) {
		return emaildomain.CategoryUrgent
	}

	if containsAny(body, newsletterKeywords) ||
		strings.Contains(from, "newsletter") ||
		strings.Contains(from, "noreply") ||
		strings.Contains(from, "no-reply") {
		return emaildomain.CategoryNewsletter
	}

	if containsAny(subject, promotionalKeywords) || containsAny(body, promotionalKeywords) {
		return emaildomain.CategoryPromotional
	}

	if containsAny(subject, socialKeywords) || containsAny(from, socialDomains) {
		return emaildomain.CategorySocial
	}

	if containsAny(subject, updateKeywords) {
		return emaildomain.CategoryUpdates
	}

	return emaildomain.CategoryImportant
}

// IsUrgent reports whether any urgent keyword appears in the subject or body.
// It shares the keyword table with Categorize.
func IsUrgent(from, subject, body string) bool {
	subject = strings.ToLower(subject)
	body = strings.ToLower(body)
	return containsAny(subject, urgentKeywords) || containsAny(body, urgentKeywords)
}

// Summarize returns the first body line longer than 20 characters, truncated
// to 150 characters with an ellipsis. Falls back to the subject when no line
// qualifies. Truncation counts runes so multi-byte text is never split.
func Summarize(subject, body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) > 20 {
			if runes := []rune(line); len(runes) > 150 {
				return string(runes[:147]) + "..."
			}
			return line
		}
	}
	return subject
}

// Draft is a suggested reply to an email.
type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Tone    string `json:"tone"`
}

var replyTemplates = map[emaildomain.Category]Draft{
	emaildomain.CategoryUrgent: {
		Body: "Thank you for flagging this. I understand the urgency and will prioritize it right away. I will follow up with an update as soon as possible.",
		Tone: "formal",
	},
	emaildomain.CategoryImportant: {
		Body: "Thank you for your email. I have received it and will review the details shortly. I will get back to you with a response soon.",
		Tone: "professional",
	},
	emaildomain.CategoryPromotional: {
		Body: "Thanks for reaching out! I'll take a look when I get a chance.",
		Tone: "casual",
	},
	emaildomain.CategorySocial: {
		Body: "Hey! Thanks for the message, I'll check it out.",
		Tone: "casual",
	},
}

var defaultReply = Draft{
	Body: "Thank you for your email. I have received it and will review the details shortly. I will get back to you with a response soon.",
	Tone: "professional",
}

// DraftReply maps the email's category to a canned reply template, prefixing
// the subject with "Re:" unless it already carries one.
func DraftReply(email *emaildomain.Email) Draft {
	draft, ok := replyTemplates[email.Category]
	if !ok {
		draft = defaultReply
	}

	subject := email.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}
	draft.Subject = subject

	return draft
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
