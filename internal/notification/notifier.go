package notification

import (
	"context"
	"log"
	"time"

	authrepo "inboxai-backend/internal/auth/repository"
	emaildomain "inboxai-backend/internal/email/domain"
	"inboxai-backend/pkg/fcm"
	"inboxai-backend/pkg/sse"
)

// Notifier fans alerts out to connected browsers (SSE) and registered
// devices (FCM). Both transports are optional; a nil manager or client
// turns that channel off.
type Notifier struct {
	sseManager *sse.Manager
	fcmRepo    authrepo.FCMTokenRepository
	fcmClient  *fcm.Client
}

func NewNotifier(sseManager *sse.Manager, fcmRepo authrepo.FCMTokenRepository, fcmClient *fcm.Client) *Notifier {
	return &Notifier{
		sseManager: sseManager,
		fcmRepo:    fcmRepo,
		fcmClient:  fcmClient,
	}
}

// NotifyUrgentEmail pushes an alert for a message the classifier flagged
// as urgent and that the user has not read yet.
func (n *Notifier) NotifyUrgentEmail(ctx context.Context, userID string, email *emaildomain.Email) {
	if n.sseManager != nil {
		n.sseManager.SendToUser(userID, "urgent_email", map[string]interface{}{
			"id":        email.ID,
			"messageId": email.MessageID,
			"from":      email.From,
			"subject":   email.Subject,
			"timestamp": time.Now(),
		})
	}

	if n.fcmClient == nil || n.fcmRepo == nil {
		return
	}

	tokens, err := n.fcmRepo.GetTokensByUserID(userID)
	if err != nil {
		log.Printf("[FCM] Error getting tokens for user %s: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	subject := email.Subject
	if len(subject) > 100 {
		subject = subject[:97] + "..."
	}
	if subject == "" {
		subject = "(no subject)"
	}

	failedTokens, err := n.fcmClient.SendToDevices(ctx, tokenStrings, fcm.NotificationData{
		Title: "Urgent email from " + email.From,
		Body:  subject,
		Data: map[string]string{
			"type":      "urgent_email",
			"messageId": email.MessageID,
		},
	})
	if err != nil {
		log.Printf("[FCM] Error sending urgent notification: %v", err)
		return
	}
	log.Printf("[FCM] Sent urgent alert to %d devices for user %s", len(tokens)-len(failedTokens), userID)

	// Unregistered or expired tokens come back as failures; drop them so
	// we stop retrying dead devices.
	for _, token := range failedTokens {
		if err := n.fcmRepo.DeleteToken(token); err != nil {
			log.Printf("[FCM] Failed to delete stale token: %v", err)
		}
	}
}

// NotifyEmailsUpdated tells connected clients the mailbox changed so they
// can refetch.
func (n *Notifier) NotifyEmailsUpdated(userID string, count int) {
	if n.sseManager == nil {
		return
	}
	n.sseManager.SendToUser(userID, "email_update", map[string]interface{}{
		"count":     count,
		"timestamp": time.Now(),
	})
}
