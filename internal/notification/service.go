package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	authdomain "inboxai-backend/internal/auth/domain"
	authrepo "inboxai-backend/internal/auth/repository"
	emailusecase "inboxai-backend/internal/email/usecase"
	"inboxai-backend/pkg/gmail"

	"cloud.google.com/go/pubsub"
	"github.com/gin-gonic/gin"
	"google.golang.org/api/option"
)

// GmailNotification is the payload Gmail publishes to the Pub/Sub topic
// whenever a watched mailbox changes.
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// pushEnvelope is the wrapper Pub/Sub puts around push-delivered messages.
type pushEnvelope struct {
	Message struct {
		Data      []byte `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// Service drives incremental mailbox sync off Gmail push notifications.
// It keeps a watch registered for every connected account, consumes the
// Pub/Sub topic (pull subscription plus an optional push endpoint), walks
// the Gmail history feed and hands each new message to the email usecase.
type Service struct {
	pubsubClient *pubsub.Client
	userRepo     authrepo.UserRepository
	gmailService *gmail.Service
	emailUsecase emailusecase.EmailUsecase
	notifier     *Notifier
	persister    func(userID string) authdomain.TokenUpdateFunc
	projectID    string
	topicName    string
	subName      string
	// Pub/Sub redelivers; track the last historyId per user so a
	// duplicate notification does not trigger a second history walk.
	// Receive callbacks and the push endpoint run concurrently, so the
	// map is mutex guarded.
	mu            sync.Mutex
	lastHistoryID map[string]uint64
}

func NewService(projectID, topicName string, userRepo authrepo.UserRepository, gmailService *gmail.Service, emailUsecase emailusecase.EmailUsecase, notifier *Notifier, persister func(userID string) authdomain.TokenUpdateFunc, credentialsFile string) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}

	return &Service{
		pubsubClient:  client,
		userRepo:      userRepo,
		gmailService:  gmailService,
		emailUsecase:  emailUsecase,
		notifier:      notifier,
		persister:     persister,
		projectID:     projectID,
		topicName:     topicName,
		subName:       topicName + "-sub", // Convention: topic-sub
		lastHistoryID: make(map[string]uint64),
	}, nil
}

// Start registers mailbox watches, then blocks receiving from the pull
// subscription until ctx is cancelled. Run it in its own goroutine.
func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service with topic: %s, subscription: %s", s.topicName, s.subName)

	s.ensureWatches(ctx)
	go s.renewWatchesLoop(ctx)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic %s does not exist, cannot create subscription", s.topicName)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		var notification GmailNotification
		if err := json.Unmarshal(msg.Data, &notification); err != nil {
			log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
			msg.Ack()
			return
		}
		s.handleNotification(ctx, &notification)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

// HandlePush accepts push-subscription deliveries on an HTTP endpoint, for
// deployments where a pull subscriber cannot run.
func (s *Service) HandlePush(c *gin.Context) {
	var envelope pushEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		c.JSON(400, gin.H{"error": "invalid push envelope"})
		return
	}

	var notification GmailNotification
	if err := json.Unmarshal(envelope.Message.Data, &notification); err != nil {
		log.Printf("[PubSub] Failed to unmarshal pushed notification: %v", err)
		// Ack malformed payloads so Pub/Sub stops redelivering them.
		c.Status(204)
		return
	}

	s.handleNotification(c.Request.Context(), &notification)
	c.Status(204)
}

func (s *Service) handleNotification(ctx context.Context, notification *GmailNotification) {
	log.Printf("[PubSub] Notification for %s (historyId: %d)", notification.EmailAddress, notification.HistoryID)

	user, err := s.userRepo.FindByEmail(notification.EmailAddress)
	if err != nil {
		log.Printf("[PubSub] Error finding user by email %s: %v", notification.EmailAddress, err)
		return
	}
	if user == nil {
		log.Printf("[PubSub] User not found for email: %s", notification.EmailAddress)
		return
	}

	if !s.markSeen(user.ID, notification.HistoryID) {
		log.Printf("[PubSub] Skipping duplicate notification for user %s (historyId %d)", user.ID, notification.HistoryID)
		return
	}

	startID := user.HistoryID
	if startID == 0 {
		startID = notification.HistoryID
	}

	messageIDs, latestID, err := s.gmailService.GetHistory(ctx, user.AccessToken, user.RefreshToken, startID, s.persister(user.ID))
	if err != nil {
		// History ids expire after about a week; fall back to a full sync
		// rather than losing messages.
		log.Printf("[PubSub] History fetch failed for user %s, falling back to full sync: %v", user.ID, err)
		if count, syncErr := s.emailUsecase.SyncEmails(ctx, user); syncErr != nil {
			log.Printf("[PubSub] Fallback sync failed for user %s: %v", user.ID, syncErr)
		} else if count > 0 && s.notifier != nil {
			s.notifier.NotifyEmailsUpdated(user.ID, count)
		}
		s.updateHistoryID(user, notification.HistoryID)
		return
	}

	processed := 0
	for _, messageID := range messageIDs {
		if _, err := s.emailUsecase.ProcessIncomingEmail(ctx, user, messageID); err != nil {
			log.Printf("[PubSub] Failed to process message %s for user %s: %v", messageID, user.ID, err)
			continue
		}
		processed++
	}

	s.updateHistoryID(user, latestID)

	if processed > 0 && s.notifier != nil {
		s.notifier.NotifyEmailsUpdated(user.ID, processed)
	}
}

// markSeen records the notification's historyId and reports whether it
// advances past the last one already processed for the user.
func (s *Service) markSeen(userID string, historyID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, seen := s.lastHistoryID[userID]; seen && historyID <= last {
		return false
	}
	s.lastHistoryID[userID] = historyID
	return true
}

func (s *Service) updateHistoryID(user *authdomain.User, historyID uint64) {
	if historyID == 0 || historyID == user.HistoryID {
		return
	}
	user.HistoryID = historyID
	if err := s.userRepo.Update(user); err != nil {
		log.Printf("[PubSub] Failed to persist history id for user %s: %v", user.ID, err)
	}
}

// ensureWatches (re-)registers a Gmail watch for every connected account.
// Gmail expires watches after seven days, so renewWatchesLoop calls this
// daily.
func (s *Service) ensureWatches(ctx context.Context) {
	users, err := s.userRepo.FindGoogleConnected()
	if err != nil {
		log.Printf("[PubSub] Failed to list connected users for watch registration: %v", err)
		return
	}

	topic := fmt.Sprintf("projects/%s/topics/%s", s.projectID, s.topicName)
	for _, user := range users {
		historyID, err := s.gmailService.Watch(ctx, user.AccessToken, user.RefreshToken, topic, s.persister(user.ID))
		if err != nil {
			log.Printf("[PubSub] Failed to register watch for user %s: %v", user.ID, err)
			continue
		}
		if user.HistoryID == 0 {
			s.updateHistoryID(user, historyID)
		}
	}
	log.Printf("[PubSub] Registered mailbox watches for %d users", len(users))
}

func (s *Service) renewWatchesLoop(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ensureWatches(ctx)
		}
	}
}
