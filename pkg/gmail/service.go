package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	authdomain "inboxai-backend/internal/auth/domain"
	emaildomain "inboxai-backend/internal/email/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

type TokenUpdateFunc = authdomain.TokenUpdateFunc

type Service struct {
	clientID     string
	clientSecret string
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Gmail] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// gmailService builds an authenticated Gmail client, wrapping the token
// source so refreshed tokens get written back through onTokenRefresh.
func (s *Service) gmailService(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	wrappedSource := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return srv, nil
}

// GetEmails retrieves the most recent inbox messages, newest first.
func (s *Service) GetEmails(ctx context.Context, accessToken, refreshToken string, limit int, query string, onTokenRefresh TokenUpdateFunc) ([]*emaildomain.Email, error) {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > 500 {
		limit = 500 // Gmail API maximum
	}

	listCall := srv.Users.Messages.List("me").LabelIds("INBOX").MaxResults(int64(limit))
	if query != "" {
		listCall = listCall.Q(query)
	}

	listResp, err := listCall.Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %w", err)
	}

	type fetchResult struct {
		email *emaildomain.Email
		err   error
	}
	results := make(chan fetchResult, len(listResp.Messages))
	semaphore := make(chan struct{}, 10)

	for _, msg := range listResp.Messages {
		go func(messageID string) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			full, err := srv.Users.Messages.Get("me", messageID).Format("full").Do()
			if err != nil {
				results <- fetchResult{nil, err}
				return
			}
			results <- fetchResult{convertMessage(full), nil}
		}(msg.Id)
	}

	emails := make([]*emaildomain.Email, 0, len(listResp.Messages))
	for range listResp.Messages {
		result := <-results
		if result.err != nil {
			log.Printf("[Gmail] Failed to fetch message: %v", result.err)
			continue
		}
		emails = append(emails, result.email)
	}
	return emails, nil
}

// GetEmailByID retrieves a single message.
func (s *Service) GetEmailByID(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh TokenUpdateFunc) (*emaildomain.Email, error) {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	msg, err := srv.Users.Messages.Get("me", messageID).Format("full").Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve message: %w", err)
	}
	return convertMessage(msg), nil
}

// GetHistory lists message ids added since the given history id. Used by
// the push notification pipeline to sync incrementally.
func (s *Service) GetHistory(ctx context.Context, accessToken, refreshToken string, startHistoryID uint64, onTokenRefresh TokenUpdateFunc) ([]string, uint64, error) {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, 0, err
	}

	var messageIDs []string
	latest := startHistoryID
	pageToken := ""
	for {
		call := srv.Users.History.List("me").
			StartHistoryId(startHistoryID).
			HistoryTypes("messageAdded")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, 0, fmt.Errorf("unable to list history: %w", err)
		}
		for _, h := range resp.History {
			if h.Id > latest {
				latest = h.Id
			}
			for _, added := range h.MessagesAdded {
				messageIDs = append(messageIDs, added.Message.Id)
			}
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return messageIDs, latest, nil
}

// SendEmail sends a plain email through the user's account.
func (s *Service) SendEmail(ctx context.Context, accessToken, refreshToken, fromName, fromEmail, to, subject, body string, onTokenRefresh TokenUpdateFunc) error {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return err
	}

	var emailMsg bytes.Buffer
	if fromName != "" && fromEmail != "" {
		encodedName := fmt.Sprintf("=?utf-8?B?%s?=", base64.StdEncoding.EncodeToString([]byte(fromName)))
		emailMsg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", encodedName, fromEmail))
	}
	emailMsg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	// Encode subject to handle non-ASCII characters (RFC 2047)
	encodedSubject := fmt.Sprintf("=?utf-8?B?%s?=", base64.StdEncoding.EncodeToString([]byte(subject)))
	emailMsg.WriteString(fmt.Sprintf("Subject: %s\r\n", encodedSubject))
	emailMsg.WriteString("MIME-Version: 1.0\r\n")
	emailMsg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	emailMsg.WriteString(body)

	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(emailMsg.Bytes()),
	}

	if _, err := srv.Users.Messages.Send("me", msg).Do(); err != nil {
		return fmt.Errorf("unable to send message: %w", err)
	}
	return nil
}

// MarkAsRead marks a message as read.
func (s *Service) MarkAsRead(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh TokenUpdateFunc) error {
	return s.modifyLabels(ctx, accessToken, refreshToken, messageID, nil, []string{"UNREAD"}, onTokenRefresh)
}

// MarkAsUnread marks a message as unread.
func (s *Service) MarkAsUnread(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh TokenUpdateFunc) error {
	return s.modifyLabels(ctx, accessToken, refreshToken, messageID, []string{"UNREAD"}, nil, onTokenRefresh)
}

// StarEmail stars or unstars a message.
func (s *Service) StarEmail(ctx context.Context, accessToken, refreshToken, messageID string, starred bool, onTokenRefresh TokenUpdateFunc) error {
	if starred {
		return s.modifyLabels(ctx, accessToken, refreshToken, messageID, []string{"STARRED"}, nil, onTokenRefresh)
	}
	return s.modifyLabels(ctx, accessToken, refreshToken, messageID, nil, []string{"STARRED"}, onTokenRefresh)
}

// ArchiveEmail archives a message (removes INBOX label).
func (s *Service) ArchiveEmail(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh TokenUpdateFunc) error {
	return s.modifyLabels(ctx, accessToken, refreshToken, messageID, nil, []string{"INBOX"}, onTokenRefresh)
}

// TrashEmail moves a message to trash.
func (s *Service) TrashEmail(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh TokenUpdateFunc) error {
	return s.modifyLabels(ctx, accessToken, refreshToken, messageID, []string{"TRASH"}, nil, onTokenRefresh)
}

func (s *Service) modifyLabels(ctx context.Context, accessToken, refreshToken, messageID string, addLabelIDs, removeLabelIDs []string, onTokenRefresh TokenUpdateFunc) error {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return err
	}

	modifyReq := &gmail.ModifyMessageRequest{
		AddLabelIds:    addLabelIDs,
		RemoveLabelIds: removeLabelIDs,
	}
	if _, err := srv.Users.Messages.Modify("me", messageID, modifyReq).Do(); err != nil {
		return fmt.Errorf("unable to modify message labels: %w", err)
	}
	return nil
}

// Watch sets up push notifications for the user's inbox.
func (s *Service) Watch(ctx context.Context, accessToken, refreshToken string, topicName string, onTokenRefresh TokenUpdateFunc) (uint64, error) {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return 0, err
	}

	// Stop any existing watch first, Gmail allows only one per user.
	_ = srv.Users.Stop("me").Do()

	req := &gmail.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{"INBOX"},
	}

	resp, err := srv.Users.Watch("me", req).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to watch mailbox: %w", err)
	}
	log.Printf("[Gmail] Watch started, expiration %d, history id %d", resp.Expiration, resp.HistoryId)
	return resp.HistoryId, nil
}

// Stop stops push notifications for the user's inbox.
func (s *Service) Stop(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) error {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return err
	}
	if err := srv.Users.Stop("me").Do(); err != nil {
		return fmt.Errorf("unable to stop mailbox watch: %w", err)
	}
	return nil
}

// ValidateToken validates the access token by making a simple API call.
func (s *Service) ValidateToken(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) error {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return err
	}
	if _, err := srv.Users.GetProfile("me").Do(); err != nil {
		return errors.New("invalid or expired access token")
	}
	return nil
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

func convertMessage(msg *gmail.Message) *emaildomain.Email {
	body := getEmailBody(msg.Payload)

	snippet := msg.Snippet
	if snippet == "" {
		snippet = body
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
	}

	return &emaildomain.Email{
		MessageID:       msg.Id,
		ThreadID:        msg.ThreadId,
		Subject:         getHeader(msg.Payload.Headers, "Subject"),
		From:            getHeader(msg.Payload.Headers, "From"),
		To:              getHeader(msg.Payload.Headers, "To"),
		Snippet:         snippet,
		Body:            body,
		ReceivedAt:      time.Unix(msg.InternalDate/1000, 0),
		IsRead:          !hasLabel(msg.LabelIds, "UNREAD"),
		IsStarred:       hasLabel(msg.LabelIds, "STARRED"),
		Labels:          msg.LabelIds,
		AttachmentCount: countAttachments(msg.Payload),
	}
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}

// getEmailBody prefers the plain text part, falling back to stripped HTML.
func getEmailBody(payload *gmail.MessagePart) string {
	if payload.Body != nil && payload.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(payload.Body.Data); err == nil {
			if payload.MimeType == "text/html" {
				return stripHTML(string(data))
			}
			return string(data)
		}
	}

	var htmlBody, plainBody string
	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Body != nil && part.Body.Data != "" {
				if data, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
					switch part.MimeType {
					case "text/html":
						htmlBody = string(data)
					case "text/plain":
						plainBody = string(data)
					}
				}
			}
			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}
	findBody(payload.Parts)

	if plainBody != "" {
		return plainBody
	}
	return stripHTML(htmlBody)
}

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	return strings.Join(strings.Fields(s), " ")
}

func countAttachments(payload *gmail.MessagePart) int {
	count := 0
	var walk func(parts []*gmail.MessagePart)
	walk = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
				count++
			}
			if len(part.Parts) > 0 {
				walk(part.Parts)
			}
		}
	}
	walk(payload.Parts)
	return count
}

func hasLabel(labels []string, labelID string) bool {
	for _, label := range labels {
		if label == labelID {
			return true
		}
	}
	return false
}
