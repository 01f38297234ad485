package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	authdomain "inboxai-backend/internal/auth/domain"
	calendardto "inboxai-backend/internal/calendar/dto"
	calendarusecase "inboxai-backend/internal/calendar/usecase"
	chatdomain "inboxai-backend/internal/chat/domain"
	chatdto "inboxai-backend/internal/chat/dto"
	"inboxai-backend/internal/chat/repository"
	emaildomain "inboxai-backend/internal/email/domain"
	emaildto "inboxai-backend/internal/email/dto"
	emailusecase "inboxai-backend/internal/email/usecase"
)

type chatUsecase struct {
	mu         sync.Mutex
	stores     map[string]repository.ChatRepository
	llm        LLM
	emailUc    emailusecase.EmailUsecase
	calendarUc calendarusecase.CalendarUsecase
}

func NewChatUsecase(llm LLM, emailUc emailusecase.EmailUsecase, calendarUc calendarusecase.CalendarUsecase) ChatUsecase {
	return &chatUsecase{
		stores:     make(map[string]repository.ChatRepository),
		llm:        llm,
		emailUc:    emailUc,
		calendarUc: calendarUc,
	}
}

func (u *chatUsecase) storeFor(userID string) repository.ChatRepository {
	u.mu.Lock()
	defer u.mu.Unlock()

	store, ok := u.stores[userID]
	if !ok {
		store = repository.NewChatRepository()
		u.stores[userID] = store
	}
	return store
}

func actionLabels() []string {
	labels := make([]string, 0, len(chatdomain.Actions))
	for _, action := range chatdomain.Actions {
		labels = append(labels, string(action))
	}
	return labels
}

func (u *chatUsecase) HandleMessage(ctx context.Context, user *authdomain.User, req *chatdto.ChatRequest) (*chatdto.ChatResponse, error) {
	store := u.storeFor(user.ID)
	if _, err := store.AppendMessage(chatdomain.RoleUser, req.Message, nil); err != nil {
		return nil, err
	}

	action := chatdomain.ActionGeneral
	params := map[string]string{}
	if u.llm != nil {
		intent, err := u.llm.ClassifyIntent(ctx, req.Message, actionLabels())
		if err != nil {
			log.Printf("[Chat] Intent classification failed, falling back to general: %v", err)
		} else {
			action = chatdomain.ParseAction(intent.Action)
			params = intent.Params
		}
	}

	reply := u.dispatch(ctx, user, action, params, req.Message)
	suggestions := suggestionsFor(action)

	metadata := map[string]string{"action": string(action)}
	if encoded, err := json.Marshal(suggestions); err == nil {
		metadata["suggestions"] = string(encoded)
	}
	assistantMsg, err := store.AppendMessage(chatdomain.RoleAssistant, reply, metadata)
	if err != nil {
		return nil, err
	}

	return &chatdto.ChatResponse{
		Reply:       assistantMsg,
		Action:      action,
		Suggestions: suggestions,
	}, nil
}

func (u *chatUsecase) dispatch(ctx context.Context, user *authdomain.User, action chatdomain.Action, params map[string]string, message string) string {
	switch action {
	case chatdomain.ActionSendEmail:
		return u.doSendEmail(ctx, user, params)
	case chatdomain.ActionMarkRead:
		return u.doPatchEmail(ctx, user, params, "read")
	case chatdomain.ActionStarEmail:
		return u.doPatchEmail(ctx, user, params, "star")
	case chatdomain.ActionArchiveEmail:
		return u.doArchiveEmail(ctx, user, params)
	case chatdomain.ActionCreateEvent:
		return u.doCreateEvent(ctx, user, params)
	case chatdomain.ActionUpdateEvent:
		return u.doUpdateEvent(ctx, user, params)
	case chatdomain.ActionDeleteEvent:
		return u.doDeleteEvent(ctx, user, params)
	case chatdomain.ActionFindFreeTime:
		return u.doFindFreeTime(user)
	case chatdomain.ActionQueryEmails:
		return u.doQueryEmails(user, params)
	case chatdomain.ActionQueryCalendar:
		return u.doQueryCalendar(user)
	default:
		return u.doGeneral(ctx, user, message)
	}
}

func (u *chatUsecase) doSendEmail(ctx context.Context, user *authdomain.User, params map[string]string) string {
	to := params["to"]
	subject := params["subject"]
	body := params["body"]
	if to == "" || subject == "" {
		return "I need a recipient and a subject to send that email. Could you provide them?"
	}
	if body == "" {
		body = subject
	}

	err := u.emailUc.SendEmail(ctx, user, &emaildto.SendEmailRequest{To: to, Subject: subject, Body: body})
	if err != nil {
		return fmt.Sprintf("I couldn't send the email: %v", err)
	}
	return fmt.Sprintf("Done, I've sent \"%s\" to %s.", subject, to)
}

// resolveEmail finds the email the user is referring to, by local id,
// provider message id, or a subject fragment.
func (u *chatUsecase) resolveEmail(userID string, params map[string]string) *emaildomain.Email {
	if id := params["message_id"]; id != "" {
		if email, err := u.emailUc.GetEmailByID(userID, id); err == nil {
			return email
		}
	}

	needle := strings.ToLower(params["subject"])
	if needle == "" {
		needle = strings.ToLower(params["query"])
	}
	if needle == "" {
		return nil
	}

	emails, err := u.emailUc.GetEmails(userID)
	if err != nil {
		return nil
	}
	for _, email := range emails {
		if strings.Contains(strings.ToLower(email.Subject), needle) ||
			email.MessageID == params["message_id"] {
			return email
		}
	}
	return nil
}

func (u *chatUsecase) doPatchEmail(ctx context.Context, user *authdomain.User, params map[string]string, kind string) string {
	email := u.resolveEmail(user.ID, params)
	if email == nil {
		return "I couldn't find the email you mean. Could you tell me its subject?"
	}

	yes := true
	patch := &emaildto.UpdateEmailRequest{}
	var verb string
	if kind == "read" {
		patch.IsRead = &yes
		verb = "marked as read"
	} else {
		patch.IsStarred = &yes
		verb = "starred"
	}

	if _, err := u.emailUc.UpdateEmail(ctx, user, email.ID, patch); err != nil {
		return fmt.Sprintf("I couldn't update that email: %v", err)
	}
	return fmt.Sprintf("\"%s\" has been %s.", email.Subject, verb)
}

func (u *chatUsecase) doArchiveEmail(ctx context.Context, user *authdomain.User, params map[string]string) string {
	email := u.resolveEmail(user.ID, params)
	if email == nil {
		return "I couldn't find the email you mean. Could you tell me its subject?"
	}
	if err := u.emailUc.ArchiveEmail(ctx, user, email.ID); err != nil {
		return fmt.Sprintf("I couldn't archive that email: %v", err)
	}
	return fmt.Sprintf("\"%s\" has been archived.", email.Subject)
}

// parseWhen accepts the timestamp formats the model tends to produce.
func parseWhen(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (u *chatUsecase) doCreateEvent(ctx context.Context, user *authdomain.User, params map[string]string) string {
	summary := params["summary"]
	if summary == "" {
		summary = params["title"]
	}
	start, okStart := parseWhen(params["start"])
	if summary == "" || !okStart {
		return "I need at least a title and a start time to create the event. When should it be?"
	}

	end, okEnd := parseWhen(params["end"])
	if !okEnd {
		end = start.Add(time.Hour)
	}

	event, err := u.calendarUc.CreateEvent(ctx, user, &calendardto.CreateEventRequest{
		Summary:     summary,
		Description: params["description"],
		Location:    params["location"],
		StartTime:   start,
		EndTime:     end,
	})
	if err != nil {
		return fmt.Sprintf("I couldn't create the event: %v", err)
	}
	return fmt.Sprintf("Created \"%s\" on %s at %s.", event.Summary,
		event.StartTime.Format("Mon, Jan 2"), event.StartTime.Format("15:04"))
}

func (u *chatUsecase) resolveEvent(userID string, params map[string]string) string {
	if id := params["event_id"]; id != "" {
		if event, err := u.calendarUc.GetEventByID(userID, id); err == nil {
			return event.ID
		}
	}

	needle := strings.ToLower(params["summary"])
	if needle == "" {
		needle = strings.ToLower(params["query"])
	}
	if needle == "" {
		return ""
	}

	events, err := u.calendarUc.GetEvents(userID)
	if err != nil {
		return ""
	}
	for _, event := range events {
		if strings.Contains(strings.ToLower(event.Summary), needle) {
			return event.ID
		}
	}
	return ""
}

func (u *chatUsecase) doUpdateEvent(ctx context.Context, user *authdomain.User, params map[string]string) string {
	id := u.resolveEvent(user.ID, params)
	if id == "" {
		return "I couldn't find that event. What is it called?"
	}

	patch := &calendardto.UpdateEventRequest{}
	if title, ok := params["new_summary"]; ok && title != "" {
		patch.Summary = &title
	}
	if start, ok := parseWhen(params["start"]); ok {
		patch.StartTime = &start
	}
	if end, ok := parseWhen(params["end"]); ok {
		patch.EndTime = &end
	}

	event, err := u.calendarUc.UpdateEvent(ctx, user, id, patch)
	if err != nil {
		return fmt.Sprintf("I couldn't update the event: %v", err)
	}
	return fmt.Sprintf("\"%s\" is now on %s at %s.", event.Summary,
		event.StartTime.Format("Mon, Jan 2"), event.StartTime.Format("15:04"))
}

func (u *chatUsecase) doDeleteEvent(ctx context.Context, user *authdomain.User, params map[string]string) string {
	id := u.resolveEvent(user.ID, params)
	if id == "" {
		return "I couldn't find that event. What is it called?"
	}
	deleted, err := u.calendarUc.DeleteEvent(ctx, user, id)
	if err != nil {
		return fmt.Sprintf("I couldn't delete the event: %v", err)
	}
	if !deleted {
		return "That event seems to be gone already."
	}
	return "The event has been deleted."
}

func (u *chatUsecase) doFindFreeTime(user *authdomain.User) string {
	slots := u.calendarUc.FindFreeSlots(user.ID, time.Now(), 60, 7)
	if len(slots) == 0 {
		return "I couldn't find any free slots in the next week. Your calendar is packed."
	}

	var b strings.Builder
	b.WriteString("Here are your next free slots:\n")
	for _, slot := range slots {
		fmt.Fprintf(&b, "- %s from %s to %s (%d min)\n", slot.Date, slot.StartTime, slot.EndTime, slot.DurationMinutes)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (u *chatUsecase) doQueryEmails(user *authdomain.User, params map[string]string) string {
	emails, err := u.emailUc.GetEmails(user.ID)
	if err != nil {
		return fmt.Sprintf("I couldn't read your inbox: %v", err)
	}
	if len(emails) == 0 {
		return "Your inbox is empty."
	}

	needle := strings.ToLower(params["query"])
	matched := make([]*emaildomain.Email, 0, 5)
	for _, email := range emails {
		if needle != "" &&
			!strings.Contains(strings.ToLower(email.Subject), needle) &&
			!strings.Contains(strings.ToLower(email.From), needle) {
			continue
		}
		matched = append(matched, email)
		if len(matched) == 5 {
			break
		}
	}
	if len(matched) == 0 {
		return fmt.Sprintf("No emails matched \"%s\".", params["query"])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here are your latest emails (%d total):\n", len(emails))
	for _, email := range matched {
		marker := ""
		if email.IsUrgent {
			marker = " [urgent]"
		}
		fmt.Fprintf(&b, "- %s from %s%s\n", email.Subject, email.From, marker)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (u *chatUsecase) doQueryCalendar(user *authdomain.User) string {
	events, err := u.calendarUc.GetUpcomingEvents(user.ID, time.Now(), 5)
	if err != nil {
		return fmt.Sprintf("I couldn't read your calendar: %v", err)
	}
	if len(events) == 0 {
		return "You have no upcoming events."
	}

	var b strings.Builder
	b.WriteString("Your next events:\n")
	for _, event := range events {
		fmt.Fprintf(&b, "- %s on %s at %s\n", event.Summary,
			event.StartTime.Format("Mon, Jan 2"), event.StartTime.Format("15:04"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (u *chatUsecase) doGeneral(ctx context.Context, user *authdomain.User, message string) string {
	if u.llm == nil {
		return "I can help you with your emails and calendar. Try asking about your inbox or your schedule."
	}

	analytics := u.emailUc.GetAnalytics(user.ID, time.Now())
	contextText := fmt.Sprintf("The user has %d emails, %d unread, %d urgent.",
		analytics.TotalEmails, analytics.UnreadEmails, analytics.UrgentEmails)

	reply, err := u.llm.GenerateReply(ctx, message, contextText)
	if err != nil {
		log.Printf("[Chat] Reply generation failed: %v", err)
		return "I can help you with your emails and calendar. Try asking about your inbox or your schedule."
	}
	return reply
}

func suggestionsFor(action chatdomain.Action) []string {
	switch action {
	case chatdomain.ActionQueryEmails, chatdomain.ActionMarkRead, chatdomain.ActionStarEmail, chatdomain.ActionArchiveEmail:
		return []string{"Show my urgent emails", "Draft a reply", "Archive this email"}
	case chatdomain.ActionQueryCalendar, chatdomain.ActionCreateEvent, chatdomain.ActionUpdateEvent, chatdomain.ActionDeleteEvent:
		return []string{"When am I free this week?", "What's on my calendar tomorrow?"}
	case chatdomain.ActionFindFreeTime:
		return []string{"Schedule a meeting in the first slot", "Show my upcoming events"}
	case chatdomain.ActionSendEmail:
		return []string{"Show my sent email", "Check my inbox"}
	default:
		return []string{"Check my inbox", "When am I free this week?"}
	}
}

func (u *chatUsecase) GetMessages(userID string) ([]*chatdomain.ChatMessage, error) {
	return u.storeFor(userID).GetMessages()
}

func (u *chatUsecase) ClearMessages(userID string) {
	u.storeFor(userID).Clear()
}
