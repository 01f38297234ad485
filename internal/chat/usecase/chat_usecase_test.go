package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	authdomain "inboxai-backend/internal/auth/domain"
	calendarusecase "inboxai-backend/internal/calendar/usecase"
	chatdomain "inboxai-backend/internal/chat/domain"
	chatdto "inboxai-backend/internal/chat/dto"
	emaildto "inboxai-backend/internal/email/dto"
	emailusecase "inboxai-backend/internal/email/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) ClassifyIntent(ctx context.Context, message string, actions []string) (*Intent, error) {
	args := m.Called(message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Intent), args.Error(1)
}

func (m *mockLLM) GenerateReply(ctx context.Context, message, contextText string) (string, error) {
	args := m.Called(message)
	return args.String(0), args.Error(1)
}

// Local user so actions never reach the Google providers.
func testUser() *authdomain.User {
	return &authdomain.User{ID: "user-1", Email: "me@example.com"}
}

func newTestUsecases() (emailusecase.EmailUsecase, calendarusecase.CalendarUsecase) {
	return emailusecase.NewEmailUsecase(nil, nil, nil, nil, 0),
		calendarusecase.NewCalendarUsecase(nil, nil)
}

func TestHandleMessage_AppendsBothSidesOfConversation(t *testing.T) {
	llm := new(mockLLM)
	llm.On("ClassifyIntent", "hello").Return(&Intent{Action: "general", Params: map[string]string{}}, nil)
	llm.On("GenerateReply", "hello").Return("Hi there!", nil)

	emailUc, calendarUc := newTestUsecases()
	uc := NewChatUsecase(llm, emailUc, calendarUc)

	resp, err := uc.HandleMessage(context.Background(), testUser(), &chatdto.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, chatdomain.ActionGeneral, resp.Action)
	assert.Equal(t, "Hi there!", resp.Reply.Content)
	assert.Equal(t, "general", resp.Reply.Metadata["action"])

	// The stored assistant message keeps the follow-up suggestions so the
	// history endpoint can replay them.
	var stored []string
	require.NoError(t, json.Unmarshal([]byte(resp.Reply.Metadata["suggestions"]), &stored))
	assert.Equal(t, resp.Suggestions, stored)

	messages, err := uc.GetMessages("user-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, chatdomain.RoleUser, messages[0].Role)
	assert.Equal(t, "hello", messages[0].Content)
	assert.Equal(t, chatdomain.RoleAssistant, messages[1].Role)
	assert.True(t, messages[1].CreatedAt.After(messages[0].CreatedAt))
}

func TestHandleMessage_UnknownActionFallsBackToGeneral(t *testing.T) {
	llm := new(mockLLM)
	llm.On("ClassifyIntent", "do something weird").Return(&Intent{Action: "launch_rocket", Params: map[string]string{}}, nil)
	llm.On("GenerateReply", "do something weird").Return("Not sure I can do that.", nil)

	emailUc, calendarUc := newTestUsecases()
	uc := NewChatUsecase(llm, emailUc, calendarUc)

	resp, err := uc.HandleMessage(context.Background(), testUser(), &chatdto.ChatRequest{Message: "do something weird"})
	require.NoError(t, err)
	assert.Equal(t, chatdomain.ActionGeneral, resp.Action)
}

func TestHandleMessage_ClassifierFailureStillReplies(t *testing.T) {
	llm := new(mockLLM)
	llm.On("ClassifyIntent", "hi").Return(nil, errors.New("model unavailable"))
	llm.On("GenerateReply", "hi").Return("Hello!", nil)

	emailUc, calendarUc := newTestUsecases()
	uc := NewChatUsecase(llm, emailUc, calendarUc)

	resp, err := uc.HandleMessage(context.Background(), testUser(), &chatdto.ChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, chatdomain.ActionGeneral, resp.Action)
	assert.NotEmpty(t, resp.Reply.Content)
}

func TestHandleMessage_MarkReadBySubject(t *testing.T) {
	emailUc, calendarUc := newTestUsecases()
	user := testUser()

	_, err := emailUc.CreateEmail(user.ID, &emaildto.CreateEmailRequest{
		Subject: "Quarterly report",
		From:    "boss@example.com",
	})
	require.NoError(t, err)

	llm := new(mockLLM)
	llm.On("ClassifyIntent", "mark the quarterly report as read").Return(&Intent{
		Action: "mark_read",
		Params: map[string]string{"subject": "quarterly report"},
	}, nil)

	uc := NewChatUsecase(llm, emailUc, calendarUc)
	resp, err := uc.HandleMessage(context.Background(), user, &chatdto.ChatRequest{Message: "mark the quarterly report as read"})
	require.NoError(t, err)
	assert.Equal(t, chatdomain.ActionMarkRead, resp.Action)
	assert.Contains(t, resp.Reply.Content, "marked as read")

	emails, _ := emailUc.GetEmails(user.ID)
	require.Len(t, emails, 1)
	assert.True(t, emails[0].IsRead)
}

func TestHandleMessage_CreateEvent(t *testing.T) {
	emailUc, calendarUc := newTestUsecases()
	user := testUser()

	llm := new(mockLLM)
	llm.On("ClassifyIntent", "schedule lunch tomorrow at noon").Return(&Intent{
		Action: "create_event",
		Params: map[string]string{"summary": "Lunch", "start": "2026-09-01 12:00"},
	}, nil)

	uc := NewChatUsecase(llm, emailUc, calendarUc)
	resp, err := uc.HandleMessage(context.Background(), user, &chatdto.ChatRequest{Message: "schedule lunch tomorrow at noon"})
	require.NoError(t, err)
	assert.Equal(t, chatdomain.ActionCreateEvent, resp.Action)
	assert.Contains(t, resp.Reply.Content, "Lunch")

	events, _ := calendarUc.GetEvents(user.ID)
	require.Len(t, events, 1)
	assert.Equal(t, "Lunch", events[0].Summary)
	// Missing end time defaults to one hour.
	assert.Equal(t, time.Hour, events[0].EndTime.Sub(events[0].StartTime))
}

func TestHandleMessage_CreateEventMissingStartAsksBack(t *testing.T) {
	emailUc, calendarUc := newTestUsecases()

	llm := new(mockLLM)
	llm.On("ClassifyIntent", "schedule lunch").Return(&Intent{
		Action: "create_event",
		Params: map[string]string{"summary": "Lunch"},
	}, nil)

	uc := NewChatUsecase(llm, emailUc, calendarUc)
	resp, err := uc.HandleMessage(context.Background(), testUser(), &chatdto.ChatRequest{Message: "schedule lunch"})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply.Content, "start time")

	events, _ := calendarUc.GetEvents("user-1")
	assert.Empty(t, events)
}

func TestHandleMessage_FindFreeTime(t *testing.T) {
	emailUc, calendarUc := newTestUsecases()

	llm := new(mockLLM)
	llm.On("ClassifyIntent", "when am I free?").Return(&Intent{
		Action: "find_free_time",
		Params: map[string]string{},
	}, nil)

	uc := NewChatUsecase(llm, emailUc, calendarUc)
	resp, err := uc.HandleMessage(context.Background(), testUser(), &chatdto.ChatRequest{Message: "when am I free?"})
	require.NoError(t, err)
	assert.Equal(t, chatdomain.ActionFindFreeTime, resp.Action)
	assert.NotEmpty(t, resp.Suggestions)
}

func TestHandleMessage_QueryEmails(t *testing.T) {
	emailUc, calendarUc := newTestUsecases()
	user := testUser()

	_, err := emailUc.CreateEmail(user.ID, &emaildto.CreateEmailRequest{
		Subject: "URGENT: contract deadline",
		From:    "legal@example.com",
		Body:    "please review immediately",
	})
	require.NoError(t, err)

	llm := new(mockLLM)
	llm.On("ClassifyIntent", "what's in my inbox?").Return(&Intent{
		Action: "query_emails",
		Params: map[string]string{},
	}, nil)

	uc := NewChatUsecase(llm, emailUc, calendarUc)
	resp, err := uc.HandleMessage(context.Background(), user, &chatdto.ChatRequest{Message: "what's in my inbox?"})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply.Content, "URGENT: contract deadline")
	assert.Contains(t, resp.Reply.Content, "[urgent]")
}

func TestClearMessages(t *testing.T) {
	llm := new(mockLLM)
	llm.On("ClassifyIntent", mock.Anything).Return(&Intent{Action: "general", Params: map[string]string{}}, nil)
	llm.On("GenerateReply", mock.Anything).Return("ok", nil)

	emailUc, calendarUc := newTestUsecases()
	uc := NewChatUsecase(llm, emailUc, calendarUc)

	_, err := uc.HandleMessage(context.Background(), testUser(), &chatdto.ChatRequest{Message: "hello"})
	require.NoError(t, err)

	uc.ClearMessages("user-1")
	messages, _ := uc.GetMessages("user-1")
	assert.Empty(t, messages)
}
