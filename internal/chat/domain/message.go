package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Action is the closed set of intents the assistant can resolve a chat
// message to. Anything that does not map onto one of these falls back
// to ActionGeneral.
type Action string

const (
	ActionSendEmail     Action = "send_email"
	ActionMarkRead      Action = "mark_read"
	ActionStarEmail     Action = "star_email"
	ActionArchiveEmail  Action = "archive_email"
	ActionCreateEvent   Action = "create_event"
	ActionUpdateEvent   Action = "update_event"
	ActionDeleteEvent   Action = "delete_event"
	ActionFindFreeTime  Action = "find_free_time"
	ActionQueryEmails   Action = "query_emails"
	ActionQueryCalendar Action = "query_calendar"
	ActionGeneral       Action = "general"
)

var Actions = []Action{
	ActionSendEmail,
	ActionMarkRead,
	ActionStarEmail,
	ActionArchiveEmail,
	ActionCreateEvent,
	ActionUpdateEvent,
	ActionDeleteEvent,
	ActionFindFreeTime,
	ActionQueryEmails,
	ActionQueryCalendar,
	ActionGeneral,
}

// ParseAction maps a raw model label onto the action enum, falling back
// to ActionGeneral for anything unrecognized.
func ParseAction(raw string) Action {
	for _, action := range Actions {
		if string(action) == raw {
			return action
		}
	}
	return ActionGeneral
}

type ChatMessage struct {
	ID        string            `json:"id"`
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
