package model

import "fmt"

type EventType string

const (
	EventHistory     EventType = "history"
	EventWelcome     EventType = "welcome"
	EventMessage     EventType = "message"
	EventUserJoined  EventType = "user_joined"
	EventUserLeft    EventType = "user_left"
	EventStartTyping EventType = "start_typing"
	EventStopTyping  EventType = "stop_typing"
	EventPing        EventType = "ping"
	EventError       EventType = "error"
)

// Event is the envelope pushed to participants over the websocket.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

// Frame is the envelope clients send inbound.
type Frame struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
}

type HistoryPayload struct {
	Messages []Message `json:"messages"`
}

type WelcomePayload struct {
	UserID  string `json:"userId"`
	Content string `json:"content"`
}

type UserPayload struct {
	UserID string `json:"userId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func HistoryEvent(messages []Message) Event {
	if messages == nil {
		messages = []Message{}
	}
	return Event{Type: EventHistory, Data: HistoryPayload{Messages: messages}}
}

func WelcomeEvent(userID string) Event {
	return Event{Type: EventWelcome, Data: WelcomePayload{
		UserID:  userID,
		Content: fmt.Sprintf("Welcome %s! You've joined the conversation.", userID),
	}}
}

func MessageEvent(msg Message) Event {
	return Event{Type: EventMessage, Data: msg}
}

func UserJoinedEvent(userID string) Event {
	return Event{Type: EventUserJoined, Data: UserPayload{UserID: userID}}
}

func UserLeftEvent(userID string) Event {
	return Event{Type: EventUserLeft, Data: UserPayload{UserID: userID}}
}

func StartTypingEvent(userID string) Event {
	return Event{Type: EventStartTyping, Data: UserPayload{UserID: userID}}
}

func StopTypingEvent(userID string) Event {
	return Event{Type: EventStopTyping, Data: UserPayload{UserID: userID}}
}

func PingEvent() Event {
	return Event{Type: EventPing}
}

func ErrorEvent(message string) Event {
	return Event{Type: EventError, Data: ErrorPayload{Message: message}}
}
