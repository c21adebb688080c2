package events

import (
	"encoding/json"
	"time"
)

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

type SessionStartedPayload struct {
	Requirement string `json:"requirement"`
}

func (SessionStartedPayload) EventType() EventType { return EventSessionStarted }

type SessionCompletedPayload struct {
	Iterations int `json:"iterations"`
}

func (SessionCompletedPayload) EventType() EventType { return EventSessionCompleted }

type SessionFailedPayload struct {
	Reason     string `json:"reason"`
	Iterations int    `json:"iterations"`
}

func (SessionFailedPayload) EventType() EventType { return EventSessionFailed }

type TaskStartedPayload struct {
	TaskID      string `json:"task_id"`
	Capability  string `json:"capability"`
	Description string `json:"description"`
	Reasoning   string `json:"reasoning,omitempty"`
}

func (TaskStartedPayload) EventType() EventType { return EventTaskStarted }

type TaskCompletedPayload struct {
	TaskID     string `json:"task_id"`
	Capability string `json:"capability"`
}

func (TaskCompletedPayload) EventType() EventType { return EventTaskCompleted }

type TaskFailedPayload struct {
	TaskID       string `json:"task_id"`
	Capability   string `json:"capability"`
	Error        string `json:"error"`
	FailureCount int    `json:"failure_count"`
}

func (TaskFailedPayload) EventType() EventType { return EventTaskFailed }

type PlanCreatedPayload struct {
	PlanType  string `json:"plan_type"`
	GoalCount int    `json:"goal_count"`
	TaskCount int    `json:"task_count"`
	Fallback  bool   `json:"fallback,omitempty"`
}

func (PlanCreatedPayload) EventType() EventType { return EventPlanCreated }

type PromptRequestPayload struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices,omitempty"`
	TaskID  string   `json:"task_id,omitempty"`
}

func (PromptRequestPayload) EventType() EventType { return EventPromptRequest }

type PromptResponsePayload struct {
	Reply       string `json:"reply"`
	MajorChange bool   `json:"major_change"`
}

func (PromptResponsePayload) EventType() EventType { return EventPromptResponse }

type OutputUpdatedPayload struct {
	Field    string `json:"field"`
	Quality  int    `json:"quality"`
	Complete bool   `json:"complete"`
}

func (OutputUpdatedPayload) EventType() EventType { return EventOutputUpdated }

// NewTypedEvent builds an Event from a typed payload.
func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return Event{
		ID:        generateEventID(),
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

// NewTypedEventWithSession builds an Event carrying a session ID.
func NewTypedEventWithSession(source EventSource, payload EventPayload, sessionID string) Event {
	e := NewTypedEvent(source, payload)
	e.SessionID = sessionID
	return e
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// ExtractPayload decodes an event's payload into a typed payload struct.
func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}
