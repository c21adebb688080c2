// Package session holds the durable state of one generation session: the
// goal tree, the task pool, the failure history, the conversation log, and
// the accumulating output.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// GoalKind distinguishes the single main goal from its sub-goals.
type GoalKind string

const (
	GoalMain GoalKind = "main"
	GoalSub  GoalKind = "sub"
)

// GoalStatus represents the lifecycle state of a goal.
type GoalStatus string

const (
	GoalPending    GoalStatus = "pending"
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
	GoalFailed     GoalStatus = "failed"
)

// Goal is a node in the intent tree. ParentID is a back-reference only,
// never an ownership edge. Goals are re-flagged, never deleted.
type Goal struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Kind        GoalKind   `json:"kind"`
	ParentID    string     `json:"parent_id,omitempty"`
	Status      GoalStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskExecuting TaskStatus = "executing"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskObsolete  TaskStatus = "obsolete"
)

// Terminal reports whether the status moves a task out of the live set.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskObsolete
}

// Task is one executable unit of work.
type Task struct {
	ID             string         `json:"id"`
	Description    string         `json:"description"`
	Capability     string         `json:"capability"`
	Params         map[string]any `json:"params,omitempty"`
	DependsOn      []string       `json:"depends_on,omitempty"`
	Status         TaskStatus     `json:"status"`
	Priority       int            `json:"priority"`
	Reasoning      string         `json:"reasoning,omitempty"`
	Result         map[string]any `json:"result,omitempty"`
	Error          string         `json:"error,omitempty"`
	ObsoleteReason string         `json:"obsolete_reason,omitempty"`
	Attempts       int            `json:"attempts,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// MessageRole identifies who produced a conversation message.
type MessageRole string

const (
	RoleUser   MessageRole = "user"
	RoleAgent  MessageRole = "agent"
	RoleSystem MessageRole = "system"
)

// Message is one entry in the append-only conversation log.
type Message struct {
	Role       MessageRole `json:"role"`
	Type       string      `json:"type,omitempty"`
	Content    string      `json:"content"`
	Ts         time.Time   `json:"ts"`
	TaskID     string      `json:"task_id,omitempty"`
	Capability string      `json:"capability,omitempty"`
	Reasoning  string      `json:"reasoning,omitempty"`
}

// Counters accumulates per-session engine bookkeeping.
type Counters struct {
	Iterations          int `json:"iterations"`
	Errors              int `json:"errors"`
	FailureAnalysisMark int `json:"failure_analysis_mark,omitempty"`
}

// Session is the whole persisted record for one generation session. The
// engine loads it fully before an iteration and persists it after each
// mutation; conversation messages live in a JSONL companion file and are
// carried here only in memory.
type Session struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Requirement  string         `json:"requirement"`
	Status       Status         `json:"status"`
	Provider     string         `json:"provider,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Revision     int            `json:"revision"`
	Goals        []*Goal        `json:"goals,omitempty"`
	Tasks        []*Task        `json:"tasks,omitempty"`
	Archived     []*Task        `json:"archived,omitempty"`
	Failures     FailureHistory `json:"failures"`
	Output       Output         `json:"output"`
	Counters     Counters       `json:"counters"`
	MessageCount int            `json:"message_count"`

	Conversation []Message `json:"-"`
}

// AppendMessage appends to the in-memory conversation log. The store
// persists the message separately; the log itself is never mutated.
func (s *Session) AppendMessage(msg Message) {
	if msg.Ts.IsZero() {
		msg.Ts = time.Now()
	}
	s.Conversation = append(s.Conversation, msg)
	s.MessageCount++
}

// RecentUserMessages returns up to n most recent user messages, newest last.
func (s *Session) RecentUserMessages(n int) []Message {
	var users []Message
	for _, m := range s.Conversation {
		if m.Role == RoleUser {
			users = append(users, m)
		}
	}
	if len(users) > n {
		users = users[len(users)-n:]
	}
	return users
}

func shortID(prefix string) string {
	u := uuid.New().String()
	return prefix + "_" + strings.ReplaceAll(u[:8], "-", "")
}

// GenerateSessionID creates a unique session identifier.
func GenerateSessionID() string { return shortID("sess") }

// GenerateTaskID creates a unique task identifier.
func GenerateTaskID() string { return shortID("task") }

// GenerateGoalID creates a unique goal identifier.
func GenerateGoalID() string { return shortID("goal") }
