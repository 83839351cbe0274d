package models

import (
	"fmt"
	"time"
)

// LogEntry is one line of a session's append-only execution log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Session binds one campaign to its plan and execution log. It is the unit of
// persistence: the whole session is rewritten on every save.
type Session struct {
	ID           string     `json:"id"`
	Campaign     *Campaign  `json:"campaign" validate:"required"`
	Plan         *Plan      `json:"plan,omitempty"`
	ExecutionLog []LogEntry `json:"execution_log"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// AppendLog adds a timestamped entry to the execution log. The log is never
// rewritten, only appended.
func (s *Session) AppendLog(format string, args ...any) {
	s.ExecutionLog = append(s.ExecutionLog, LogEntry{
		Timestamp: time.Now().UTC(),
		Message:   fmt.Sprintf(format, args...),
	})
}
