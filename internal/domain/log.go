package domain

import "time"

type LogLevel string

const (
	LevelInfo     LogLevel = "INFO"
	LevelWarn     LogLevel = "WARN"
	LevelError    LogLevel = "ERROR"
	LevelProtocol LogLevel = "PROTOCOL"
)

func (l LogLevel) Valid() bool {
	switch l {
	case LevelInfo, LevelWarn, LevelError, LevelProtocol:
		return true
	}
	return false
}

type LogEntry struct {
	ID        string    `json:"id"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Component *string   `json:"component"`
	Timestamp time.Time `json:"timestamp"`
}
