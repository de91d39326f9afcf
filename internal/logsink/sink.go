// Package logsink is the coordinator's bounded event log. Entries are kept
// in insertion order in a fixed ring; once full, the oldest entry is evicted.
package logsink

import (
	"sync"
	"time"

	"shuttle/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultCapacity = 1000
	DefaultLimit    = 100
)

// Listener receives every appended entry. It runs with the sink lock released
// and must not block for long.
type Listener func(entry domain.LogEntry)

type Sink struct {
	mu       sync.RWMutex
	ring     []domain.LogEntry
	start    int
	size     int
	last     time.Time
	now      func() time.Time
	log      *zap.Logger
	onAppend []Listener
	onClear  []func()
}

func New(capacity int, log *zap.Logger) *Sink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{
		ring: make([]domain.LogEntry, capacity),
		now:  time.Now,
		log:  log,
	}
}

func (s *Sink) Capacity() int {
	return len(s.ring)
}

func (s *Sink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Subscribe registers fn for appends and, when onClear is not nil, for clears.
func (s *Sink) Subscribe(fn Listener, onClear func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.onAppend = append(s.onAppend, fn)
	}
	if onClear != nil {
		s.onClear = append(s.onClear, onClear)
	}
}

// Append records a new entry. An empty component is stored as null.
func (s *Sink) Append(level domain.LogLevel, message, component string) domain.LogEntry {
	s.mu.Lock()
	entry := s.appendLocked(level, message, component)
	listeners := s.onAppend
	s.mu.Unlock()

	s.mirror(entry)
	for _, fn := range listeners {
		fn(entry)
	}
	return entry
}

func (s *Sink) Info(component, format string, args ...any) domain.LogEntry {
	return s.Append(domain.LevelInfo, sprintf(format, args...), component)
}

func (s *Sink) Warn(component, format string, args ...any) domain.LogEntry {
	return s.Append(domain.LevelWarn, sprintf(format, args...), component)
}

func (s *Sink) Error(component, format string, args ...any) domain.LogEntry {
	return s.Append(domain.LevelError, sprintf(format, args...), component)
}

func (s *Sink) appendLocked(level domain.LogLevel, message, component string) domain.LogEntry {
	ts := s.now()
	if ts.Before(s.last) {
		ts = s.last
	}
	s.last = ts

	entry := domain.LogEntry{
		ID:        uuid.New().String(),
		Level:     level,
		Message:   message,
		Timestamp: ts,
	}
	if component != "" {
		entry.Component = domain.StringPtr(component)
	}

	capacity := len(s.ring)
	if s.size < capacity {
		s.ring[(s.start+s.size)%capacity] = entry
		s.size++
	} else {
		s.ring[s.start] = entry
		s.start = (s.start + 1) % capacity
	}
	return entry
}

// List returns up to limit entries, newest first. limit <= 0 means
// DefaultLimit.
func (s *Sink) List(limit int) []domain.LogEntry {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit > s.size {
		limit = s.size
	}
	entries := make([]domain.LogEntry, 0, limit)
	capacity := len(s.ring)
	for i := 0; i < limit; i++ {
		idx := (s.start + s.size - 1 - i + capacity) % capacity
		entries = append(entries, s.ring[idx])
	}
	return entries
}

// Clear empties the log and records the clear itself in the same critical
// section, so the clear entry is always the oldest one left.
func (s *Sink) Clear(component string) domain.LogEntry {
	s.mu.Lock()
	for i := range s.ring {
		s.ring[i] = domain.LogEntry{}
	}
	s.start = 0
	s.size = 0
	entry := s.appendLocked(domain.LevelInfo, "System logs cleared", component)
	clears := s.onClear
	listeners := s.onAppend
	s.mu.Unlock()

	for _, fn := range clears {
		fn()
	}
	s.mirror(entry)
	for _, fn := range listeners {
		fn(entry)
	}
	return entry
}

func (s *Sink) mirror(entry domain.LogEntry) {
	fields := []zap.Field{zap.String("entry_id", entry.ID)}
	if entry.Component != nil {
		fields = append(fields, zap.String("component", *entry.Component))
	}
	switch entry.Level {
	case domain.LevelWarn:
		s.log.Warn(entry.Message, fields...)
	case domain.LevelError:
		s.log.Error(entry.Message, fields...)
	case domain.LevelProtocol:
		s.log.Debug(entry.Message, fields...)
	default:
		s.log.Info(entry.Message, fields...)
	}
}
