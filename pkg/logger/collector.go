package logger

import (
	"sync"
	"time"
)

// RecentEntry is one captured warn/error log line.
type RecentEntry struct {
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
	Caller  string                 `json:"caller"`
	Time    time.Time              `json:"time"`
}

// LogCollector keeps a bounded ring of recent warn/error messages so the
// status surface can show what went wrong without shell access to the logs.
type LogCollector struct {
	mu      sync.RWMutex
	entries []RecentEntry
	next    int
	full    bool
}

func NewLogCollector(capacity int) *LogCollector {
	if capacity <= 0 {
		capacity = 50
	}
	return &LogCollector{entries: make([]RecentEntry, capacity)}
}

func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[c.next] = RecentEntry{
		Level:   level,
		Message: message,
		Fields:  fields,
		Caller:  caller,
		Time:    time.Now(),
	}
	c.next++
	if c.next == len(c.entries) {
		c.next = 0
		c.full = true
	}
}

// Recent returns the captured entries, newest first.
func (c *LogCollector) Recent() []RecentEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := c.next
	if c.full {
		n = len(c.entries)
	}
	out := make([]RecentEntry, 0, n)
	for i := 0; i < n; i++ {
		idx := (c.next - 1 - i + len(c.entries)) % len(c.entries)
		out = append(out, c.entries[idx])
	}
	return out
}

func (c *LogCollector) Close() {}
