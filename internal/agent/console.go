package agent

import "time"

// ConsoleState is the lifecycle state of the console panel.
type ConsoleState int

const (
	ConsoleAbsent ConsoleState = iota
	ConsoleVisible
	ConsoleHidden
)

func (s ConsoleState) String() string {
	switch s {
	case ConsoleVisible:
		return "visible"
	case ConsoleHidden:
		return "hidden"
	default:
		return "absent"
	}
}

// LogType is the severity of a console entry.
type LogType string

const (
	LogInfo    LogType = "info"
	LogSuccess LogType = "success"
	LogWarning LogType = "warning"
	LogError   LogType = "error"
)

// LogEntry is one line of the console panel.
type LogEntry struct {
	Time    time.Time
	Type    LogType
	Message string
	Details string
}

// console holds the panel state. It is not safe for concurrent use; the
// Agent guards it.
type console struct {
	state   ConsoleState
	entries []LogEntry
}

// toggle advances the state machine and reports whether the panel is now
// visible. injected is true on the first toggle.
func (c *console) toggle() (visible, injected bool) {
	switch c.state {
	case ConsoleAbsent:
		c.state = ConsoleVisible
		return true, true
	case ConsoleVisible:
		c.state = ConsoleHidden
		return false, false
	default:
		c.state = ConsoleVisible
		return true, false
	}
}

func (c *console) visible() bool { return c.state == ConsoleVisible }

// append records e. Entries logged before the panel exists are dropped.
func (c *console) append(e LogEntry) bool {
	if c.state == ConsoleAbsent {
		return false
	}
	c.entries = append(c.entries, e)
	return true
}

func (c *console) clear() { c.entries = nil }

func (c *console) snapshot() []LogEntry {
	out := make([]LogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}
