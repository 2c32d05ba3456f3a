package engine

// Event is a notable occurrence in the simulation.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "birth", "death", "raid", "succession", "construction"
}

// EventLog is a bounded ring of recent events.
type EventLog struct {
	events []Event
	limit  int
}

// NewEventLog creates a log keeping at most limit events.
func NewEventLog(limit int) *EventLog {
	return &EventLog{limit: limit}
}

// Add appends an event, dropping the oldest past the limit.
func (l *EventLog) Add(e Event) {
	l.events = append(l.events, e)
	if len(l.events) > l.limit {
		l.events = l.events[len(l.events)-l.limit:]
	}
}

// Recent returns up to n most recent events, newest last.
func (l *EventLog) Recent(n int) []Event {
	if n <= 0 || n > len(l.events) {
		n = len(l.events)
	}
	out := make([]Event, n)
	copy(out, l.events[len(l.events)-n:])
	return out
}

// CountByCategory tallies the stored events per category.
func (l *EventLog) CountByCategory() map[string]int {
	counts := make(map[string]int)
	for _, e := range l.events {
		counts[e.Category]++
	}
	return counts
}
