package crawl

// EventKind classifies progress events emitted while crawling.
type EventKind int

const (
	// EventRowStarted fires when a row begins processing.
	EventRowStarted EventKind = iota
	// EventRowFinished fires after a row's checkpoint is saved.
	EventRowFinished
	// EventRowSkipped fires for rows passed over (flagged or already done).
	EventRowSkipped
	// EventRateLimited fires when the crawler starts waiting for a quota
	// reset.
	EventRateLimited
)

// Event describes crawl progress for live display. Row is the zero-based
// index into the result table.
type Event struct {
	Kind    EventKind
	Row     int
	Total   int
	RepoURL string
	Message string
	Err     error
}

// notify sends an event without blocking when no listener is attached.
func notify(ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}
