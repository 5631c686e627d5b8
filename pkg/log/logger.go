package log

// Logger receives protocol capture events. Components that accept a Logger
// treat nil as "capture disabled".
type Logger interface {
	// Log records one event. It is called from the goroutine that produced
	// the event and must not block for long.
	Log(event Event)
}
