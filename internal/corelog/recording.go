package corelog

import "sync"

// Event is one recorded call made against a Recorder.
type Event struct {
	Level  string
	Name   string
	Fields []Field
}

// Recorder is a Logger that records every call instead of printing it, so
// tests can assert on Recorder.Events instead of scraping stdout.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Info(event string, fields ...Field)  { r.record("INFO", event, fields) }
func (r *Recorder) Debug(event string, fields ...Field) { r.record("DEBUG", event, fields) }
func (r *Recorder) Warn(event string, fields ...Field)  { r.record("WARN", event, fields) }

func (r *Recorder) record(level, name string, fields []Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Event{Level: level, Name: name, Fields: fields})
}

// HasEvent reports whether an event with the given level and name was
// recorded.
func (r *Recorder) HasEvent(level, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Events {
		if e.Level == level && e.Name == name {
			return true
		}
	}
	return false
}

// CountLevel returns how many events were recorded at the given level.
func (r *Recorder) CountLevel(level string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.Events {
		if e.Level == level {
			n++
		}
	}
	return n
}

var _ Logger = (*Standard)(nil)
var _ Logger = (*Recorder)(nil)
