package testing

import (
	"fmt"
	"sync"

	"github.com/imamik/ec2-cli/internal/provisioning"
)

// RecordingObserver is a provisioning.Observer that records everything it is given.
type RecordingObserver struct {
	mu       sync.Mutex
	events   []provisioning.Event
	messages []string
	fields   map[string]string
}

var _ provisioning.Observer = (*RecordingObserver)(nil)

// NewRecordingObserver creates an empty recorder.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{fields: map[string]string{}}
}

// Printf records a formatted message.
func (o *RecordingObserver) Printf(format string, v ...interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, fmt.Sprintf(format, v...))
}

// Event records an event.
func (o *RecordingObserver) Event(event provisioning.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

// Progress records a progress event.
func (o *RecordingObserver) Progress(phase string, current, total int) {
	o.Event(provisioning.Event{
		Type:    provisioning.EventProgress,
		Phase:   phase,
		Message: fmt.Sprintf("%d/%d", current, total),
	})
}

// WithFields returns the same recorder so that events from derived
// observers are visible to the test.
func (o *RecordingObserver) WithFields(fields map[string]string) provisioning.Observer {
	o.mu.Lock()
	defer o.mu.Unlock()
	for k, v := range fields {
		o.fields[k] = v
	}
	return o
}

// Events returns the recorded events.
func (o *RecordingObserver) Events() []provisioning.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]provisioning.Event(nil), o.events...)
}

// EventsOfType returns the recorded events of type t.
func (o *RecordingObserver) EventsOfType(t provisioning.EventType) []provisioning.Event {
	var out []provisioning.Event
	for _, e := range o.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Fields returns the context fields added through WithFields.
func (o *RecordingObserver) Fields() map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]string, len(o.fields))
	for k, v := range o.fields {
		out[k] = v
	}
	return out
}

// Messages returns the recorded Printf messages.
func (o *RecordingObserver) Messages() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.messages...)
}
