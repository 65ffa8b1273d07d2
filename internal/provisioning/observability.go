package provisioning

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// Observer defines the interface for structured observability during provisioning.
type Observer interface {
	Logger

	// Event emits a structured event
	Event(event Event)

	// Progress reports progress for a phase
	Progress(phase string, current, total int)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Phase name (e.g., "infrastructure", "launch")
	Message   string            // Human-readable message
	Resource  string            // Resource name/ID if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventPhaseStarted indicates a provisioning phase has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates a provisioning phase completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed indicates a provisioning phase failed.
	EventPhaseFailed EventType = "phase.failed"

	// EventResourceCreating indicates a resource is being created.
	EventResourceCreating EventType = "resource.creating"
	// EventResourceCreated indicates a resource was created successfully.
	EventResourceCreated EventType = "resource.created"
	// EventResourceExists indicates a resource already exists.
	EventResourceExists EventType = "resource.exists"
	// EventResourceDeleting indicates a resource is being deleted.
	EventResourceDeleting EventType = "resource.deleting"
	// EventResourceDeleted indicates a resource was deleted successfully.
	EventResourceDeleted EventType = "resource.deleted"

	// EventWaiting indicates a readiness wait is still pending.
	EventWaiting EventType = "wait.pending"
	// EventReady indicates a readiness wait succeeded.
	EventReady EventType = "wait.ready"

	// EventProgress indicates progress in a long-running operation.
	EventProgress EventType = "progress"
)

// ConsoleObserver implements Observer on top of a logr.Logger.
type ConsoleObserver struct {
	logger logr.Logger
}

// NewConsoleObserver creates an observer printing human-readable lines
// through the standard log package.
func NewConsoleObserver() *ConsoleObserver {
	return NewObserver(logr.New(&consoleSink{}))
}

// NewConsoleObserverTo creates a console observer writing to w.
func NewConsoleObserverTo(w io.Writer) *ConsoleObserver {
	return NewObserver(logr.New(&consoleSink{out: log.New(w, "", 0)}))
}

// NewJSONObserver creates an observer emitting one JSON object per line.
func NewJSONObserver(w io.Writer) *ConsoleObserver {
	return NewObserver(funcr.NewJSON(func(obj string) {
		_, _ = fmt.Fprintln(w, obj)
	}, funcr.Options{LogTimestamp: true}))
}

// NewObserver wraps an arbitrary logr.Logger.
func NewObserver(logger logr.Logger) *ConsoleObserver {
	return &ConsoleObserver{logger: logger}
}

// Logger returns the underlying logr.Logger.
func (o *ConsoleObserver) Logger() logr.Logger {
	return o.logger
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	o.logger.Info(fmt.Sprintf(format, v...))
}

// Event implements Observer interface.
func (o *ConsoleObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	o.logger.Info(formatEvent(event), fieldValues(event.Fields)...)
}

// Progress implements Observer interface.
func (o *ConsoleObserver) Progress(phase string, current, total int) {
	if total == 0 {
		o.logger.Info(fmt.Sprintf("[%s] Progress: %d/%d", phase, current, total))
		return
	}
	percentage := (current * 100) / total
	o.logger.Info(fmt.Sprintf("[%s] Progress: %d/%d (%d%%)", phase, current, total, percentage))
}

// WithFields implements Observer interface.
func (o *ConsoleObserver) WithFields(fields map[string]string) Observer {
	return &ConsoleObserver{logger: o.logger.WithValues(fieldValues(fields)...)}
}

// formatEvent formats an event for console output.
func formatEvent(event Event) string {
	parts := []string{string(event.Type)}
	if event.Phase != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Phase))
	}
	if event.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource=%s", event.Resource))
	}
	parts = append(parts, event.Message)
	return strings.Join(parts, " ")
}

// fieldValues flattens fields into a logr key/value list sorted by key.
func fieldValues(fields map[string]string) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return kv
}

// consoleSink is a logr.LogSink printing "msg key=value ..." lines.
type consoleSink struct {
	out    *log.Logger
	name   string
	values []any
}

func (s *consoleSink) Init(logr.RuntimeInfo) {}

func (s *consoleSink) Enabled(level int) bool { return level == 0 }

func (s *consoleSink) Info(_ int, msg string, kv ...any) {
	s.print(msg, kv)
}

func (s *consoleSink) Error(err error, msg string, kv ...any) {
	s.print(fmt.Sprintf("%s: %v", msg, err), kv)
}

func (s *consoleSink) WithValues(kv ...any) logr.LogSink {
	values := make([]any, 0, len(s.values)+len(kv))
	values = append(values, s.values...)
	values = append(values, kv...)
	return &consoleSink{out: s.out, name: s.name, values: values}
}

func (s *consoleSink) WithName(name string) logr.LogSink {
	if s.name != "" {
		name = s.name + "/" + name
	}
	return &consoleSink{out: s.out, name: name, values: s.values}
}

func (s *consoleSink) print(msg string, kv []any) {
	var b strings.Builder
	if s.name != "" {
		b.WriteString(s.name)
		b.WriteString(": ")
	}
	b.WriteString(msg)
	writePairs(&b, s.values)
	writePairs(&b, kv)

	if s.out != nil {
		s.out.Print(b.String())
		return
	}
	log.Print(b.String())
}

func writePairs(b *strings.Builder, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(b, " %v=%v", kv[i], kv[i+1])
	}
}

// Helper functions for common events

// LogPhaseStart logs a phase start event.
func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{
		Type:    EventPhaseStarted,
		Phase:   phase,
		Message: "starting",
	})
}

// LogPhaseComplete logs a phase completion event.
func LogPhaseComplete(observer Observer, phase string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogPhaseFailed logs a phase failure event.
func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   phase,
		Message: fmt.Sprintf("failed: %v", err),
	})
}

// LogResourceCreating logs a resource creation start event.
func LogResourceCreating(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceCreating,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("creating %s", resourceType),
		Fields: map[string]string{
			"type": resourceType,
		},
	})
}

// LogResourceCreated logs a successful resource creation event.
func LogResourceCreated(observer Observer, phase, resourceType, resourceName, resourceID string) {
	observer.Event(Event{
		Type:     EventResourceCreated,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s created", resourceType),
		Fields: map[string]string{
			"type": resourceType,
			"id":   resourceID,
		},
	})
}

// LogResourceExists logs when a resource already exists.
func LogResourceExists(observer Observer, phase, resourceType, resourceName, resourceID string) {
	observer.Event(Event{
		Type:     EventResourceExists,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s already exists", resourceType),
		Fields: map[string]string{
			"type": resourceType,
			"id":   resourceID,
		},
	})
}

// LogResourceDeleting logs a resource deletion start event.
func LogResourceDeleting(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceDeleting,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("deleting %s", resourceType),
		Fields: map[string]string{
			"type": resourceType,
		},
	})
}

// LogResourceDeleted logs a successful resource deletion event.
func LogResourceDeleted(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceDeleted,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s deleted", resourceType),
		Fields: map[string]string{
			"type": resourceType,
		},
	})
}

// LogWaiting logs a pending readiness check.
func LogWaiting(observer Observer, phase, resource, status string, elapsed time.Duration) {
	observer.Event(Event{
		Type:     EventWaiting,
		Phase:    phase,
		Resource: resource,
		Message:  fmt.Sprintf("status %s after %v", status, elapsed.Round(time.Second)),
	})
}

// LogReady logs a satisfied readiness wait.
func LogReady(observer Observer, phase, resource, condition string, elapsed time.Duration) {
	observer.Event(Event{
		Type:     EventReady,
		Phase:    phase,
		Resource: resource,
		Message:  fmt.Sprintf("%s after %v", condition, elapsed.Round(time.Second)),
	})
}
