package sink

import (
	"fmt"
	"io"
	"sync"
)

// Sink is the live viewer the watch pipeline publishes display lines into.
// Implementations must tolerate interleaved calls from the stdout and
// stderr pumps.
type Sink interface {
	// Show brings the viewer to the foreground. Best-effort; a sink with
	// no foreground notion treats this as a no-op.
	Show() error
	// Clear wipes all previously appended content.
	Clear() error
	// AppendLine appends one display line.
	AppendLine(line string) error
}

// WriterSink appends lines to an io.Writer (typically stdout). Clear and
// Show are no-ops since a plain stream has no screen to manage.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink over w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Show() error  { return nil }
func (s *WriterSink) Clear() error { return nil }

func (s *WriterSink) AppendLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, line)
	return err
}

// ChannelSink publishes lines to a channel, dropping when the consumer
// falls behind. Used to feed the TUI viewer.
type ChannelSink struct {
	lines chan string
	clear chan struct{}
}

// NewChannelSink creates a channel sink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1000
	}
	return &ChannelSink{
		lines: make(chan string, buffer),
		clear: make(chan struct{}, 1),
	}
}

func (s *ChannelSink) Show() error { return nil }

func (s *ChannelSink) Clear() error {
	select {
	case s.clear <- struct{}{}:
	default:
	}
	return nil
}

func (s *ChannelSink) AppendLine(line string) error {
	select {
	case s.lines <- line:
	default:
	}
	return nil
}

// Lines returns the channel of appended display lines.
func (s *ChannelSink) Lines() <-chan string { return s.lines }

// Clears returns the channel signalling clear requests.
func (s *ChannelSink) Clears() <-chan struct{} { return s.clear }

// Memory records everything for assertions in tests.
type Memory struct {
	mu     sync.Mutex
	lines  []string
	clears int
	shows  int
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Show() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shows++
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.lines = m.lines[:0]
	return nil
}

func (m *Memory) AppendLine(line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, line)
	return nil
}

// Lines returns a copy of the appended lines.
func (m *Memory) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}

// Clears returns how many times Clear was called.
func (m *Memory) Clears() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}

// Shows returns how many times Show was called.
func (m *Memory) Shows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shows
}
