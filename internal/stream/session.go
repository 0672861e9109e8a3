package stream

import (
	"io"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vburojevic/acw/internal/classify"
	"github.com/vburojevic/acw/internal/console"
	"github.com/vburojevic/acw/internal/sink"
)

// Session wires one log-capture subprocess through the classify → format
// → sink pipeline. A single goroutine consumes each output channel, so
// display lines appear in exactly the order the subprocess produced them
// on that channel (stdout/stderr interleaving is not guaranteed).
//
// Line splitting is chunk-local: each read chunk is split on newlines
// independently and no partial line is buffered across chunks. A line cut
// exactly at a chunk boundary surfaces as two display lines. Known
// limitation, kept to match the observed viewer behavior.
type Session struct {
	handle     Handle
	out        sink.Sink
	classifier *classify.Classifier
	formatter  *console.Formatter
	log        *zap.Logger

	superseded atomic.Bool
	done       chan struct{}
	onExit     func(*Session)
}

func newSession(handle Handle, out sink.Sink, classifier *classify.Classifier, formatter *console.Formatter, log *zap.Logger, onExit func(*Session)) *Session {
	return &Session{
		handle:     handle,
		out:        out,
		classifier: classifier,
		formatter:  formatter,
		log:        log,
		done:       make(chan struct{}),
		onExit:     onExit,
	}
}

// Done is closed once the subprocess has exited and the pipeline drained.
func (s *Session) Done() <-chan struct{} { return s.done }

// markSuperseded stops this session from appending anything further,
// including its exit status line. Late pump callbacks after a replacement
// are dropped instead of leaking into the next session's output.
func (s *Session) markSuperseded() { s.superseded.Store(true) }

func (s *Session) terminate() { s.handle.Terminate() }

// run pumps both output channels until the subprocess exits, then reports
// an abnormal exit and clears itself from the supervisor.
func (s *Session) run() {
	defer close(s.done)

	var g errgroup.Group
	g.Go(func() error {
		s.pump(s.handle.Stdout(), s.consumeOutput)
		return nil
	})
	g.Go(func() error {
		s.pump(s.handle.Stderr(), s.consumeStderr)
		return nil
	})
	_ = g.Wait()

	code, err := s.handle.Wait()
	s.log.Debug("log capture exited", zap.Int("code", code), zap.Error(err))

	if code != 0 && !s.superseded.Load() {
		s.append(s.formatter.ExitStatusLine(code))
	}
	s.onExit(s)
}

// pump reads chunks until EOF and hands each to consume. No blocking work
// happens between reads; the per-chunk path is synchronous regex
// evaluation only.
func (s *Session) pump(r io.Reader, consume func(string)) {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			consume(string(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

// consumeOutput splits one stdout chunk into lines and runs each through
// the classifier and formatter in arrival order.
func (s *Session) consumeOutput(chunk string) {
	for _, line := range strings.Split(chunk, "\n") {
		outcome := s.classifier.Classify(line)
		for _, display := range s.formatter.Format(outcome) {
			s.append(display)
		}
	}
}

// consumeStderr routes one stderr chunk through the harmless-diagnostic
// filter. Stream errors are surfaced as display lines, never as failures.
func (s *Session) consumeStderr(chunk string) {
	for _, display := range s.formatter.StderrLines(chunk) {
		s.append(display)
	}
}

func (s *Session) append(line string) {
	if s.superseded.Load() {
		return
	}
	if err := s.out.AppendLine(line); err != nil {
		s.log.Debug("sink append failed", zap.Error(err))
	}
}
