package stream

import (
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/vburojevic/acw/internal/classify"
	"github.com/vburojevic/acw/internal/console"
	"github.com/vburojevic/acw/internal/domain"
	"github.com/vburojevic/acw/internal/sink"
)

// Supervisor guarantees at most one live log-capture subprocess across
// the whole process. Start atomically replaces any running session; the
// mutex makes start/stop non-interleavable, so callers see replacement as
// a single operation.
type Supervisor struct {
	mu       sync.Mutex
	launcher Launcher
	out      sink.Sink
	clk      clock.Clock
	log      *zap.Logger
	active   *Session
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithClock overrides the wall clock used for banner timestamps.
func WithClock(clk clock.Clock) Option {
	return func(s *Supervisor) { s.clk = clk }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Supervisor) { s.log = log }
}

// NewSupervisor creates a Supervisor publishing into out.
func NewSupervisor(launcher Launcher, out sink.Sink, opts ...Option) *Supervisor {
	s := &Supervisor{
		launcher: launcher,
		out:      out,
		clk:      clock.New(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins watching the given target, replacing any running session.
// The previous subprocess is terminated best-effort (failures swallowed;
// the new session proceeds regardless), the sink is cleared and brought
// to the foreground, the start banner is emitted, and the new subprocess
// is launched with target-kind-appropriate arguments.
//
// Launch failures are reported both through the sink's error path and as
// the returned error.
func (s *Supervisor) Start(target domain.TargetIdentity, key domain.FilterKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.log.Debug("replacing active session")
		s.active.markSuperseded()
		s.active.terminate()
		s.active = nil
	}

	if err := s.out.Clear(); err != nil {
		s.log.Debug("sink clear failed", zap.Error(err))
	}
	if err := s.out.Show(); err != nil {
		s.log.Debug("sink show failed", zap.Error(err))
	}

	formatter := console.NewFormatter(target.Kind)
	for _, line := range formatter.Banner(target, key.BaseName, s.clk.Now()) {
		if err := s.out.AppendLine(line); err != nil {
			s.log.Debug("banner append failed", zap.Error(err))
		}
	}

	argv := LaunchArgs(target)
	s.log.Debug("launching log capture",
		zap.Strings("argv", argv),
		zap.String("target", target.ID),
		zap.String("kind", string(target.Kind)),
		zap.String("dylib_token", key.DylibToken),
	)

	handle, err := s.launcher.Launch(argv)
	if err != nil {
		msg := fmt.Sprintf("failed to start log capture: %v", err)
		if appendErr := s.out.AppendLine(formatter.ErrorLine(msg)); appendErr != nil {
			s.log.Debug("error line append failed", zap.Error(appendErr))
		}
		return fmt.Errorf("launch log capture: %w", err)
	}

	session := newSession(handle, s.out, classify.New(key, target.Kind), formatter, s.log, s.clearIfActive)
	s.active = session
	go session.run()
	return nil
}

// Stop terminates the active session, if any. Safe to call when nothing
// is running.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return
	}
	s.log.Debug("stopping active session")
	s.active.markSuperseded()
	s.active.terminate()
	s.active = nil
}

// Focus asks the viewer to come to the foreground. Independent of session
// state.
func (s *Supervisor) Focus() error {
	return s.out.Show()
}

// Running reports whether a session currently owns a subprocess handle.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// Done returns a channel closed when the current session's subprocess has
// exited. When no session is active, the returned channel is already
// closed.
func (s *Supervisor) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return s.active.done
	}
	closed := make(chan struct{})
	close(closed)
	return closed
}

// clearIfActive drops the exited session's handle so a future Start does
// not try to terminate a dead process. A session that was already
// replaced leaves the newer session untouched.
func (s *Supervisor) clearIfActive(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == session {
		s.active = nil
	}
}
