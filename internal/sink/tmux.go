package sink

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"github.com/GianlucaP106/gotmux/gotmux"
)

// Errors
var (
	ErrTmuxNotInstalled   = fmt.Errorf("tmux is not installed")
	ErrNoPaneAvailable    = fmt.Errorf("no tmux pane available")
	ErrNoSessionAvailable = fmt.Errorf("no tmux session available")
)

// TmuxSink publishes display lines into a dedicated tmux pane so the
// console survives independently of the watching process.
type TmuxSink struct {
	mu          sync.Mutex
	tmux        *gotmux.Tmux
	session     *gotmux.Session
	sessionName string
}

// IsTmuxAvailable checks if tmux is installed
func IsTmuxAvailable() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

// NewTmuxSink finds or creates the tmux session backing the viewer pane.
func NewTmuxSink(sessionName string) (*TmuxSink, error) {
	if !IsTmuxAvailable() {
		return nil, ErrTmuxNotInstalled
	}

	tmux, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tmux: %w", err)
	}

	s := &TmuxSink{tmux: tmux, sessionName: sessionName}
	if err := s.getOrCreateSession(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *TmuxSink) getOrCreateSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.tmux.ListSessions()
	if err == nil {
		for _, sess := range sessions {
			if sess.Name == s.sessionName {
				s.session = sess
				return nil
			}
		}
	}

	session, err := s.tmux.NewSession(&gotmux.SessionOptions{Name: s.sessionName})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	s.session = session
	return nil
}

// FindTmuxSink attaches to an existing viewer session without creating
// one. Returns ErrNoSessionAvailable when no such session exists.
func FindTmuxSink(sessionName string) (*TmuxSink, error) {
	if !IsTmuxAvailable() {
		return nil, ErrTmuxNotInstalled
	}

	tmux, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tmux: %w", err)
	}

	sessions, err := tmux.ListSessions()
	if err != nil {
		return nil, err
	}
	for _, sess := range sessions {
		if sess.Name == sessionName {
			return &TmuxSink{tmux: tmux, session: sess, sessionName: sessionName}, nil
		}
	}
	return nil, ErrNoSessionAvailable
}

// ListViewerSessions returns the names of existing acw viewer sessions.
func ListViewerSessions() ([]string, error) {
	if !IsTmuxAvailable() {
		return nil, ErrTmuxNotInstalled
	}

	tmux, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tmux: %w", err)
	}

	sessions, err := tmux.ListSessions()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, sess := range sessions {
		if strings.HasPrefix(sess.Name, "acw-") {
			names = append(names, sess.Name)
		}
	}
	return names, nil
}

// SessionName returns the backing tmux session name.
func (s *TmuxSink) SessionName() string { return s.sessionName }

// AttachCommand returns the command string for attaching to the viewer.
func (s *TmuxSink) AttachCommand() string {
	return fmt.Sprintf("tmux attach -t %s", s.sessionName)
}

// Show brings the viewer pane to the foreground. Inside a tmux client
// this switches to the session; outside, there is nothing to foreground
// and the call is a no-op.
func (s *TmuxSink) Show() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return ErrNoSessionAvailable
	}
	if os.Getenv("TMUX") == "" {
		return nil
	}
	_, err := s.tmux.Command("switch-client", "-t", s.sessionName)
	return err
}

// Clear wipes the pane content and its scrollback history.
func (s *TmuxSink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return ErrNoSessionAvailable
	}

	paneTarget := fmt.Sprintf("%s:0.0", s.sessionName)
	if _, err := s.tmux.Command("send-keys", "-t", paneTarget, "-R"); err != nil {
		return fmt.Errorf("failed to reset terminal: %w", err)
	}
	if _, err := s.tmux.Command("clear-history", "-t", paneTarget); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	if _, err := s.tmux.Command("send-keys", "-t", paneTarget, "clear", "Enter"); err != nil {
		return fmt.Errorf("failed to clear screen: %w", err)
	}
	return nil
}

// AppendLine writes a single line to the pane using echo.
func (s *TmuxSink) AppendLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return ErrNoSessionAvailable
	}

	escaped := escapeTmuxString(line)
	paneTarget := fmt.Sprintf("%s:0.0", s.sessionName)
	_, err := s.tmux.Command("send-keys", "-t", paneTarget, fmt.Sprintf("echo '%s'", escaped), "Enter")
	return err
}

// KillSession explicitly destroys the backing session.
func (s *TmuxSink) KillSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return s.session.Kill()
	}
	return nil
}

// escapeTmuxString escapes special characters for tmux send-keys
func escapeTmuxString(s string) string {
	s = strings.ReplaceAll(s, "'", "'\"'\"'")
	s = strings.ReplaceAll(s, "\\", "\\\\")
	return s
}

// GenerateSessionName creates a tmux-safe session name from a device name
func GenerateSessionName(deviceName string) string {
	name := strings.ToLower(deviceName)
	re := regexp.MustCompile(`[^a-z0-9]+`)
	name = re.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	return fmt.Sprintf("acw-%s", name)
}
