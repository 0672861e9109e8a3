package stream

import (
	"fmt"
	"io"
	"os/exec"
	"syscall"

	"github.com/vburojevic/acw/internal/domain"
)

// Handle is a running log-capture subprocess. The supervisor is the only
// component allowed to hold one.
type Handle interface {
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until the subprocess exits and returns its exit code
	// (-1 for signal termination) and any wait error.
	Wait() (int, error)
	// Terminate signals the subprocess to stop. Best-effort and
	// fire-and-forget; failures are swallowed.
	Terminate()
}

// Launcher starts the OS log-capture subprocess for a watch session.
type Launcher interface {
	Launch(argv []string) (Handle, error)
}

// LaunchArgs builds the log-capture argument vector for a target.
// Simulator targets stream the booted simulator's log at debug verbosity
// with syslog-style colorized output; physical devices stream the device
// console scoped to the device identifier.
func LaunchArgs(target domain.TargetIdentity) []string {
	if target.IsPhysical() {
		return []string{
			"xcrun", "devicectl", "device", "console",
			"--device", target.ID,
			"--level", "debug",
			"--color", "always",
		}
	}
	return []string{
		"xcrun", "simctl", "spawn", target.ID,
		"log", "stream",
		"--level", "debug",
		"--style", "syslog",
		"--color", "always",
	}
}

// ExecLauncher launches real subprocesses. Processes are started in their
// own process group so host shutdown does not have to wait on them, with
// stdin closed and output captured via pipes.
type ExecLauncher struct{}

// NewExecLauncher creates an ExecLauncher.
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{}
}

// Launch starts the subprocess described by argv.
func (l *ExecLauncher) Launch(argv []string) (Handle, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty launch argv")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start log capture: %w", err)
	}

	return &execHandle{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type execHandle struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

func (h *execHandle) Stdout() io.Reader { return h.stdout }
func (h *execHandle) Stderr() io.Reader { return h.stderr }

func (h *execHandle) Wait() (int, error) {
	err := h.cmd.Wait()
	if h.cmd.ProcessState == nil {
		return -1, err
	}
	return h.cmd.ProcessState.ExitCode(), err
}

func (h *execHandle) Terminate() {
	if h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
}
