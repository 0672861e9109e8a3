package stream

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vburojevic/acw/internal/console"
	"github.com/vburojevic/acw/internal/domain"
	"github.com/vburojevic/acw/internal/sink"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeHandle is a scriptable subprocess: tests write to its pipes and
// decide when and how it exits.
type fakeHandle struct {
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter
	exit    chan int

	keepOpenOnTerminate bool

	mu         sync.Mutex
	terminated int
	finishOnce sync.Once
}

func newFakeHandle() *fakeHandle {
	h := &fakeHandle{exit: make(chan int, 1)}
	h.stdoutR, h.stdoutW = io.Pipe()
	h.stderrR, h.stderrW = io.Pipe()
	return h
}

func (h *fakeHandle) Stdout() io.Reader  { return h.stdoutR }
func (h *fakeHandle) Stderr() io.Reader  { return h.stderrR }
func (h *fakeHandle) Wait() (int, error) { return <-h.exit, nil }

func (h *fakeHandle) Terminate() {
	h.mu.Lock()
	h.terminated++
	h.mu.Unlock()
	if !h.keepOpenOnTerminate {
		h.finish(-1)
	}
}

// finish closes both pipes and delivers the exit code, once.
func (h *fakeHandle) finish(code int) {
	h.finishOnce.Do(func() {
		_ = h.stdoutW.Close()
		_ = h.stderrW.Close()
		h.exit <- code
	})
}

func (h *fakeHandle) terminations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.terminated
}

type fakeLauncher struct {
	mu       sync.Mutex
	handles  []*fakeHandle
	argvs    [][]string
	err      error
	keepOpen bool
}

func (l *fakeLauncher) Launch(argv []string) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	h := newFakeHandle()
	h.keepOpenOnTerminate = l.keepOpen
	l.handles = append(l.handles, h)
	l.argvs = append(l.argvs, argv)
	return h, nil
}

func (l *fakeLauncher) handle(i int) *fakeHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handles[i]
}

func simTarget() domain.TargetIdentity {
	return domain.TargetIdentity{ID: "SIM-UDID", Kind: domain.TargetSimulator, Name: "iPhone 15"}
}

func deviceTarget() domain.TargetIdentity {
	return domain.TargetIdentity{ID: "DEV-UDID", Kind: domain.TargetPhysicalDevice, Name: "Mike's iPhone"}
}

func watchKey() domain.FilterKey {
	return domain.FilterKey{BaseName: "MyApp", DylibToken: "MyApp.debug.dylib"}
}

func waitForLine(t *testing.T, mem *sink.Memory, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, l := range mem.Lines() {
			if l == want {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond, "line %q never appeared, have %v", want, mem.Lines())
}

func countLines(mem *sink.Memory, want string) int {
	n := 0
	for _, l := range mem.Lines() {
		if l == want {
			n++
		}
	}
	return n
}

func TestLaunchArgs(t *testing.T) {
	assert.Equal(t, []string{
		"xcrun", "simctl", "spawn", "SIM-UDID",
		"log", "stream", "--level", "debug", "--style", "syslog", "--color", "always",
	}, LaunchArgs(simTarget()))

	assert.Equal(t, []string{
		"xcrun", "devicectl", "device", "console",
		"--device", "DEV-UDID", "--level", "debug", "--color", "always",
	}, LaunchArgs(deviceTarget()))
}

func TestStartClearsShowsAndEmitsBanner(t *testing.T) {
	launcher := &fakeLauncher{}
	mem := sink.NewMemory()
	sup := NewSupervisor(launcher, mem, WithClock(clock.NewMock()))

	require.NoError(t, sup.Start(simTarget(), watchKey()))
	defer sup.Stop()

	assert.Equal(t, 1, mem.Clears())
	assert.Equal(t, 1, mem.Shows())

	lines := mem.Lines()
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "▶ MyApp @ iPhone 15 — started "), "banner line: %q", lines[0])
	assert.Equal(t, console.Separator, lines[1])
	assert.True(t, sup.Running())
}

func TestStartPublishesLinesInOrder(t *testing.T) {
	launcher := &fakeLauncher{}
	mem := sink.NewMemory()
	sup := NewSupervisor(launcher, mem, WithClock(clock.NewMock()))

	require.NoError(t, sup.Start(simTarget(), watchKey()))

	h := launcher.handle(0)
	_, err := fmt.Fprint(h.stdoutW,
		"(MyApp.debug.dylib) [com.myapp:UI] first\n(MyApp.debug.dylib) [com.myapp:UI] second\n")
	require.NoError(t, err)

	waitForLine(t, mem, "second")
	h.finish(0)
	<-sup.Done()

	lines := mem.Lines()
	require.Len(t, lines, 8)
	assert.Equal(t, "ℹ️ [UI]", lines[2])
	assert.Equal(t, "first", lines[3])
	assert.Equal(t, console.Separator, lines[4])
	assert.Equal(t, "ℹ️ [UI]", lines[5])
	assert.Equal(t, "second", lines[6])
	assert.Equal(t, console.Separator, lines[7])
}

func TestStartTwiceReplacesSession(t *testing.T) {
	launcher := &fakeLauncher{}
	mem := sink.NewMemory()
	sup := NewSupervisor(launcher, mem, WithClock(clock.NewMock()))

	require.NoError(t, sup.Start(simTarget(), watchKey()))
	first := launcher.handle(0)

	require.NoError(t, sup.Start(simTarget(), watchKey()))
	second := launcher.handle(1)

	assert.Equal(t, 1, first.terminations())
	assert.Equal(t, 0, second.terminations())
	assert.Equal(t, 2, mem.Clears())
	assert.True(t, sup.Running())

	// Only the new session's banner survives the clear.
	lines := mem.Lines()
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "▶ MyApp @ "))

	sup.Stop()
	<-first.exitDrained()
}

// exitDrained gives tests a way to wait until the session goroutine for
// this handle has fully unwound (Wait consumed the exit code).
func (h *fakeHandle) exitDrained() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		for {
			h.mu.Lock()
			n := len(h.exit)
			h.mu.Unlock()
			if n == 0 {
				close(done)
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
	return done
}

func TestAbnormalExitEmitsOneStatusLine(t *testing.T) {
	launcher := &fakeLauncher{}
	mem := sink.NewMemory()
	sup := NewSupervisor(launcher, mem, WithClock(clock.NewMock()))

	require.NoError(t, sup.Start(simTarget(), watchKey()))
	h := launcher.handle(0)

	h.finish(1)
	<-sup.Done()

	status := "⚠️ log stream exited with code 1"
	waitForLine(t, mem, status)
	assert.Equal(t, 1, countLines(mem, status))

	require.Eventually(t, func() bool { return !sup.Running() },
		time.Second, 5*time.Millisecond)

	// A fresh start after the crash must not try to terminate the dead
	// process.
	require.NoError(t, sup.Start(simTarget(), watchKey()))
	assert.Equal(t, 0, h.terminations())
	sup.Stop()
}

func TestNormalExitEmitsNoStatusLine(t *testing.T) {
	launcher := &fakeLauncher{}
	mem := sink.NewMemory()
	sup := NewSupervisor(launcher, mem, WithClock(clock.NewMock()))

	require.NoError(t, sup.Start(simTarget(), watchKey()))
	launcher.handle(0).finish(0)
	<-sup.Done()

	for _, l := range mem.Lines() {
		assert.NotContains(t, l, "exited with code")
	}
}

func TestStderrFiltering(t *testing.T) {
	launcher := &fakeLauncher{}
	mem := sink.NewMemory()
	sup := NewSupervisor(launcher, mem, WithClock(clock.NewMock()))

	require.NoError(t, sup.Start(simTarget(), watchKey()))
	h := launcher.handle(0)

	_, err := fmt.Fprint(h.stderrW, "getpwuid_r did not find a match for uid 501\n")
	require.NoError(t, err)
	_, err = fmt.Fprint(h.stderrW, "log: cannot stream\n")
	require.NoError(t, err)

	waitForLine(t, mem, "❌ [stderr] log: cannot stream")
	assert.Equal(t, 0, countLines(mem, "❌ [stderr] getpwuid_r did not find a match for uid 501"))

	h.finish(0)
	<-sup.Done()
}

func TestSupersededSessionOutputIsDropped(t *testing.T) {
	launcher := &fakeLauncher{keepOpen: true}
	mem := sink.NewMemory()
	sup := NewSupervisor(launcher, mem, WithClock(clock.NewMock()))

	require.NoError(t, sup.Start(simTarget(), watchKey()))
	old := launcher.handle(0)

	require.NoError(t, sup.Start(simTarget(), watchKey()))
	fresh := launcher.handle(1)
	assert.Equal(t, 1, old.terminations())

	// The replaced subprocess keeps producing for a moment before dying.
	_, err := fmt.Fprint(old.stdoutW, "(MyApp.debug.dylib) [com.myapp:UI] stale line\n")
	require.NoError(t, err)
	old.finish(3)
	<-old.exitDrained()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 0, countLines(mem, "stale line"))
	assert.Equal(t, 0, countLines(mem, "⚠️ log stream exited with code 3"))

	// The live session is unaffected.
	_, err = fmt.Fprint(fresh.stdoutW, "(MyApp.debug.dylib) [com.myapp:UI] live line\n")
	require.NoError(t, err)
	waitForLine(t, mem, "live line")

	fresh.finish(0)
	<-sup.Done()
}

func TestLaunchFailure(t *testing.T) {
	launcher := &fakeLauncher{err: errors.New("boom")}
	mem := sink.NewMemory()
	sup := NewSupervisor(launcher, mem, WithClock(clock.NewMock()))

	err := sup.Start(simTarget(), watchKey())
	require.Error(t, err)
	assert.False(t, sup.Running())

	waitForLine(t, mem, "❌ failed to start log capture: boom")
}

func TestStopIsIdempotent(t *testing.T) {
	launcher := &fakeLauncher{}
	mem := sink.NewMemory()
	sup := NewSupervisor(launcher, mem, WithClock(clock.NewMock()))

	sup.Stop()
	assert.False(t, sup.Running())

	require.NoError(t, sup.Start(simTarget(), watchKey()))
	h := launcher.handle(0)
	sup.Stop()
	sup.Stop()

	assert.False(t, sup.Running())
	assert.Equal(t, 1, h.terminations())
	<-h.exitDrained()

	// No status line for a deliberately stopped session.
	time.Sleep(20 * time.Millisecond)
	for _, l := range mem.Lines() {
		assert.NotContains(t, l, "exited with code")
	}
}

func TestDoneClosedWhenIdle(t *testing.T) {
	sup := NewSupervisor(&fakeLauncher{}, sink.NewMemory())

	select {
	case <-sup.Done():
	case <-time.After(time.Second):
		t.Fatal("Done channel not closed with no active session")
	}
}

func TestFocusShowsSink(t *testing.T) {
	mem := sink.NewMemory()
	sup := NewSupervisor(&fakeLauncher{}, mem)

	require.NoError(t, sup.Focus())
	assert.Equal(t, 1, mem.Shows())
}
