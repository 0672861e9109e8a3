package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vburojevic/acw/internal/config"
	"github.com/vburojevic/acw/internal/domain"
	"github.com/vburojevic/acw/internal/sink"
	"github.com/vburojevic/acw/internal/stream"
	"github.com/vburojevic/acw/internal/target"
	"github.com/vburojevic/acw/internal/tui"
)

// WatchCmd watches one app's console on a simulator or physical device
type WatchCmd struct {
	AppPath     string `short:"a" required:"" help:"Path to the application bundle (e.g. build/Debug/MyApp.app)"`
	Device      string `short:"d" help:"Device name or identifier (default: booted simulator)"`
	Physical    bool   `short:"p" help:"Watch a connected physical device instead of a simulator"`
	Tmux        bool   `help:"Publish the console into a tmux pane"`
	TmuxSession string `help:"Custom tmux session name for the viewer pane"`
	UI          bool   `help:"Open the built-in interactive viewer"`
}

// Run executes the watch command
func (c *WatchCmd) Run(globals *Globals) error {
	applyWatchDefaults(globals.Config, c)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Resolve the target and derive the filter key before anything is
	// launched; both failures abort the operation.
	resolver := target.NewResolver()
	identity, err := resolver.Resolve(ctx, c.Device, c.Physical)
	if err != nil {
		return outputErrorCommon(globals, "RESOLVE_FAILED", err.Error())
	}
	globals.Debug("Resolved target: %s (%s, %s)", identity.Name, identity.ID, identity.Kind)

	key, err := domain.DeriveFilterKey(c.AppPath)
	if err != nil {
		return outputErrorCommon(globals, "RESOLVE_FAILED", err.Error())
	}
	globals.Debug("Filter key: base=%s token=%s", key.BaseName, key.DylibToken)

	if c.UI {
		return c.runUI(globals, identity, key)
	}

	out, attachHint := c.buildSink(globals, identity)
	supervisor := stream.NewSupervisor(stream.NewExecLauncher(), out, stream.WithLogger(globals.Logger))

	if err := supervisor.Start(identity, key); err != nil {
		return outputErrorCommon(globals, "LAUNCH_FAILED", err.Error())
	}
	defer supervisor.Stop()

	if attachHint != "" && !globals.Quiet {
		fmt.Fprintln(globals.Stderr, globals.Styles.Hint.Render("Attach with: "+attachHint))
	}
	if !globals.Quiet {
		fmt.Fprintln(globals.Stderr, globals.Styles.Hint.Render("Press Ctrl+C to stop"))
	}

	select {
	case <-ctx.Done():
		return nil
	case <-supervisor.Done():
		// Subprocess exited on its own; exit status already surfaced
		// through the sink.
		return nil
	}
}

// buildSink picks the display sink: a tmux pane when requested and
// available, otherwise stdout.
func (c *WatchCmd) buildSink(globals *Globals, identity domain.TargetIdentity) (sink.Sink, string) {
	if !c.Tmux {
		return sink.NewWriterSink(globals.Stdout), ""
	}

	name := c.TmuxSession
	if name == "" {
		name = sink.GenerateSessionName(identity.Name)
	}

	tmuxSink, err := sink.NewTmuxSink(name)
	if err != nil {
		if !globals.Quiet {
			fmt.Fprintf(globals.Stderr, "tmux unavailable (%v), falling back to stdout\n", err)
		}
		return sink.NewWriterSink(globals.Stdout), ""
	}
	return tmuxSink, tmuxSink.AttachCommand()
}

// runUI runs the built-in viewer as the display sink.
func (c *WatchCmd) runUI(globals *Globals, identity domain.TargetIdentity, key domain.FilterKey) error {
	channelSink := sink.NewChannelSink(0)
	supervisor := stream.NewSupervisor(stream.NewExecLauncher(), channelSink, stream.WithLogger(globals.Logger))

	if err := supervisor.Start(identity, key); err != nil {
		return outputErrorCommon(globals, "LAUNCH_FAILED", err.Error())
	}
	defer supervisor.Stop()

	title := fmt.Sprintf("acw: %s @ %s", key.BaseName, identity.Name)
	model := tui.New(title, channelSink.Lines(), channelSink.Clears())
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return outputErrorCommon(globals, "UI_FAILED", err.Error())
	}
	return nil
}

func applyWatchDefaults(cfg *config.Config, c *WatchCmd) {
	if cfg == nil {
		return
	}
	if c.Device == "" && cfg.Watch.Device != "" {
		c.Device = cfg.Watch.Device
	}
	if !c.Physical && cfg.Watch.Physical {
		c.Physical = true
	}
	if !c.Tmux && cfg.Watch.Tmux {
		c.Tmux = true
	}
	if c.TmuxSession == "" && cfg.Watch.TmuxSession != "" {
		c.TmuxSession = cfg.Watch.TmuxSession
	}
}
