package cli

import (
	"fmt"

	"github.com/vburojevic/acw/internal/sink"
)

// FocusCmd brings the console viewer pane to the foreground. Independent
// of whether a watch session is currently streaming.
type FocusCmd struct {
	Session string `short:"s" help:"Viewer session name (default: first acw viewer session)"`
}

// Run executes the focus command
func (c *FocusCmd) Run(globals *Globals) error {
	name := c.Session
	if name == "" {
		names, err := sink.ListViewerSessions()
		if err != nil {
			return outputErrorCommon(globals, "FOCUS_FAILED", err.Error())
		}
		if len(names) == 0 {
			return outputErrorCommon(globals, "FOCUS_FAILED", "no acw viewer session found")
		}
		name = names[0]
	}

	viewer, err := sink.FindTmuxSink(name)
	if err != nil {
		return outputErrorCommon(globals, "FOCUS_FAILED", fmt.Sprintf("viewer session %q: %v", name, err))
	}

	if err := viewer.Show(); err != nil {
		return outputErrorCommon(globals, "FOCUS_FAILED", err.Error())
	}
	if !globals.Quiet {
		fmt.Fprintf(globals.Stdout, "Viewer session: %s\n", viewer.SessionName())
		fmt.Fprintln(globals.Stdout, globals.Styles.Hint.Render("Attach with: "+viewer.AttachCommand()))
	}
	return nil
}
