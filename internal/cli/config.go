package cli

import (
	"fmt"

	"github.com/vburojevic/acw/internal/config"
)

// ConfigCmd shows the effective configuration
type ConfigCmd struct{}

// Run executes the config command
func (c *ConfigCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if path := config.ConfigFile(); path != "" {
		fmt.Fprintf(globals.Stdout, "Config file: %s\n\n", path)
	} else {
		fmt.Fprintf(globals.Stdout, "Config file: (none found, using defaults)\n\n")
	}

	fmt.Fprintf(globals.Stdout, "quiet: %v\n", cfg.Quiet)
	fmt.Fprintf(globals.Stdout, "verbose: %v\n", cfg.Verbose)
	fmt.Fprintf(globals.Stdout, "watch.device: %s\n", cfg.Watch.Device)
	fmt.Fprintf(globals.Stdout, "watch.physical: %v\n", cfg.Watch.Physical)
	fmt.Fprintf(globals.Stdout, "watch.tmux: %v\n", cfg.Watch.Tmux)
	fmt.Fprintf(globals.Stdout, "watch.tmux_session: %s\n", cfg.Watch.TmuxSession)
	return nil
}
