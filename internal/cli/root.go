package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/vburojevic/acw/internal/config"
	"github.com/vburojevic/acw/internal/console"
)

// CLI is the root command structure for AppConsoleWatcher
type CLI struct {
	// Global flags
	Quiet   bool `short:"q" help:"Suppress non-console output"`
	Verbose bool `short:"v" help:"Show debug output (launch argv, lifecycle transitions)"`

	// Commands
	Watch   WatchCmd   `cmd:"" default:"withargs" help:"Watch an app's console on a simulator or device"`
	Focus   FocusCmd   `cmd:"" help:"Bring the console viewer to the foreground"`
	List    ListCmd    `cmd:"" help:"List simulators or connected devices"`
	Config  ConfigCmd  `cmd:"" help:"Show effective configuration"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// Globals holds shared state for all commands
type Globals struct {
	Quiet   bool
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config
	Logger  *zap.Logger
	Styles  console.Styles
}

// NewGlobalsWithConfig creates a Globals instance with config fallbacks
func NewGlobalsWithConfig(cli *CLI, cfg *config.Config) *Globals {
	g := &Globals{
		Quiet:   cli.Quiet,
		Verbose: cli.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
		Styles:  console.NewStyles(isatty.IsTerminal(os.Stderr.Fd())),
	}

	if cfg != nil {
		if !cli.Quiet && cfg.Quiet {
			g.Quiet = cfg.Quiet
		}
		if !cli.Verbose && cfg.Verbose {
			g.Verbose = cfg.Verbose
		}
	}

	g.Logger = newLogger(g.Verbose)
	return g
}

// newLogger builds the diagnostic logger. User-facing output goes to the
// display sink, never through here.
func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// Debug prints a debug message if verbose mode is enabled
func (g *Globals) Debug(format string, args ...interface{}) {
	if g.Verbose {
		fmt.Fprintf(g.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// VersionCmd shows version information
type VersionCmd struct{}

// Run executes the version command
func (v *VersionCmd) Run(globals *Globals) error {
	_, err := fmt.Fprintf(globals.Stdout, "acw version %s (%s)\n", Version, Commit)
	return err
}

// Version information (set at build time)
var (
	Version = "dev"
	Commit  = "none"
)
