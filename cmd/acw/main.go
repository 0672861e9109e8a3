package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/vburojevic/acw/internal/cli"
	"github.com/vburojevic/acw/internal/config"
)

const quickStart = `acw - live app console for iOS Simulators and devices

START HERE (this is the command you want):
  acw watch -a build/Debug/MyApp.app

Flags:
  -a    Path to your built .app bundle
  -d    Device name or identifier (run 'acw list' to see available)
  -p    Watch a connected physical device

Other useful commands:
  acw list                              List simulators
  acw list -p                           List connected devices
  acw focus                             Bring the viewer to the foreground
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI
	ctx := kong.Parse(&c,
		kong.Name("acw"),
		kong.Description("AppConsoleWatcher: live console for one app on a simulator or device\n\nSTART HERE: acw watch -a <path/to/App.app>"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	)

	globals := cli.NewGlobalsWithConfig(&c, cfg)
	if err := ctx.Run(globals); err != nil {
		os.Exit(1)
	}
}
