package cli

import (
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"

	"github.com/vburojevic/acw/internal/target"
)

// ListCmd lists available simulators or connected physical devices
type ListCmd struct {
	Physical   bool `short:"p" help:"List connected physical devices"`
	BootedOnly bool `short:"b" help:"Show only booted simulators"`
}

// Run executes the list command
func (c *ListCmd) Run(globals *Globals) error {
	ctx := context.Background()
	resolver := target.NewResolver()

	var devices []target.Device
	var err error
	if c.Physical {
		devices, err = resolver.ListPhysicalDevices(ctx)
	} else {
		devices, err = resolver.ListSimulators(ctx)
	}
	if err != nil {
		return outputErrorCommon(globals, "LIST_FAILED", err.Error())
	}

	if c.BootedOnly && !c.Physical {
		var booted []target.Device
		for _, d := range devices {
			if d.IsBooted() {
				booted = append(booted, d)
			}
		}
		devices = booted
	}

	if globals.Quiet {
		for _, d := range devices {
			fmt.Fprintln(globals.Stdout, d.ID)
		}
		return nil
	}

	table := tablewriter.NewWriter(globals.Stdout)
	table.Header([]string{"Name", "Identifier", "State", "Runtime"})
	for _, d := range devices {
		table.Append([]string{d.Name, d.ID, d.State, d.Runtime})
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(globals.Stdout, "\nTotal: %d\n", len(devices))
	return nil
}
