package target

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/vburojevic/acw/internal/domain"
)

// Device is one selectable target, simulator or physical.
type Device struct {
	ID      string
	Name    string
	Kind    domain.TargetKind
	State   string // simulator state ("Booted", "Shutdown") or device transport
	Runtime string
}

// IsBooted reports whether a simulator is currently booted.
func (d Device) IsBooted() bool {
	return d.State == "Booted"
}

// Identity converts a Device into the immutable identity a watch session
// is started with.
func (d Device) Identity() domain.TargetIdentity {
	return domain.TargetIdentity{ID: d.ID, Kind: d.Kind, Name: d.Name}
}

// Resolver discovers simulators and physical devices via xcrun.
type Resolver struct {
	xcrunPath string
}

// NewResolver creates a Resolver using the xcrun on PATH.
func NewResolver() *Resolver {
	return &Resolver{xcrunPath: "xcrun"}
}

// ListSimulators returns all available simulators.
func (r *Resolver) ListSimulators(ctx context.Context) ([]Device, error) {
	cmd := exec.CommandContext(ctx, r.xcrunPath, "simctl", "list", "devices", "--json")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("simctl list failed: %w", err)
	}
	return ParseSimctlDevices(output), nil
}

// ListPhysicalDevices returns connected physical devices. devicectl only
// writes JSON to a file, so the listing goes through a temp path.
func (r *Resolver) ListPhysicalDevices(ctx context.Context) ([]Device, error) {
	tmp, err := os.CreateTemp("", "acw-devicectl-*.json")
	if err != nil {
		return nil, err
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	cmd := exec.CommandContext(ctx, r.xcrunPath, "devicectl", "list", "devices", "--json-output", path)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("devicectl list failed: %s", strings.TrimSpace(string(output)))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDeviceList(data), nil
}

// Resolve finds the watch target. An empty nameOrID resolves to the first
// booted simulator (or the first connected device when physical is set).
// Lookup order mirrors device selection elsewhere: exact ID, exact name,
// fuzzy name.
func (r *Resolver) Resolve(ctx context.Context, nameOrID string, physical bool) (domain.TargetIdentity, error) {
	var devices []Device
	var err error
	if physical {
		devices, err = r.ListPhysicalDevices(ctx)
	} else {
		devices, err = r.ListSimulators(ctx)
	}
	if err != nil {
		return domain.TargetIdentity{}, err
	}

	device, err := pickDevice(devices, nameOrID, physical)
	if err != nil {
		return domain.TargetIdentity{}, err
	}
	return device.Identity(), nil
}

// pickDevice selects one device from a listing. Exposed to tests via the
// parse+pick pair so no xcrun is needed.
func pickDevice(devices []Device, nameOrID string, physical bool) (Device, error) {
	if nameOrID == "" || strings.EqualFold(nameOrID, "booted") {
		for _, d := range devices {
			if physical || d.IsBooted() {
				return d, nil
			}
		}
		if physical {
			return Device{}, fmt.Errorf("no connected device found")
		}
		return Device{}, fmt.Errorf("no booted simulator found")
	}

	lower := strings.ToLower(nameOrID)
	for _, d := range devices {
		if strings.ToLower(d.ID) == lower {
			return d, nil
		}
	}
	for _, d := range devices {
		if strings.ToLower(d.Name) == lower {
			return d, nil
		}
	}
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), lower) {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("device not found: %s", nameOrID)
}

// ParseSimctlDevices extracts available simulators from
// `simctl list devices --json` output.
func ParseSimctlDevices(data []byte) []Device {
	var devices []Device
	gjson.GetBytes(data, "devices").ForEach(func(runtime, devs gjson.Result) bool {
		name := parseRuntimeName(runtime.String())
		devs.ForEach(func(_, d gjson.Result) bool {
			if !d.Get("isAvailable").Bool() {
				return true
			}
			devices = append(devices, Device{
				ID:      d.Get("udid").String(),
				Name:    d.Get("name").String(),
				Kind:    domain.TargetSimulator,
				State:   d.Get("state").String(),
				Runtime: name,
			})
			return true
		})
		return true
	})
	return devices
}

// ParseDeviceList extracts connected devices from devicectl JSON output.
func ParseDeviceList(data []byte) []Device {
	var devices []Device
	gjson.GetBytes(data, "result.devices").ForEach(func(_, d gjson.Result) bool {
		id := d.Get("identifier").String()
		if id == "" {
			return true
		}
		devices = append(devices, Device{
			ID:      id,
			Name:    d.Get("deviceProperties.name").String(),
			Kind:    domain.TargetPhysicalDevice,
			State:   d.Get("connectionProperties.transportType").String(),
			Runtime: d.Get("deviceProperties.osVersionNumber").String(),
		})
		return true
	})
	return devices
}

// parseRuntimeName extracts a human-readable runtime name from the
// identifier, e.g. "com.apple.CoreSimulator.SimRuntime.iOS-17-0" ->
// "iOS 17.0".
func parseRuntimeName(runtime string) string {
	parts := strings.Split(runtime, ".")
	if len(parts) == 0 {
		return runtime
	}
	last := parts[len(parts)-1]

	segments := strings.Split(last, "-")
	if len(segments) >= 2 {
		os := segments[0]
		version := strings.Join(segments[1:], ".")
		return fmt.Sprintf("%s %s", os, version)
	}
	return last
}
