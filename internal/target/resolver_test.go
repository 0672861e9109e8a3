package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vburojevic/acw/internal/domain"
)

const simctlJSON = `{
  "devices": {
    "com.apple.CoreSimulator.SimRuntime.iOS-17-0": [
      {
        "udid": "AAAA-1111",
        "name": "iPhone 15",
        "state": "Booted",
        "isAvailable": true
      },
      {
        "udid": "BBBB-2222",
        "name": "iPhone 15 Pro",
        "state": "Shutdown",
        "isAvailable": true
      },
      {
        "udid": "CCCC-3333",
        "name": "Broken Sim",
        "state": "Shutdown",
        "isAvailable": false
      }
    ],
    "com.apple.CoreSimulator.SimRuntime.watchOS-10-2": [
      {
        "udid": "DDDD-4444",
        "name": "Apple Watch Series 9",
        "state": "Shutdown",
        "isAvailable": true
      }
    ]
  }
}`

const devicectlJSON = `{
  "result": {
    "devices": [
      {
        "identifier": "DEV-AAAA",
        "connectionProperties": {"transportType": "wired"},
        "deviceProperties": {"name": "Mike's iPhone", "osVersionNumber": "17.4.1"}
      },
      {
        "identifier": "",
        "deviceProperties": {"name": "ghost entry"}
      },
      {
        "identifier": "DEV-BBBB",
        "connectionProperties": {"transportType": "localNetwork"},
        "deviceProperties": {"name": "iPad Air", "osVersionNumber": "17.3"}
      }
    ]
  }
}`

func TestParseSimctlDevices(t *testing.T) {
	devices := ParseSimctlDevices([]byte(simctlJSON))
	require.Len(t, devices, 3, "unavailable simulators must be skipped")

	byID := map[string]Device{}
	for _, d := range devices {
		byID[d.ID] = d
		assert.Equal(t, domain.TargetSimulator, d.Kind)
	}

	booted := byID["AAAA-1111"]
	assert.Equal(t, "iPhone 15", booted.Name)
	assert.Equal(t, "iOS 17.0", booted.Runtime)
	assert.True(t, booted.IsBooted())

	assert.False(t, byID["BBBB-2222"].IsBooted())
	assert.Equal(t, "watchOS 10.2", byID["DDDD-4444"].Runtime)
	assert.NotContains(t, byID, "CCCC-3333")
}

func TestParseDeviceList(t *testing.T) {
	devices := ParseDeviceList([]byte(devicectlJSON))
	require.Len(t, devices, 2, "entries without identifiers must be skipped")

	assert.Equal(t, Device{
		ID:      "DEV-AAAA",
		Name:    "Mike's iPhone",
		Kind:    domain.TargetPhysicalDevice,
		State:   "wired",
		Runtime: "17.4.1",
	}, devices[0])
	assert.Equal(t, "DEV-BBBB", devices[1].ID)
}

func TestParseDeviceListEmpty(t *testing.T) {
	assert.Empty(t, ParseDeviceList([]byte(`{"result":{"devices":[]}}`)))
	assert.Empty(t, ParseDeviceList([]byte(`not json`)))
}

func TestPickDevice(t *testing.T) {
	sims := ParseSimctlDevices([]byte(simctlJSON))

	tests := []struct {
		name     string
		nameOrID string
		wantID   string
	}{
		{"empty resolves to first booted", "", "AAAA-1111"},
		{"booted keyword resolves to first booted", "booted", "AAAA-1111"},
		{"booted keyword is case-insensitive", "Booted", "AAAA-1111"},
		{"exact id", "BBBB-2222", "BBBB-2222"},
		{"exact id is case-insensitive", "bbbb-2222", "BBBB-2222"},
		{"exact name beats fuzzy", "iPhone 15", "AAAA-1111"},
		{"fuzzy name", "15 pro", "BBBB-2222"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := pickDevice(sims, tt.nameOrID, false)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, d.ID)
		})
	}

	t.Run("not found", func(t *testing.T) {
		_, err := pickDevice(sims, "Nexus One", false)
		assert.ErrorContains(t, err, "device not found")
	})

	t.Run("no booted simulator", func(t *testing.T) {
		shutdown := []Device{{ID: "X", Name: "iPhone", State: "Shutdown"}}
		_, err := pickDevice(shutdown, "", false)
		assert.ErrorContains(t, err, "no booted simulator")
	})

	t.Run("physical default takes first connected", func(t *testing.T) {
		phys := ParseDeviceList([]byte(devicectlJSON))
		d, err := pickDevice(phys, "", true)
		require.NoError(t, err)
		assert.Equal(t, "DEV-AAAA", d.ID)
	})

	t.Run("no connected device", func(t *testing.T) {
		_, err := pickDevice(nil, "", true)
		assert.ErrorContains(t, err, "no connected device")
	})
}

func TestParseRuntimeName(t *testing.T) {
	assert.Equal(t, "iOS 17.0", parseRuntimeName("com.apple.CoreSimulator.SimRuntime.iOS-17-0"))
	assert.Equal(t, "tvOS 17.2", parseRuntimeName("com.apple.CoreSimulator.SimRuntime.tvOS-17-2"))
	assert.Equal(t, "custom", parseRuntimeName("custom"))
}
