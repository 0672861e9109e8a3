package domain

// TargetKind distinguishes virtual and physical targets. The kind decides
// which log-capture command is launched and which matching patterns apply.
type TargetKind string

const (
	TargetSimulator      TargetKind = "simulator"
	TargetPhysicalDevice TargetKind = "device"
)

// TargetIdentity identifies the running target being observed. Immutable
// once a watch session starts.
type TargetIdentity struct {
	ID   string     // simulator UDID or physical device identifier
	Kind TargetKind // determines launch arguments and pattern family
	Name string     // human-readable device name (informational)
}

// IsPhysical reports whether the target is a physical device.
func (t TargetIdentity) IsPhysical() bool {
	return t.Kind == TargetPhysicalDevice
}
