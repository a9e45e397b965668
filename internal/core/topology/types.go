package topology

// =============================================================================
// Declaration - Main Output Type
// =============================================================================

// Declaration represents a fully parsed deployment topology declaration.
// This is the Shipmate-specific representation, decoupled from compose-go
// types. Services and volumes are held in stable name order so that parsing
// the same input twice yields structurally identical declarations.
type Declaration struct {
	Services []Service `json:"services"`
	Volumes  []Volume  `json:"volumes,omitempty"`
}

// =============================================================================
// Service Types
// =============================================================================

// Service represents a single service definition.
type Service struct {
	Name      string            `json:"name"`
	Image     string            `json:"image"`
	Command   []string          `json:"command,omitempty"`
	Ports     []PortBinding     `json:"ports,omitempty"`
	Mounts    []VolumeMount     `json:"mounts,omitempty"`
	DependsOn []Dependency      `json:"depends_on,omitempty"`
	EnvFiles  []EnvFile         `json:"env_files,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// PortBinding represents a published port mapping.
type PortBinding struct {
	HostPort      int    `json:"host_port"`
	ContainerPort int    `json:"container_port"`
	Protocol      string `json:"protocol,omitempty"` // tcp, udp
	HostIP        string `json:"host_ip,omitempty"`
}

// VolumeMount represents a mount binding in a service.
type VolumeMount struct {
	Kind     MountKind `json:"kind"`     // volume, bind, tmpfs
	Source   string    `json:"source"`   // volume name or host path
	Target   string    `json:"target"`   // container path
	ReadOnly bool      `json:"readonly"`
}

// MountKind represents the kind of mount binding.
type MountKind string

const (
	MountKindVolume MountKind = "volume"
	MountKindBind   MountKind = "bind"
	MountKindTmpfs  MountKind = "tmpfs"
)

// Dependency is a start-order edge to another service, qualified by the
// readiness condition the dependent waits on. A bare depends_on entry only
// guarantees that the target was started, not that it is serving; the
// distinction is kept explicit instead of being flattened to a name.
type Dependency struct {
	Service   string    `json:"service"`
	Readiness Readiness `json:"readiness"`
}

// Readiness is the condition a dependency edge waits on.
type Readiness string

const (
	// ReadinessStarted is satisfied as soon as the target process was
	// started. This is the only guarantee a short-form depends_on carries.
	ReadinessStarted Readiness = "started"
	// ReadinessHealthy is satisfied when the target's health check passes.
	ReadinessHealthy Readiness = "healthy"
	// ReadinessCompleted is satisfied when the target ran to successful
	// completion. Used for one-shot services such as build-output copiers.
	ReadinessCompleted Readiness = "completed"
)

// EnvFile is a reference to an external key-value configuration source.
type EnvFile struct {
	Path     string `json:"path"`
	Required bool   `json:"required"`
}

// =============================================================================
// Volume Types
// =============================================================================

// Volume represents a named persistent volume. Its lifecycle is independent
// of any service: created on first use, destroyed only by operator action.
type Volume struct {
	Name     string            `json:"name"`
	External bool              `json:"external"`
	Labels   map[string]string `json:"labels,omitempty"`
}
