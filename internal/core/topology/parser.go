package topology

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Parser Functions
// =============================================================================

// Parse parses a deployment manifest (compose dialect) into a Declaration.
// This is a pure function - no I/O, no side effects.
// Input: raw YAML string
// Output: Declaration struct or error
func Parse(yamlContent string) (*Declaration, error) {
	// Input validation
	if strings.TrimSpace(yamlContent) == "" {
		return nil, ErrEmptyInput
	}

	// Parse using compose-go
	project, err := loadManifest(yamlContent)
	if err != nil {
		return nil, err
	}

	// Check for unsupported features first
	if err := checkUnsupportedFeatures(project); err != nil {
		return nil, err
	}

	// Validate required fields
	if len(project.Services) == 0 {
		return nil, ErrNoServices
	}

	decl := &Declaration{
		Services: make([]Service, 0, len(project.Services)),
		Volumes:  make([]Volume, 0, len(project.Volumes)),
	}

	// Convert services
	for _, svc := range project.Services {
		converted, err := convertService(svc)
		if err != nil {
			return nil, err
		}
		decl.Services = append(decl.Services, converted)
	}

	// The loader catches most cycles, but not ones involving edges it
	// normalized away. Check again on the converted graph.
	if err := detectDependencyCycle(decl.Services); err != nil {
		return nil, err
	}

	// Convert volumes
	for name, vol := range project.Volumes {
		decl.Volumes = append(decl.Volumes, convertVolume(name, vol))
	}

	// Stable order: project.Services and project.Volumes are maps, so the
	// conversion order above is nondeterministic. Sort by name so parsing
	// the same input twice yields identical declarations.
	sort.Slice(decl.Services, func(i, j int) bool {
		return decl.Services[i].Name < decl.Services[j].Name
	})
	sort.Slice(decl.Volumes, func(i, j int) bool {
		return decl.Volumes[i].Name < decl.Volumes[j].Name
	})

	return decl, nil
}

// loadManifest loads a manifest using compose-go
func loadManifest(yamlContent string) (*types.Project, error) {
	// Parse YAML into a map first
	var dict map[string]interface{}
	if err := yaml.Unmarshal([]byte(yamlContent), &dict); err != nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	// Check if it's a valid object
	if dict == nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	// Load the project
	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Content: []byte(yamlContent),
				Config:  dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName("shipmate-decl", false)
		opts.SkipValidation = false
		opts.SkipInterpolation = false
		// Don't resolve paths since we're in-memory
		opts.SkipNormalization = true
		opts.SkipExtends = true // Don't try to load external files
		// Env files are opaque references here; never stat them.
		opts.SkipResolveEnvironment = true
		// Dangling depends_on is a validation concern, not a parse error.
		opts.SkipConsistencyCheck = true
	})
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "dependency cycle detected") {
			return nil, NewParseError("", "dependency cycle detected", ErrDependencyCycle)
		}
		if strings.Contains(errStr, "image") && strings.Contains(errStr, "build") {
			return nil, NewParseError("", "service must declare an image", ErrServiceNoImage)
		}
		return nil, NewParseError("", errStr, ErrInvalidYAML)
	}

	return project, nil
}

// checkUnsupportedFeatures checks for manifest features outside the
// declaration contract. The declaration describes topology only; secrets
// and configs imply orchestrator-managed content distribution.
func checkUnsupportedFeatures(project *types.Project) error {
	if len(project.Secrets) > 0 {
		return NewParseError("secrets", "secrets are not supported", ErrUnsupportedFeature)
	}

	if len(project.Configs) > 0 {
		return NewParseError("configs", "configs are not supported", ErrUnsupportedFeature)
	}

	for _, svc := range project.Services {
		if svc.Extends != nil && svc.Extends.File != "" {
			return NewParseError("services."+svc.Name+".extends", "extends is not supported", ErrUnsupportedFeature)
		}
	}

	return nil
}

// convertService converts a compose-go service to our Service type
func convertService(svc types.ServiceConfig) (Service, error) {
	service := Service{
		Name:      svc.Name,
		Image:     svc.Image,
		Command:   svc.Command,
		Labels:    make(map[string]string),
		DependsOn: make([]Dependency, 0, len(svc.DependsOn)),
	}

	// A declaration composes pre-built images; build contexts are not part
	// of the contract.
	if service.Image == "" {
		return Service{}, NewParseError("services."+svc.Name, "service must declare an image", ErrServiceNoImage)
	}

	// Ports
	for i, p := range svc.Ports {
		if p.Target == 0 || p.Target > 65535 {
			return Service{}, NewParseError(
				"services."+svc.Name+".ports["+strconv.Itoa(i)+"]",
				"container port must be in 1-65535",
				ErrInvalidPort,
			)
		}
		var published int
		if p.Published != "" {
			pub, err := strconv.Atoi(p.Published)
			if err != nil || pub < 0 || pub > 65535 {
				return Service{}, NewParseError(
					"services."+svc.Name+".ports["+strconv.Itoa(i)+"]",
					"host port must be in 0-65535",
					ErrInvalidPort,
				)
			}
			published = pub
		}
		proto := p.Protocol
		if proto == "" {
			proto = "tcp"
		}
		service.Ports = append(service.Ports, PortBinding{
			HostPort:      published,
			ContainerPort: int(p.Target),
			Protocol:      proto,
			HostIP:        p.HostIP,
		})
	}

	// Mounts
	for _, v := range svc.Volumes {
		mount := VolumeMount{
			Source:   v.Source,
			Target:   v.Target,
			ReadOnly: v.ReadOnly,
		}
		switch v.Type {
		case "bind":
			mount.Kind = MountKindBind
		case "volume":
			mount.Kind = MountKindVolume
		case "tmpfs":
			mount.Kind = MountKindTmpfs
		default:
			// Infer kind from source
			if strings.HasPrefix(v.Source, "./") || strings.HasPrefix(v.Source, "/") || strings.HasPrefix(v.Source, "~") {
				mount.Kind = MountKindBind
			} else {
				mount.Kind = MountKindVolume
			}
		}
		// The loader canonicalizes a short-syntax "./data" bind to "data".
		// Restore the declared form so a relative bind stays distinguishable
		// from a named volume.
		if mount.Kind == MountKindBind &&
			!strings.HasPrefix(mount.Source, "/") &&
			!strings.HasPrefix(mount.Source, "~") &&
			!strings.HasPrefix(mount.Source, ".") {
			mount.Source = "./" + mount.Source
		}
		service.Mounts = append(service.Mounts, mount)
	}

	// DependsOn. Short form carries a start-order guarantee only; long-form
	// conditions upgrade the readiness mode.
	for dep, cfg := range svc.DependsOn {
		service.DependsOn = append(service.DependsOn, Dependency{
			Service:   dep,
			Readiness: readinessFromCondition(cfg.Condition),
		})
	}
	sort.Slice(service.DependsOn, func(i, j int) bool {
		return service.DependsOn[i].Service < service.DependsOn[j].Service
	})

	// Env files
	for _, ef := range svc.EnvFiles {
		service.EnvFiles = append(service.EnvFiles, EnvFile{
			Path:     ef.Path,
			Required: bool(ef.Required),
		})
	}

	// Labels
	for k, v := range svc.Labels {
		service.Labels[k] = v
	}

	return service, nil
}

// readinessFromCondition maps a compose depends_on condition to a
// Readiness mode. An absent condition is the short form: start-order only.
func readinessFromCondition(condition string) Readiness {
	switch condition {
	case types.ServiceConditionHealthy:
		return ReadinessHealthy
	case types.ServiceConditionCompletedSuccessfully:
		return ReadinessCompleted
	default:
		return ReadinessStarted
	}
}

// convertVolume converts a compose-go volume to our Volume type
func convertVolume(name string, vol types.VolumeConfig) Volume {
	return Volume{
		Name:     name,
		External: bool(vol.External),
		Labels:   vol.Labels,
	}
}
