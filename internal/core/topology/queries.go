package topology

// =============================================================================
// Declaration Queries
// =============================================================================

// Resolve returns the service with the given name.
// Returns ErrServiceNotFound (wrapped) if the name is absent.
func (d *Declaration) Resolve(name string) (Service, error) {
	for _, svc := range d.Services {
		if svc.Name == name {
			return svc, nil
		}
	}
	return Service{}, NewReferenceError("", "service", name, ErrServiceNotFound)
}

// Volume returns the named volume declaration.
// Returns ErrVolumeNotFound (wrapped) if the name is absent.
func (d *Declaration) Volume(name string) (Volume, error) {
	for _, vol := range d.Volumes {
		if vol.Name == name {
			return vol, nil
		}
	}
	return Volume{}, NewReferenceError("", "volume", name, ErrVolumeNotFound)
}

// DependenciesOf returns the direct predecessors of a service: the services
// that must reach their declared readiness before this one is started.
// The sequence is in stable (name) order.
func (d *Declaration) DependenciesOf(name string) ([]Dependency, error) {
	svc, err := d.Resolve(name)
	if err != nil {
		return nil, err
	}
	deps := make([]Dependency, len(svc.DependsOn))
	copy(deps, svc.DependsOn)
	return deps, nil
}

// MountsOf returns the mount bindings of a service.
func (d *Declaration) MountsOf(name string) ([]VolumeMount, error) {
	svc, err := d.Resolve(name)
	if err != nil {
		return nil, err
	}
	mounts := make([]VolumeMount, len(svc.Mounts))
	copy(mounts, svc.Mounts)
	return mounts, nil
}

// PortBindingsOf returns the published port bindings of a service.
// Services publishing no host ports get an empty slice, not an error.
func (d *Declaration) PortBindingsOf(name string) ([]PortBinding, error) {
	svc, err := d.Resolve(name)
	if err != nil {
		return nil, err
	}
	ports := make([]PortBinding, len(svc.Ports))
	copy(ports, svc.Ports)
	return ports, nil
}

// ServiceNames returns all declared service names in stable order.
func (d *Declaration) ServiceNames() []string {
	names := make([]string, 0, len(d.Services))
	for _, svc := range d.Services {
		names = append(names, svc.Name)
	}
	return names
}

// VolumeNames returns all declared volume names in stable order.
func (d *Declaration) VolumeNames() []string {
	names := make([]string, 0, len(d.Volumes))
	for _, vol := range d.Volumes {
		names = append(names, vol.Name)
	}
	return names
}
