package topology

import "fmt"

// =============================================================================
// Static Validation
// =============================================================================

// Validate checks the declaration against its internal-consistency
// invariants and returns every violation found:
//
//  1. every named-volume mount references a declared volume;
//  2. every depends-on edge references a declared service;
//  3. the dependency graph is acyclic;
//  4. declared host ports are pairwise distinct across all services.
//
// Bind and tmpfs mounts reference host paths, not named volumes, and are
// exempt from check 1. An empty result means the declaration is consistent;
// whether it can actually be instantiated (images pullable, ports free on
// the host) is the orchestrator's concern.
func Validate(decl *Declaration) []error {
	var errs []error

	volumes := make(map[string]bool, len(decl.Volumes))
	for _, vol := range decl.Volumes {
		volumes[vol.Name] = true
	}
	services := make(map[string]bool, len(decl.Services))
	for _, svc := range decl.Services {
		services[svc.Name] = true
	}

	// Mount references
	for _, svc := range decl.Services {
		for _, mount := range svc.Mounts {
			if mount.Kind != MountKindVolume {
				continue
			}
			if !volumes[mount.Source] {
				errs = append(errs, NewReferenceError(svc.Name, "volume", mount.Source, ErrVolumeNotFound))
			}
		}
	}

	// Dependency references
	for _, svc := range decl.Services {
		for _, dep := range svc.DependsOn {
			if !services[dep.Service] {
				errs = append(errs, NewReferenceError(svc.Name, "service", dep.Service, ErrServiceNotFound))
			}
		}
	}

	// Acyclicity (only meaningful over edges that resolve)
	if err := detectDependencyCycle(decl.Services); err != nil {
		errs = append(errs, err)
	}

	// Host port uniqueness
	errs = append(errs, validateHostPorts(decl.Services)...)

	return errs
}

// detectDependencyCycle detects cycles in the depends-on graph using DFS
// with a recursion stack.
func detectDependencyCycle(services []Service) error {
	deps := make(map[string][]string)
	for _, svc := range services {
		for _, dep := range svc.DependsOn {
			deps[svc.Name] = append(deps[svc.Name], dep.Service)
		}
	}

	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	var hasCycle func(node string) bool
	hasCycle = func(node string) bool {
		visited[node] = true
		recStack[node] = true

		for _, dep := range deps[node] {
			// Self-reference
			if dep == node {
				return true
			}
			if !visited[dep] {
				if hasCycle(dep) {
					return true
				}
			} else if recStack[dep] {
				return true
			}
		}

		recStack[node] = false
		return false
	}

	for _, svc := range services {
		if !visited[svc.Name] {
			if hasCycle(svc.Name) {
				return ErrDependencyCycle
			}
		}
	}

	return nil
}

// validateHostPorts checks that no host port is claimed by more than one
// binding. Port 0 means "no host port declared" and is skipped.
func validateHostPorts(services []Service) []error {
	var errs []error
	claimed := make(map[int]string)

	for _, svc := range services {
		for _, port := range svc.Ports {
			if port.HostPort == 0 {
				continue
			}
			if owner, ok := claimed[port.HostPort]; ok {
				errs = append(errs, NewParseError(
					"services."+svc.Name+".ports",
					fmt.Sprintf("host port %d already declared by service %q", port.HostPort, owner),
					ErrDuplicateHostPort,
				))
				continue
			}
			claimed[port.HostPort] = svc.Name
		}
	}

	return errs
}
