package planner

import (
	"fmt"

	"github.com/artpar/shipmate/internal/core/topology"
)

// =============================================================================
// Start Plan Types
// =============================================================================

// StartPlan is the ordered instantiation sequence for a declaration.
type StartPlan struct {
	Steps []Step `json:"steps"`

	// Volumes that must exist before the first step runs. Named volumes
	// are created on first use and reused afterwards.
	Volumes []string `json:"volumes,omitempty"`
}

// Step is one service start in the plan.
type Step struct {
	Service string   `json:"service"`
	Image   string   `json:"image"`
	Command []string `json:"command,omitempty"`

	// WaitFor are the readiness conditions that must hold before this
	// step runs. For a bare depends_on edge this is only "started":
	// a start-order guarantee, not a health guarantee.
	WaitFor []topology.Dependency `json:"wait_for,omitempty"`

	// OneShot marks a service expected to run a single command and exit,
	// such as a copier populating a shared volume at startup.
	OneShot bool `json:"one_shot"`
}

// =============================================================================
// Plan Construction
// =============================================================================

// BuildStartPlan derives the start plan for a declaration. The declaration
// must validate cleanly; planning over a dangling or cyclic graph returns
// an error naming the first violation.
func BuildStartPlan(decl *topology.Declaration) (*StartPlan, error) {
	if errs := topology.Validate(decl); len(errs) > 0 {
		return nil, fmt.Errorf("declaration is not consistent: %w", errs[0])
	}

	oneShot := oneShotServices(decl)

	plan := &StartPlan{
		Volumes: decl.VolumeNames(),
		Steps:   make([]Step, 0, len(decl.Services)),
	}

	for _, svc := range StartOrder(decl.Services) {
		waitFor := make([]topology.Dependency, len(svc.DependsOn))
		copy(waitFor, svc.DependsOn)

		plan.Steps = append(plan.Steps, Step{
			Service: svc.Name,
			Image:   svc.Image,
			Command: svc.Command,
			WaitFor: waitFor,
			OneShot: oneShot[svc.Name],
		})
	}

	return plan, nil
}

// oneShotServices identifies services expected to exit after a single run.
// Two signals are used: another service depends on the target with the
// completed condition, or the service overrides its command, publishes no
// host ports and nothing in the topology starts after it.
func oneShotServices(decl *topology.Declaration) map[string]bool {
	dependedOn := make(map[string]bool)
	completed := make(map[string]bool)
	for _, svc := range decl.Services {
		for _, dep := range svc.DependsOn {
			dependedOn[dep.Service] = true
			if dep.Readiness == topology.ReadinessCompleted {
				completed[dep.Service] = true
			}
		}
	}

	result := make(map[string]bool)
	for _, svc := range decl.Services {
		if completed[svc.Name] {
			result[svc.Name] = true
			continue
		}
		if len(svc.Command) > 0 && len(svc.Ports) == 0 && !dependedOn[svc.Name] {
			result[svc.Name] = true
		}
	}
	return result
}

// =============================================================================
// Volume Contention
// =============================================================================

// WriterCount reports, per named volume, how many services mount it
// writable. A count above one means concurrent writers without declared
// coordination - an accepted risk the declaration cannot express, worth
// surfacing to operators.
func WriterCount(decl *topology.Declaration) map[string]int {
	writers := make(map[string]int, len(decl.Volumes))
	for _, vol := range decl.Volumes {
		writers[vol.Name] = 0
	}

	for _, svc := range decl.Services {
		for _, mount := range svc.Mounts {
			if mount.Kind != topology.MountKindVolume || mount.ReadOnly {
				continue
			}
			if _, ok := writers[mount.Source]; ok {
				writers[mount.Source]++
			}
		}
	}

	return writers
}
