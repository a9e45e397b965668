package docker

import (
	"context"
	"fmt"

	"github.com/artpar/shipmate/internal/core/topology"
)

// ============================================================================
// Preflight - read-only engine checks for a declaration
// ============================================================================

// CheckStatus classifies a single preflight finding.
type CheckStatus string

const (
	StatusOK      CheckStatus = "ok"
	StatusWarning CheckStatus = "warning"
	StatusError   CheckStatus = "error"
)

// Check is one finding produced by a preflight run.
type Check struct {
	Status  CheckStatus `json:"status"`
	Subject string      `json:"subject"`
	Message string      `json:"message"`
}

// Report aggregates the findings of a preflight run against a declaration.
type Report struct {
	Checks []Check `json:"checks"`
}

// Passed reports whether the run produced no error-level findings.
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if c.Status == StatusError {
			return false
		}
	}
	return true
}

// Errors returns only the error-level findings.
func (r *Report) Errors() []Check {
	var out []Check
	for _, c := range r.Checks {
		if c.Status == StatusError {
			out = append(out, c)
		}
	}
	return out
}

// Preflight inspects the engine and reports whether the declaration could be
// brought up as written. It never creates, starts or removes anything:
//
//   - every service image must be present locally (missing -> error)
//   - every declared host port must be free (already bound -> error)
//   - named volumes that already exist are reported as warnings, since
//     reusing them carries data from a previous run
func Preflight(ctx context.Context, engine Engine, decl *topology.Declaration) (*Report, error) {
	if err := engine.Ping(); err != nil {
		return nil, err
	}

	report := &Report{}

	if err := checkImages(ctx, engine, decl, report); err != nil {
		return nil, err
	}
	if err := checkHostPorts(ctx, engine, decl, report); err != nil {
		return nil, err
	}
	if err := checkVolumes(ctx, engine, decl, report); err != nil {
		return nil, err
	}

	return report, nil
}

func checkImages(ctx context.Context, engine Engine, decl *topology.Declaration, report *Report) error {
	for _, svc := range decl.Services {
		present, err := engine.ImageExists(ctx, svc.Image)
		if err != nil {
			return err
		}
		if present {
			report.Checks = append(report.Checks, Check{
				Status:  StatusOK,
				Subject: svc.Name,
				Message: fmt.Sprintf("image %s present", svc.Image),
			})
		} else {
			report.Checks = append(report.Checks, Check{
				Status:  StatusError,
				Subject: svc.Name,
				Message: fmt.Sprintf("image %s not found locally", svc.Image),
			})
		}
	}
	return nil
}

func checkHostPorts(ctx context.Context, engine Engine, decl *topology.Declaration, report *Report) error {
	used, err := engine.UsedHostPorts(ctx)
	if err != nil {
		return err
	}
	for _, svc := range decl.Services {
		for _, pb := range svc.Ports {
			if pb.HostPort == 0 {
				continue
			}
			target := FormatPort(pb.ContainerPort, pb.Protocol)
			if holder, taken := used[pb.HostPort]; taken {
				report.Checks = append(report.Checks, Check{
					Status:  StatusError,
					Subject: svc.Name,
					Message: fmt.Sprintf("host port %d for %s already bound by container %s", pb.HostPort, target, holder),
				})
			} else {
				report.Checks = append(report.Checks, Check{
					Status:  StatusOK,
					Subject: svc.Name,
					Message: fmt.Sprintf("host port %d free for %s", pb.HostPort, target),
				})
			}
		}
	}
	return nil
}

func checkVolumes(ctx context.Context, engine Engine, decl *topology.Declaration, report *Report) error {
	for _, vol := range decl.Volumes {
		exists, err := engine.VolumeExists(ctx, vol.Name)
		if err != nil {
			return err
		}
		if exists {
			report.Checks = append(report.Checks, Check{
				Status:  StatusWarning,
				Subject: vol.Name,
				Message: "volume already exists, previous data will be reused",
			})
		} else {
			report.Checks = append(report.Checks, Check{
				Status:  StatusOK,
				Subject: vol.Name,
				Message: "volume will be created",
			})
		}
	}
	return nil
}
