// Package manifests ships the canonical production declaration embedded in
// the binary, so the toolkit can validate and plan it without any files on
// disk.
package manifests

import (
	_ "embed"

	"github.com/artpar/shipmate/internal/core/topology"
)

//go:embed production.yml
var productionYAML string

// ProductionYAML returns the raw canonical declaration.
func ProductionYAML() string {
	return productionYAML
}

// Production parses the embedded canonical declaration.
func Production() (*topology.Declaration, error) {
	return topology.Parse(productionYAML)
}
