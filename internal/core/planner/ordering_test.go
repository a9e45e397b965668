package planner

import (
	"testing"

	"github.com/artpar/shipmate/internal/core/topology"
	"github.com/stretchr/testify/assert"
)

// =============================================================================
// StartOrder Tests
// =============================================================================

func TestStartOrder_Empty(t *testing.T) {
	services := []topology.Service{}
	result := StartOrder(services)
	assert.Empty(t, result)
}

func TestStartOrder_SingleService(t *testing.T) {
	services := []topology.Service{
		{Name: "db"},
	}
	result := StartOrder(services)
	assert.Len(t, result, 1)
	assert.Equal(t, "db", result[0].Name)
}

func TestStartOrder_NoDependencies(t *testing.T) {
	services := []topology.Service{
		{Name: "gateway"},
		{Name: "frontend"},
		{Name: "db"},
	}
	result := StartOrder(services)
	assert.Len(t, result, 3)
	names := make(map[string]bool)
	for _, s := range result {
		names[s.Name] = true
	}
	assert.True(t, names["gateway"])
	assert.True(t, names["frontend"])
	assert.True(t, names["db"])
}

func TestStartOrder_LinearChain(t *testing.T) {
	// gateway depends on backend, backend depends on db
	services := []topology.Service{
		{Name: "gateway", DependsOn: []topology.Dependency{{Service: "backend", Readiness: topology.ReadinessStarted}}},
		{Name: "backend", DependsOn: []topology.Dependency{{Service: "db", Readiness: topology.ReadinessStarted}}},
		{Name: "db"},
	}
	result := StartOrder(services)

	dbIdx, backendIdx, gatewayIdx := -1, -1, -1
	for i, s := range result {
		switch s.Name {
		case "db":
			dbIdx = i
		case "backend":
			backendIdx = i
		case "gateway":
			gatewayIdx = i
		}
	}
	assert.True(t, dbIdx < backendIdx, "db must come before backend")
	assert.True(t, backendIdx < gatewayIdx, "backend must come before gateway")
}

func TestStartOrder_IndependentBesideChain(t *testing.T) {
	services := []topology.Service{
		{Name: "backend", DependsOn: []topology.Dependency{{Service: "db", Readiness: topology.ReadinessStarted}}},
		{Name: "db"},
		{Name: "frontend"},
	}
	result := StartOrder(services)
	assert.Len(t, result, 3)

	idx := make(map[string]int)
	for i, s := range result {
		idx[s.Name] = i
	}
	assert.True(t, idx["db"] < idx["backend"])
}

func TestStartOrder_Diamond(t *testing.T) {
	services := []topology.Service{
		{Name: "top", DependsOn: []topology.Dependency{
			{Service: "left", Readiness: topology.ReadinessStarted},
			{Service: "right", Readiness: topology.ReadinessStarted},
		}},
		{Name: "left", DependsOn: []topology.Dependency{{Service: "base", Readiness: topology.ReadinessStarted}}},
		{Name: "right", DependsOn: []topology.Dependency{{Service: "base", Readiness: topology.ReadinessStarted}}},
		{Name: "base"},
	}
	result := StartOrder(services)
	assert.Len(t, result, 4)
	assert.Equal(t, "base", result[0].Name)
	assert.Equal(t, "top", result[3].Name)
}

func TestStartOrder_CycleFallback(t *testing.T) {
	// Cycles are rejected by validation; ordering still terminates and
	// returns every service.
	services := []topology.Service{
		{Name: "a", DependsOn: []topology.Dependency{{Service: "b", Readiness: topology.ReadinessStarted}}},
		{Name: "b", DependsOn: []topology.Dependency{{Service: "a", Readiness: topology.ReadinessStarted}}},
	}
	result := StartOrder(services)
	assert.Len(t, result, 2)
}

func TestStartOrder_Deterministic(t *testing.T) {
	services := []topology.Service{
		{Name: "backend", DependsOn: []topology.Dependency{{Service: "db", Readiness: topology.ReadinessStarted}}},
		{Name: "db"},
		{Name: "frontend"},
		{Name: "gateway", DependsOn: []topology.Dependency{{Service: "backend", Readiness: topology.ReadinessStarted}}},
	}
	first := StartOrder(services)
	second := StartOrder(services)
	assert.Equal(t, first, second)
}
