// Package planner derives start-order plans from topology declarations.
// Planning is pure: the output describes what an orchestrator would have to
// do, it never executes anything.
package planner

import (
	"github.com/artpar/shipmate/internal/core/topology"
)

// =============================================================================
// Service Ordering Functions
// =============================================================================

// StartOrder sorts services by their dependencies using Kahn's algorithm.
// Services with no dependencies come first.
//
//  1. Build a map of service dependencies (in-degree)
//  2. Start with services that have no dependencies (in-degree = 0)
//  3. Process each service, reducing the in-degree of its dependents
//  4. When a dependent's in-degree reaches 0, add it to the queue
//
// If a cycle exists (which validation catches before planning), remaining
// services are appended to the result as a fallback.
//
// Example:
//
//	// Services: gateway → backend → db
//	services := []topology.Service{
//	    {Name: "gateway", DependsOn: []topology.Dependency{{Service: "backend"}}},
//	    {Name: "backend", DependsOn: []topology.Dependency{{Service: "db"}}},
//	    {Name: "db"},
//	}
//	sorted := StartOrder(services)
//	// Result: [db, backend, gateway]
func StartOrder(services []topology.Service) []topology.Service {
	if len(services) == 0 {
		return services
	}

	// Build dependency graph
	serviceMap := make(map[string]topology.Service)
	inDegree := make(map[string]int)
	dependents := make(map[string][]string)

	for _, svc := range services {
		serviceMap[svc.Name] = svc
		inDegree[svc.Name] = len(svc.DependsOn)
		for _, dep := range svc.DependsOn {
			dependents[dep.Service] = append(dependents[dep.Service], svc.Name)
		}
	}

	// Start with services that have no dependencies, preserving the
	// declaration's stable order for ties.
	var queue []string
	for _, svc := range services {
		if inDegree[svc.Name] == 0 {
			queue = append(queue, svc.Name)
		}
	}

	// Process queue (BFS)
	var result []topology.Service
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if svc, ok := serviceMap[name]; ok {
			result = append(result, svc)
		}

		// Reduce in-degree for dependents
		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	// If we didn't get all services, there's a cycle (shouldn't happen after
	// validation). Just append remaining services as fallback.
	if len(result) < len(services) {
		for _, svc := range services {
			found := false
			for _, r := range result {
				if r.Name == svc.Name {
					found = true
					break
				}
			}
			if !found {
				result = append(result, svc)
			}
		}
	}

	return result
}
