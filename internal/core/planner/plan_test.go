package planner

import (
	"testing"

	"github.com/artpar/shipmate/internal/core/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planFixture = `
services:
  gateway:
    image: nginx:1.25
    ports:
      - "9001:80"
    depends_on:
      - backend
    volumes:
      - static:/static
      - media:/media

  backend:
    image: registry.local/app-backend:latest
    depends_on:
      - db
    volumes:
      - static:/backend_static
      - media:/app/media

  frontend:
    image: registry.local/app-frontend:latest
    command: cp -r /app/build/. /static/
    volumes:
      - static:/static

  db:
    image: postgres:13.10
    volumes:
      - pg_data:/var/lib/postgresql/data

volumes:
  pg_data:
  static:
  media:
`

func planFixtureDecl(t *testing.T) *topology.Declaration {
	t.Helper()
	decl, err := topology.Parse(planFixture)
	require.NoError(t, err)
	return decl
}

// =============================================================================
// BuildStartPlan Tests
// =============================================================================

func TestBuildStartPlan_OrderRespectsChain(t *testing.T) {
	plan, err := BuildStartPlan(planFixtureDecl(t))
	require.NoError(t, err)
	require.Len(t, plan.Steps, 4)

	idx := make(map[string]int)
	for i, step := range plan.Steps {
		idx[step.Service] = i
	}
	assert.True(t, idx["db"] < idx["backend"])
	assert.True(t, idx["backend"] < idx["gateway"])
}

func TestBuildStartPlan_WaitForCarriesReadiness(t *testing.T) {
	plan, err := BuildStartPlan(planFixtureDecl(t))
	require.NoError(t, err)

	var gateway Step
	for _, step := range plan.Steps {
		if step.Service == "gateway" {
			gateway = step
		}
	}
	require.Len(t, gateway.WaitFor, 1)
	assert.Equal(t, "backend", gateway.WaitFor[0].Service)
	// Bare depends_on: start-order only, never a health guarantee.
	assert.Equal(t, topology.ReadinessStarted, gateway.WaitFor[0].Readiness)
}

func TestBuildStartPlan_OneShotFrontend(t *testing.T) {
	plan, err := BuildStartPlan(planFixtureDecl(t))
	require.NoError(t, err)

	oneShots := make(map[string]bool)
	for _, step := range plan.Steps {
		oneShots[step.Service] = step.OneShot
	}
	assert.True(t, oneShots["frontend"])
	assert.False(t, oneShots["db"])
	assert.False(t, oneShots["backend"])
	assert.False(t, oneShots["gateway"])
}

func TestBuildStartPlan_CompletedConditionMarksOneShot(t *testing.T) {
	decl, err := topology.Parse(`
services:
  web:
    image: nginx:latest
    depends_on:
      seed:
        condition: service_completed_successfully
  seed:
    image: seed:1.0
`)
	require.NoError(t, err)

	plan, err := BuildStartPlan(decl)
	require.NoError(t, err)
	for _, step := range plan.Steps {
		if step.Service == "seed" {
			assert.True(t, step.OneShot)
		}
	}
}

func TestBuildStartPlan_VolumesListed(t *testing.T) {
	plan, err := BuildStartPlan(planFixtureDecl(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"media", "pg_data", "static"}, plan.Volumes)
}

func TestBuildStartPlan_RejectsInconsistentDeclaration(t *testing.T) {
	decl := &topology.Declaration{
		Services: []topology.Service{
			{Name: "backend", Image: "app:1", DependsOn: []topology.Dependency{
				{Service: "db", Readiness: topology.ReadinessStarted},
			}},
		},
	}

	_, err := BuildStartPlan(decl)
	require.Error(t, err)
	assert.ErrorIs(t, err, topology.ErrServiceNotFound)
}

// =============================================================================
// WriterCount Tests
// =============================================================================

func TestWriterCount_SharedStaticVolume(t *testing.T) {
	decl := planFixtureDecl(t)
	writers := WriterCount(decl)

	assert.Equal(t, 1, writers["pg_data"])
	// static is written by frontend, backend and gateway: the accepted
	// uncoordinated-writer risk in this topology.
	assert.Equal(t, 3, writers["static"])
	assert.Equal(t, 2, writers["media"])
}

func TestWriterCount_ReadOnlyMountsExcluded(t *testing.T) {
	decl := &topology.Declaration{
		Services: []topology.Service{
			{Name: "gateway", Image: "nginx:1", Mounts: []topology.VolumeMount{
				{Kind: topology.MountKindVolume, Source: "static", Target: "/static", ReadOnly: true},
			}},
		},
		Volumes: []topology.Volume{{Name: "static"}},
	}
	writers := WriterCount(decl)
	assert.Equal(t, 0, writers["static"])
}
