package docker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/shipmate/internal/core/topology"
)

const preflightManifest = `
services:
  db:
    image: postgres:13.10
    volumes:
      - pg_data:/var/lib/postgresql/data
  gateway:
    image: nginx:1.25
    ports:
      - "9001:80"
    depends_on:
      - db
volumes:
  pg_data:
`

// fakeEngine satisfies Engine without touching a real daemon.
type fakeEngine struct {
	pingErr   error
	images    map[string]bool
	volumes   map[string]bool
	usedPorts map[int]string
}

func (f *fakeEngine) Ping() error { return f.pingErr }

func (f *fakeEngine) ImageExists(ctx context.Context, ref string) (bool, error) {
	return f.images[ref], nil
}

func (f *fakeEngine) VolumeExists(ctx context.Context, name string) (bool, error) {
	return f.volumes[name], nil
}

func (f *fakeEngine) UsedHostPorts(ctx context.Context) (map[int]string, error) {
	if f.usedPorts == nil {
		return map[int]string{}, nil
	}
	return f.usedPorts, nil
}

func (f *fakeEngine) Close() error { return nil }

func parseDecl(t *testing.T) *topology.Declaration {
	t.Helper()
	decl, err := topology.Parse(preflightManifest)
	require.NoError(t, err)
	return decl
}

func TestPreflight_AllClear(t *testing.T) {
	engine := &fakeEngine{
		images: map[string]bool{"postgres:13.10": true, "nginx:1.25": true},
	}

	report, err := Preflight(context.Background(), engine, parseDecl(t))
	require.NoError(t, err)

	assert.True(t, report.Passed())
	assert.Empty(t, report.Errors())

	var portCheck *Check
	for i := range report.Checks {
		if report.Checks[i].Subject == "gateway" && strings.Contains(report.Checks[i].Message, "host port") {
			portCheck = &report.Checks[i]
		}
	}
	require.NotNil(t, portCheck)
	assert.Contains(t, portCheck.Message, "80/tcp")
}

func TestPreflight_MissingImage(t *testing.T) {
	engine := &fakeEngine{
		images: map[string]bool{"nginx:1.25": true},
	}

	report, err := Preflight(context.Background(), engine, parseDecl(t))
	require.NoError(t, err)

	assert.False(t, report.Passed())
	errs := report.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "db", errs[0].Subject)
	assert.Contains(t, errs[0].Message, "postgres:13.10")
}

func TestPreflight_PortAlreadyBound(t *testing.T) {
	engine := &fakeEngine{
		images:    map[string]bool{"postgres:13.10": true, "nginx:1.25": true},
		usedPorts: map[int]string{9001: "old-gateway"},
	}

	report, err := Preflight(context.Background(), engine, parseDecl(t))
	require.NoError(t, err)

	assert.False(t, report.Passed())
	errs := report.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "gateway", errs[0].Subject)
	assert.Contains(t, errs[0].Message, "9001")
	assert.Contains(t, errs[0].Message, "old-gateway")
}

func TestPreflight_ExistingVolumeIsWarning(t *testing.T) {
	engine := &fakeEngine{
		images:  map[string]bool{"postgres:13.10": true, "nginx:1.25": true},
		volumes: map[string]bool{"pg_data": true},
	}

	report, err := Preflight(context.Background(), engine, parseDecl(t))
	require.NoError(t, err)

	assert.True(t, report.Passed())

	var warned bool
	for _, c := range report.Checks {
		if c.Status == StatusWarning && c.Subject == "pg_data" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestPreflight_EngineUnreachable(t *testing.T) {
	engine := &fakeEngine{pingErr: ErrConnectionFailed}

	report, err := Preflight(context.Background(), engine, parseDecl(t))
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, ErrConnectionFailed))
}

func TestFormatPort(t *testing.T) {
	assert.Equal(t, "80/tcp", string(FormatPort(80, "")))
	assert.Equal(t, "53/udp", string(FormatPort(53, "udp")))
}
