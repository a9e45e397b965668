// Package docker provides read-only access to a container engine for
// preflight checks. Nothing in this package creates, starts, stops, or
// removes engine resources; lifecycle belongs to the external orchestrator.
package docker

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

// =============================================================================
// Engine Interface
// =============================================================================

// Engine is the read-only view of a container engine used by preflight.
type Engine interface {
	Ping() error
	ImageExists(ctx context.Context, ref string) (bool, error)
	VolumeExists(ctx context.Context, name string) (bool, error)
	// UsedHostPorts returns the host ports currently bound by running
	// containers, mapped to the container name holding each binding.
	UsedHostPorts(ctx context.Context) (map[int]string, error)
	Close() error
}

// =============================================================================
// Docker Client Implementation
// =============================================================================

// DockerClient implements Engine using the Docker SDK.
type DockerClient struct {
	cli *client.Client
}

// NewDockerClient creates a new Docker client.
// If host is empty, it uses the default Docker host from environment.
// On macOS with Docker Desktop, it automatically detects the correct socket.
func NewDockerClient(host string) (*DockerClient, error) {
	var opts []client.Opt
	opts = append(opts, client.FromEnv)
	opts = append(opts, client.WithAPIVersionNegotiation())

	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, NewDockerError("NewDockerClient", "", "", "failed to create client", ErrConnectionFailed)
	}

	// Try to ping with default settings
	ctx := context.Background()
	if _, pingErr := cli.Ping(ctx); pingErr != nil {
		// If default socket fails, try Docker Desktop socket on macOS
		homeDir, _ := os.UserHomeDir()
		dockerDesktopSocket := "unix://" + homeDir + "/.docker/run/docker.sock"

		cli2, err2 := client.NewClientWithOpts(
			client.WithHost(dockerDesktopSocket),
			client.WithAPIVersionNegotiation(),
		)
		if err2 == nil {
			if _, pingErr2 := cli2.Ping(ctx); pingErr2 == nil {
				cli.Close()
				return &DockerClient{cli: cli2}, nil
			}
			cli2.Close()
		}
	}

	return &DockerClient{cli: cli}, nil
}

// Ping checks if the Docker daemon is reachable.
func (d *DockerClient) Ping() error {
	ctx := context.Background()
	if _, err := d.cli.Ping(ctx); err != nil {
		return NewDockerError("Ping", "", "", err.Error(), ErrConnectionFailed)
	}
	return nil
}

// Close closes the Docker client connection.
func (d *DockerClient) Close() error {
	return d.cli.Close()
}

// ImageExists checks if an image is present locally. A missing image is
// not an error here: the orchestrator may still pull it.
func (d *DockerClient) ImageExists(ctx context.Context, ref string) (bool, error) {
	_, _, err := d.cli.ImageInspectWithRaw(ctx, ref)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, NewDockerError("ImageExists", "image", ref, err.Error(), ErrInspectFailed)
	}
	return true, nil
}

// VolumeExists checks if a named volume already exists on the engine.
func (d *DockerClient) VolumeExists(ctx context.Context, name string) (bool, error) {
	_, err := d.cli.VolumeInspect(ctx, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, NewDockerError("VolumeExists", "volume", name, err.Error(), ErrInspectFailed)
	}
	return true, nil
}

// UsedHostPorts lists host ports bound by running containers.
func (d *DockerClient) UsedHostPorts(ctx context.Context) (map[int]string, error) {
	containers, err := d.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, NewDockerError("UsedHostPorts", "container", "", err.Error(), ErrInspectFailed)
	}

	used := make(map[int]string)
	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		for _, p := range c.Ports {
			if p.PublicPort == 0 {
				continue
			}
			used[int(p.PublicPort)] = name
		}
	}

	return used, nil
}

// FormatPort renders a container port the way the engine API expects it,
// e.g. "80/tcp".
func FormatPort(containerPort int, protocol string) nat.Port {
	if protocol == "" {
		protocol = "tcp"
	}
	port, err := nat.NewPort(protocol, strconv.Itoa(containerPort))
	if err != nil {
		return nat.Port(strconv.Itoa(containerPort) + "/" + protocol)
	}
	return port
}
