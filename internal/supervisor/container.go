package supervisor

import (
	"context"
	"io"
	"time"

	dockercontainer "github.com/docker/docker/api/types/container"
	dockermount "github.com/docker/docker/api/types/mount"
	dockerclient "github.com/docker/docker/client"

	"github.com/brianly1003/lspclient/internal/rpc/transport"
)

// Container runs a language server inside a fresh, ephemeral container,
// attaching its stdio as the Transport byte stream. Grounded on the
// pack's only Docker-SDK consumer (`YujiSuzuki-ai-sandbox-dkmcp`'s
// `internal/docker.Client`, which constructs its client the same way via
// `client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())`)
// extended here to the container-create/attach/stop calls that repo never
// needed, since it only ever exec'd into containers someone else started.
type Container struct {
	candidate   Candidate
	docker      *dockerclient.Client
	containerID string
}

// NewContainer creates the Container runtime, initializing a Docker SDK
// client from the environment (DOCKER_HOST, DOCKER_API_VERSION, etc).
// A podman daemon exposing a Docker-API-compatible socket works through
// the same client by setting DOCKER_HOST to the podman socket path.
func NewContainer(candidate Candidate) (*Container, error) {
	cli, err := dockerclient.NewClientWithOpts(dockerclient.FromEnv, dockerclient.WithAPIVersionNegotiation())
	if err != nil {
		return nil, &ServerRuntimeError{Candidate: candidate.Name, Cause: err}
	}
	return &Container{candidate: candidate, docker: cli}, nil
}

func (c *Container) Candidate() Candidate { return c.candidate }

func (c *Container) Start(ctx context.Context) (transport.Transport, error) {
	mounts := make([]dockermount.Mount, 0, len(c.candidate.Mounts))
	for _, m := range c.candidate.Mounts {
		mounts = append(mounts, dockermount.Mount{
			Type:     dockermount.TypeBind,
			Source:   m.HostPath,
			Target:   m.ContainerPath,
			ReadOnly: m.ReadOnly,
		})
	}

	created, err := c.docker.ContainerCreate(ctx,
		&dockercontainer.Config{
			Image:        c.candidate.Image,
			Entrypoint:   c.candidate.Entrypoint,
			Cmd:          c.candidate.Args,
			OpenStdin:    true,
			AttachStdin:  true,
			AttachStdout: true,
			AttachStderr: true,
			Tty:          false,
		},
		&dockercontainer.HostConfig{
			Mounts:     mounts,
			AutoRemove: true,
		},
		nil, nil, "",
	)
	if err != nil {
		return nil, &ServerRuntimeError{Candidate: c.candidate.Name, Cause: err}
	}
	c.containerID = created.ID

	attach, err := c.docker.ContainerAttach(ctx, created.ID, dockercontainer.AttachOptions{
		Stream: true,
		Stdin:  true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return nil, &ServerRuntimeError{Candidate: c.candidate.Name, Cause: err}
	}

	if err := c.docker.ContainerStart(ctx, created.ID, dockercontainer.StartOptions{}); err != nil {
		return nil, &ServerRuntimeError{Candidate: c.candidate.Name, Cause: err}
	}

	return transport.NewStdioTransportWithIO(attach.Reader, writeOnly{attach.Conn}, transport.WithStdioID(c.candidate.Name)), nil
}

// writeOnly adapts a net.Conn (or similar) down to an io.Writer so it
// composes with StdioTransport's writer-side, without exposing Read/Close
// through the same handle the attached stream's reader already owns.
type writeOnly struct {
	io.Writer
}

func (c *Container) Stop(ctx context.Context) error {
	if c.containerID == "" {
		return nil
	}
	timeout := int(GracePeriod / time.Second)
	return c.docker.ContainerStop(ctx, c.containerID, dockercontainer.StopOptions{Timeout: &timeout})
}
