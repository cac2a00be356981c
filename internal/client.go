package internal

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// EnvEndpoint overrides the embedding daemon endpoint.
const EnvEndpoint = "INSIGHTS_EMBEDDING_ENDPOINT"

const (
	// startupDelay is how long the client waits after spawning the
	// daemon before redialing.
	startupDelay = 500 * time.Millisecond
	dialTimeout  = 2 * time.Second
)

// Embedder turns text into a vector. Implementations decide whether the
// work happens in-process or in a separate daemon.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Version() string
}

// DaemonEmbedder talks to the embedding daemon over the local endpoint,
// spawning it on demand when nothing is listening.
type DaemonEmbedder struct {
	endpoint string
	version  string

	// launch starts the daemon process. Overridable in tests.
	launch func() error
}

func NewDaemonEmbedder(endpoint, version string) *DaemonEmbedder {
	if endpoint == "" {
		endpoint = ResolveEndpoint()
	}
	e := &DaemonEmbedder{endpoint: endpoint, version: version}
	e.launch = e.spawnDaemon
	return e
}

// ResolveEndpoint returns the daemon endpoint, preferring the environment
// override.
func ResolveEndpoint() string {
	if ep := os.Getenv(EnvEndpoint); ep != "" {
		return ep
	}
	return defaultEndpoint
}

func (e *DaemonEmbedder) Version() string {
	return e.version
}

func (e *DaemonEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends all texts in a single request so the daemon can batch
// inference. If no daemon is listening it spawns one, waits for it to come
// up, and retries the dial exactly once.
func (e *DaemonEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	conn, err := dialEndpoint(e.endpoint, dialTimeout)
	if err != nil {
		if err := e.launch(); err != nil {
			return nil, fmt.Errorf("%w: start daemon: %v", ErrDaemonUnavailable, err)
		}
		select {
		case <-time.After(startupDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		conn, err = dialEndpoint(e.endpoint, dialTimeout)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
		}
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	req := &EmbeddingRequest{Texts: texts, ID: uuid.NewString()}
	if err := writeLine(conn, req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	var resp EmbeddingResponse
	if err := readLine(bufio.NewReader(conn), &resp); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if err := resp.Validate(req); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, &RemoteError{Msg: *resp.Error}
	}

	return resp.Embeddings, nil
}

// spawnDaemon starts the daemon binary sitting next to the calling
// executable, detached from the current process.
func (e *DaemonEmbedder) spawnDaemon() error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	path := filepath.Join(filepath.Dir(self), daemonExecutable)
	if _, err := os.Stat(path); err != nil {
		// Fall back to PATH lookup for installed setups.
		path, err = exec.LookPath(daemonExecutable)
		if err != nil {
			return fmt.Errorf("daemon binary not found: %w", err)
		}
	}

	cmd := exec.Command(path)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn %s: %w", daemonExecutable, err)
	}
	return cmd.Process.Release()
}

// MockEmbedder computes embeddings in-process with the deterministic mock
// backend. Used by tests and the mock backend configuration.
type MockEmbedder struct {
	backend *MockBackend
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{backend: NewMockBackend(dimension)}
}

func (e *MockEmbedder) Version() string {
	return e.backend.Version()
}

func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.backend.ComputeEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
