package internal

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultIdleTimeout is how long the daemon waits for a connection before
// shutting itself down.
const DefaultIdleTimeout = 300 * time.Second

// Daemon serves embedding requests over a local endpoint. It owns exactly
// one loaded backend; inference calls are serialized by a mutex while
// connection handling stays off the accept loop.
type Daemon struct {
	endpoint string
	backend  EmbeddingBackend
	idle     time.Duration
	logger   *log.Logger

	mu sync.Mutex // serializes backend inference
	wg sync.WaitGroup
}

func NewDaemon(endpoint string, backend EmbeddingBackend, idle time.Duration, logger *log.Logger) *Daemon {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}

	return &Daemon{
		endpoint: endpoint,
		backend:  backend,
		idle:     idle,
		logger:   logger,
	}
}

// Run accepts connections until the idle timeout elapses with none arriving
// or ctx is canceled. In-flight connections are drained before the endpoint
// is removed, so no accepted connection is ever dropped.
func (d *Daemon) Run(ctx context.Context) error {
	listener, err := listenEndpoint(d.endpoint)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	d.logger.Info("daemon listening", "endpoint", d.endpoint, "backend", d.backend.Version())

	for {
		_ = listener.SetDeadline(time.Now().Add(d.idle))

		conn, err := listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				d.logger.Info("shutting down after idle timeout", "idle", d.idle)
			} else if ctx.Err() == nil {
				d.logger.Error("accept failed", "err", err)
			}
			break
		}

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.handleConn(conn)
		}()
	}

	d.wg.Wait()
	_ = listener.Close()
	removeEndpoint(d.endpoint)
	return nil
}

// handleConn reads one request line, answers it, and closes the connection.
func (d *Daemon) handleConn(conn net.Conn) {
	defer conn.Close()

	var req EmbeddingRequest
	if err := readLine(bufio.NewReader(conn), &req); err != nil {
		d.logger.Warn("bad request", "err", err)
		return
	}

	resp := d.handleRequest(&req)
	if err := writeLine(conn, resp); err != nil {
		d.logger.Warn("write response failed", "id", req.ID, "err", err)
	}
}

// handleRequest computes embeddings for all texts in one batched backend
// call. Backend failures go into the response error field and never take
// the daemon down.
func (d *Daemon) handleRequest(req *EmbeddingRequest) *EmbeddingResponse {
	d.mu.Lock()
	embeddings, err := d.backend.ComputeEmbeddings(context.Background(), req.Texts)
	d.mu.Unlock()

	if err != nil {
		d.logger.Warn("backend error", "id", req.ID, "err", err)
		msg := err.Error()
		return &EmbeddingResponse{Embeddings: [][]float32{}, ID: req.ID, Error: &msg}
	}

	return &EmbeddingResponse{Embeddings: embeddings, ID: req.ID}
}
