//go:build unix

package internal

import (
	"net"
	"os"
	"time"
)

const (
	defaultEndpoint  = "/tmp/insights_embeddings.sock"
	daemonExecutable = "insights-embedding-daemon"
)

// deadlineListener is satisfied by both unix and tcp listeners; the accept
// deadline drives the daemon's idle shutdown.
type deadlineListener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

func listenEndpoint(endpoint string) (deadlineListener, error) {
	// Remove any stale socket left by an unclean shutdown before binding.
	_ = os.Remove(endpoint)

	l, err := net.Listen("unix", endpoint)
	if err != nil {
		return nil, err
	}
	return l.(*net.UnixListener), nil
}

func dialEndpoint(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", endpoint, timeout)
}

func removeEndpoint(endpoint string) {
	_ = os.Remove(endpoint)
}
