//go:build windows

package internal

import (
	"net"
	"time"
)

const (
	defaultEndpoint  = "127.0.0.1:47291"
	daemonExecutable = "insights-embedding-daemon.exe"
)

// deadlineListener is satisfied by both unix and tcp listeners; the accept
// deadline drives the daemon's idle shutdown.
type deadlineListener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

func listenEndpoint(endpoint string) (deadlineListener, error) {
	l, err := net.Listen("tcp", endpoint)
	if err != nil {
		return nil, err
	}
	return l.(*net.TCPListener), nil
}

func dialEndpoint(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", endpoint, timeout)
}

// removeEndpoint is a no-op for tcp endpoints; there is no socket file.
func removeEndpoint(string) {}
