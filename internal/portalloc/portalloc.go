// Package portalloc finds a free local TCP port.
package portalloc

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// DefaultSpan is how many ports above the start port are probed.
const DefaultSpan = 100

const maxPort = 65535

// ErrNoPortAvailable is returned when every port in the probed range is taken.
var ErrNoPortAvailable = errors.New("no available port found")

// Find probes ports [start, start+span] on host in ascending order and returns
// the first one that can be bound. The probe listener is closed before
// returning, so another process may take the port before the caller binds it.
func Find(host string, start, span int) (int, error) {
	if start < 1 || start > maxPort {
		return 0, fmt.Errorf("start port %d out of range", start)
	}
	if span < 0 {
		return 0, fmt.Errorf("negative port span %d", span)
	}
	end := min(start+span, maxPort)

	for port := start; port <= end; port++ {
		if probe(host, port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("%w in [%d, %d]", ErrNoPortAvailable, start, end)
}

func probe(host string, port int) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}
