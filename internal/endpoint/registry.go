// Package endpoint holds the local port the proxy listener is bound to and
// builds proxy URLs against it.
package endpoint

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"

	"webview-proxy-go/internal/codec"
)

// Host is the loopback address the listener binds and proxy URLs point at.
const Host = "127.0.0.1"

var (
	// ErrPortAlreadySet is returned when Set is called a second time.
	ErrPortAlreadySet = errors.New("proxy port already set")
	// ErrInvalidPort is returned for ports outside 1-65535.
	ErrInvalidPort = errors.New("invalid proxy port")
)

// Registry is a write-once cell holding the bound proxy port. The zero port
// means the listener is not bound yet. It is safe for concurrent use.
type Registry struct {
	port atomic.Uint32
}

// NewRegistry returns an unset Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Set records the bound port. It succeeds at most once.
func (r *Registry) Set(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}
	if !r.port.CompareAndSwap(0, uint32(port)) {
		return fmt.Errorf("%w: %d", ErrPortAlreadySet, r.port.Load())
	}
	return nil
}

// Port returns the bound port, or 0 before the listener is bound.
func (r *Registry) Port() int {
	return int(r.port.Load())
}

// ProxyURL returns the local URL that forwards to target with the declared
// headers. Before the listener is bound the URL carries port 0.
func (r *Registry) ProxyURL(target string, headers []codec.Header) string {
	return FormatURL(r.Port(), target, headers)
}

// FormatURL builds http://127.0.0.1:{port}/proxy/{headers}/{url}.
func FormatURL(port int, target string, headers []codec.Header) string {
	return "http://" + net.JoinHostPort(Host, strconv.Itoa(port)) + "/proxy/" + codec.Encode(target, headers)
}
