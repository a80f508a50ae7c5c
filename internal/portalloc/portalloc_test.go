package portalloc

import (
	"errors"
	"net"
	"strconv"
	"testing"
)

const host = "127.0.0.1"

// occupy binds an ephemeral loopback port and holds it for the test.
func occupy(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", host+":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	return ln.Addr().(*net.TCPAddr).Port
}

func TestFind_ReturnsBindablePort(t *testing.T) {
	port, err := Find(host, 20000, DefaultSpan)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if port < 20000 || port > 20000+DefaultSpan {
		t.Fatalf("port = %d, want within [20000, %d]", port, 20000+DefaultSpan)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		t.Fatalf("bind returned port %d: %v", port, err)
	}
	_ = ln.Close()
}

func TestFind_SkipsTakenPort(t *testing.T) {
	taken := occupy(t)
	if taken+5 > maxPort {
		t.Skip("ephemeral port too close to the top of the range")
	}

	port, err := Find(host, taken, 5)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if port <= taken || port > taken+5 {
		t.Errorf("port = %d, want in (%d, %d]", port, taken, taken+5)
	}
}

func TestFind_NoPortAvailable(t *testing.T) {
	taken := occupy(t)

	_, err := Find(host, taken, 0)
	if !errors.Is(err, ErrNoPortAvailable) {
		t.Errorf("Find() error = %v, want ErrNoPortAvailable", err)
	}
}

func TestFind_InvalidArguments(t *testing.T) {
	tests := []struct {
		name  string
		start int
		span  int
	}{
		{"zero start", 0, 10},
		{"start above range", 70000, 10},
		{"negative span", 1430, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Find(host, tt.start, tt.span); err == nil {
				t.Error("Find() expected error, got nil")
			}
		})
	}
}
