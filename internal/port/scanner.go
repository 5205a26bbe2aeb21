package port

import (
	"fmt"
	"net"
)

// Scanner checks whether a TCP port is available on the host machine.
//
// It uses the operating system's network stack (net.Listen) to determine if
// a port is free: a successful bind means available. This is the most
// reliable method because it asks the OS directly rather than parsing
// /proc/net/* output, and it needs no elevated permissions.
//
// The struct is currently stateless, but is defined as a struct (rather
// than bare functions) so that future options (e.g., bind address) can be
// added without breaking the API, and so it can be injected as a dependency
// where that helps testing.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsPortAvailable checks whether a single TCP port is free on the host.
//
// We bind to all interfaces (":port" rather than "127.0.0.1:port") because
// the dev server itself binds 0.0.0.0, so the check must cover the same
// address space to avoid false positives. The probe listener is closed
// immediately — availability is all we wanted to know.
func (s *Scanner) IsPortAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		// Typically "address already in use"; any bind failure means the
		// port is not usable for our purposes.
		return false
	}
	defer func() { _ = listener.Close() }()
	return true
}
