package harness

import (
	"fmt"
	"net"
	"sync"
)

const maxPortProbes = 200

var (
	portMu   sync.Mutex
	portNext int
)

// AllocatePort finds a free TCP port on the loopback interface, probing
// upward from base. Consecutive calls hand out distinct ports even
// before the previous owner starts listening, so concurrently starting
// fixtures do not race for the same slot.
func AllocatePort(base int) (int, error) {
	portMu.Lock()
	defer portMu.Unlock()

	for i := 0; i < maxPortProbes; i++ {
		port := base + (portNext+i)%maxPortProbes
		listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			continue
		}
		listener.Close()
		portNext = (portNext + i + 1) % maxPortProbes
		return port, nil
	}
	return 0, fmt.Errorf("no available port in range %d-%d", base, base+maxPortProbes-1)
}
