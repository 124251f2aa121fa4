package harness

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatePortHandsOutDistinctPorts(t *testing.T) {
	first, err := AllocatePort(28000)
	require.NoError(t, err)
	second, err := AllocatePort(28000)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.GreaterOrEqual(t, first, 28000)
	assert.GreaterOrEqual(t, second, 28000)
}

func TestAllocatePortSkipsBusyPort(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	busy := listener.Addr().(*net.TCPAddr).Port

	portMu.Lock()
	portNext = 0
	portMu.Unlock()

	port, err := AllocatePort(busy)
	require.NoError(t, err)
	assert.NotEqual(t, busy, port)
}
