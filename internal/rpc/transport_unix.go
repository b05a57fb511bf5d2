//go:build !windows

package rpc

import (
	"net"
	"os"
	"time"
)

// On unix the daemon listens directly on the socket file next to the
// rk database; socketPath is both the endpoint and its discovery record.
func listenRPC(socketPath string) (net.Listener, error) {
	return net.Listen("unix", socketPath)
}

func dialRPC(socketPath string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", socketPath, timeout)
}

func endpointExists(socketPath string) bool {
	_, err := os.Stat(socketPath)
	return err == nil
}
