//go:build windows

package rpc

import "os"

func shutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
