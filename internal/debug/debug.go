// Package debug provides RK_DEBUG-gated diagnostic output.
//
// Debug logging goes to stderr so it never corrupts JSON output
// consumed by agent tooling.
package debug

import (
	"fmt"
	"os"
)

var enabled = os.Getenv("RK_DEBUG") != ""

func Enabled() bool {
	return enabled
}

// Logf writes to stderr when RK_DEBUG is set.
func Logf(format string, args ...interface{}) {
	if enabled {
		fmt.Fprintf(os.Stderr, "[rk] "+format+"\n", args...)
	}
}
