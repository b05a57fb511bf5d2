//go:build js && wasm

package lockfile

import (
	"errors"
	"os"
)

// WASM has no file locking and is single-process anyway.
func flockExclusive(f *os.File) error {
	return errors.New("file locking not supported on this platform")
}
