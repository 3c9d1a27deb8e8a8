//go:build linux

package mcat

import (
	"fmt"
	"os"
	"path/filepath"
)

// shmWrite stores data in a POSIX shared memory region under the given
// name for a t=s transmission. The terminal unlinks a region once it has
// read it; shmRemoveAll sweeps whatever is left.
func shmWrite(name string, data []byte) (string, bool) {
	if err := os.WriteFile("/dev/shm"+name, data, 0o600); err != nil {
		return "", false
	}
	return name, true
}

func shmRemoveAll(id uint32) {
	matches, _ := filepath.Glob(fmt.Sprintf("/dev/shm/mcat-kitty-%d-*", id))
	for _, m := range matches {
		os.Remove(m)
	}
}
