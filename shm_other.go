//go:build !linux

package mcat

// Shared memory transmission is only wired up on Linux. Other platforms
// fall back to escape-text chunks.
func shmWrite(name string, data []byte) (string, bool) { return "", false }

func shmRemoveAll(id uint32) {}
