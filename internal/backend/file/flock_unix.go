//go:build !windows

package file

import (
	"os"

	"golang.org/x/sys/unix"
)

// flockExclusive takes a non-blocking advisory exclusive lock on f,
// backstopping the in-process openPath guard against a second process
// opening the same image concurrently.
func flockExclusive(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func flockRelease(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
