//go:build windows

package file

import "os"

// flockExclusive is a no-op on Windows: os.Open already denies other
// writers by default share-mode semantics, and there is no flock(2)
// equivalent wired through golang.org/x/sys on this platform.
func flockExclusive(f *os.File) error { return nil }

func flockRelease(f *os.File) error { return nil }
