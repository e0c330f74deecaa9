// Package file implements backend.Storage over a plain host file: the
// image on disk, adapted from backend/file/file.go, trimmed
// to the read-only surface and a single-open-handle discipline: the
// handle is process-wide at most one instance, and reopening before
// close fails with AlreadyOpen.
package file

import (
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/arcfs/imgsh/internal/backend"
	"github.com/arcfs/imgsh/internal/imgerr"
)

var (
	openMu   sync.Mutex
	openPath string
)

// Handle is the process-wide byte-stream reader for one open image.
type Handle struct {
	f    *os.File
	path string
}

var _ backend.Storage = (*Handle)(nil)

// Open opens path read-only as the process's single backing image.
// Calling Open again before the previous Handle is Closed fails with
// imgerr.AlreadyOpen.
func Open(path string) (*Handle, error) {
	openMu.Lock()
	defer openMu.Unlock()

	if openPath != "" {
		return nil, imgerr.New(imgerr.AlreadyOpen, "open", fmt.Errorf("image %q is already open", openPath))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, imgerr.New(imgerr.IoOpen, "open", err)
	}
	// The in-process openPath guard only stops this one process from
	// reopening the image; flock backstops it against another process
	// (or another copy of this tool) doing the same.
	if err := flockExclusive(f); err != nil {
		_ = f.Close()
		return nil, imgerr.New(imgerr.AlreadyOpen, "open", fmt.Errorf("image %q is locked by another process: %w", path, err))
	}
	openPath = path
	return &Handle{f: f, path: path}, nil
}

// Close releases the process-wide open slot.
func (h *Handle) Close() error {
	openMu.Lock()
	defer openMu.Unlock()
	openPath = ""
	if h.f == nil {
		return nil
	}
	_ = flockRelease(h.f)
	err := h.f.Close()
	h.f = nil
	if err != nil {
		return imgerr.New(imgerr.IoOpen, "close", err)
	}
	return nil
}

// Seek moves the read cursor to an absolute byte offset. Negative offsets
// are rejected ("all offsets are unsigned; negative is rejected").
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	if offset < 0 && whence == 0 {
		return -1, imgerr.New(imgerr.IoSeek, "seek", fmt.Errorf("negative offset %d", offset))
	}
	pos, err := h.f.Seek(offset, whence)
	if err != nil {
		return -1, imgerr.New(imgerr.IoSeek, "seek", err)
	}
	return pos, nil
}

// ReadAt fills dst entirely from the given absolute offset. A short read
// is an error, ("reads smaller than requested are errors").
func (h *Handle) ReadAt(dst []byte, off int64) (int, error) {
	if off < 0 {
		return 0, imgerr.New(imgerr.IoRead, "read", fmt.Errorf("negative offset %d", off))
	}
	n, err := h.f.ReadAt(dst, off)
	if err != nil || n != len(dst) {
		return n, imgerr.New(imgerr.IoRead, "read", fmt.Errorf("read %d of %d bytes: %w", n, len(dst), err))
	}
	return n, nil
}

// Read fills dst from the current cursor position, advancing it.
func (h *Handle) Read(dst []byte) (int, error) {
	n, err := h.f.Read(dst)
	if err != nil || n != len(dst) {
		return n, imgerr.New(imgerr.IoRead, "read", fmt.Errorf("read %d of %d bytes: %w", n, len(dst), err))
	}
	return n, nil
}

func (h *Handle) Stat() (fs.FileInfo, error) {
	return h.f.Stat()
}
