// Package backend provides the positioned byte-stream reader that every
// decoder reads through: seek to an absolute offset, fill a buffer of a
// known size. There is no concept of a writable image — inspection is
// read-only by design.
package backend

import (
	"io"
	"io/fs"
)

// Storage is a read-only, seekable, positioned-read source, adapted from
// backend/interface.go's Storage interface and trimmed of Writable()/
// WriterAt since mutation is out of scope here.
type Storage interface {
	io.ReaderAt
	io.Seeker
	io.Closer
	Stat() (fs.FileInfo, error)
}
