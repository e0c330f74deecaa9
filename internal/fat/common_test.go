package fat

import (
	"io"
	"io/fs"
)

// memStorage is a minimal in-memory backend.Storage over a byte slice.
type memStorage struct {
	data []byte
	pos  int64
}

func newMemStorage(size int) *memStorage {
	return &memStorage{data: make([]byte, size)}
}

func (m *memStorage) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || int(off) >= len(m.data) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

func (m *memStorage) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = offset
	case io.SeekCurrent:
		m.pos += offset
	case io.SeekEnd:
		m.pos = int64(len(m.data)) + offset
	}
	return m.pos, nil
}

func (m *memStorage) Close() error { return nil }

func (m *memStorage) Stat() (fs.FileInfo, error) { return nil, nil }
