package ext4

import (
	"encoding/binary"
	"io"
	"io/fs"
)

// memStorage is a minimal in-memory backend.Storage over a byte slice,
// used to exercise the decoders without a real disk image.
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

// buildSuperblock writes a minimal valid ext4 superblock at offset 1024
// of a 2048-byte buffer (the 1024-byte boot area plus the superblock).
func buildSuperblock(opts func(b []byte)) []byte {
	buf := make([]byte, 1024+1024)
	sb := buf[1024:]
	le := binary.LittleEndian
	le.PutUint32(sb[0x00:0x04], 128)  // inodes_count
	le.PutUint32(sb[0x04:0x08], 256)  // blocks_count_lo
	le.PutUint32(sb[0x14:0x18], 1)    // first_data_block
	le.PutUint32(sb[0x18:0x1C], 0)    // log_block_size -> 1024-byte blocks
	le.PutUint32(sb[0x20:0x24], 256)  // blocks_per_group
	le.PutUint32(sb[0x28:0x2C], 128)  // inodes_per_group
	le.PutUint16(sb[0x38:0x3A], magicSignature)
	le.PutUint16(sb[0x58:0x5A], 256) // inode_size
	le.PutUint16(sb[0xFE:0x100], 32) // desc_size
	if opts != nil {
		opts(sb)
	}
	return buf
}
