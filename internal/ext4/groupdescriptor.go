package ext4

import (
	"encoding/binary"
	"fmt"

	"github.com/arcfs/imgsh/internal/backend"
	"github.com/arcfs/imgsh/internal/imgerr"
)

const minimalDescSize = 32

// GroupDescriptor is the 32-byte minimal-form group descriptor. The
// decoder never proceeds past this form (Unsupported64Bit).
type GroupDescriptor struct {
	BlockBitmapLo     uint32
	InodeBitmapLo     uint32
	InodeTableLo      uint32
	FreeBlocksCountLo uint16
	FreeInodesCountLo uint16
	UsedDirsCountLo   uint16
	Flags             uint16
}

func groupDescriptorFromBytes(b []byte) GroupDescriptor {
	le := binary.LittleEndian
	return GroupDescriptor{
		BlockBitmapLo:     le.Uint32(b[0x00:0x04]),
		InodeBitmapLo:     le.Uint32(b[0x04:0x08]),
		InodeTableLo:      le.Uint32(b[0x08:0x0C]),
		FreeBlocksCountLo: le.Uint16(b[0x0C:0x0E]),
		FreeInodesCountLo: le.Uint16(b[0x0E:0x10]),
		UsedDirsCountLo:   le.Uint16(b[0x10:0x12]),
		Flags:             le.Uint16(b[0x12:0x14]),
	}
}

// groupHasSuperblock implements the sparse-super rule: group i carries a
// superblock (and the descriptor table) iff i is 0 or 1, or a power of
// 3, 5, or 7.
func groupHasSuperblock(sb *Superblock, i uint32) bool {
	if !sb.SparseSuper() {
		return true
	}
	if i == 0 || i == 1 {
		return true
	}
	return isPowerOf(i, 3) || isPowerOf(i, 5) || isPowerOf(i, 7)
}

func isPowerOf(n, base uint32) bool {
	if n < base {
		return false
	}
	for n%base == 0 {
		n /= base
		if n == 1 {
			return true
		}
	}
	return false
}

// ReadGroupDescriptors scans block groups in ascending order for the
// first one carrying a superblock (per the sparse-super rule) and reads
// the descriptor table that follows it. It refuses to proceed when
// FEATURE_INCOMPAT_64BIT is set and desc_size > 32 (Unsupported64Bit) —
// the 32-byte form is authoritative otherwise.
func ReadGroupDescriptors(r backend.Storage, sb *Superblock) ([]GroupDescriptor, error) {
	if sb.Is64Bit() && sb.DescSize > minimalDescSize {
		return nil, imgerr.New(imgerr.Unsupported64Bit, "ext4.ReadGroupDescriptors",
			fmt.Errorf("desc_size %d > 32 with 64BIT feature set", sb.DescSize))
	}

	blockSize := uint64(sb.BlockSize())
	groups := sb.BlockGroupCount()

	for i := uint32(0); i < groups; i++ {
		if !groupHasSuperblock(sb, i) {
			continue
		}
		offset := (uint64(sb.FirstDataBlock) + uint64(i)*uint64(sb.BlocksPerGroup) + 1) * blockSize
		entrySize := uint64(minimalDescSize)
		buf := make([]byte, entrySize*uint64(groups))
		if _, err := r.ReadAt(buf, int64(offset)); err != nil {
			return nil, imgerr.New(imgerr.IoRead, "ext4.ReadGroupDescriptors", err)
		}
		descs := make([]GroupDescriptor, groups)
		for g := uint32(0); g < groups; g++ {
			descs[g] = groupDescriptorFromBytes(buf[uint64(g)*entrySize : uint64(g+1)*entrySize])
		}
		return descs, nil
	}
	return nil, imgerr.New(imgerr.IoRead, "ext4.ReadGroupDescriptors",
		fmt.Errorf("no block group in [0,%d) carries a superblock", groups))
}
