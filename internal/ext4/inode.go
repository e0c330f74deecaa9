package ext4

import (
	"encoding/binary"
	"fmt"

	"github.com/arcfs/imgsh/internal/backend"
	"github.com/arcfs/imgsh/internal/imgerr"
)

// File-type bits occupying the top 4 bits of i_mode
const (
	IFIFO  uint16 = 0x1000
	IFCHR  uint16 = 0x2000
	IFDIR  uint16 = 0x4000
	IFBLK  uint16 = 0x6000
	IFREG  uint16 = 0x8000
	IFLNK  uint16 = 0xA000
	IFSOCK uint16 = 0xC000

	modeTypeMask uint16 = 0xF000

	extentsFlag uint32 = 0x80000 // EXT4_EXTENTS_FL
	indexFlag   uint32 = 0x1000  // EXT4_INDEX_FL (htree) — recognized, not walked

	iBlockSize = 60
)

// Inode is the fixed-size ext4 inode structure, sized by the superblock's
// inode_size
type Inode struct {
	Number uint32
	Mode   uint16
	Flags  uint32
	SizeLo uint32
	SizeHi uint32
	IBlock [iBlockSize]byte
}

// Size is the 64-bit file size assembled from size_lo/size_hi.
func (i *Inode) Size() uint64 {
	return uint64(i.SizeHi)<<32 | uint64(i.SizeLo)
}

// IsDir tests the full 4-bit file-type field against IFDIR, rather than
// a bare bitmask test: a bitmask test on IFDIR=0x4000 would also fire on
// IFBLK=0x6000 and IFSOCK=0xC000 since both have the 0x4000 bit set.
// This matches the original parseFileType (filesystem/ext4/inode.go),
// which already masks with 0xF000.
func (i *Inode) IsDir() bool {
	return i.Mode&modeTypeMask == IFDIR
}

// HasExtents reports whether EXT4_EXTENTS_FL is set; if unset, i_block
// holds legacy direct/indirect block pointers, which this decoder does
// not interpret (ext4 images produced by any modern mkfs.ext4 always set
// this flag).
func (i *Inode) HasExtents() bool {
	return i.Flags&extentsFlag != 0
}

// HasHashedIndex reports EXT4_INDEX_FL (htree). Directories with this
// flag fall through to linear parsing, which may mis-parse the index
// block — htree traversal is out of scope.
func (i *Inode) HasHashedIndex() bool {
	return i.Flags&indexFlag != 0
}

// ReadInode reads the inode at its computed offset:
//
//	bg_idx = (inode_num-1) / inodes_per_group
//	offset = inode_table_lo[bg_idx]*block_size + (inode_num-1)*inode_size
//
// On read failure the returned inode is zeroed
func ReadInode(r backend.Storage, sb *Superblock, gds []GroupDescriptor, inodeNum uint32) (*Inode, error) {
	if inodeNum < 1 {
		return &Inode{}, imgerr.New(imgerr.BadArgs, "ext4.ReadInode", fmt.Errorf("inode number must be >= 1, got %d", inodeNum))
	}
	bgIdx := (inodeNum - 1) / sb.InodesPerGroup
	if int(bgIdx) >= len(gds) {
		return &Inode{}, imgerr.New(imgerr.IoRead, "ext4.ReadInode", fmt.Errorf("block group %d out of range", bgIdx))
	}
	gd := gds[bgIdx]

	offset := uint64(gd.InodeTableLo)*uint64(sb.BlockSize()) + uint64(inodeNum-1)*uint64(sb.InodeSize)

	b := make([]byte, sb.InodeSize)
	if _, err := r.ReadAt(b, int64(offset)); err != nil {
		return &Inode{}, imgerr.New(imgerr.IoRead, "ext4.ReadInode", err)
	}
	return inodeFromBytes(b, inodeNum)
}

func inodeFromBytes(b []byte, number uint32) (*Inode, error) {
	if len(b) < 0x6C+4 {
		return &Inode{}, imgerr.New(imgerr.IoRead, "ext4.inodeFromBytes", fmt.Errorf("inode data too short: %d bytes", len(b)))
	}
	le := binary.LittleEndian
	in := &Inode{
		Number: number,
		Mode:   le.Uint16(b[0x00:0x02]),
		SizeLo: le.Uint32(b[0x04:0x08]),
		Flags:  le.Uint32(b[0x20:0x24]),
		SizeHi: le.Uint32(b[0x6C:0x70]),
	}
	copy(in.IBlock[:], b[0x28:0x28+iBlockSize])
	return in, nil
}
