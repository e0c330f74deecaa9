// Package ext4 decodes ext4 on-disk structures directly from a byte
// stream: superblock, group descriptors, inodes, extents, and linear
// directory entries. It is read-only; no structure is ever written back.
//
// Adapted from the filesystem/ext4 package (ext4.go's Read,
// readInode, readDirectory; inode.go's inodeFromBytes/parseFileType;
// extent.go's extentNodeHeader/extentLeafNode byte layouts), generalized
// from a write-capable library into a read-only decoder.
package ext4

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/arcfs/imgsh/internal/backend"
	"github.com/arcfs/imgsh/internal/imgerr"
)

const (
	superblockOffset = 1024
	superblockSize   = 1024

	magicSignature uint16 = 0xEF53

	// RootIno is the fixed inode number of the root directory.
	RootIno uint32 = 2
	// UnusedIno is the reserved, never-valid inode number 0.
	UnusedIno uint32 = 0

	featureIncompat64Bit       uint32 = 0x80
	featureRoCompatSparseSuper uint32 = 0x1
)

// Superblock is the 1024-byte structure loaded from absolute offset 1024.
type Superblock struct {
	InodesCount     uint32
	BlocksCountLo   uint32
	BlocksCountHi   uint32
	FirstDataBlock  uint32
	LogBlockSize    uint32
	BlocksPerGroup  uint32
	InodesPerGroup  uint32
	Magic           uint16
	InodeSize       uint16
	FeatureCompat   uint32
	FeatureIncompat uint32
	FeatureRoCompat uint32
	DescSize        uint16
	UUID            [16]byte
	VolumeName      [16]byte
	HashSeed        [4]uint32
	DefHashVersion  uint8
}

// ReadSuperblock seeks to offset 1024 and decodes the superblock,
// verifying the magic number. Errors: IoRead, NotExt4.
func ReadSuperblock(r backend.Storage) (*Superblock, error) {
	b := make([]byte, superblockSize)
	if _, err := r.ReadAt(b, superblockOffset); err != nil {
		return nil, imgerr.New(imgerr.IoRead, "ext4.ReadSuperblock", err)
	}
	return superblockFromBytes(b)
}

func superblockFromBytes(b []byte) (*Superblock, error) {
	if len(b) < superblockSize {
		return nil, imgerr.New(imgerr.IoRead, "ext4.superblockFromBytes",
			fmt.Errorf("superblock data too short: %d bytes", len(b)))
	}
	le := binary.LittleEndian
	sb := &Superblock{
		InodesCount:     le.Uint32(b[0x00:0x04]),
		BlocksCountLo:   le.Uint32(b[0x04:0x08]),
		FirstDataBlock:  le.Uint32(b[0x14:0x18]),
		LogBlockSize:    le.Uint32(b[0x18:0x1C]),
		BlocksPerGroup:  le.Uint32(b[0x20:0x24]),
		InodesPerGroup:  le.Uint32(b[0x28:0x2C]),
		Magic:           le.Uint16(b[0x38:0x3A]),
		InodeSize:       le.Uint16(b[0x58:0x5A]),
		FeatureCompat:   le.Uint32(b[0x5C:0x60]),
		FeatureIncompat: le.Uint32(b[0x60:0x64]),
		FeatureRoCompat: le.Uint32(b[0x64:0x68]),
		DefHashVersion:  b[0xFC],
		DescSize:        le.Uint16(b[0xFE:0x100]),
		BlocksCountHi:   le.Uint32(b[0x150:0x154]),
	}
	copy(sb.UUID[:], b[0x68:0x78])
	copy(sb.VolumeName[:], b[0x78:0x88])
	for i := 0; i < 4; i++ {
		sb.HashSeed[i] = le.Uint32(b[0xEC+i*4 : 0xF0+i*4])
	}

	if sb.Magic != magicSignature {
		return nil, imgerr.New(imgerr.NotExt4, "ext4.superblockFromBytes",
			fmt.Errorf("magic %#04x != %#04x", sb.Magic, magicSignature))
	}
	return sb, nil
}

// BlockSize is 2^(10+log_block_size).
func (sb *Superblock) BlockSize() uint32 {
	return 1 << (10 + sb.LogBlockSize)
}

// BlocksCount is the 64-bit block count assembled from lo/hi halves.
func (sb *Superblock) BlocksCount() uint64 {
	return uint64(sb.BlocksCountHi)<<32 | uint64(sb.BlocksCountLo)
}

// BlockGroupCount is ceil((blocks_count - first_data_block) / blocks_per_group).
func (sb *Superblock) BlockGroupCount() uint32 {
	total := sb.BlocksCount() - uint64(sb.FirstDataBlock)
	bpg := uint64(sb.BlocksPerGroup)
	return uint32((total + bpg - 1) / bpg)
}

// Is64Bit reports whether FEATURE_INCOMPAT_64BIT is set.
func (sb *Superblock) Is64Bit() bool {
	return sb.FeatureIncompat&featureIncompat64Bit != 0
}

// SparseSuper reports whether FEATURE_RO_COMPAT_SPARSE_SUPER is set.
func (sb *Superblock) SparseSuper() bool {
	return sb.FeatureRoCompat&featureRoCompatSparseSuper != 0
}

// VolumeNameString trims the trailing NUL padding from the volume label.
func (sb *Superblock) VolumeNameString() string {
	n := 0
	for n < len(sb.VolumeName) && sb.VolumeName[n] != 0 {
		n++
	}
	return string(sb.VolumeName[:n])
}

// UUIDString renders the on-disk 16-byte UUID field in canonical
// hyphenated form for the stats report.
func (sb *Superblock) UUIDString() string {
	return uuid.Must(uuid.FromBytes(sb.UUID[:])).String()
}
