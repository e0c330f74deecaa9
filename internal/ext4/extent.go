package ext4

import (
	"encoding/binary"
	"fmt"

	"github.com/arcfs/imgsh/internal/imgerr"
)

const (
	extentHeaderMagic uint16 = 0xF30A
	extentHeaderLen          = 12
	extentEntryLen           = 12
)

// ExtentHeader is the 12-byte header at the start of i_block
type ExtentHeader struct {
	Magic      uint16
	Entries    uint16
	Max        uint16
	Depth      uint16
	Generation uint32
}

// ExtentLeaf maps a contiguous logical file-block run to a contiguous
// physical block run
type ExtentLeaf struct {
	Block   uint32 // first logical file block
	Len     uint16 // physical block count
	StartHi uint16
	StartLo uint32
}

// PhysicalOffset is the byte offset of this extent's data:
// ((start_hi<<32)|start_lo) * block_size.
func (e ExtentLeaf) PhysicalOffset(blockSize uint32) uint64 {
	return (uint64(e.StartHi)<<32 | uint64(e.StartLo)) * uint64(blockSize)
}

// ExtentHeaderFromIBlock reads the first 12 bytes of i_block.
func ExtentHeaderFromIBlock(iBlock [iBlockSize]byte) (ExtentHeader, error) {
	le := binary.LittleEndian
	h := ExtentHeader{
		Magic:      le.Uint16(iBlock[0:2]),
		Entries:    le.Uint16(iBlock[2:4]),
		Max:        le.Uint16(iBlock[4:6]),
		Depth:      le.Uint16(iBlock[6:8]),
		Generation: le.Uint32(iBlock[8:12]),
	}
	if h.Magic != extentHeaderMagic {
		return h, imgerr.New(imgerr.IoRead, "ext4.ExtentHeaderFromIBlock",
			fmt.Errorf("extent header magic %#04x != %#04x", h.Magic, extentHeaderMagic))
	}
	return h, nil
}

// ExtentLeafAt decodes extent leaf #n from i_block, at offset 12+n*12.
func ExtentLeafAt(iBlock [iBlockSize]byte, n int) ExtentLeaf {
	off := extentHeaderLen + n*extentEntryLen
	le := binary.LittleEndian
	return ExtentLeaf{
		Block:   le.Uint32(iBlock[off : off+4]),
		Len:     le.Uint16(iBlock[off+4 : off+6]),
		StartHi: le.Uint16(iBlock[off+6 : off+8]),
		StartLo: le.Uint32(iBlock[off+8 : off+12]),
	}
}

// FillExtentsCount is a deliberate simplification: the engine
// only supports a single-leaf extent tree per directory. Depth > 0 and
// multi-leaf extents are open work. It always yields 1 when the
// inode carries extents, 0 otherwise.
func FillExtentsCount(in *Inode) (int, error) {
	if !in.HasExtents() {
		return 0, nil
	}
	if _, err := ExtentHeaderFromIBlock(in.IBlock); err != nil {
		return 0, err
	}
	return 1, nil
}

// FirstExtent returns the inode's single supported leaf extent (leaf #0),
// per the FillExtentsCount simplification.
func FirstExtent(in *Inode) (ExtentLeaf, error) {
	if _, err := ExtentHeaderFromIBlock(in.IBlock); err != nil {
		return ExtentLeaf{}, err
	}
	return ExtentLeafAt(in.IBlock, 0), nil
}
