// Package fat decodes FAT12/16/32 on-disk structures directly from a
// byte stream: boot sector (BPB), boot extension (BSX), FAT32 fsinfo,
// cluster→sector mapping, and directory entries. Read-only; the FAT chain
// is never walked, and long-filename slots are recognized but not
// reconstructed.
//
// Adapted from the filesystem/fat32 package for the byte-level
// decoding idiom (table.go's FAT-entry bit packing, directory.go's entry
// layout) recovered from its *_internal_test.go fixtures, generalized
// from FAT32-only to the full FAT12/16/32 family.
package fat

import (
	"encoding/binary"
	"fmt"

	"github.com/arcfs/imgsh/internal/backend"
	"github.com/arcfs/imgsh/internal/imgerr"
)

const bootSectorSize = 512

// BootSector holds the BPB fields used by the decoder
type BootSector struct {
	SectorSize  uint16
	SecPerClus  uint8
	Reserved    uint16
	Fats        uint8
	DirEntries  uint16
	Sectors     uint16
	Media       uint8
	FatLength   uint16 // FAT12/16 sectors-per-FAT; 0 signals FAT32
	TotalSect   uint32
	Fat32Length uint32 // FAT32 only
	RootCluster uint32 // FAT32 only
	InfoSector  uint16 // FAT32 only
	BackupBoot  uint16 // FAT32 only
}

// ReadBootSector reads and validates the boot sector at offset 0, and the
// BSX at offset 36 (FAT12/16) or 64 (FAT32).
func ReadBootSector(r backend.Storage) (*BootSector, *BSX, error) {
	b := make([]byte, bootSectorSize)
	if _, err := r.ReadAt(b, 0); err != nil {
		return nil, nil, imgerr.New(imgerr.IoRead, "fat.ReadBootSector", err)
	}

	le := binary.LittleEndian
	bs := &BootSector{
		SectorSize: le.Uint16(b[11:13]),
		SecPerClus: b[13],
		Reserved:   le.Uint16(b[14:16]),
		Fats:       b[16],
		DirEntries: le.Uint16(b[17:19]),
		Sectors:    le.Uint16(b[19:21]),
		Media:      b[21],
		FatLength:  le.Uint16(b[22:24]),
		TotalSect:  le.Uint32(b[32:36]),
	}
	if err := bs.validate(); err != nil {
		return nil, nil, err
	}

	var (
		bsxOffset int
		isFAT32   bool
	)
	if bs.FatLength == 0 {
		bs.Fat32Length = le.Uint32(b[36:40])
		bs.RootCluster = le.Uint32(b[44:48])
		bs.InfoSector = le.Uint16(b[48:50])
		bs.BackupBoot = le.Uint16(b[50:52])
		bsxOffset = 64
		isFAT32 = true
	} else {
		bsxOffset = 36
	}

	bsx := bsxFromBytes(b[bsxOffset : bsxOffset+26])

	// FAT32 iff type begins with "FAT32" AND fat_length==0 AND
	// fat32_length!=0.
	if isFAT32 && (!bsx.isFAT32Type() || bs.Fat32Length == 0) {
		isFAT32 = false
	}
	bsx.IsFAT32 = isFAT32

	return bs, bsx, nil
}

func (bs *BootSector) validate() error {
	switch bs.SectorSize {
	case 512, 1024, 2048, 4096:
	default:
		return imgerr.New(imgerr.InvalidFatBoot, "fat.BootSector.validate",
			fmt.Errorf("invalid sector size %d", bs.SectorSize))
	}
	if bs.SecPerClus == 0 || bs.SecPerClus&(bs.SecPerClus-1) != 0 {
		return imgerr.New(imgerr.InvalidFatBoot, "fat.BootSector.validate",
			fmt.Errorf("invalid sectors-per-cluster %d", bs.SecPerClus))
	}
	if bs.Reserved == 0 {
		return imgerr.New(imgerr.InvalidFatBoot, "fat.BootSector.validate", fmt.Errorf("reserved sectors is 0"))
	}
	if bs.Fats == 0 {
		return imgerr.New(imgerr.InvalidFatBoot, "fat.BootSector.validate", fmt.Errorf("fat count is 0"))
	}
	if bs.Media < 0xF8 && bs.Media != 0xF0 {
		return imgerr.New(imgerr.InvalidFatBoot, "fat.BootSector.validate",
			fmt.Errorf("invalid media byte %#02x", bs.Media))
	}
	return nil
}
