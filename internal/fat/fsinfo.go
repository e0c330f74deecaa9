package fat

import (
	"encoding/binary"
	"fmt"

	"github.com/arcfs/imgsh/internal/backend"
	"github.com/arcfs/imgsh/internal/imgerr"
)

const (
	fsInfoSignature1 uint32 = 0x41615252
	fsInfoSignature2 uint32 = 0x61417272
	fsInfoTrailSig   uint32 = 0xAA550000
)

// FSInfo is FAT32's free-cluster hint block
type FSInfo struct {
	Signature1    uint32
	Signature2    uint32
	FreeClusters  uint32
	NextFreeHint  uint32
	TrailSig      uint32
}

// ReadFSInfo reads and validates the FAT32 fsinfo sector at
// info_sector*sector_size (or sector_size if info_sector==0)
func ReadFSInfo(r backend.Storage, bs *BootSector) (*FSInfo, error) {
	sector := bs.InfoSector
	if sector == 0 {
		sector = 1
	}
	offset := int64(sector) * int64(bs.SectorSize)

	b := make([]byte, bs.SectorSize)
	if _, err := r.ReadAt(b, offset); err != nil {
		return nil, imgerr.New(imgerr.IoRead, "fat.ReadFSInfo", err)
	}

	le := binary.LittleEndian
	fi := &FSInfo{
		Signature1:   le.Uint32(b[0:4]),
		Signature2:   le.Uint32(b[484:488]),
		FreeClusters: le.Uint32(b[488:492]),
		NextFreeHint: le.Uint32(b[492:496]),
		TrailSig:     le.Uint32(b[508:512]),
	}
	if fi.Signature1 != fsInfoSignature1 || fi.Signature2 != fsInfoSignature2 {
		return nil, imgerr.New(imgerr.InvalidFsInfo, "fat.ReadFSInfo",
			fmt.Errorf("fsinfo signatures %#08x/%#08x invalid", fi.Signature1, fi.Signature2))
	}
	return fi, nil
}
