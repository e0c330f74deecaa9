package fat

import (
	"encoding/binary"

	"github.com/arcfs/imgsh/internal/backend"
	"github.com/arcfs/imgsh/internal/imgerr"
)

// Attribute bits
const (
	AttrReadOnly  uint8 = 0x01
	AttrHidden    uint8 = 0x02
	AttrSystem    uint8 = 0x04
	AttrVolumeID  uint8 = 0x08
	AttrDirectory uint8 = 0x10
	AttrArchive   uint8 = 0x20
	AttrLFN       uint8 = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID
)

const direntSize = 32

// DirEntry is a 32-byte FAT directory entry
type DirEntry struct {
	Name    [11]byte
	Attr    uint8
	LCase   uint8
	CTimeCS uint8
	CTime   uint16
	CDate   uint16
	ADate   uint16
	StartHi uint16
	Time    uint16
	Date    uint16
	Start   uint16
	Size    uint32
}

func direntFromBytes(b []byte) DirEntry {
	le := binary.LittleEndian
	d := DirEntry{
		Attr:    b[0x0B],
		LCase:   b[0x0C],
		CTimeCS: b[0x0D],
		CTime:   le.Uint16(b[0x0E:0x10]),
		CDate:   le.Uint16(b[0x10:0x12]),
		ADate:   le.Uint16(b[0x12:0x14]),
		StartHi: le.Uint16(b[0x14:0x16]),
		Time:    le.Uint16(b[0x16:0x18]),
		Date:    le.Uint16(b[0x18:0x1A]),
		Start:   le.Uint16(b[0x1A:0x1C]),
		Size:    le.Uint32(b[0x1C:0x20]),
	}
	copy(d.Name[:], b[0:11])
	return d
}

// IsDirectory reports ATTR_DIR
func (d DirEntry) IsDirectory() bool { return d.Attr&AttrDirectory != 0 }

// IsVolumeLabel reports the volume-label attribute: recognized
// structurally, never listed as a navigable entry.
func (d DirEntry) IsVolumeLabel() bool { return d.Attr == AttrVolumeID }

// IsLongNameSlot reports a long-filename slot: recognized structurally
// but not reconstructed into a long name.
func (d DirEntry) IsLongNameSlot() bool { return d.Attr&AttrLFN == AttrLFN }

// StartCluster is (starthi<<16)|start on FAT32, else just start. A
// caller seeing 0 back (the ".." entry of a second-level directory
// referencing root) should navigate to root rather than read a cluster.
func (d DirEntry) StartCluster(isFAT32 bool) uint32 {
	if isFAT32 {
		return uint32(d.StartHi)<<16 | uint32(d.Start)
	}
	return uint32(d.Start)
}

// ShortName splits the 8.3 raw name into base and extension, trimming
// trailing 0x20 padding.
func (d DirEntry) ShortName() (base, ext string) {
	base = trimPad(d.Name[0:8])
	ext = trimPad(d.Name[8:11])
	return base, ext
}

func trimPad(b []byte) string {
	n := len(b)
	for n > 0 && (b[n-1] == ' ' || b[n-1] == 0) {
		n--
	}
	return string(b[:n])
}

// MatchesName matches NAME as either BASE (no dot) or BASE.EXT, equality
// case-sensitive on raw bytes.
func (d DirEntry) MatchesName(name string) bool {
	base, ext := d.ShortName()
	if ext == "" {
		return name == base
	}
	return name == base+"."+ext
}

// readRegion reads raw directory-entry bytes from the fixed FAT12/16 root
// region (cluster==0) or from a single cluster's sector run. Like file
// reads, this does not walk the FAT chain: only the addressed cluster's
// contiguous sectors are read.
func readRegion(r backend.Storage, bs *BootSector, isFAT32 bool, cluster uint32) ([]byte, error) {
	var (
		startSector uint32
		sectorCount uint32
	)
	if cluster == 0 {
		startSector = RootDirSector(bs)
		sectorCount = rootDirSectorCount(bs)
	} else {
		startSector = ClusterToSector(bs, isFAT32, cluster)
		sectorCount = uint32(bs.SecPerClus)
	}
	offset := int64(startSector) * int64(bs.SectorSize)
	length := int64(sectorCount) * int64(bs.SectorSize)

	data := make([]byte, length)
	if _, err := r.ReadAt(data, offset); err != nil {
		return nil, imgerr.New(imgerr.IoRead, "fat.readRegion", err)
	}
	return data, nil
}

// ReadDirectory enumerates entries starting from the root-directory
// region (cluster==0, FAT12/16 only) or the sector computed from a
// cluster, stopping at name[0]==0.
func ReadDirectory(r backend.Storage, bs *BootSector, isFAT32 bool, cluster uint32) ([]DirEntry, error) {
	data, err := readRegion(r, bs, isFAT32, cluster)
	if err != nil {
		return nil, err
	}
	var entries []DirEntry
	for off := 0; off+direntSize <= len(data); off += direntSize {
		if data[off] == 0 {
			break
		}
		entries = append(entries, direntFromBytes(data[off:off+direntSize]))
	}
	return entries, nil
}

// LookupName scans entries for a short-name match, skipping long-name
// slots and the volume label.
func LookupName(entries []DirEntry, name string) (DirEntry, bool) {
	for _, e := range entries {
		if e.IsLongNameSlot() || e.IsVolumeLabel() {
			continue
		}
		if e.MatchesName(name) {
			return e, true
		}
	}
	return DirEntry{}, false
}
