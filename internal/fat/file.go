package fat

import (
	"github.com/arcfs/imgsh/internal/backend"
	"github.com/arcfs/imgsh/internal/imgerr"
)

// ReadFile reads entry's declared size in bytes starting at its first
// cluster's sector. known limitation, the FAT chain is
// not walked: files whose data crosses a cluster boundary into a
// non-contiguous run are read only up to the contiguous extent of the
// first run (here: exactly bs.SecPerClus sectors' worth, clamped to the
// declared size).
func ReadFile(r backend.Storage, bs *BootSector, isFAT32 bool, entry DirEntry) ([]byte, error) {
	cluster := entry.StartCluster(isFAT32)
	if cluster == 0 {
		return nil, nil
	}
	sector := ClusterToSector(bs, isFAT32, cluster)
	offset := int64(sector) * int64(bs.SectorSize)

	contiguous := uint64(bs.SecPerClus) * uint64(bs.SectorSize)
	want := uint64(entry.Size)
	if want > contiguous {
		want = contiguous
	}

	data := make([]byte, want)
	if len(data) == 0 {
		return data, nil
	}
	if _, err := r.ReadAt(data, offset); err != nil {
		return nil, imgerr.New(imgerr.IoRead, "fat.ReadFile", err)
	}
	return data, nil
}
