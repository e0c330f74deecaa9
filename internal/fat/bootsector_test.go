package fat

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcfs/imgsh/internal/imgerr"
)

func buildFAT16BootSector() []byte {
	b := make([]byte, bootSectorSize)
	le := binary.LittleEndian
	le.PutUint16(b[11:13], 512) // sector size
	b[13] = 4                  // sectors per cluster
	le.PutUint16(b[14:16], 1)  // reserved
	b[16] = 2                  // fats
	le.PutUint16(b[17:19], 512) // dir entries
	le.PutUint16(b[19:21], 20000)
	b[21] = 0xF8               // media
	le.PutUint16(b[22:24], 32) // fat length (nonzero -> not FAT32)

	bsx := b[36:62]
	copy(bsx[18:26], "FAT16   ")
	return b
}

func buildFAT32BootSector() []byte {
	b := make([]byte, bootSectorSize)
	le := binary.LittleEndian
	le.PutUint16(b[11:13], 512)
	b[13] = 8
	le.PutUint16(b[14:16], 32)
	b[16] = 2
	le.PutUint16(b[17:19], 0) // FAT32 has no fixed root dir entries
	le.PutUint16(b[19:21], 0)
	b[21] = 0xF8
	le.PutUint16(b[22:24], 0) // fat_length==0 signals FAT32
	le.PutUint32(b[32:36], 131072)
	le.PutUint32(b[36:40], 1000) // fat32_length
	le.PutUint32(b[44:48], 2)    // root cluster
	le.PutUint16(b[48:50], 1)    // info sector

	bsx := b[64:90]
	copy(bsx[18:26], "FAT32   ")
	return b
}

func TestReadBootSectorFAT16(t *testing.T) {
	m := newMemStorage(bootSectorSize)
	copy(m.data, buildFAT16BootSector())

	bs, bsx, err := ReadBootSector(m)
	require.NoError(t, err)
	assert.False(t, bsx.IsFAT32)
	assert.Equal(t, uint16(512), bs.SectorSize)
	assert.Equal(t, "FAT16", bsx.TypeString())
}

func TestReadBootSectorFAT32(t *testing.T) {
	m := newMemStorage(bootSectorSize)
	copy(m.data, buildFAT32BootSector())

	bs, bsx, err := ReadBootSector(m)
	require.NoError(t, err)
	assert.True(t, bsx.IsFAT32)
	assert.Equal(t, uint32(2), bs.RootCluster)
	assert.Equal(t, "FAT32", bsx.TypeString())
}

func TestReadBootSectorRejectsBadSectorSize(t *testing.T) {
	b := buildFAT16BootSector()
	binary.LittleEndian.PutUint16(b[11:13], 777)
	m := newMemStorage(bootSectorSize)
	copy(m.data, b)

	_, _, err := ReadBootSector(m)
	require.Error(t, err)
	kind, ok := imgerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, imgerr.InvalidFatBoot, kind)
}

func TestReadBootSectorRejectsZeroSecPerClus(t *testing.T) {
	b := buildFAT16BootSector()
	b[13] = 0
	m := newMemStorage(bootSectorSize)
	copy(m.data, b)

	_, _, err := ReadBootSector(m)
	require.Error(t, err)
}

func TestFAT32DetectionRequiresTypeAndNonzeroLength(t *testing.T) {
	// fat_length==0 but fat32_length==0 and type isn't "FAT32": should
	// not be classified as FAT32.
	b := buildFAT16BootSector()
	binary.LittleEndian.PutUint16(b[22:24], 0) // pretend fat_length is 0
	m := newMemStorage(bootSectorSize)
	copy(m.data, b)

	_, bsx, err := ReadBootSector(m)
	require.NoError(t, err)
	assert.False(t, bsx.IsFAT32)
}
