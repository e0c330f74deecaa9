package ext4

import (
	"encoding/binary"

	"github.com/arcfs/imgsh/internal/backend"
	"github.com/arcfs/imgsh/internal/imgerr"
)

// dirEntryMaxSize is sizeof(dir_entry_2): an 8-byte header plus the
// maximum 255-byte name.
const dirEntryMaxSize = 263

// DirEntry is a single linear ext4 directory entry
type DirEntry struct {
	Inode    uint32
	RecLen   uint16
	NameLen  uint8
	FileType uint8
	Name     string
}

// ReadDirectory reads the linear directory entries of the directory named
// by dirInode, via its single supported leaf extent (the FillExtentsCount
// simplification: depth>0/multi-extent directories are out of scope).
func ReadDirectory(r backend.Storage, sb *Superblock, gds []GroupDescriptor, dirInode *Inode) ([]DirEntry, error) {
	if !dirInode.IsDir() {
		return nil, imgerr.New(imgerr.NotADirectory, "ext4.ReadDirectory", nil)
	}
	if dirInode.HasHashedIndex() {
		// htree directories fall through to linear parsing;
		// this may mis-parse the index block, matching the source.
	}
	leaf, err := FirstExtent(dirInode)
	if err != nil {
		return nil, err
	}
	offset := leaf.PhysicalOffset(sb.BlockSize())
	length := uint64(leaf.Len) * uint64(sb.BlockSize())

	data := make([]byte, length)
	if _, err := r.ReadAt(data, int64(offset)); err != nil {
		return nil, imgerr.New(imgerr.IoRead, "ext4.ReadDirectory", err)
	}
	return parseLinearDirEntries(data), nil
}

// parseLinearDirEntries steps through (inode,rec_len) pairs by
// min(rec_len, sizeof(dir_entry_2)) until inode==0 or the buffer is
// exhausted. The name is captured using the declared name_len rather than
// clamped to the struct tail; the clamping is preserved only for the
// stepping between entries, so long names are never silently truncated.
func parseLinearDirEntries(data []byte) []DirEntry {
	le := binary.LittleEndian
	var entries []DirEntry
	offset := 0
	for offset+8 <= len(data) {
		inode := le.Uint32(data[offset : offset+4])
		if inode == 0 {
			break
		}
		recLen := le.Uint16(data[offset+4 : offset+6])
		nameLen := data[offset+6]
		fileType := data[offset+7]

		nameStart := offset + 8
		nameEnd := nameStart + int(nameLen)
		var name string
		if nameEnd <= len(data) {
			name = string(data[nameStart:nameEnd])
		} else if nameStart < len(data) {
			name = string(data[nameStart:])
		}

		entries = append(entries, DirEntry{
			Inode:    inode,
			RecLen:   recLen,
			NameLen:  nameLen,
			FileType: fileType,
			Name:     name,
		})

		step := recLen
		if step == 0 || step > dirEntryMaxSize {
			step = dirEntryMaxSize
		}
		offset += int(step)
	}
	return entries
}

// LookupName does a linear, case-sensitive, equal-length-compare scan of
// the cached entries for name.
func LookupName(entries []DirEntry, name string) (DirEntry, bool) {
	for _, e := range entries {
		if len(e.Name) == len(name) && e.Name == name {
			return e, true
		}
	}
	return DirEntry{}, false
}
