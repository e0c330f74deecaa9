package fat

// BSX is the boot sector extension (DOS 3.31/7.1 EBPB tail), read at
// offset 36 (FAT12/16) or 64 (FAT32)
type BSX struct {
	Drive      uint8
	Signature  uint8
	VolID      [4]byte
	VolLabel   [11]byte
	Type       [8]byte
	IsFAT32    bool
}

func bsxFromBytes(b []byte) *BSX {
	bsx := &BSX{
		Drive:     b[0],
		Signature: b[2],
	}
	copy(bsx.VolID[:], b[3:7])
	copy(bsx.VolLabel[:], b[7:18])
	copy(bsx.Type[:], b[18:26])
	return bsx
}

func (bsx *BSX) isFAT32Type() bool {
	want := "FAT32"
	for i := 0; i < len(want); i++ {
		if bsx.Type[i] != want[i] {
			return false
		}
	}
	return true
}

// TypeString trims trailing space padding from the filesystem type field.
func (bsx *BSX) TypeString() string {
	n := len(bsx.Type)
	for n > 0 && (bsx.Type[n-1] == ' ' || bsx.Type[n-1] == 0) {
		n--
	}
	return string(bsx.Type[:n])
}

// VolLabelString trims trailing space padding from the volume label.
func (bsx *BSX) VolLabelString() string {
	n := len(bsx.VolLabel)
	for n > 0 && (bsx.VolLabel[n-1] == ' ' || bsx.VolLabel[n-1] == 0) {
		n--
	}
	return string(bsx.VolLabel[:n])
}
