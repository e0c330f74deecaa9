package session

import (
	"fmt"
	"io"
	"strconv"

	"github.com/arcfs/imgsh/internal/backend"
	"github.com/arcfs/imgsh/internal/ext4"
	"github.com/arcfs/imgsh/internal/imgerr"
)

// ext4Facade is the Facade implementation over internal/ext4. It caches
// the superblock and group descriptor table for the lifetime of the
// mount, and the current directory's entries for ls/cd/stat NAME.
type ext4Facade struct {
	img     backend.Storage
	sb      *ext4.Superblock
	gds     []ext4.GroupDescriptor
	cwdIno  uint32
	path    string
	entries []ext4.DirEntry
	mounted bool
}

// NewExt4Facade returns an unmounted ext4 façade.
func NewExt4Facade() Facade {
	return &ext4Facade{}
}

func (f *ext4Facade) Name() string { return "ext4" }

// TryMount loads the superblock, group descriptor table, and the root
// directory's entries. A magic mismatch is reported as unmatched (the
// registry should try the next façade); any other failure (in particular
// Unsupported64Bit) is a matched-but-failed mount, since the image really
// is an ext4 image the decoder cannot safely continue with.
func (f *ext4Facade) TryMount(w io.Writer, img backend.Storage) (bool, error) {
	sb, err := ext4.ReadSuperblock(img)
	if err != nil {
		if kind, ok := imgerr.Of(err); ok && kind == imgerr.NotExt4 {
			return false, err
		}
		return true, err
	}
	gds, err := ext4.ReadGroupDescriptors(img, sb)
	if err != nil {
		return true, err
	}
	root, err := ext4.ReadInode(img, sb, gds, ext4.RootIno)
	if err != nil {
		return true, err
	}
	entries, err := ext4.ReadDirectory(img, sb, gds, root)
	if err != nil {
		return true, err
	}

	f.img = img
	f.sb = sb
	f.gds = gds
	f.cwdIno = ext4.RootIno
	f.path = "/"
	f.entries = entries
	f.mounted = true
	return true, nil
}

// Remount prints a message and succeeds as a no-op, per the ext4 variant
// of the "second mount without umount" rule.
func (f *ext4Facade) Remount(w io.Writer) error {
	fmt.Fprintln(w, "umount first")
	return nil
}

func (f *ext4Facade) Umount() error {
	if !f.mounted {
		return nil
	}
	err := f.img.Close()
	*f = ext4Facade{}
	if err != nil {
		return imgerr.New(imgerr.IoOpen, "ext4.Umount", err)
	}
	return nil
}

func (f *ext4Facade) Mounted() bool { return f.mounted }

func (f *ext4Facade) Commands() []string {
	return []string{"stats", "stat", "pwd", "cd", "ls", "mkdir", "rm", "read", "write"}
}

func (f *ext4Facade) Dispatch(w io.Writer, verb string, args []string) error {
	switch verb {
	case "stats":
		return f.doStats(w)
	case "stat":
		return f.doStat(w, args)
	case "pwd":
		return f.doPwd(w)
	case "cd":
		return f.doCd(w, args)
	case "ls":
		return f.doLs(w)
	case "mkdir", "rm", "read", "write":
		return imgerr.New(imgerr.Unsupported, "ext4."+verb, nil)
	default:
		return imgerr.New(imgerr.BadArgs, "ext4.Dispatch", fmt.Errorf("unknown command %q", verb))
	}
}

func (f *ext4Facade) doStats(w io.Writer) error {
	fmt.Fprintf(w, "volume: %s\n", f.sb.VolumeNameString())
	fmt.Fprintf(w, "uuid: %s\n", f.sb.UUIDString())
	fmt.Fprintf(w, "inodes: %d\n", f.sb.InodesCount)
	fmt.Fprintf(w, "blocks: %d\n", f.sb.BlocksCount())
	fmt.Fprintf(w, "block size: %d\n", f.sb.BlockSize())
	fmt.Fprintf(w, "block groups: %d\n", f.sb.BlockGroupCount())
	fmt.Fprintf(w, "inode size: %d\n", f.sb.InodeSize)
	return nil
}

// parseDelimitedIno recognizes the `<N>` inode-addressing form: the
// argument must begin with '<' and end with '>', with at least one digit
// between them, and the enclosed value must be >= RootIno. Anything else
// (including a bare numeric name) is left for name resolution, so a
// directory entry literally named with digits is never misread as an
// inode number.
func parseDelimitedIno(arg string) (uint32, bool) {
	if len(arg) <= 2 || arg[0] != '<' || arg[len(arg)-1] != '>' {
		return 0, false
	}
	n, err := strconv.ParseUint(arg[1:len(arg)-1], 10, 32)
	if err != nil || uint32(n) < ext4.RootIno {
		return 0, false
	}
	return uint32(n), true
}

// doStat implements the ext4 `stat <N>|NAME` convention: an argument of
// the delimited form `<N>` addresses an inode number directly; otherwise
// it is resolved by name against the cwd cache.
func (f *ext4Facade) doStat(w io.Writer, args []string) error {
	if len(args) != 1 {
		return imgerr.New(imgerr.BadArgs, "ext4.stat", fmt.Errorf("usage: stat <N>|NAME"))
	}
	var inodeNum uint32
	if n, ok := parseDelimitedIno(args[0]); ok {
		inodeNum = n
	} else {
		e, ok := ext4.LookupName(f.entries, args[0])
		if !ok {
			return imgerr.New(imgerr.NotFound, "ext4.stat", fmt.Errorf("%q not found", args[0]))
		}
		inodeNum = e.Inode
	}
	in, err := ext4.ReadInode(f.img, f.sb, f.gds, inodeNum)
	if err != nil {
		return err
	}
	extents, _ := ext4.FillExtentsCount(in)
	fmt.Fprintf(w, "inode: %d\n", in.Number)
	fmt.Fprintf(w, "mode: %#o\n", in.Mode&0x0FFF)
	fmt.Fprintf(w, "type: %s\n", fileTypeString(in))
	fmt.Fprintf(w, "size: %d\n", in.Size())
	fmt.Fprintf(w, "flags: %#x\n", in.Flags)
	fmt.Fprintf(w, "extents: %d\n", extents)
	return nil
}

func fileTypeString(in *ext4.Inode) string {
	switch in.Mode & 0xF000 {
	case ext4.IFDIR:
		return "directory"
	case ext4.IFREG:
		return "regular"
	case ext4.IFLNK:
		return "symlink"
	case ext4.IFCHR:
		return "char device"
	case ext4.IFBLK:
		return "block device"
	case ext4.IFIFO:
		return "fifo"
	case ext4.IFSOCK:
		return "socket"
	default:
		return "unknown"
	}
}

func (f *ext4Facade) doPwd(w io.Writer) error {
	fmt.Fprintln(w, f.path)
	return nil
}

func (f *ext4Facade) doLs(w io.Writer) error {
	for _, e := range f.entries {
		fmt.Fprintf(w, "%-24s inode=%d\n", e.Name, e.Inode)
	}
	return nil
}

func (f *ext4Facade) doCd(w io.Writer, args []string) error {
	if len(args) != 1 {
		return imgerr.New(imgerr.BadArgs, "ext4.cd", fmt.Errorf("usage: cd NAME"))
	}
	name := args[0]
	if name == "." {
		return nil
	}

	e, ok := ext4.LookupName(f.entries, name)
	if !ok {
		return imgerr.New(imgerr.NotFound, "ext4.cd", fmt.Errorf("%q not found", name))
	}
	in, err := ext4.ReadInode(f.img, f.sb, f.gds, e.Inode)
	if err != nil {
		return err
	}
	if !in.IsDir() {
		return imgerr.New(imgerr.NotADirectory, "ext4.cd", fmt.Errorf("%q is not a directory", name))
	}
	entries, err := ext4.ReadDirectory(f.img, f.sb, f.gds, in)
	if err != nil {
		return err
	}

	var newPath string
	if name == ".." {
		newPath = popPath(f.path)
	} else {
		newPath = pushPath(f.path, name)
	}

	f.cwdIno = e.Inode
	f.path = newPath
	f.entries = entries
	return nil
}
