package session

import (
	"fmt"
	"io"
	"os"

	"github.com/arcfs/imgsh/internal/backend"
	"github.com/arcfs/imgsh/internal/fat"
	"github.com/arcfs/imgsh/internal/imgerr"
)

// fatFacade is the Facade implementation over internal/fat, covering
// FAT12, FAT16, and FAT32 alike (the boot sector decoder determines
// which family an image belongs to).
type fatFacade struct {
	img        backend.Storage
	bs         *fat.BootSector
	bsx        *fat.BSX
	fsInfo     *fat.FSInfo
	cwdCluster uint32
	path       string
	entries    []fat.DirEntry
	mounted    bool
}

// NewFatFacade returns an unmounted FAT façade.
func NewFatFacade() Facade {
	return &fatFacade{}
}

func (f *fatFacade) Name() string { return "fat" }

// TryMount loads the boot sector/BSX, the FAT32 fsinfo block when
// applicable, and the root directory's entries. An invalid boot sector
// is reported as unmatched so the registry can try another façade (there
// is none left after FAT in registration order, but the contract holds
// regardless); any other failure is a matched-but-failed mount.
func (f *fatFacade) TryMount(w io.Writer, img backend.Storage) (bool, error) {
	bs, bsx, err := fat.ReadBootSector(img)
	if err != nil {
		if kind, ok := imgerr.Of(err); ok && kind == imgerr.InvalidFatBoot {
			return false, err
		}
		return true, err
	}

	var fsInfo *fat.FSInfo
	startCluster := uint32(0)
	if bsx.IsFAT32 {
		fsInfo, err = fat.ReadFSInfo(img, bs)
		if err != nil {
			return true, err
		}
		startCluster = bs.RootCluster
	}

	entries, err := fat.ReadDirectory(img, bs, bsx.IsFAT32, startCluster)
	if err != nil {
		return true, err
	}

	f.img = img
	f.bs = bs
	f.bsx = bsx
	f.fsInfo = fsInfo
	f.cwdCluster = startCluster
	f.path = "/"
	f.entries = entries
	f.mounted = true
	return true, nil
}

// Remount fails outright, per the FAT variant of the "second mount
// without umount" rule (unlike ext4, which no-ops).
func (f *fatFacade) Remount(w io.Writer) error {
	return imgerr.New(imgerr.AlreadyMounted, "fat.mount", fmt.Errorf("already mounted"))
}

func (f *fatFacade) Umount() error {
	if !f.mounted {
		return nil
	}
	err := f.img.Close()
	*f = fatFacade{}
	if err != nil {
		return imgerr.New(imgerr.IoOpen, "fat.Umount", err)
	}
	return nil
}

func (f *fatFacade) Mounted() bool { return f.mounted }

func (f *fatFacade) Commands() []string {
	return []string{"stats", "stat", "pwd", "cd", "ls", "cat"}
}

func (f *fatFacade) Dispatch(w io.Writer, verb string, args []string) error {
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
	case "cat":
		return f.doCat(w, args)
	default:
		return imgerr.New(imgerr.BadArgs, "fat.Dispatch", fmt.Errorf("unknown command %q", verb))
	}
}

func (f *fatFacade) doStats(w io.Writer) error {
	kind := "FAT12/16"
	if f.bsx.IsFAT32 {
		kind = "FAT32"
	}
	fmt.Fprintf(w, "type: %s\n", kind)
	fmt.Fprintf(w, "volume label: %s\n", f.bsx.VolLabelString())
	fmt.Fprintf(w, "sector size: %d\n", f.bs.SectorSize)
	fmt.Fprintf(w, "sectors per cluster: %d\n", f.bs.SecPerClus)
	fmt.Fprintf(w, "fats: %d\n", f.bs.Fats)
	if f.fsInfo != nil {
		fmt.Fprintf(w, "free clusters: %d\n", f.fsInfo.FreeClusters)
	}
	return nil
}

func (f *fatFacade) doStat(w io.Writer, args []string) error {
	if len(args) != 1 {
		return imgerr.New(imgerr.BadArgs, "fat.stat", fmt.Errorf("usage: stat NAME"))
	}
	e, ok := fat.LookupName(f.entries, args[0])
	if !ok {
		return imgerr.New(imgerr.NotFound, "fat.stat", fmt.Errorf("%q not found", args[0]))
	}
	kind := "file"
	if e.IsDirectory() {
		kind = "directory"
	}
	fmt.Fprintf(w, "name: %s\n", args[0])
	fmt.Fprintf(w, "type: %s\n", kind)
	fmt.Fprintf(w, "attr: %#02x\n", e.Attr)
	fmt.Fprintf(w, "size: %d\n", e.Size)
	fmt.Fprintf(w, "cluster: %d\n", e.StartCluster(f.bsx.IsFAT32))
	return nil
}

func (f *fatFacade) doPwd(w io.Writer) error {
	fmt.Fprintln(w, f.path)
	return nil
}

func (f *fatFacade) doLs(w io.Writer) error {
	for _, e := range f.entries {
		if e.IsLongNameSlot() || e.IsVolumeLabel() {
			continue
		}
		base, ext := e.ShortName()
		name := base
		if ext != "" {
			name = base + "." + ext
		}
		marker := ""
		if e.IsDirectory() {
			marker = "/"
		}
		fmt.Fprintf(w, "%s%s\n", name, marker)
	}
	return nil
}

func (f *fatFacade) doCd(w io.Writer, args []string) error {
	if len(args) != 1 {
		return imgerr.New(imgerr.BadArgs, "fat.cd", fmt.Errorf("usage: cd NAME"))
	}
	name := args[0]
	if name == "." {
		return nil
	}
	if name == ".." && f.path == "/" {
		return nil
	}

	var (
		targetCluster uint32
		newPath       string
	)
	if name == ".." {
		e, ok := fat.LookupName(f.entries, name)
		if !ok {
			return imgerr.New(imgerr.NotFound, "fat.cd", fmt.Errorf("%q not found", name))
		}
		targetCluster = e.StartCluster(f.bsx.IsFAT32)
		if targetCluster == 0 && f.bsx.IsFAT32 {
			// ".." referencing root: FAT32's root is a real cluster chain,
			// so 0 here means "navigate to root_cluster", not the fixed
			// FAT12/16 root region.
			targetCluster = f.bs.RootCluster
		}
		newPath = popPath(f.path)
	} else {
		e, ok := fat.LookupName(f.entries, name)
		if !ok {
			return imgerr.New(imgerr.NotFound, "fat.cd", fmt.Errorf("%q not found", name))
		}
		if !e.IsDirectory() {
			return imgerr.New(imgerr.NotADirectory, "fat.cd", fmt.Errorf("%q is not a directory", name))
		}
		targetCluster = e.StartCluster(f.bsx.IsFAT32)
		newPath = pushPath(f.path, name)
	}

	entries, err := fat.ReadDirectory(f.img, f.bs, f.bsx.IsFAT32, targetCluster)
	if err != nil {
		return err
	}
	f.cwdCluster = targetCluster
	f.path = newPath
	f.entries = entries
	return nil
}

// doCat implements `cat SRC [> DST]`: with no redirection, the file's
// bytes print to w followed by a newline; with `> DST`, the bytes are
// written verbatim to a host file (no added newline).
func (f *fatFacade) doCat(w io.Writer, args []string) error {
	if len(args) != 1 && len(args) != 3 {
		return imgerr.New(imgerr.BadArgs, "fat.cat", fmt.Errorf("usage: cat NAME [> host_path]"))
	}
	e, ok := fat.LookupName(f.entries, args[0])
	if !ok {
		return imgerr.New(imgerr.NotFound, "fat.cat", fmt.Errorf("%q not found", args[0]))
	}
	if e.IsDirectory() {
		return imgerr.New(imgerr.NotADirectory, "fat.cat", fmt.Errorf("%q is a directory", args[0]))
	}
	data, err := fat.ReadFile(f.img, f.bs, f.bsx.IsFAT32, e)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		w.Write(data)
		fmt.Fprintln(w)
		return nil
	}

	if args[1] != ">" {
		return imgerr.New(imgerr.BadArgs, "fat.cat", fmt.Errorf("usage: cat NAME [> host_path]"))
	}
	if err := os.WriteFile(args[2], data, 0o644); err != nil {
		return imgerr.New(imgerr.IoWrite, "fat.cat", err)
	}
	return nil
}
