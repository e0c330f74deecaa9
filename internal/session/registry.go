package session

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/arcfs/imgsh/internal/backend/file"
	"github.com/arcfs/imgsh/internal/imgerr"
)

// maxRegisteredFilesystems bounds how many façades a Registry can hold.
// This tool registers exactly two (ext4, FAT); the bound exists so
// Register has a defined failure mode rather than growing unbounded.
const maxRegisteredFilesystems = 8

// HistoryProvider supplies the command-history listing for the `history`
// verb. The shell loop's ring buffer implements this.
type HistoryProvider interface {
	Entries() []string
}

// Registry holds the registered filesystem façades and routes each
// tokenized command to the generic table, the reserved mount/umount
// verbs, or the mounted façade's own table.
type Registry struct {
	facades []Facade
	mounted int // index into facades, -1 when nothing is mounted
	history HistoryProvider
	log     *logrus.Logger
}

// NewRegistry returns an empty, unmounted registry. log may be nil, in
// which case mount/umount diagnostics are simply not emitted.
func NewRegistry(log *logrus.Logger) *Registry {
	return &Registry{mounted: -1, log: log}
}

// Register adds a façade, trying it (in registration order) on every
// future mount attempt until one accepts the image.
func (r *Registry) Register(f Facade) error {
	if len(r.facades) >= maxRegisteredFilesystems {
		return imgerr.New(imgerr.BadArgs, "session.Register",
			fmt.Errorf("registry capacity %d exceeded", maxRegisteredFilesystems))
	}
	r.facades = append(r.facades, f)
	return nil
}

// SetHistory wires the `history` verb to h.
func (r *Registry) SetHistory(h HistoryProvider) {
	r.history = h
}

// Mounted reports whether a façade currently owns the mount.
func (r *Registry) Mounted() bool {
	return r.mounted >= 0
}

// MountedName returns the mounted façade's name, or "" if unmounted.
func (r *Registry) MountedName() string {
	if !r.Mounted() {
		return ""
	}
	return r.facades[r.mounted].Name()
}

func (r *Registry) mountedFacade() Facade {
	if r.mounted < 0 {
		return nil
	}
	return r.facades[r.mounted]
}

// Commands lists the generic verbs plus either the mounted façade's
// verbs or the reserved mount/umount verbs when nothing is mounted.
func (r *Registry) Commands() []string {
	cmds := []string{"help", "history", "quit"}
	if f := r.mountedFacade(); f != nil {
		cmds = append(cmds, f.Commands()...)
	} else {
		cmds = append(cmds, "mount", "umount")
	}
	return cmds
}

func (r *Registry) help(w io.Writer) {
	fmt.Fprint(w, "command list: ")
	for _, c := range r.Commands() {
		fmt.Fprintf(w, "%s ", c)
	}
	fmt.Fprintln(w)
}

// Dispatch routes one tokenized command line. quit reports whether the
// caller's command loop should terminate.
func (r *Registry) Dispatch(w io.Writer, verb string, args []string) (quit bool, err error) {
	switch verb {
	case "help":
		r.help(w)
		return false, nil
	case "history":
		if r.history != nil {
			for i, line := range r.history.Entries() {
				fmt.Fprintf(w, "%d  %s\n", i, line)
			}
		}
		return false, nil
	case "quit":
		return true, nil
	case "mount":
		return false, r.mount(w, args)
	case "umount":
		return false, r.umount()
	}

	f := r.mountedFacade()
	if f == nil {
		return false, imgerr.New(imgerr.BadArgs, "session.Dispatch",
			fmt.Errorf("unknown command %q (no filesystem mounted)", verb))
	}
	return false, f.Dispatch(w, verb, args)
}

// mount opens the image and tries each registered façade in registration
// order, accepting the first that recognizes it. If a façade already
// owns the mount, the call is instead routed to that façade's Remount,
// which models the asymmetric "second mount" behavior: the ext4 variant
// prints a message and no-ops, the FAT variant fails outright.
func (r *Registry) mount(w io.Writer, args []string) error {
	if len(args) != 1 {
		return imgerr.New(imgerr.BadArgs, "session.mount", fmt.Errorf("usage: mount <path>"))
	}
	if f := r.mountedFacade(); f != nil {
		return f.Remount(w)
	}

	img, err := file.Open(args[0])
	if err != nil {
		return err
	}

	for i, f := range r.facades {
		matched, mountErr := f.TryMount(w, img)
		if !matched {
			if r.log != nil {
				r.log.WithField("facade", f.Name()).Debug("mount: image not recognized, trying next façade")
			}
			continue
		}
		if mountErr != nil {
			if r.log != nil {
				r.log.WithField("facade", f.Name()).WithError(mountErr).Debug("mount: recognized but failed to load")
			}
			_ = img.Close()
			return mountErr
		}
		r.mounted = i
		if r.log != nil {
			r.log.WithField("facade", f.Name()).WithField("path", args[0]).Debug("mount: succeeded")
		}
		return nil
	}

	_ = img.Close()
	return imgerr.New(imgerr.BadArgs, "session.mount",
		fmt.Errorf("image %q not recognized by any registered filesystem", args[0]))
}

func (r *Registry) umount() error {
	f := r.mountedFacade()
	if f == nil {
		return nil
	}
	err := f.Umount()
	r.mounted = -1
	if r.log != nil {
		r.log.WithField("facade", f.Name()).Debug("umount")
	}
	return err
}
