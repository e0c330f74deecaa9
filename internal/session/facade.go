// Package session implements the mounted-filesystem façade and the
// registry that routes shell commands to it. There are exactly two
// façades: ext4 and FAT. Each owns its own cached current-working-
// directory state and exposes a uniform verb set so the dispatcher never
// needs to know which on-disk format it is talking to.
package session

import (
	"io"

	"github.com/arcfs/imgsh/internal/backend"
)

// Facade is one mountable filesystem implementation: ext4 or FAT. A
// registry holds a fixed list of these and tries each in turn at mount
// time.
type Facade interface {
	// Name identifies the filesystem family, used in prompts and errors.
	Name() string

	// TryMount attempts to recognize and mount img. accepted reports
	// whether img is in this façade's format. A façade that rejects the
	// image (wrong format) returns (false, err) so the registry can try
	// the next one; (true, nil) means this façade now owns the mount;
	// (true, err) means the image was recognized but loading it failed,
	// and the registry stops trying further façades. TryMount is not
	// called while the façade is already mounted: the registry routes
	// that case to Remount.
	TryMount(w io.Writer, img backend.Storage) (accepted bool, err error)

	// Remount reports this façade's behavior when mount is invoked while
	// it is already mounted. The ext4 façade prints a message and
	// succeeds as a no-op; the FAT façade fails.
	Remount(w io.Writer) error

	// Umount releases the façade's mount state and its held image. Safe
	// to call when not mounted.
	Umount() error

	// Mounted reports whether this façade currently owns the mount.
	Mounted() bool

	// Commands lists this façade's verb tokens, in registration order,
	// for help text and tab completion.
	Commands() []string

	// Dispatch executes verb with args, writing any output to w. It is
	// only ever called while Mounted() is true.
	Dispatch(w io.Writer, verb string, args []string) error
}
