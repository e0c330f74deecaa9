package session

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcfs/imgsh/internal/backend"
	"github.com/arcfs/imgsh/internal/imgerr"
)

// fakeFacade is a minimal Facade stub for exercising the registry's
// mount/dispatch routing without a real ext4 or FAT image.
type fakeFacade struct {
	name       string
	accept     bool
	mountErr   error
	mounted    bool
	remountErr error
	dispatched []string
	img        backend.Storage
}

func (f *fakeFacade) Name() string { return f.name }

func (f *fakeFacade) TryMount(w io.Writer, img backend.Storage) (bool, error) {
	if !f.accept {
		return false, imgerr.New(imgerr.NotExt4, f.name+".mount", nil)
	}
	if f.mountErr != nil {
		return true, f.mountErr
	}
	f.mounted = true
	f.img = img
	return true, nil
}

func (f *fakeFacade) Remount(w io.Writer) error { return f.remountErr }

// Umount closes the held image, as the real façades do, so the
// process-wide single-open slot is free for the next test.
func (f *fakeFacade) Umount() error {
	f.mounted = false
	if f.img == nil {
		return nil
	}
	err := f.img.Close()
	f.img = nil
	return err
}

// umountOnCleanup releases whatever r has mounted when the test ends.
func umountOnCleanup(t *testing.T, r *Registry) {
	t.Cleanup(func() { _, _ = r.Dispatch(&bytes.Buffer{}, "umount", nil) })
}

func (f *fakeFacade) Mounted() bool { return f.mounted }

func (f *fakeFacade) Commands() []string { return []string{f.name + "-verb"} }

func (f *fakeFacade) Dispatch(w io.Writer, verb string, args []string) error {
	f.dispatched = append(f.dispatched, verb)
	return nil
}

func tempImagePath(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "image-*")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestMountTriesFacadesInRegistrationOrder(t *testing.T) {
	first := &fakeFacade{name: "ext4", accept: false}
	second := &fakeFacade{name: "fat", accept: true}

	r := NewRegistry(nil)
	umountOnCleanup(t, r)
	require.NoError(t, r.Register(first))
	require.NoError(t, r.Register(second))

	var out bytes.Buffer
	_, err := r.Dispatch(&out, "mount", []string{tempImagePath(t)})
	require.NoError(t, err)
	assert.Equal(t, "fat", r.MountedName())
}

func TestMountStopsOnMatchedButFailedFacade(t *testing.T) {
	first := &fakeFacade{name: "ext4", accept: true, mountErr: imgerr.New(imgerr.Unsupported64Bit, "ext4.mount", nil)}
	second := &fakeFacade{name: "fat", accept: true}

	r := NewRegistry(nil)
	require.NoError(t, r.Register(first))
	require.NoError(t, r.Register(second))

	var out bytes.Buffer
	_, err := r.Dispatch(&out, "mount", []string{tempImagePath(t)})
	require.Error(t, err)
	kind, ok := imgerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, imgerr.Unsupported64Bit, kind)
	assert.False(t, r.Mounted())
}

func TestMountWhenNoneRecognize(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(&fakeFacade{name: "ext4", accept: false}))
	require.NoError(t, r.Register(&fakeFacade{name: "fat", accept: false}))

	var out bytes.Buffer
	_, err := r.Dispatch(&out, "mount", []string{tempImagePath(t)})
	require.Error(t, err)
}

func TestSecondMountNoOpsWhenRemountSucceeds(t *testing.T) {
	f := &fakeFacade{name: "ext4", accept: true} // remountErr left nil, like the ext4 façade
	r := NewRegistry(nil)
	umountOnCleanup(t, r)
	require.NoError(t, r.Register(f))

	var out bytes.Buffer
	path := tempImagePath(t)
	_, err := r.Dispatch(&out, "mount", []string{path})
	require.NoError(t, err)

	_, err = r.Dispatch(&out, "mount", []string{path})
	assert.NoError(t, err)
	assert.Equal(t, "ext4", r.MountedName())
}

func TestSecondMountFailsWhenRemountRejects(t *testing.T) {
	f := &fakeFacade{name: "fat", accept: true, remountErr: imgerr.New(imgerr.AlreadyMounted, "fat.mount", nil)}
	r := NewRegistry(nil)
	umountOnCleanup(t, r)
	require.NoError(t, r.Register(f))

	var out bytes.Buffer
	path := tempImagePath(t)
	_, err := r.Dispatch(&out, "mount", []string{path})
	require.NoError(t, err)

	_, err = r.Dispatch(&out, "mount", []string{path})
	require.Error(t, err)
	kind, ok := imgerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, imgerr.AlreadyMounted, kind)
}

func TestDispatchForwardsToMountedFacade(t *testing.T) {
	f := &fakeFacade{name: "ext4", accept: true}
	r := NewRegistry(nil)
	umountOnCleanup(t, r)
	require.NoError(t, r.Register(f))

	var out bytes.Buffer
	_, err := r.Dispatch(&out, "mount", []string{tempImagePath(t)})
	require.NoError(t, err)

	_, err = r.Dispatch(&out, "ext4-verb", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ext4-verb"}, f.dispatched)
}

func TestDispatchUnknownCommandWithNothingMounted(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Dispatch(&bytes.Buffer{}, "ls", nil)
	require.Error(t, err)
	kind, ok := imgerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, imgerr.BadArgs, kind)
}

func TestHelpListsGenericAndReservedVerbs(t *testing.T) {
	r := NewRegistry(nil)
	var out bytes.Buffer
	_, err := r.Dispatch(&out, "help", nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "mount")
	assert.Contains(t, out.String(), "umount")
	assert.Contains(t, out.String(), "quit")
}

func TestQuitSignalsLoopExit(t *testing.T) {
	r := NewRegistry(nil)
	quit, err := r.Dispatch(&bytes.Buffer{}, "quit", nil)
	require.NoError(t, err)
	assert.True(t, quit)
}

func TestRegisterCapacity(t *testing.T) {
	r := NewRegistry(nil)
	for i := 0; i < maxRegisteredFilesystems; i++ {
		require.NoError(t, r.Register(&fakeFacade{name: "f"}))
	}
	err := r.Register(&fakeFacade{name: "overflow"})
	require.Error(t, err)
}
