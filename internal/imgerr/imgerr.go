// Package imgerr defines the typed error kinds surfaced by the image
// inspection engine (backend, decoders, façade, dispatcher).
package imgerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers at the command boundary can decide
// how to report it without string matching.
type Kind int

const (
	// BadArgs marks wrong argc, a malformed <ino>, or an unknown verb.
	BadArgs Kind = iota
	// IoOpen marks a failure opening the backing image or a host file.
	IoOpen
	// IoSeek marks a failure seeking within the backing image.
	IoSeek
	// IoRead marks a short or failed read from the backing image.
	IoRead
	// IoWrite marks a failure writing to a host file (cat ... > dest).
	IoWrite
	// NotExt4 marks an ext4 superblock magic mismatch.
	NotExt4
	// InvalidFatBoot marks an out-of-range FAT boot sector field.
	InvalidFatBoot
	// InvalidFsInfo marks a FAT32 fsinfo signature mismatch.
	InvalidFsInfo
	// Unsupported64Bit marks ext4 64-bit group descriptors (desc_size > 32).
	Unsupported64Bit
	// NotADirectory marks cd targeting a non-directory inode/entry.
	NotADirectory
	// NotFound marks a name resolution failure against the cwd cache.
	NotFound
	// AlreadyMounted marks a mount attempt while already mounted.
	AlreadyMounted
	// AlreadyOpen marks a second image open before the first was closed.
	AlreadyOpen
	// Unsupported marks a stubbed verb (mkdir/rm/read/write on ext4, etc).
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case BadArgs:
		return "bad arguments"
	case IoOpen:
		return "cannot open"
	case IoSeek:
		return "seek failed"
	case IoRead:
		return "read failed"
	case IoWrite:
		return "write failed"
	case NotExt4:
		return "not an ext4 filesystem"
	case InvalidFatBoot:
		return "invalid FAT boot sector"
	case InvalidFsInfo:
		return "invalid FAT32 fsinfo"
	case Unsupported64Bit:
		return "64-bit group descriptors unsupported"
	case NotADirectory:
		return "not a directory"
	case NotFound:
		return "not found"
	case AlreadyMounted:
		return "already mounted"
	case AlreadyOpen:
		return "image already open"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown error"
	}
}

// Error wraps a Kind with context, analogous to the prior sentinel
// errors (filesystem.ErrNotSupported, filesystem.ErrReadonlyFilesystem)
// except the kind is inspectable rather than opaque.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, imgerr.New(imgerr.NotFound, "", nil)) match any
// *Error of the same Kind, regardless of Op/cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Kind == t.Kind
}

// New builds an *Error for the given kind, operation name, and optional
// underlying cause.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Of returns the Kind carried by err, if any, and whether one was found.
func Of(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
