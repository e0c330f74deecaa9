// Command imgsh is a read-only inspection shell for ext4 and FAT12/16/32
// filesystem images: mount a raw image file, then navigate and inspect
// its superblocks, inodes/directory entries, and file contents.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/arcfs/imgsh/internal/logging"
	"github.com/arcfs/imgsh/internal/session"
	"github.com/arcfs/imgsh/internal/shell"
)

const version = "imgsh 1.0"

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:  imgsh [option] <image_file>")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprintln(os.Stderr, "  -h    print this help, then exit")
	fmt.Fprintln(os.Stderr, "  -V    print version number, then exit")
	fmt.Fprintln(os.Stderr, "  -v    verbosely report processing")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Example:")
	fmt.Fprintln(os.Stderr, "  imgsh -v sample.ext4")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, in *os.File, out *os.File) int {
	fs := flag.NewFlagSet("imgsh", flag.ContinueOnError)
	fs.Usage = usage
	printVersion := fs.Bool("V", false, "print version number, then exit")
	verbose := fs.Bool("v", false, "verbosely report processing")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if *printVersion {
		fmt.Fprintln(out, version)
		return 0
	}

	log := logging.New(*verbose)

	reg := session.NewRegistry(log)
	if err := reg.Register(session.NewExt4Facade()); err != nil {
		fmt.Fprintln(out, "failed to register ext4 filesystem:", err)
		return 1
	}
	if err := reg.Register(session.NewFatFacade()); err != nil {
		fmt.Fprintln(out, "failed to register FAT filesystem:", err)
		return 1
	}

	sh := shell.New(reg, in, out)

	if imagePath := fs.Arg(0); imagePath != "" {
		if _, err := reg.Dispatch(out, "mount", []string{imagePath}); err != nil {
			fmt.Fprintln(out, "failed to mount:", err)
		}
	}

	return sh.Run()
}
