// Package shell implements the interactive command loop: read a line,
// tokenize it, record it in history, dispatch it through the registry,
// report any failure, repeat until quit.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/arcfs/imgsh/internal/session"
)

const defaultPrompt = "imgsh$ "

// Shell owns the read-eval-print loop and its history ring.
type Shell struct {
	reg     *session.Registry
	history *History
	scanner *bufio.Scanner
	out     io.Writer
	prompt  string
}

// New builds a Shell reading lines from in and writing output/errors to
// out. It wires its own History into reg so that the registry's
// `history` verb reflects what this loop has actually seen.
func New(reg *session.Registry, in io.Reader, out io.Writer) *Shell {
	h := &History{}
	reg.SetHistory(h)
	return &Shell{
		reg:     reg,
		history: h,
		scanner: bufio.NewScanner(in),
		out:     out,
		prompt:  defaultPrompt,
	}
}

// Complete returns tab-completion candidates for a partial verb, reusing
// the registry's current command list (generic verbs plus whichever
// façade, if any, is mounted).
func (s *Shell) Complete(text string) []string {
	return completions(s.reg.Commands(), text)
}

// Run executes the read-eval-print loop until `quit` or EOF, returning
// the process exit code (always 0 — only argument errors before the loop
// starts exit 1).
func (s *Shell) Run() int {
	fmt.Fprintln(s.out, "WELCOME TO IMGSH!")
	fmt.Fprintln(s.out, "press 'help' for more info.")

	for {
		fmt.Fprint(s.out, s.prompt)
		if !s.scanner.Scan() {
			break
		}
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		s.history.Add(line)

		verb, args := tokenize(line)
		quit, err := s.reg.Dispatch(s.out, verb, args)
		if err != nil {
			fmt.Fprintf(s.out, "failed to %s: %v\n", verb, err)
			fmt.Fprintln(s.out, "press 'help' for more info.")
		}
		if quit {
			return 0
		}
	}
	return 0
}
