package shell

import "strings"

// tokenize splits a command line on whitespace. The first token is the
// verb; the remainder are args, passed through uninterpreted (so `cat
// NAME > dest` yields args ["NAME", ">", "dest"] and the façade decides
// what ">" means).
func tokenize(line string) (verb string, args []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// completions returns every command in cmds whose prefix matches text,
// mirroring the original readline completion callback's naive
// prefix-length-then-strncmp scan.
func completions(cmds []string, text string) []string {
	var out []string
	for _, c := range cmds {
		if len(c) >= len(text) && strings.HasPrefix(c, text) {
			out = append(out, c)
		}
	}
	return out
}
