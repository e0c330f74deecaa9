package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeSplitsVerbAndArgs(t *testing.T) {
	verb, args := tokenize("cat README.TXT > out.txt")
	assert.Equal(t, "cat", verb)
	assert.Equal(t, []string{"README.TXT", ">", "out.txt"}, args)
}

func TestTokenizeEmptyLine(t *testing.T) {
	verb, args := tokenize("   ")
	assert.Equal(t, "", verb)
	assert.Nil(t, args)
}

func TestCompletionsPrefixMatch(t *testing.T) {
	cmds := []string{"mount", "umount", "ls", "ls-long"}
	assert.Equal(t, []string{"ls", "ls-long"}, completions(cmds, "ls"))
	assert.Equal(t, []string{"mount"}, completions(cmds, "mou"))
	assert.Empty(t, completions(cmds, "zzz"))
}
