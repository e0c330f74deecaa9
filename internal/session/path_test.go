package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushPath(t *testing.T) {
	assert.Equal(t, "/a", pushPath("/", "a"))
	assert.Equal(t, "/a/b", pushPath("/a", "b"))
}

func TestPopPath(t *testing.T) {
	assert.Equal(t, "/", popPath("/"))
	assert.Equal(t, "/", popPath("/a"))
	assert.Equal(t, "/a", popPath("/a/b"))
	assert.Equal(t, "/", popPath(""))
}

func TestPushPathBoundsLength(t *testing.T) {
	long := strings.Repeat("x", maxPathLen)
	got := pushPath("/"+long, "more")
	assert.LessOrEqual(t, len(got), maxPathLen)
}
