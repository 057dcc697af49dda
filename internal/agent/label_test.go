package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"one two", "three"}, wrap("one two three", 7))
	assert.Equal(t, []string{"first", "", "second"}, wrap("first\n\nsecond", 20))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, wrap("abcdefghij", 4))
	assert.Equal(t, []string{"a", "bcde", "f"}, wrap("a bcdef", 4))
}

func TestPreview(t *testing.T) {
	short := "short text"
	assert.Equal(t, short, preview(short))

	long := strings.Repeat("é", 60)
	got := preview(long)
	assert.Equal(t, strings.Repeat("é", 50)+"...", got)
}
