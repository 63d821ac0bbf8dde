package botapi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunks(t *testing.T) {
	assert.Equal(t, []string{""}, chunks("", 10))
	assert.Equal(t, []string{"short"}, chunks("short", 10))

	text := "1. First\nread\n\n2. Second\nread\n\n3. Third"
	assert.Equal(t, []string{"1. First\nread", "2. Second\nread", "3. Third"}, chunks(text, 16))

	// no breaks, cut by the limit in runes
	assert.Equal(t, []string{"ааа", "ааа", "а"}, chunks("ааааааа", 3))

	// invalid utf-8 is replaced, not cut in the middle
	broken := strings.Repeat("a\xff", 5000) + "\nread"
	var total int
	for _, c := range chunks(broken, maxMessageLen) {
		assert.LessOrEqual(t, len([]rune(c)), maxMessageLen)
		total += len([]rune(c))
	}
	assert.Equal(t, 10005, total)

	long := strings.Repeat("article\n\n", 1000)
	for _, c := range chunks(long, maxMessageLen) {
		assert.LessOrEqual(t, len([]rune(c)), maxMessageLen)
		assert.False(t, strings.HasPrefix(c, "\n"))
	}
}
