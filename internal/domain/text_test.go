package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextLength(t *testing.T) {
	assert.Equal(t, 0, TextLength(""))
	assert.Equal(t, 5, TextLength("hello"))
	assert.Equal(t, 5, TextLength("héllo"))
	assert.Equal(t, 2, TextLength("😀"))
	assert.Equal(t, 1, TextLength("\xff"))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "hel", TruncateText("hello", 3))
	assert.Equal(t, "hello", TruncateText("hello", 10))
	assert.Equal(t, "a", TruncateText("a😀", 2))
	assert.Equal(t, "a😀", TruncateText("a😀", 3))
	assert.Equal(t, "", TruncateText("hello", 0))
}
