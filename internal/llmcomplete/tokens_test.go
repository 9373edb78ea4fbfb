package llmcomplete

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, CountTokens(""))
	assert.Equal(t, 2, CountTokens("hello world"))
	assert.Greater(t, CountTokens("The quick brown fox jumps over the lazy dog."), 5)
}
