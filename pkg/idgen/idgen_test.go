package idgen

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Next(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^TXN[0-9A-F]{16}$`)
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := g.Next("TXN")
		assert.Regexp(t, pattern, id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestNew_InvalidNode(t *testing.T) {
	_, err := New(4096)
	assert.Error(t, err)
}
