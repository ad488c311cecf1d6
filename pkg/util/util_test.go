package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandStr(t *testing.T) {
	s := RandStr(10)

	assert.Len(t, s, 10)
	for _, r := range s {
		assert.Contains(t, charset, string(r))
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken(32)
	require.NoError(t, err)

	b, err := GenerateToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestInContainer(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, ".dockerenv")

	assert.False(t, inContainer([]string{marker}, ""))
	assert.True(t, inContainer([]string{marker}, "podman"))

	require.NoError(t, os.WriteFile(marker, nil, 0o644))
	assert.True(t, inContainer([]string{marker}, ""))
}
