package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroOr(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, ZeroOr(0, 1))
	assert.Equal(t, "a", ZeroOr("a", "b"))
}

func TestEmptyOr(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []int{1}, EmptyOr([]int{}, []int{1}))
	assert.Equal(t, []int{2}, EmptyOr([]int{2}, []int{1}))
}

func TestExpandPath(t *testing.T) {
	t.Parallel()
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	path, err := ExpandPath("~/.config/crumb")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config/crumb"), path)

	path, err = ExpandPath("/tmp/crumb")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/crumb", path)
}

func TestYaml(t *testing.T) {
	t.Parallel()
	type sample struct {
		Name string `yaml:"name"`
		Size int    `yaml:"size"`
	}
	file := filepath.Join(t.TempDir(), "nested", "sample.yml")
	require.NoError(t, WriteYaml(file, sample{Name: "jar", Size: 3}))

	got := sample{Size: 1}
	require.NoError(t, ReadYaml(file, &got))
	assert.Equal(t, sample{Name: "jar", Size: 3}, got)

	require.NoError(t, os.WriteFile(file, []byte("name: partial\n"), 0o600))
	got = sample{Size: 7}
	require.NoError(t, ReadYaml(file, &got))
	assert.Equal(t, sample{Name: "partial", Size: 7}, got)

	assert.Error(t, ReadYaml(filepath.Join(t.TempDir(), "missing.yml"), &got))
}
