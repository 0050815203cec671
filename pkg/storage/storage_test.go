package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRecipeImage(t *testing.T) {
	require.NoError(t, Initialize(t.TempDir()))

	rel, err := SaveRecipeImage([]byte("payload"), "png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "recipes"+string(filepath.Separator)))
	assert.True(t, strings.HasSuffix(rel, ".png"))

	data, err := os.ReadFile(filepath.Join(Root(), rel))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestSaveRecipeImageUniqueNames(t *testing.T) {
	require.NoError(t, Initialize(t.TempDir()))

	first, err := SaveRecipeImage([]byte("a"), ".jpg")
	require.NoError(t, err)
	second, err := SaveRecipeImage([]byte("b"), ".jpg")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestRemove(t *testing.T) {
	require.NoError(t, Initialize(t.TempDir()))

	rel, err := SaveRecipeImage([]byte("payload"), ".png")
	require.NoError(t, err)

	require.NoError(t, Remove(rel))
	_, statErr := os.Stat(filepath.Join(Root(), rel))
	assert.True(t, os.IsNotExist(statErr))

	// Removing an already missing or empty path is not an error
	assert.NoError(t, Remove(rel))
	assert.NoError(t, Remove(""))
}

func TestInitializeRejectsEmptyRoot(t *testing.T) {
	assert.Error(t, Initialize(""))
}
