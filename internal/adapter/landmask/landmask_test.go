package landmask

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanclim/icoads-precip-etl/internal/domain"
)

func writeMask(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "landmask.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeMask(t, `# 3x4 test mask
0010
0000

1100
`)
	mask, err := Load(path, 3, 4)
	require.NoError(t, err)

	assert.True(t, mask.Land(0, 2))
	assert.False(t, mask.Land(0, 0))
	assert.False(t, mask.Land(1, 3))
	assert.True(t, mask.Land(2, 0))
	assert.True(t, mask.Land(2, 1))
	assert.False(t, mask.Land(2, 2))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"), 3, 4)
	require.Error(t, err)
}

func TestLoad_WrongColumnCount(t *testing.T) {
	path := writeMask(t, "00100\n0000\n1100\n")
	_, err := Load(path, 3, 4)
	var shapeErr *domain.ShapeMismatchError
	require.ErrorAs(t, err, &shapeErr)
}

func TestLoad_WrongRowCount(t *testing.T) {
	path := writeMask(t, "0010\n0000\n")
	_, err := Load(path, 3, 4)
	var shapeErr *domain.ShapeMismatchError
	require.ErrorAs(t, err, &shapeErr)
}

func TestLoad_UnexpectedCharacter(t *testing.T) {
	path := writeMask(t, "0010\n0x00\n1100\n")
	_, err := Load(path, 3, 4)
	require.Error(t, err)
}
