package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriteTestCreatesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewWriter(dir, zap.NewNop())

	msg, err := w.WriteTest("login_test.py", "def test_login(): pass\n")
	require.NoError(t, err)
	assert.Contains(t, msg, "Test written to ")
	assert.Contains(t, msg, "login_test.py")

	data, err := os.ReadFile(filepath.Join(dir, "login_test.py"))
	require.NoError(t, err)
	assert.Equal(t, "def test_login(): pass\n", string(data))
}

func TestWriteTestOverwrites(t *testing.T) {
	w := NewWriter(t.TempDir(), zap.NewNop())

	_, err := w.WriteTest("t.py", "v1")
	require.NoError(t, err)
	_, err = w.WriteTest("t.py", "v2")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(w.Dir(), "t.py"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestWriteTestRejectsUnsafeNames(t *testing.T) {
	w := NewWriter(t.TempDir(), zap.NewNop())

	for _, name := range []string{"", "../escape.py", "sub/dir.py", `sub\dir.py`, "a..b.py"} {
		_, err := w.WriteTest(name, "x")
		assert.Error(t, err, "name %q should be rejected", name)
	}
}
