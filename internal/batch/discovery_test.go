package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{
		"a.txt",
		"b.bin",
		"c.png",
		".hidden.txt",
		"sub/d.txt",
		"sub/deeper/e.txt",
		".git/f.txt",
	} {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(name), 0o600))
	}
	return root
}

func rel(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, len(files))
	for i, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestDiscoverFiles(t *testing.T) {
	root := makeTree(t)
	tests := []struct {
		name      string
		recursive bool
		include   []string
		exclude   []string
		want      []string
	}{
		{"flat", false, nil, nil, []string{"a.txt", "b.bin", "c.png"}},
		{"recursive", true, nil, nil, []string{"a.txt", "b.bin", "c.png", "sub/d.txt", "sub/deeper/e.txt"}},
		{"include", true, []string{"*.txt"}, nil, []string{"a.txt", "sub/d.txt", "sub/deeper/e.txt"}},
		{"exclude", false, nil, []string{"*.png", "b*"}, []string{"a.txt"}},
		{"include and exclude", true, []string{"*.txt"}, []string{"e.*"}, []string{"a.txt", "sub/d.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := discoverFiles([]string{root}, tt.recursive, tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rel(t, root, files))
		})
	}
}

func TestDiscoverFiles_ExplicitFilesAndDuplicates(t *testing.T) {
	root := makeTree(t)
	a := filepath.Join(root, "a.txt")
	png := filepath.Join(root, "c.png")

	files, err := discoverFiles([]string{a, png, a, root}, false, []string{"*.txt"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, rel(t, root, files))
}

func TestDiscoverFiles_Errors(t *testing.T) {
	root := makeTree(t)

	_, err := discoverFiles([]string{filepath.Join(root, "missing")}, false, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")

	_, err = discoverFiles([]string{root}, false, []string{"[unclosed"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pattern")
}

func TestShouldIncludeFile(t *testing.T) {
	assert.True(t, shouldIncludeFile("/x/a.txt", nil, nil))
	assert.True(t, shouldIncludeFile("/x/a.txt", []string{"*.txt"}, nil))
	assert.False(t, shouldIncludeFile("/x/a.txt", []string{"*.bin"}, nil))
	assert.False(t, shouldIncludeFile("/x/a.txt", []string{"*.txt"}, []string{"a.*"}))
	assert.False(t, matchesAnyPattern("/x/a.txt", nil))
}
