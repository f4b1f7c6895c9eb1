package fingerprint

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func makeTree(t *testing.T, fs afero.Fs, root string, files map[string]string) {
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, fs.MkdirAll(filepath.Dir(p), 0700))
		require.NoError(t, afero.WriteFile(fs, p, []byte(content), 0600))
	}
}

func TestTree(t *testing.T) {
	defer goleak.VerifyNone(t)

	fs := afero.NewMemMapFs()
	makeTree(t, fs, "/u1", map[string]string{
		"history.rocrate.zip": strings.Repeat("x", 1000),
		"datasets/a.dat":      "alpha",
		"datasets/b.dat":      "bravo!",
		".export_complete":    "",
	})
	makeTree(t, fs, "/u2", map[string]string{
		"history.rocrate.zip": strings.Repeat("x", 1000),
		"datasets/a.dat":      "alpha",
		"datasets/b.dat":      "bravo!",
		".export_complete":    "",
	})

	m := New(fs, LeafSize(64), NumberOfWorkers(2))
	d1, err := m.Tree(context.Background(), "/u1")
	require.NoError(t, err)
	d2, err := m.Tree(context.Background(), "/u2")
	require.NoError(t, err)

	assert.EqualValues(t, 1011, d1.Size)
	assert.Equal(t, 4, d1.Files)
	assert.Equal(t, d1.String(), d2.String(), "same content at different roots has the same digest")
	assert.True(t, strings.HasPrefix(d1.String(), "blake2b:"))
	assert.Len(t, d1.Sum, 64)

	// in-place edit of same size
	require.NoError(t, afero.WriteFile(fs, "/u2/datasets/a.dat", []byte("alphA"), 0600))
	d3, err := m.Tree(context.Background(), "/u2")
	require.NoError(t, err)
	assert.Equal(t, d1.Size, d3.Size)
	assert.NotEqual(t, d1.String(), d3.String())

	// rename
	require.NoError(t, fs.Rename("/u1/datasets/b.dat", "/u1/datasets/c.dat"))
	d4, err := m.Tree(context.Background(), "/u1")
	require.NoError(t, err)
	assert.NotEqual(t, d2.String(), d4.String())
}

func TestTreeSizeAndWalk(t *testing.T) {
	fs := afero.NewMemMapFs()
	makeTree(t, fs, "/staging/u1", map[string]string{
		"a":       "12345",
		"b/c/d":   "123",
		"b/empty": "",
	})
	require.NoError(t, fs.MkdirAll("/staging/u1/e", 0700))

	sz, err := TreeSize(fs, "/staging/u1")
	require.NoError(t, err)
	assert.EqualValues(t, 8, sz)

	entries, err := Walk(fs, "/staging/u1")
	require.NoError(t, err)
	rels := make([]string, 0, len(entries))
	for _, e := range entries {
		rels = append(rels, e.Rel)
	}
	assert.Equal(t, []string{"a", "b", "b/c", "b/c/d", "b/empty", "e"}, rels)

	_, err = TreeSize(fs, "/staging/missing")
	require.Error(t, err)
}

func TestTreeCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	makeTree(t, fs, "/u", map[string]string{"a": "1", "b": "2"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(fs).Tree(ctx, "/u")
	require.ErrorIs(t, err, context.Canceled)
}
