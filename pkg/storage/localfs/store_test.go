// Copyright © 2018 One Concern

package localfs

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/oneconcern/gxyarchiver/pkg/errors"
	"github.com/oneconcern/gxyarchiver/pkg/storage"
	"github.com/oneconcern/gxyarchiver/pkg/storage/status"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) storage.Store {
	fs := afero.NewBasePathFs(afero.NewOsFs(), t.TempDir())
	bs := New(fs)
	ctx := context.Background()
	require.NoError(t, bs.Put(ctx, "sixteentons/manifest.json", strings.NewReader("this is the text"), storage.IfNotPresent))
	require.NoError(t, bs.Put(ctx, "seventeentons/manifest.json", strings.NewReader("this is the text for another thing"), storage.IfNotPresent))
	return bs
}

func TestHas(t *testing.T) {
	bs := setupStore(t)

	has, err := bs.Has(context.Background(), "sixteentons/manifest.json")
	require.NoError(t, err)
	require.True(t, has)

	has, err = bs.Has(context.Background(), "fifteentons/manifest.json")
	require.NoError(t, err)
	require.False(t, has)

	has, err = bs.Has(context.Background(), "sixteentons")
	require.NoError(t, err)
	require.False(t, has, "directories are not objects")
}

func TestGet(t *testing.T) {
	bs := setupStore(t)

	b, err := storage.ReadAll(context.Background(), bs, "sixteentons/manifest.json")
	require.NoError(t, err)
	assert.Equal(t, "this is the text", string(b))

	_, err = bs.Get(context.Background(), "fifteentons/manifest.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotExists))
}

func TestPut(t *testing.T) {
	bs := setupStore(t)
	ctx := context.Background()

	err := bs.Put(ctx, "sixteentons/manifest.json", bytes.NewBufferString("again"), storage.IfNotPresent)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrExists))

	require.NoError(t, bs.Put(ctx, "sixteentons/manifest.json", bytes.NewBufferString("again"), storage.OverWrite))
	b, err := storage.ReadAll(ctx, bs, "sixteentons/manifest.json")
	require.NoError(t, err)
	assert.Equal(t, "again", string(b))

	err = bs.Put(ctx, "/", bytes.NewBufferString("root"), storage.OverWrite)
	assert.True(t, errors.Is(err, status.ErrInvalidKey))
}

func TestRename(t *testing.T) {
	bs := setupStore(t)
	ctx := context.Background()

	require.NoError(t, bs.Put(ctx, "b1/.manifest.json.part", strings.NewReader("pending"), storage.IfNotPresent))
	require.NoError(t, bs.Rename(ctx, "b1/.manifest.json.part", "b1/manifest.json"))

	has, err := bs.Has(ctx, "b1/.manifest.json.part")
	require.NoError(t, err)
	assert.False(t, has)
	b, err := storage.ReadAll(ctx, bs, "b1/manifest.json")
	require.NoError(t, err)
	assert.Equal(t, "pending", string(b))

	err = bs.Rename(ctx, "b1/.manifest.json.part", "b1/manifest.json")
	assert.True(t, errors.Is(err, status.ErrNotExists))
}

func TestDeleteAndList(t *testing.T) {
	bs := setupStore(t)
	ctx := context.Background()

	names, err := bs.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"seventeentons", "sixteentons"}, names)

	require.NoError(t, bs.Delete(ctx, "seventeentons/manifest.json"))
	require.NoError(t, bs.Delete(ctx, "seventeentons/manifest.json"), "deleting twice is not an error")

	names, err = bs.List(ctx, "seventeentons")
	require.NoError(t, err)
	assert.Empty(t, names)

	names, err = bs.List(ctx, "nowhere")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestString(t *testing.T) {
	assert.Equal(t, "localfs", New(afero.NewMemMapFs()).String())
	assert.True(t, strings.HasPrefix(New(afero.NewBasePathFs(afero.NewOsFs(), t.TempDir())).String(), "localfs@"))
}
