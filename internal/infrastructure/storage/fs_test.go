package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bionicotaku/lingo-services-videos/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
)

func newTestFSStore(t *testing.T) (*FSStore, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "media")
	store, err := NewFSStore(&conf.FSStorage{Root: root, BaseURL: "/media/"}, log.NewStdLogger(io.Discard))
	require.NoError(t, err)
	return store, root
}

func TestFSStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, root := newTestFSStore(t)

	obj, err := store.Store(ctx, []byte("frame-data"), "Intro.MP4")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(obj.Name, ".mp4"))
	require.Equal(t, "/media/"+obj.Name, obj.URL)
	require.EqualValues(t, len("frame-data"), obj.Size)
	require.Equal(t, "video/mp4", obj.ContentType)

	_, err = os.Stat(filepath.Join(root, obj.Name))
	require.NoError(t, err)

	rc, err := store.Open(ctx, obj.Name)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	require.Equal(t, "frame-data", string(body))

	require.NoError(t, store.Delete(ctx, obj.Name))
	_, err = store.Open(ctx, obj.Name)
	require.ErrorIs(t, err, ErrObjectNotFound)

	// 重复删除视为成功
	require.NoError(t, store.Delete(ctx, obj.Name))
}

func TestFSStoreGeneratesUniqueNames(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFSStore(t)

	a, err := store.Store(ctx, []byte("a"), "same.mp4")
	require.NoError(t, err)
	b, err := store.Store(ctx, []byte("b"), "same.mp4")
	require.NoError(t, err)
	require.NotEqual(t, a.Name, b.Name)
}

func TestFSStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFSStore(t)

	_, err := store.Open(ctx, "../etc/passwd")
	require.ErrorIs(t, err, ErrInvalidObjectName)
	require.ErrorIs(t, store.Delete(ctx, ""), ErrInvalidObjectName)
}

func TestNewObjectNameKeepsExtension(t *testing.T) {
	require.True(t, strings.HasSuffix(newObjectName("clip.webm"), ".webm"))
	require.NotContains(t, newObjectName("../../x.mp4"), "/")
	name := newObjectName("noext")
	require.Len(t, name, 36)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, _, err := New(context.Background(), &conf.Storage{Driver: "ftp"}, log.NewStdLogger(io.Discard))
	require.Error(t, err)
}
