package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bionicotaku/lingo-services-videos/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

// FSStore 将媒体文件保存在本地目录中。
type FSStore struct {
	root    string
	baseURL string
	log     *log.Helper
}

var _ Backend = (*FSStore)(nil)

// NewFSStore 创建根目录（如不存在）并返回 FSStore。
func NewFSStore(cfg *conf.FSStorage, logger log.Logger) (*FSStore, error) {
	if cfg == nil || cfg.Root == "" {
		return nil, errors.New("fs storage: root is required")
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("fs storage: create root: %w", err)
	}
	return &FSStore{
		root:    cfg.Root,
		baseURL: cfg.BaseURL,
		log:     log.NewHelper(logger),
	}, nil
}

// Store 先写临时文件再重命名，读者不会看到半写入的对象。
func (s *FSStore) Store(ctx context.Context, data []byte, suggestedName string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	name := newObjectName(suggestedName)

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("fs storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return Object{}, fmt.Errorf("fs storage: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return Object{}, fmt.Errorf("fs storage: close: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.root, name)); err != nil {
		_ = os.Remove(tmpName)
		return Object{}, fmt.Errorf("fs storage: rename: %w", err)
	}

	s.log.WithContext(ctx).Debugf("stored media object: name=%s size=%d", name, len(data))
	return Object{
		Name:        name,
		URL:         joinURL(s.baseURL, name),
		ContentType: ContentType(name),
		Size:        int64(len(data)),
	}, nil
}

// Open 打开对象读取流。
func (s *FSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateObjectName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("fs storage: open: %w", err)
	}
	return f, nil
}

// Delete 删除对象；对象不存在时视为成功。
func (s *FSStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateObjectName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("fs storage: delete: %w", err)
	}
	return nil
}
