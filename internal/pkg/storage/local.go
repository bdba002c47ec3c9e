package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
)

type LocalOptions struct {
	// Root is the directory buckets live under. A bucket is a sub directory,
	// the empty bucket is Root itself.
	Root string
}

// Local serves objects from disk through an os.Root so keys cannot escape
// the configured directory.
type Local struct {
	root string
}

func NewLocal(opts LocalOptions) *Local {
	root := opts.Root
	if root == "" {
		root = "."
	}
	return &Local{root: root}
}

func (l *Local) open(bucket string) (*os.Root, error) {
	return os.OpenRoot(filepath.Join(l.root, bucket))
}

func (l *Local) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}

	root, err := l.open(bucket)
	if err != nil {
		return nil, ObjectInfo{}, localError(err)
	}
	defer root.Close()

	f, err := root.Open(key)
	if err != nil {
		return nil, ObjectInfo{}, localError(err)
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, ObjectInfo{}, localError(err)
	}
	return f, localInfo(bucket, key, st), nil
}

func (l *Local) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	root, err := l.open(bucket)
	if err != nil {
		return ObjectInfo{}, localError(err)
	}
	defer root.Close()

	st, err := root.Stat(key)
	if err != nil {
		return ObjectInfo{}, localError(err)
	}
	return localInfo(bucket, key, st), nil
}

func (l *Local) Close() error {
	return nil
}

func localInfo(bucket, key string, st fs.FileInfo) ObjectInfo {
	return ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        st.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(key)),
		UpdatedAt:   st.ModTime(),
	}
}

func localError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrObjectNotFound
	}
	return err
}
