package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid"
)

// LocalStore writes uploads below Root; the router serves Root at BaseURL.
type LocalStore struct {
	Root    string
	BaseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStore{Root: root, BaseURL: baseURL}
}

func (s *LocalStore) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	ref := path.Join(postsFolder, id.String()+ext)

	dst := filepath.Join(s.Root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return "", err
	}
	return ref, out.Close()
}

func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if ref == "" || isAbsoluteURL(ref) {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(path.Clean("/" + ref))))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *LocalStore) URL(ref string) string {
	if ref == "" || isAbsoluteURL(ref) {
		return ref
	}
	return s.BaseURL + ref
}
