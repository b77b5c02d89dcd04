package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofrs/uuid"
)

// CloudinaryStore uploads into the posts folder; the reference is the secure URL.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cloudinaryURL string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	res, err := s.cld.Upload.Upload(ctx, f, uploader.UploadParams{
		Folder:   postsFolder,
		PublicID: id.String(),
	})
	if err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", errors.New(res.Error.Message)
	}
	return res.SecureURL, nil
}

// Delete destroys the asset behind a secure URL returned by Save.
func (s *CloudinaryStore) Delete(ctx context.Context, ref string) error {
	publicID := publicIDFromURL(ref)
	if publicID == "" {
		return nil
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return errors.New(res.Error.Message)
	}
	return nil
}

// publicIDFromURL 从 .../upload/v123/posts/<id>.jpg 中取出 posts/<id>
func publicIDFromURL(ref string) string {
	_, rest, ok := strings.Cut(ref, "/upload/")
	if !ok {
		return ""
	}
	if seg, tail, found := strings.Cut(rest, "/"); found && len(seg) > 1 && seg[0] == 'v' && isDigits(seg[1:]) {
		rest = tail
	}
	return strings.TrimSuffix(rest, path.Ext(rest))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func (s *CloudinaryStore) URL(ref string) string {
	return ref
}
