// Package storage keeps uploaded post images and hands back an opaque reference.
package storage

import (
	"context"
	"mime/multipart"
	"strings"
)

// BlobStore persists one upload and returns the reference recorded on the post.
type BlobStore interface {
	Save(ctx context.Context, fh *multipart.FileHeader) (string, error)
	// Delete removes a stored blob; a missing blob is not an error.
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
}

const postsFolder = "posts"

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
