// Package storage keeps uploaded post images outside the document store.
// The post only holds the reference string Save returns.
package storage

import (
	"context"
	"mime/multipart"
	"path/filepath"
	"strings"
)

type ImageStore interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	// URL turns a reference returned by Save into a public address.
	URL(ref string) string
	Delete(ctx context.Context, ref string) error
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func imageExtension(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext, allowedExtensions[ext]
}
