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
	"github.com/google/uuid"

	"catstagram/apierr"
)

const cloudinaryFolder = "catstagram/posts"

// CloudinaryStore uploads images to Cloudinary. The reference is the
// secure delivery URL.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(url string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cloudinary configuration: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if _, ok := imageExtension(file.Filename); !ok {
		return "", apierr.Validation("unsupported image type %q", path.Ext(file.Filename))
	}
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	res, err := s.cld.Upload.Upload(ctx, src, uploader.UploadParams{
		Folder:   cloudinaryFolder,
		PublicID: uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", errors.New("cloudinary upload: empty secure url")
	}
	return res.SecureURL, nil
}

func (s *CloudinaryStore) URL(ref string) string { return ref }

func (s *CloudinaryStore) Delete(ctx context.Context, ref string) error {
	id := publicIDFromURL(ref)
	if id == "" {
		return nil
	}
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: id})
	return err
}

// publicIDFromURL recovers "catstagram/posts/<uuid>" from a delivery URL
// such as https://res.cloudinary.com/demo/image/upload/v1/catstagram/posts/<uuid>.png.
func publicIDFromURL(ref string) string {
	name := path.Base(ref)
	name = strings.TrimSuffix(name, path.Ext(name))
	if _, err := uuid.Parse(name); err != nil {
		return ""
	}
	return cloudinaryFolder + "/" + name
}
