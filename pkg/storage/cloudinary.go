package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gosimple/slug"
)

var ErrNotConfigured = errors.New("image storage is not configured")

// ImageStorage stores catalog images and returns their public URL.
type ImageStorage interface {
	UploadImage(ctx context.Context, r io.Reader, fileName string) (string, error)
	DeleteImage(ctx context.Context, fileURL string) error
}

type cloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStorage reads CLOUDINARY_URL from the environment. Images are
// stored under folder.
func NewCloudinaryStorage(folder string) (ImageStorage, error) {
	cld, err := cloudinary.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true

	return &cloudinaryStorage{cld: cld, folder: folder}, nil
}

func (s *cloudinaryStorage) UploadImage(ctx context.Context, r io.Reader, fileName string) (string, error) {
	if s == nil || s.cld == nil {
		return "", ErrNotConfigured
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if !isImage(ext) {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	base := slug.Make(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
	params := uploader.UploadParams{
		Folder:         s.folder,
		PublicID:       fmt.Sprintf("%d-%s", time.Now().UnixNano(), base),
		Overwrite:      api.Bool(false),
		Format:         "webp",
		Transformation: "q_auto",
	}

	resp, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload image to cloudinary: %w", err)
	}
	if resp.SecureURL == "" {
		return "", fmt.Errorf("cloudinary upload succeeded but secure URL is empty")
	}

	return resp.SecureURL, nil
}

func (s *cloudinaryStorage) DeleteImage(ctx context.Context, fileURL string) error {
	if s == nil || s.cld == nil {
		return ErrNotConfigured
	}

	publicID := publicIDFromURL(fileURL)
	if publicID == "" {
		return fmt.Errorf("could not extract public ID from URL: %s", fileURL)
	}

	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:   publicID,
		Invalidate: api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image from cloudinary: %w", err)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy api returned result: %s", resp.Result)
	}

	return nil
}

func isImage(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}

// publicIDFromURL maps
// https://res.cloudinary.com/demo/image/upload/v123/folder/sample.webp to
// folder/sample.
func publicIDFromURL(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return ""
	}

	parts := strings.Split(u.Path, "/")
	upload := -1
	for i, p := range parts {
		if p == "upload" {
			upload = i
			break
		}
	}
	if upload == -1 || upload+1 >= len(parts) {
		return ""
	}

	rest := parts[upload+1:]
	if isVersion(rest[0]) {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return ""
	}

	id := strings.Join(rest, "/")
	return strings.TrimSuffix(id, filepath.Ext(id))
}

func isVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
