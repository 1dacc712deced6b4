package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// FileStorage is where user uploads live.
type FileStorage interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

const avatarFolder = "clubhub/avatars"

type CloudinaryService struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &CloudinaryService{
		cld:    cld,
		folder: avatarFolder,
	}, nil
}

// Store uploads data and returns its secure URL.
func (s *CloudinaryService) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	resourceType := "auto"
	if strings.HasPrefix(contentType, "image/") {
		resourceType = "image"
	}

	uploadResult, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:       s.folder,
		ResourceType: resourceType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if uploadResult.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload rejected: %s", uploadResult.Error.Message)
	}

	return uploadResult.SecureURL, nil
}

// Delete removes the asset behind url. URLs that were not produced by
// Cloudinary are ignored.
func (s *CloudinaryService) Delete(ctx context.Context, url string) error {
	publicID, err := PublicIDFromURL(url)
	if err != nil {
		return nil
	}
	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("failed to delete from Cloudinary: %w", err)
	}
	return nil
}

// PublicIDFromURL extracts "folder/name" from
// https://res.cloudinary.com/<cloud>/image/upload/v123/folder/name.jpg.
func PublicIDFromURL(url string) (string, error) {
	_, rest, ok := strings.Cut(url, "/upload/")
	if !ok || rest == "" {
		return "", errors.New("not a cloudinary upload url")
	}
	parts := strings.Split(rest, "/")
	if len(parts) > 1 && isVersionSegment(parts[0]) {
		parts = parts[1:]
	}
	id := strings.Join(parts, "/")
	id = strings.TrimSuffix(id, path.Ext(id))
	if id == "" {
		return "", errors.New("not a cloudinary upload url")
	}
	return id, nil
}

func isVersionSegment(s string) bool {
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
