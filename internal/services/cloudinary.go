package services

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// AvatarUploader stores an avatar image and returns its public URL.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, userID string, file io.Reader) (string, error)
}

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
		folder: "mindnest/avatars",
	}, nil
}

// UploadAvatar uploads to a per-user public id, so a new avatar replaces the previous one.
func (s *CloudinaryService) UploadAvatar(ctx context.Context, userID string, file io.Reader) (string, error) {
	overwrite := true
	uploadResult, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     userID,
		Overwrite:    &overwrite,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if uploadResult.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", uploadResult.Error.Message)
	}

	return uploadResult.SecureURL, nil
}
