package upload

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const Folder = "devevents"

// Uploader stores raw image bytes and returns a retrievable URL.
type Uploader interface {
	Upload(ctx context.Context, contents []byte) (string, error)
}

type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryUploader(cloudName, apiKey, apiSecret string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)

	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %v", err)
	}

	return &CloudinaryUploader{cld: cld}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, contents []byte) (string, error) {
	result, err := u.cld.Upload.Upload(ctx, bytes.NewReader(contents), uploader.UploadParams{
		Folder: Folder,
	})

	if err != nil {
		return "", err
	}

	return result.SecureURL, nil
}
