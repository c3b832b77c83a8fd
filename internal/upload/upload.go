// Package upload forwards user images to an external host and returns the
// public URL.
package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"clean-street/internal/apperr"
	"clean-street/internal/config"

	"github.com/sirupsen/logrus"
)

const (
	ProviderCloudinary = "cloudinary"
	ProviderS3         = "s3"
)

var (
	ErrNotConfigured = apperr.Validation("File uploads are not configured")
	ErrNotImage      = apperr.Validation("Only image uploads are allowed")
)

// File is an image held in memory; uploads are capped at a few MB.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f *File) Size() int64 { return int64(len(f.Data)) }

// Extension picks a file extension from the sniffed type, falling back to
// the client supplied name.
func (f *File) Extension() string {
	if ext, ok := imageExtensions[f.ContentType]; ok {
		return ext
	}
	return strings.ToLower(filepath.Ext(f.Name))
}

type Uploader interface {
	Upload(ctx context.Context, file *File) (string, error)
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// New returns the uploader selected by UPLOAD_PROVIDER.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (Uploader, error) {
	switch cfg.UploadProvider {
	case "":
		log.Info("File uploads disabled")
		return Disabled{}, nil
	case ProviderCloudinary:
		if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
			return nil, fmt.Errorf("cloudinary uploads need CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
		log.WithField("cloud", cfg.CloudinaryCloudName).Info("Uploading images to Cloudinary")
		return NewCloudinary(CloudinaryOptions{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.UploadFolder,
		}, log), nil
	case ProviderS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 uploads need S3_BUCKET")
		}
		log.WithField("bucket", cfg.S3Bucket).Info("Uploading images to S3")
		return NewS3(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicURL:       cfg.S3PublicURL,
			Folder:          cfg.UploadFolder,
		}, log)
	default:
		return nil, fmt.Errorf("unknown upload provider %q", cfg.UploadProvider)
	}
}

// Disabled rejects every upload.
type Disabled struct{}

func (Disabled) Upload(context.Context, *File) (string, error) {
	return "", ErrNotConfigured
}

// FromMultipart reads fh into memory, enforcing maxSize and sniffing the
// content so only images get through.
func FromMultipart(fh *multipart.FileHeader, maxSize int64) (*File, error) {
	if fh.Size > maxSize {
		return nil, tooLarge(maxSize)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, apperr.Validation("Could not read uploaded file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return nil, apperr.Validation("Could not read uploaded file")
	}

	return Sniff(fh.Filename, data, maxSize)
}

// Sniff validates raw bytes as an image upload.
func Sniff(name string, data []byte, maxSize int64) (*File, error) {
	if int64(len(data)) > maxSize {
		return nil, tooLarge(maxSize)
	}
	if len(data) == 0 {
		return nil, apperr.Validation("Uploaded file is empty")
	}

	// DetectContentType never reports svg; xml and html fall through as text
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotImage
	}

	return &File{Name: filepath.Base(name), ContentType: contentType, Data: data}, nil
}

func tooLarge(maxSize int64) *apperr.Error {
	return apperr.Validation(fmt.Sprintf("File is larger than %d bytes", maxSize))
}
