package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"anoa.com/civicreport/pkg/apperror"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var (
	ErrUpload = fmt.Errorf("image upload failed: %w", apperror.ErrUpstream)
	ErrRemove = fmt.Errorf("image removal failed: %w", apperror.ErrUpstream)
)

// UploadResult identifies an uploaded image on the remote host.
type UploadResult struct {
	URL      string
	PublicID string
}

// ImageStorage defines contract for image storage provider (Cloudinary implementation).
type ImageStorage interface {
	// UploadImage uploads image from reader. folder is a logical folder in
	// storage (e.g. "reports").
	UploadImage(ctx context.Context, r io.Reader, folder, fileName string) (*UploadResult, error)
	// DeleteImage releases a single remote image by public id.
	DeleteImage(ctx context.Context, publicID string) error
	// DeleteImages releases several remote images in one call.
	DeleteImages(ctx context.Context, publicIDs []string) error
}

// CloudinaryConfig holds the credentials for a Cloudinary account. URL takes
// precedence, then the individual fields, then the CLOUDINARY_URL variable.
// UploadPrefix overrides the API host, e.g. https://api-eu.cloudinary.com.
type CloudinaryConfig struct {
	URL          string
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPrefix string
}

type cloudinaryStorage struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStorage creates Cloudinary-backed implementation of ImageStorage.
func NewCloudinaryStorage(cfg CloudinaryConfig) (ImageStorage, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	switch {
	case cfg.URL != "":
		cld, err = cloudinary.NewFromURL(cfg.URL)
	case cfg.CloudName != "":
		cld, err = cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	default:
		cld, err = cloudinary.New()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}

	// Ensure HTTPS URLs by default.
	cld.Config.URL.Secure = true

	// the upload and admin clients hold their own copy of the configuration
	if cfg.UploadPrefix != "" {
		cld.Upload.Config.API.UploadPrefix = cfg.UploadPrefix
		cld.Admin.Config.API.UploadPrefix = cfg.UploadPrefix
	}

	return &cloudinaryStorage{cld: cld}, nil
}

func (s *cloudinaryStorage) UploadImage(ctx context.Context, r io.Reader, folder, fileName string) (*UploadResult, error) {
	if s == nil || s.cld == nil {
		return nil, errors.New("cloudinary storage is not initialized")
	}

	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	params := uploader.UploadParams{
		Folder:         folder,
		PublicID:       fmt.Sprintf("%d-%s", time.Now().UnixNano(), base),
		UniqueFilename: api.Bool(true),
		Overwrite:      api.Bool(false),
		ResourceType:   "auto",
	}

	// Apply WebP conversion and compression only for images
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".gif", ".webp":
		params.Format = "webp"
		params.Transformation = "q_auto"
	}

	resp, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("%w: %s", ErrUpload, resp.Error.Message)
	}
	if resp.SecureURL == "" || resp.PublicID == "" {
		return nil, fmt.Errorf("%w: cloudinary returned an empty url or public id", ErrUpload)
	}

	return &UploadResult{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

func (s *cloudinaryStorage) DeleteImage(ctx context.Context, publicID string) error {
	if s == nil || s.cld == nil {
		return errors.New("cloudinary storage is not initialized")
	}

	// Invalidate: true helps to clear CDN cache
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:   publicID,
		Invalidate: api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemove, err)
	}

	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("%w: cloudinary destroy api returned result %q", ErrRemove, resp.Result)
	}

	return nil
}

func (s *cloudinaryStorage) DeleteImages(ctx context.Context, publicIDs []string) error {
	if s == nil || s.cld == nil {
		return errors.New("cloudinary storage is not initialized")
	}
	if len(publicIDs) == 0 {
		return nil
	}

	resp, err := s.cld.Admin.DeleteAssets(ctx, admin.DeleteAssetsParams{
		PublicIDs:  publicIDs,
		Invalidate: api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemove, err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("%w: %s", ErrRemove, resp.Error.Message)
	}

	return nil
}
