// Package assets talks to the S3-compatible bucket that holds site images and
// keeps it free of orphaned objects.
package assets

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"portfolio/api/internal/util"
)

var ErrUnsupportedContentType = errors.New("only image uploads are accepted")

type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	PublicBaseURL string
	UploadFolder  string
	UploadTTL     time.Duration
}

// Upload is a presigned direct-to-bucket upload.
type Upload struct {
	UploadURL string    `json:"uploadUrl"`
	PublicID  string    `json:"publicId"`
	Src       string    `json:"src"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MinioStore is the remote asset store. A public id is the object key.
type MinioStore struct {
	client *minio.Client
	cfg    Config
}

func NewMinioStore(cfg Config) (*MinioStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("asset endpoint and bucket are required")
	}
	if cfg.UploadTTL <= 0 {
		cfg.UploadTTL = 15 * time.Minute
	}
	cfg.UploadFolder = strings.Trim(cfg.UploadFolder, "/")
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create asset client: %w", err)
	}
	return &MinioStore{client: client, cfg: cfg}, nil
}

// Destroy removes the object. Removing a missing object succeeds.
func (s *MinioStore) Destroy(ctx context.Context, publicID string) error {
	if strings.TrimSpace(publicID) == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("remove asset %s: %w", publicID, err)
	}
	return nil
}

// SignUpload reserves a fresh object key under the upload folder and returns
// a presigned PUT for it.
func (s *MinioStore) SignUpload(ctx context.Context, filename, contentType string) (Upload, error) {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return Upload{}, ErrUnsupportedContentType
	}
	publicID := s.objectKey(filename)
	signed, err := s.client.PresignedPutObject(ctx, s.cfg.Bucket, publicID, s.cfg.UploadTTL)
	if err != nil {
		return Upload{}, fmt.Errorf("presign upload: %w", err)
	}
	return Upload{
		UploadURL: signed.String(),
		PublicID:  publicID,
		Src:       s.URL(publicID),
		ExpiresAt: time.Now().UTC().Add(s.cfg.UploadTTL),
	}, nil
}

// URL is the public delivery URL of an asset.
func (s *MinioStore) URL(publicID string) string {
	if s.cfg.PublicBaseURL != "" {
		return s.cfg.PublicBaseURL + "/" + publicID
	}
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, publicID)
}

func (s *MinioStore) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s.cfg.Bucket)
	}
	return nil
}

var unsafeKeyChars = regexp.MustCompile(`[^a-z0-9._-]+`)

func (s *MinioStore) objectKey(filename string) string {
	base := strings.ToLower(path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/")))
	base = strings.Trim(unsafeKeyChars.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		base = "image"
	}
	if len(base) > 80 {
		base = base[len(base)-80:]
	}
	key := util.NewID("") + "-" + base
	if s.cfg.UploadFolder == "" {
		return key
	}
	return s.cfg.UploadFolder + "/" + key
}

var errAssetsNotConfigured = errors.New("asset store not configured")
