package assets

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMinioStore(t *testing.T, cfg Config) *MinioStore {
	t.Helper()
	if cfg.Endpoint == "" {
		cfg.Endpoint = "assets.example.com"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "portfolio"
	}
	cfg.AccessKey = "access"
	cfg.SecretKey = "secret"
	cfg.Region = "us-east-1"
	s, err := NewMinioStore(cfg)
	require.NoError(t, err)
	return s
}

func TestNewMinioStoreRequiresEndpoint(t *testing.T) {
	_, err := NewMinioStore(Config{Bucket: "b"})
	require.Error(t, err)
}

func TestURL(t *testing.T) {
	withCDN := newTestMinioStore(t, Config{PublicBaseURL: "https://cdn.example.com/"})
	assert.Equal(t, "https://cdn.example.com/portfolio/a.png", withCDN.URL("portfolio/a.png"))

	direct := newTestMinioStore(t, Config{UseSSL: true})
	assert.Equal(t, "https://assets.example.com/portfolio/portfolio/a.png", direct.URL("portfolio/a.png"))
}

func TestSignUploadRejectsNonImages(t *testing.T) {
	s := newTestMinioStore(t, Config{})
	_, err := s.SignUpload(context.Background(), "notes.pdf", "application/pdf")
	assert.True(t, errors.Is(err, ErrUnsupportedContentType))
}

func TestSignUploadBuildsKeyUnderFolder(t *testing.T) {
	s := newTestMinioStore(t, Config{UploadFolder: "/site/", PublicBaseURL: "https://cdn.example.com"})

	upload, err := s.SignUpload(context.Background(), `C:\Photos\My Portrait!.PNG`, "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(upload.PublicID, "site/"), upload.PublicID)
	assert.True(t, strings.HasSuffix(upload.PublicID, "-my-portrait-.png"), upload.PublicID)
	assert.Equal(t, "https://cdn.example.com/"+upload.PublicID, upload.Src)

	signed, err := url.Parse(upload.UploadURL)
	require.NoError(t, err)
	assert.Contains(t, signed.Path, upload.PublicID)
	assert.NotEmpty(t, signed.Query().Get("X-Amz-Signature"))
	assert.False(t, upload.ExpiresAt.IsZero())
}

func TestObjectKeyFallback(t *testing.T) {
	s := newTestMinioStore(t, Config{})
	key := s.objectKey("   ")
	assert.True(t, strings.HasSuffix(key, "-image"), key)
}

func TestDestroyIgnoresBlankID(t *testing.T) {
	s := newTestMinioStore(t, Config{})
	require.NoError(t, s.Destroy(context.Background(), " "))
}
