package service

import (
	"bytes"
	"context"
	"io"
	"school_quiz_backend/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Type: "local", LocalPath: t.TempDir()}}
	svc := NewStorageService(cfg)
	ctx := context.Background()

	url, err := svc.Upload(ctx, "certificates/attempt_1/certificate_1.pdf", bytes.NewReader([]byte("%PDF")), 4, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/certificates/attempt_1/certificate_1.pdf", url)

	rc, err := svc.Open(ctx, "certificates/attempt_1/certificate_1.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF", string(data))

	require.NoError(t, svc.Delete(ctx, "certificates/attempt_1/certificate_1.pdf"))
	_, err = svc.Open(ctx, "certificates/attempt_1/certificate_1.pdf")
	assert.Error(t, err)
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	p := &LocalStorageProvider{Config: &config.StorageConfig{LocalPath: t.TempDir()}}
	_, err := p.Upload(context.Background(), "../outside.txt", bytes.NewReader(nil), 0, "text/plain")
	assert.Error(t, err)
	_, err = p.Open(context.Background(), "/etc/passwd")
	assert.Error(t, err)
}
