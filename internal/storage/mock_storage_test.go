package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStorageService_RoundTrip(t *testing.T) {
	s, err := NewMockStorageService("http://localhost:8080/", t.TempDir(), "test-signing-key")
	require.NoError(t, err)
	ctx := context.Background()
	key := "proofs/7/receipt.png"

	exists, _, err := s.FileExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.SaveFile(key, strings.NewReader("png-bytes")))

	exists, size, err := s.FileExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int64(9), size)

	rc, err := s.ReadFile(key)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.DeleteFile(ctx, key))
	exists, _, err = s.FileExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMockStorageService_URLs(t *testing.T) {
	s, err := NewMockStorageService("http://localhost:8080/", t.TempDir(), "test-signing-key")
	require.NoError(t, err)
	ctx := context.Background()

	up, err := s.GeneratePresignedUploadURL(ctx, "proofs/7/a.png", "image/png", 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up, "http://localhost:8080/api/v1/upload/"))
	assert.Contains(t, up, "key=proofs%2F7%2Fa.png")

	down, err := s.GeneratePresignedDownloadURL(ctx, "proofs/7/a.png", 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(down, "http://localhost:8080/api/v1/download/"))
}

func TestMockStorageService_RejectsTraversal(t *testing.T) {
	s, err := NewMockStorageService("http://localhost", t.TempDir(), "test-signing-key")
	require.NoError(t, err)

	err = s.SaveFile("../../etc/passwd", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = s.ReadFile("")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestNew(t *testing.T) {
	s, err := New(Config{Type: "mock", Dir: t.TempDir(), BaseURL: "http://x", SigningKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &MockStorageService{}, s)

	_, err = New(Config{Type: "s3"})
	assert.Error(t, err)
}

func TestMockStorageService_URLTokens(t *testing.T) {
	s, err := NewMockStorageService("http://localhost", t.TempDir(), "test-signing-key")
	require.NoError(t, err)
	key := "proofs/7/a.png"

	token, err := s.signURLToken(OpUpload, key, "image/png", time.Minute)
	require.NoError(t, err)

	ctype, err := s.VerifyURLToken(token, OpUpload, key)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ctype)

	_, err = s.VerifyURLToken(token, OpDownload, key)
	assert.ErrorIs(t, err, ErrInvalidURLToken)
	_, err = s.VerifyURLToken(token, OpUpload, "proofs/8/a.png")
	assert.ErrorIs(t, err, ErrInvalidURLToken)

	other, err := NewMockStorageService("http://localhost", t.TempDir(), "another-key")
	require.NoError(t, err)
	_, err = other.VerifyURLToken(token, OpUpload, key)
	assert.ErrorIs(t, err, ErrInvalidURLToken)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, urlClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   key,
			Audience:  jwt.ClaimStrings{OpDownload},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	_, err = s.VerifyURLToken(expired, OpDownload, key)
	assert.ErrorIs(t, err, ErrInvalidURLToken)

	_, err = NewMockStorageService("http://localhost", t.TempDir(), "")
	assert.Error(t, err)
}
