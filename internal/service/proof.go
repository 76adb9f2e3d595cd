package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/storage"
)

const proofKeyPrefix = "proofs"

var defaultProofTypes = []string{"image/jpeg", "image/png", "application/pdf"}

// ProofUpload tells the client where to PUT a proof-of-payment file and
// which key to attach to the deposit afterwards.
type ProofUpload struct {
	Key         string    `json:"key"`
	UploadURL   string    `json:"upload_url"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type proofService struct {
	store        storage.StorageInterface
	allowedTypes map[string]bool
	expiry       time.Duration
}

func NewProofService(store storage.StorageInterface, allowedTypes []string, expiry time.Duration) ProofService {
	if len(allowedTypes) == 0 {
		allowedTypes = defaultProofTypes
	}
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &proofService{store: store, allowedTypes: allowed, expiry: expiry}
}

func (s *proofService) GetUploadURL(ctx context.Context, actor domain.Actor, filename, contentType string) (*ProofUpload, error) {
	logger.EnterMethod("proofService.GetUploadURL", "memberID", actor.MemberID, "contentType", contentType)

	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !s.allowedTypes[contentType] {
		err := domain.Errorf(domain.ErrValidation, "content type %q is not allowed for payment proofs", contentType)
		logger.ExitMethodWithError("proofService.GetUploadURL", err, "memberID", actor.MemberID)
		return nil, err
	}

	key := fmt.Sprintf("%s/%d/%s%s", proofKeyPrefix, actor.MemberID, uuid.NewString(), strings.ToLower(filepath.Ext(filename)))
	uploadURL, err := s.store.GeneratePresignedUploadURL(ctx, key, contentType, s.expiry)
	if err != nil {
		logger.ExitMethodWithError("proofService.GetUploadURL", err, "key", key)
		return nil, fmt.Errorf("failed to generate upload url: %w", err)
	}
	downloadURL, err := s.store.GeneratePresignedDownloadURL(ctx, key, s.expiry)
	if err != nil {
		logger.ExitMethodWithError("proofService.GetUploadURL", err, "key", key)
		return nil, fmt.Errorf("failed to generate download url: %w", err)
	}

	logger.ExitMethod("proofService.GetUploadURL", "key", key)
	return &ProofUpload{
		Key:         key,
		UploadURL:   uploadURL,
		DownloadURL: downloadURL,
		ExpiresAt:   time.Now().Add(s.expiry),
	}, nil
}

// GetDownloadURL lets members fetch their own proofs; admins can fetch any.
func (s *proofService) GetDownloadURL(ctx context.Context, actor domain.Actor, key string) (string, time.Time, error) {
	own := fmt.Sprintf("%s/%d/", proofKeyPrefix, actor.MemberID)
	if !actor.IsAdmin() && !strings.HasPrefix(key, own) {
		return "", time.Time{}, domain.Errorf(domain.ErrForbidden, "proof belongs to another member")
	}
	exists, _, err := s.store.FileExists(ctx, key)
	if err != nil {
		return "", time.Time{}, err
	}
	if !exists {
		return "", time.Time{}, domain.Errorf(domain.ErrNotFound, "proof not found")
	}
	u, err := s.store.GeneratePresignedDownloadURL(ctx, key, s.expiry)
	if err != nil {
		return "", time.Time{}, err
	}
	return u, time.Now().Add(s.expiry), nil
}
