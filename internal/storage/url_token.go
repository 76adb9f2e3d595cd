package storage

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidURLToken = errors.New("invalid or expired storage token")

// URL operations a token can be bound to.
const (
	OpUpload   = "upload"
	OpDownload = "download"
)

const defaultURLExpiry = 15 * time.Minute

// urlClaims binds a presigned URL to one key and one operation.
type urlClaims struct {
	ContentType string `json:"ctype,omitempty"`
	jwt.RegisteredClaims
}

func (m *MockStorageService) signURLToken(op, key, contentType string, expiresIn time.Duration) (string, error) {
	if expiresIn <= 0 {
		expiresIn = defaultURLExpiry
	}
	now := time.Now()
	claims := urlClaims{
		ContentType: contentType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   key,
			Audience:  jwt.ClaimStrings{op},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
}

// VerifyURLToken checks that token was issued by this store for op on key
// and has not expired. For uploads it returns the content type the URL was
// issued for, if any.
func (m *MockStorageService) VerifyURLToken(token, op, key string) (string, error) {
	claims := &urlClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(op),
		jwt.WithSubject(key),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", ErrInvalidURLToken
	}
	return claims.ContentType, nil
}
