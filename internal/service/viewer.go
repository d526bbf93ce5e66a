package service

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/msomdec/birthday-bot/internal/domain"
)

const viewerAudience = "birthday-directory"

// ViewerTokenTTL is how long a directory link stays valid.
const ViewerTokenTTL = 24 * time.Hour

// ViewerService issues and validates the signed tokens behind read-only
// web directory links.
type ViewerService struct {
	key []byte
	now func() time.Time
}

// NewViewerService derives the token signing key from secret.
func NewViewerService(secret string) (*ViewerService, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: viewer secret is required", domain.ErrConfiguration)
	}
	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("birthday-bot viewer token v1"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive viewer key: %w", err)
	}
	return &ViewerService{key: key, now: time.Now}, nil
}

// Issue returns a token granting userID read access for 24 hours.
func (s *ViewerService) Issue(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Audience:  jwt.ClaimStrings{viewerAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ViewerTokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Validate parses tokenString and returns the member ID it was issued to.
func (s *ViewerService) Validate(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	},
		jwt.WithAudience(viewerAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", domain.ErrUnauthorized
	}
	if claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}
