package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/codeshot-be/internal/apperrors"
	"github.com/isdelr/codeshot-be/internal/config"
	pkgerrors "github.com/pkg/errors"
)

// TokenService issues and verifies stateless bearer tokens.
// Expiry is the only way a token stops being valid.
type TokenService struct {
	key        []byte
	method     jwt.SigningMethod
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService from the signing settings in cfg.
func NewTokenService(cfg *config.Config) (*TokenService, error) {
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, pkgerrors.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("empty signing secret")
	}
	return &TokenService{
		key:        []byte(cfg.SecretKey),
		method:     method,
		defaultTTL: cfg.AccessTokenTTL(),
		now:        time.Now,
	}, nil
}

// IssueToken creates a signed token for username valid for ttl.
// A non-positive ttl uses the configured default.
func (s *TokenService) IssueToken(username string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", pkgerrors.Wrap(err, "sign token")
	}
	return signed, nil
}

// VerifyToken checks signature and expiry and returns the token subject.
// A token whose expiry equals the current second is already expired.
func (s *TokenService) VerifyToken(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", pkgerrors.Wrap(apperrors.ErrUnauthenticated, err.Error())
	}

	if claims.Subject == "" {
		return "", pkgerrors.Wrap(apperrors.ErrUnauthenticated, "token has no subject")
	}
	return claims.Subject, nil
}
