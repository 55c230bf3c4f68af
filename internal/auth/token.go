package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taskvault/taskvault/internal/config"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong
// algorithm, expiry, malformed token, empty subject. Callers get no finer
// distinction.
var ErrInvalidToken = errors.New("token invalid or expired")

// TokenIssuer signs and verifies bearer session tokens. All parameters come
// from the config struct handed over at construction; nothing is read from
// the environment here.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time // injectable clock for tests
}

func NewTokenIssuer(cfg config.AuthConfig) *TokenIssuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenIssuer{
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// Issue signs an HS256 token whose subject is the user id.
func (ti *TokenIssuer) Issue(userID string) (string, error) {
	now := ti.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.issuer,
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
}

// Verify checks signature and expiry and resolves the owning user id.
// Only HS256 is accepted; a token signed with any other method fails.
func (ti *TokenIssuer) Verify(token string) (string, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) { return ti.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
