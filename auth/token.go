package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rpupo63/collage-backend/errs"
)

// AdminRole is the only role allowed to mutate posts
const AdminRole = "admin"

var bearerPattern = regexp.MustCompile(`(?i)^Bearer\s+(.+)$`)

// Claims is the payload of an admin token
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// BearerToken extracts the token of an Authorization header.
func BearerToken(header string) (string, error) {
	m := bearerPattern.FindStringSubmatch(header)
	if m == nil {
		return "", errs.ErrMissingToken
	}
	return m[1], nil
}

// Verifier checks HS256 admin tokens against a shared secret
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) Verifier {
	return Verifier{secret: []byte(secret), now: time.Now}
}

// WithClock returns a copy of v that evaluates expiry against now.
func (v Verifier) WithClock(now func() time.Time) Verifier {
	v.now = now
	return v
}

// Verify parses token and returns its claims when it is a valid admin token.
// exp is honored when present; tokens without exp do not expire.
func (v Verifier) Verify(token string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, errs.ErrSecretMissing
	}
	if token == "" {
		return nil, errs.ErrMissingToken
	}

	now := v.now
	if now == nil {
		now = time.Now
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", errs.ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidToken, err)
	}

	if claims.Role != AdminRole {
		return nil, errs.NewInsufficientRoleError(AdminRole, claims.Role)
	}
	return claims, nil
}

// VerifyHeader combines BearerToken and Verify.
func (v Verifier) VerifyHeader(header string) (*Claims, error) {
	token, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	return v.Verify(token)
}

// Issue signs an admin token for subject. A zero ttl yields a token without exp.
func Issue(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errs.ErrSecretMissing
	}

	now := time.Now()
	claims := Claims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
