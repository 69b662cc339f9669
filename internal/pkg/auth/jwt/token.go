package jwt

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// TokenExpiration defines the default validity window for issued tokens.
	TokenExpiration = 24 * time.Hour

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "ShopStream-Server"
)

// ErrExpired reports a structurally valid token past its expiry.
var ErrExpired = errors.New("token expired")

// ErrInvalid reports a token that failed signature or structural validation.
var ErrInvalid = errors.New("invalid token")

// Verifier validates a credential token and resolves the identity behind it.
// The realtime core depends on this interface only, never on the HMAC
// implementation below, so tests can substitute a stub and production can
// swap in a remote verifier. The context bounds remote round trips.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// HMACVerifier validates HS256-signed tokens issued by the surrounding backend.
type HMACVerifier struct {
	secret []byte
}

// NewHMACVerifier returns a Verifier backed by the shared HMAC secret.
func NewHMACVerifier(secretKey string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secretKey)}
}

// Verify parses and validates the token string, returning the embedded
// identity. Validation is local, so the context is unused here.
func (v *HMACVerifier) Verify(_ context.Context, tokenString string) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})

	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return Identity{}, ErrExpired
		}
		return Identity{}, ErrInvalid
	}

	if !token.Valid || claims.UID == "" {
		return Identity{}, ErrInvalid
	}

	role := Role(strings.ToLower(claims.Role))
	if role != RoleAdmin && role != RoleUser {
		role = RoleUser
	}

	return Identity{UID: claims.UID, Role: role}, nil
}

// GenerateToken creates and signs a new token for the given identity.
// Token issuance belongs to the surrounding backend; this exists for the
// development seed path and for tests.
func GenerateToken(identity Identity, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(duration).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    TokenIssuer,
		},
		UID:  identity.UID,
		Role: string(identity.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(secretKey))
}
