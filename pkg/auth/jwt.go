package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Verifier resolves a bearer credential into a Principal.
type Verifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// JWTVerifier checks HMAC-signed tokens issued by the identity service.
// The subject is read from "sub" or "id", the role from "role".
type JWTVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (Principal, error) {
	if tokenString == "" {
		return Principal{}, ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return Principal{}, fmt.Errorf("%w: unexpected issuer", ErrInvalidToken)
	}

	id, _ := claims["sub"].(string)
	if id == "" {
		id, _ = claims["id"].(string)
	}
	if id == "" {
		return Principal{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}

	roleClaim, _ := claims["role"].(string)
	role := NormalizeRole(roleClaim)
	if role == "" {
		return Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, roleClaim)
	}

	return Principal{ID: id, Role: role}, nil
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
