package auth

import (
	"errors"
	"strconv"
	"time"

	"agritech/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
)

const DefaultAccessTTL = 7 * 24 * time.Hour

// HS256 access tokens carrying sub, email and role
type JWTIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func NewJWTIssuer(secret string, ttl time.Duration) (*JWTIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	return &JWTIssuer{secret: []byte(secret), accessTTL: ttl}, nil
}

func (i *JWTIssuer) Issue(user model.User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(user.ID, 10),
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
