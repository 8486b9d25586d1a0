// Package auth issues and verifies the bearer tokens used by the API.
package auth

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is what a verified token carries.
type Claims struct {
	UserID int
	Role   model.Role
}

// Issuer signs and verifies HS256 tokens with a shared secret.
type Issuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, expiry time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// GenerateToken signs a token embedding the user id in "sub" and the role.
func (i *Issuer) GenerateToken(u *model.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  u.ID,
		"role": string(u.Role),
		"iat":  i.now().Unix(),
		"exp":  i.now().Add(i.expiry).Unix(),
	})
	return token.SignedString(i.secret)
}

// ParseToken verifies the signature and expiry and returns the embedded claims.
func (i *Issuer) ParseToken(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	return Claims{UserID: int(sub), Role: model.Role(role)}, nil
}
