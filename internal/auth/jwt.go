package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims access-токен identity-сервиса: sub = id пользователя, role = роль
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator проверяет HS256-токены и строит Actor
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), now: time.Now}
}

// Issue выпускает токен для локальной разработки и тестов
func (a *Authenticator) Issue(actor model.Actor, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse разбирает токен и возвращает вызывающую сторону
func (a *Authenticator) Parse(tokenString string) (model.Actor, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return model.Actor{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return model.Actor{}, errors.New("invalid or expired token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Actor{}, fmt.Errorf("invalid user id in token: %w", err)
	}
	role := model.Role(claims.Role)
	if !role.Valid() {
		return model.Actor{}, fmt.Errorf("unknown role %q in token", claims.Role)
	}

	return model.Actor{UserID: userID, Role: role}, nil
}
