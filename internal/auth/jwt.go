package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/service"
	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthenticated = errors.New("unauthenticated")

type Claims struct {
	UserID int64      `json:"user_id"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

func NewAccessToken(secret, issuer string, ttl time.Duration, claims Claims) (string, error) {
	now := time.Now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(claims.UserID, 10),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Identifier определяет пользователя запроса.
// С секретом: Bearer токен в заголовке или ?token= (браузерный websocket не шлёт заголовки).
// Без секрета (dev): заголовки X-User-Id и X-User-Role или ?user_id=&role=.
type Identifier struct {
	secret string
}

func NewIdentifier(secret string) *Identifier {
	return &Identifier{secret: secret}
}

func (i *Identifier) Enabled() bool {
	return i.secret != ""
}

func (i *Identifier) Identify(r *http.Request) (service.Actor, error) {
	if i.secret == "" {
		return identifyByHeaders(r)
	}

	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return service.Actor{}, ErrUnauthenticated
	}

	claims, err := ParseToken(i.secret, token)
	if err != nil {
		return service.Actor{}, ErrUnauthenticated
	}
	return service.Actor{UserID: claims.UserID, Role: claims.Role}, nil
}

func identifyByHeaders(r *http.Request) (service.Actor, error) {
	rawID := r.Header.Get("X-User-Id")
	role := r.Header.Get("X-User-Role")
	if rawID == "" {
		rawID = r.URL.Query().Get("user_id")
		role = r.URL.Query().Get("role")
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return service.Actor{}, ErrUnauthenticated
	}
	return service.Actor{UserID: id, Role: model.Role(role)}, nil
}
